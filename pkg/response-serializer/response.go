// Package serializer turns handler payloads into response bodies.
package serializer

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

const (
	ContentTypeJSON   = "application/json; charset=utf-8"
	ContentTypeText   = "text/plain; charset=utf-8"
	ContentTypeBinary = "application/octet-stream"
)

// ErrUnsupportedPayload is returned for payloads that cannot be turned into
// bytes, such as channels, functions or values with cyclic references.
var ErrUnsupportedPayload = errors.New("unsupported payload")

// Marshal renders payload as a body and returns the content type to send it
// with. Byte slices and readers are sent as is, strings as text, and
// everything else as JSON. A nil payload is an empty body with no content type.
func Marshal(payload any) ([]byte, string, error) {
	switch p := payload.(type) {
	case nil:
		return nil, "", nil
	case json.RawMessage:
		return p, ContentTypeJSON, nil
	case []byte:
		return p, ContentTypeBinary, nil
	case string:
		return []byte(p), ContentTypeText, nil
	case io.Reader:
		b, err := io.ReadAll(p)
		if err != nil {
			return nil, "", fmt.Errorf("%w: read: %w", ErrUnsupportedPayload, err)
		}
		return b, ContentTypeBinary, nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %T: %w", ErrUnsupportedPayload, payload, err)
	}
	return b, ContentTypeJSON, nil
}
