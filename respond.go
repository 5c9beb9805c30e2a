package etagcache

import (
	"fmt"
	"net/http"

	serializer "github.com/tranhuy105/KTPM-20242-sub001/pkg/response-serializer"
)

// Respond writes payload as the response body with the given status.
// Payloads are rendered by serializer.Marshal; the Content-Type it picks is
// only set if the handler has not set one.
//
// If the payload cannot be rendered nothing is written and an error
// wrapping serializer.ErrUnsupportedPayload is returned.
func Respond(w http.ResponseWriter, status int, payload any) error {
	body, contentType, err := serializer.Marshal(payload)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}
	if contentType != "" && w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", contentType)
	}
	w.WriteHeader(status)
	if len(body) == 0 {
		return nil
	}
	_, err = w.Write(body)
	return err
}
