package tee

import (
	"bytes"
	"errors"
	"net/http"
)

// State is the position of a ResponseSaver in its lifecycle.
//
//	Pending -> Hashed -> ShortCircuited | FullySent -> Closed
//
// Pending may also move straight to FullySent when the response is sent
// without a fingerprint.
type State int

const (
	Pending State = iota
	Hashed
	ShortCircuited
	FullySent
	Closed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Hashed:
		return "hashed"
	case ShortCircuited:
		return "short-circuited"
	case FullySent:
		return "fully-sent"
	case Closed:
		return "closed"
	}
	return "unknown"
}

// ErrInvalidTransition is returned when a ResponseSaver is asked to move to a
// state it cannot reach from its current one.
var ErrInvalidTransition = errors.New("invalid response state transition")

// ResponseSaver is a wrapper around http.ResponseWriter that holds the
// response in a buffer until the caller decides what to send.
// The header map is shared with the underlying http.ResponseWriter.
//
// When the body grows past the limit, or the handler flushes, the saver
// gives up buffering: what was held is written out and the rest of the
// response goes straight through.
type ResponseSaver struct {
	rw           http.ResponseWriter
	b            *bytes.Buffer
	header       http.Header
	status       int
	wroteHeaders bool
	limit        int
	state        State
	bypassed     bool
}

// NewResponseSaver returns a new ResponseSaver.
// A limit of zero or less buffers bodies of any size.
func NewResponseSaver(w http.ResponseWriter, limit int) *ResponseSaver {
	return &ResponseSaver{
		rw:     w,
		b:      &bytes.Buffer{},
		header: w.Header(),
		limit:  limit,
	}
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Header() http.Header {
	return t.header
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) WriteHeader(statusCode int) {
	// informational responses are not the final response
	if statusCode >= 100 && statusCode < 200 && statusCode != http.StatusSwitchingProtocols {
		t.rw.WriteHeader(statusCode)
		return
	}
	if t.wroteHeaders {
		return
	}
	t.wroteHeaders = true
	t.status = statusCode
}

// Implementation of http.ResponseWriter
func (t *ResponseSaver) Write(b []byte) (int, error) {
	if !t.wroteHeaders {
		t.WriteHeader(http.StatusOK)
	}
	if t.bypassed {
		return t.rw.Write(b)
	}
	if t.state != Pending {
		return 0, ErrInvalidTransition
	}
	if t.limit > 0 && t.b.Len()+len(b) > t.limit {
		if err := t.passthrough(); err != nil {
			return 0, err
		}
		return t.rw.Write(b)
	}
	return t.b.Write(b)
}

// Flush switches the saver to passthrough and flushes the underlying writer.
// A body that has been flushed cannot be fingerprinted.
func (t *ResponseSaver) Flush() {
	if t.state == Pending {
		if !t.wroteHeaders {
			t.WriteHeader(http.StatusOK)
		}
		if err := t.passthrough(); err != nil {
			return
		}
	}
	if !t.bypassed {
		return
	}
	if f, ok := t.rw.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap returns the underlying writer for http.ResponseController.
func (t *ResponseSaver) Unwrap() http.ResponseWriter {
	return t.rw
}

func (t *ResponseSaver) passthrough() error {
	t.bypassed = true
	_, err := t.send()
	return err
}

// Bypassed reports whether the response went out without being held back.
func (t *ResponseSaver) Bypassed() bool {
	return t.bypassed
}

// StatusCode returns the status code of the response.
// A handler that never wrote anything produced a 200.
func (t *ResponseSaver) StatusCode() int {
	if !t.wroteHeaders {
		return http.StatusOK
	}
	return t.status
}

// Body returns the buffered body.
func (t *ResponseSaver) Body() []byte {
	return t.b.Bytes()
}

// State returns the current state.
func (t *ResponseSaver) State() State {
	return t.state
}

// MarkHashed records that the body has been fingerprinted.
func (t *ResponseSaver) MarkHashed() error {
	if t.state != Pending {
		return ErrInvalidTransition
	}
	t.state = Hashed
	return nil
}

// Send writes the held status, headers and body to the underlying writer.
func (t *ResponseSaver) Send() (int, error) {
	if t.state != Pending && t.state != Hashed {
		return 0, ErrInvalidTransition
	}
	return t.send()
}

func (t *ResponseSaver) send() (int, error) {
	t.state = FullySent
	t.rw.WriteHeader(t.StatusCode())
	if t.b.Len() == 0 {
		return 0, nil
	}
	n, err := t.rw.Write(t.b.Bytes())
	t.b.Reset()
	return n, err
}

// ShortCircuit answers with statusCode and no body, in place of the held
// response. Only a fingerprinted response can be short-circuited.
func (t *ResponseSaver) ShortCircuit(statusCode int) error {
	if t.state != Hashed {
		return ErrInvalidTransition
	}
	t.state = ShortCircuited
	t.b.Reset()
	t.rw.WriteHeader(statusCode)
	return nil
}

// Close ends the response. A response that is still held is sent as is.
// Closing twice is an error.
func (t *ResponseSaver) Close() error {
	switch t.state {
	case Closed:
		return ErrInvalidTransition
	case Pending, Hashed:
		if _, err := t.send(); err != nil {
			t.state = Closed
			return err
		}
	}
	t.state = Closed
	return nil
}
