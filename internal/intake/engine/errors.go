package engine

import (
	"errors"
	"fmt"
)

var ErrMissingCredential = errors.New("generation credential not configured")

// UpstreamError is any failure of the outbound generation call: a non-2xx status, a
// transport error or a timeout. Message is safe to return to callers.
type UpstreamError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e == nil {
		return "upstream error"
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("upstream error: status=%d", e.StatusCode)
}

func (e *UpstreamError) Unwrap() error { return e.Err }
