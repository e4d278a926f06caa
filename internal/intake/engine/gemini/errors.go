package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"

	"github.com/yungbote/formhub-backend/internal/intake/engine"
)

func parseHTTPError(status int, raw []byte) error {
	msg := defaultFailureMessage
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error.Message) != "" {
		msg = strings.TrimSpace(env.Error.Message)
	}
	return &engine.UpstreamError{StatusCode: status, Message: msg}
}

// transportError strips the request URL from net/http errors; it carries the credential.
func transportError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &engine.UpstreamError{Message: "Gemini request timed out", Err: err}
	}
	return &engine.UpstreamError{Message: "Gemini request failed: " + err.Error(), Err: err}
}
