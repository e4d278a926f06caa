package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// fallbackMessage matches what the form site shows when the proxy gives no reason.
const fallbackMessage = "Failed to generate story"

type HTTPError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *HTTPError) Error() string {
	if e == nil {
		return "http error"
	}
	msg := strings.TrimSpace(e.Message)
	if msg == "" {
		msg = fallbackMessage
	}
	return fmt.Sprintf("http error: status=%d message=%s", e.StatusCode, msg)
}

func parseHTTPError(status int, raw []byte) error {
	body := strings.TrimSpace(string(raw))

	var env struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && strings.TrimSpace(env.Error) != "" {
		return &HTTPError{StatusCode: status, Message: strings.TrimSpace(env.Error), Body: body}
	}
	if status == http.StatusMethodNotAllowed && body != "" {
		return &HTTPError{StatusCode: status, Message: body, Body: body}
	}
	return &HTTPError{StatusCode: status, Body: body}
}
