package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formhub-backend/internal/intake/engine"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/apierr"
)

const (
	msgEmptyInput    = "No sufficient data to generate a story."
	msgConfiguration = "Server configuration error"
	msgBadRequest    = "invalid request body"
)

// errorBody is the wire shape the form site expects: {"error": "<message>"}.
type errorBody struct {
	Error string `json:"error"`
}

// toAPIError is the single place domain errors become statuses and caller-facing messages.
func toAPIError(err error) *apierr.Error {
	var ae *apierr.Error
	if errors.As(err, &ae) {
		return ae
	}
	var upErr *engine.UpstreamError
	switch {
	case errors.Is(err, story.ErrConfiguration):
		return apierr.WithMessage(http.StatusInternalServerError, "configuration_error", msgConfiguration, err)
	case errors.Is(err, prompt.ErrEmptyInput):
		return apierr.WithMessage(http.StatusBadRequest, "empty_input", msgEmptyInput, err)
	case errors.As(err, &upErr):
		return apierr.WithMessage(http.StatusInternalServerError, "upstream_error", upErr.Error(), err)
	default:
		return apierr.WithMessage(http.StatusInternalServerError, "internal_error", "internal server error", err)
	}
}

func respondError(c *gin.Context, err error) {
	ae := toAPIError(err)
	_ = c.Error(ae)
	c.AbortWithStatusJSON(apierr.Status(ae), errorBody{Error: ae.Error()})
}
