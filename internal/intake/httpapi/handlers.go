package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/apierr"
)

type GenerateStoryRequest struct {
	FormData prompt.Answers `json:"formData"`
}

type GenerateStoryResponse struct {
	Story string `json:"story"`
}

type StoryHandler struct {
	svc      *story.Service
	maxBytes int64
}

func NewStoryHandler(svc *story.Service, maxBytes int64) *StoryHandler {
	if maxBytes <= 0 {
		maxBytes = 1 << 20
	}
	return &StoryHandler{svc: svc, maxBytes: maxBytes}
}

// GenerateStory is registered for every method so that non-POST requests get the plain
// text 405 the form site already handles.
func (h *StoryHandler) GenerateStory(c *gin.Context) {
	if c.Request.Method != http.MethodPost {
		c.Header("Allow", http.MethodPost)
		c.String(http.StatusMethodNotAllowed, "Method Not Allowed")
		return
	}

	var req GenerateStoryRequest
	body := http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		status := http.StatusBadRequest
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		respondError(c, apierr.WithMessage(status, "bad_request", msgBadRequest, err))
		return
	}

	text, err := h.svc.Generate(c.Request.Context(), req.FormData)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, GenerateStoryResponse{Story: text})
}

type HealthHandler struct {
	svc *story.Service
}

func NewHealthHandler(svc *story.Service) *HealthHandler {
	return &HealthHandler{svc: svc}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz fails while no credential is configured; /healthz does not.
func (h *HealthHandler) Readyz(c *gin.Context) {
	if err := h.svc.Ready(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "error": msgConfiguration})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
