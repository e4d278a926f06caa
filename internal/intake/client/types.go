package client

import "github.com/yungbote/formhub-backend/internal/intake/prompt"

type generateStoryRequest struct {
	FormData prompt.Answers `json:"formData"`
}

type generateStoryResponse struct {
	Story string `json:"story"`
}
