package httpapi

import (
	"net/http"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/logger"
	"github.com/yungbote/formhub-backend/internal/platform/ratelimit"
)

func NewServer(cfg *config.Config, log *logger.Logger, svc *story.Service, lim ratelimit.Limiter) *http.Server {
	h := NewRouter(RouterConfig{
		Log:             log,
		Story:           svc,
		Limiter:         lim,
		AllowedOrigins:  cfg.HTTP.AllowedOrigins,
		MaxRequestBytes: cfg.HTTP.MaxRequestBytes,
		ServiceName:     cfg.Tracing.ServiceName,
	})

	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           h,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout.Duration,
		IdleTimeout:       cfg.HTTP.IdleTimeout.Duration,
	}
}
