package httpapi

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/logger"
	"github.com/yungbote/formhub-backend/internal/platform/ratelimit"
)

const (
	PathGenerateStory   = "/generate-story"
	PathNetlifyFunction = "/.netlify/functions/generate-story"
)

type RouterConfig struct {
	Log             *logger.Logger
	Story           *story.Service
	Limiter         ratelimit.Limiter
	AllowedOrigins  []string
	MaxRequestBytes int64
	ServiceName     string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "formhub"
	}

	r := gin.New()
	r.Use(otelgin.Middleware(serviceName))
	r.Use(AttachTraceContext())
	r.Use(RequestLogger(log))
	r.Use(Recover(log))
	if mw := CORS(cfg.AllowedOrigins); mw != nil {
		r.Use(mw)
	}

	health := NewHealthHandler(cfg.Story)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	stories := NewStoryHandler(cfg.Story, cfg.MaxRequestBytes)
	generate := []gin.HandlerFunc{stories.GenerateStory}
	if cfg.Limiter != nil {
		generate = append([]gin.HandlerFunc{RateLimit(cfg.Limiter, log)}, generate...)
	}
	// The form site was first deployed as a Netlify function; both paths stay live.
	r.Any(PathGenerateStory, generate...)
	r.Any(PathNetlifyFunction, generate...)

	return r
}
