package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/formhub-backend/internal/intake/config"
	"github.com/yungbote/formhub-backend/internal/intake/httpapi"
	"github.com/yungbote/formhub-backend/internal/intake/prompt"
	"github.com/yungbote/formhub-backend/internal/intake/provider"
	"github.com/yungbote/formhub-backend/internal/intake/story"
	"github.com/yungbote/formhub-backend/internal/platform/logger"
	"github.com/yungbote/formhub-backend/internal/platform/ratelimit"
	"github.com/yungbote/formhub-backend/internal/platform/tracing"
)

// Version is stamped at build time with -ldflags "-X .../internal/intake/app.Version=...".
var Version = "dev"

type App struct {
	Log      *logger.Logger
	Config   *config.Config
	Provider *provider.Provider
	Story    *story.Service
	Limiter  ratelimit.Limiter

	server      *http.Server
	stopTracing func(context.Context) error
	closeOnce   sync.Once
}

// New loads configuration from cfgPath (or the default locations) and wires the service.
func New(ctx context.Context, cfgPath string) (*App, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	switch strings.ToLower(cfg.Env) {
	case "prod", "production":
		gin.SetMode(gin.ReleaseMode)
	}

	stopTracing := tracing.Init(ctx, log, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Env,
		Version:     Version,
		Endpoint:    cfg.Tracing.Endpoint,
		Headers:     cfg.Tracing.Headers,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})

	p, err := provider.New(ctx, cfg.Engine)
	if err != nil {
		_ = stopTracing(ctx)
		return nil, err
	}
	if err := p.Engine.Ready(); err != nil {
		// Not fatal: story requests answer with a configuration error until a key is set.
		log.Warn("generation credential missing; story requests will fail", "engine", p.Type, "error", err)
	}

	lim, err := ratelimit.New(ctx, ratelimit.Config{
		Limit:         cfg.RateLimit.Limit,
		Window:        cfg.RateLimit.Window.Duration,
		RedisAddr:     cfg.RateLimit.RedisAddr,
		RedisPassword: cfg.RateLimit.RedisPassword,
		RedisDB:       cfg.RateLimit.RedisDB,
	})
	if err != nil {
		_ = stopTracing(ctx)
		return nil, fmt.Errorf("init rate limiter: %w", err)
	}

	svc := story.New(log, p.Engine, p.Model, prompt.NewBuilder(cfg.Prompt.Sentinels, cfg.Prompt.ReservedPrefix))

	return &App{
		Log:         log,
		Config:      cfg,
		Provider:    p,
		Story:       svc,
		Limiter:     lim,
		server:      httpapi.NewServer(cfg, log, svc, lim),
		stopTracing: stopTracing,
	}, nil
}

func (a *App) Handler() http.Handler { return a.server.Handler }

// Run serves until ctx is cancelled or the listener fails, then drains in-flight requests
// within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Log.Info("http server listening", "addr", a.server.Addr, "version", Version, "engine", a.Provider.Type, "model", a.Provider.Model)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout())
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	a.Log.Info("http server stopped")
	a.Close()
	return err
}

func (a *App) shutdownTimeout() time.Duration {
	if d := a.Config.HTTP.ShutdownTimeout.Duration; d > 0 {
		return d
	}
	return 15 * time.Second
}

// Close flushes tracing, releases the rate limiter and syncs the logger. Safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.stopTracing(ctx); err != nil {
			a.Log.Warn("tracing shutdown failed", "error", err)
		}
		if a.Limiter != nil {
			if err := a.Limiter.Close(); err != nil {
				a.Log.Warn("rate limiter close failed", "error", err)
			}
		}
		a.Log.Sync()
	})
}
