package engine

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

type throttled struct {
	Engine
	lim *rate.Limiter
}

// Throttle caps calls to next at requestsPerMinute with a small burst. Callers wait for a
// token; a cancelled or expired context while waiting is reported as an UpstreamError.
func Throttle(next Engine, requestsPerMinute int) Engine {
	if requestsPerMinute <= 0 {
		return next
	}
	burst := 3
	if requestsPerMinute < burst {
		burst = requestsPerMinute
	}
	return &throttled{
		Engine: next,
		lim:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), burst),
	}
}

func (t *throttled) GenerateText(ctx context.Context, model string, prompt string, opts GenerateOptions) (string, error) {
	if err := t.lim.Wait(ctx); err != nil {
		return "", &UpstreamError{Message: "generation capacity exhausted, try again shortly", Err: err}
	}
	return t.Engine.GenerateText(ctx, model, prompt, opts)
}
