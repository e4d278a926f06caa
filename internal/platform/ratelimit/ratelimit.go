package ratelimit

import (
	"context"
	"strings"
)

// New picks the Redis limiter when an address is configured, the in-process limiter when
// only a limit is set, and Noop otherwise.
func New(ctx context.Context, cfg Config) (Limiter, error) {
	if cfg.Limit <= 0 {
		return Noop{}, nil
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		return NewRedis(ctx, cfg)
	}
	return NewLocal(cfg), nil
}
