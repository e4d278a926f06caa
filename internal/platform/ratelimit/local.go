package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Local is a per-key token bucket kept in process memory. It is the fallback when no
// Redis is configured; limits then apply per replica.
type Local struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	buckets map[string]*bucket
	now     func() time.Time
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

func NewLocal(cfg Config) *Local {
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	l := &Local{
		burst:   cfg.Limit,
		idleTTL: 2 * window,
		buckets: map[string]*bucket{},
		now:     time.Now,
	}
	if cfg.Limit > 0 {
		l.limit = rate.Every(window / time.Duration(cfg.Limit))
	}
	return l
}

func (l *Local) Allow(_ context.Context, key string) (bool, error) {
	if l.burst <= 0 {
		return true, nil
	}
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		l.sweep(now)
		b = &bucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim.AllowN(now, 1), nil
}

// sweep drops buckets idle long enough to have refilled completely.
func (l *Local) sweep(now time.Time) {
	for k, b := range l.buckets {
		if now.Sub(b.lastSeen) > l.idleTTL {
			delete(l.buckets, k)
		}
	}
}

func (l *Local) Close() error { return nil }
