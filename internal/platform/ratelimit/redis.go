package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Redis is a fixed-window counter shared by every replica of the service.
type Redis struct {
	rdb    *goredis.Client
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
}

func NewRedis(ctx context.Context, cfg Config) (*Redis, error) {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return nil, fmt.Errorf("redis addr required")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return newRedisWithClient(rdb, cfg), nil
}

func newRedisWithClient(rdb *goredis.Client, cfg Config) *Redis {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "formhub:rl"
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}
	return &Redis{rdb: rdb, limit: cfg.Limit, window: window, prefix: prefix, now: time.Now}
}

func (r *Redis) Allow(ctx context.Context, key string) (bool, error) {
	if r.limit <= 0 {
		return true, nil
	}
	k := r.windowKey(key)

	pipe := r.rdb.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	return incr.Val() <= int64(r.limit), nil
}

func (r *Redis) windowKey(key string) string {
	bucket := r.now().UnixNano() / int64(r.window)
	return fmt.Sprintf("%s:%s:%d", r.prefix, hashKey(key), bucket)
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}
