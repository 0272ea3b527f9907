// Package ratelimit implements a fixed-window request counter in Redis.
//
// Each (prefix, subject, window start) triple gets its own key; INCR and
// EXPIRE are sent in one pipeline so the counter always expires with its
// window. Counters are shared by every server instance pointing at the same
// Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Limit     int
	Window    time.Duration
	KeyPrefix string
}

// Result describes one Allow decision.
type Result struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// RetryAfter is how long the caller should wait when not allowed.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if d := r.ResetAt.Sub(now); d > 0 {
		return d
	}
	return 0
}

type Limiter struct {
	client *redis.Client
	cfg    Config
	now    func() time.Time
}

func New(client *redis.Client, cfg Config) *Limiter {
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "rate_limit"
	}
	return &Limiter{client: client, cfg: cfg, now: time.Now}
}

// NewRecipeCreation limits how many recipes one user can publish per window.
func NewRecipeCreation(client *redis.Client, limit int, window time.Duration) *Limiter {
	return New(client, Config{
		Limit:     limit,
		Window:    window,
		KeyPrefix: "rate_limit:recipe_creation",
	})
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("ratelimit: parsing Redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ratelimit: connecting to Redis at %s: %w", opts.Addr, err)
	}
	return client, nil
}

func (l *Limiter) Limit() int { return l.cfg.Limit }

// Allow counts one request for subject and reports whether it fits in the
// current window.
func (l *Limiter) Allow(ctx context.Context, subject string) (Result, error) {
	windowStart := l.now().Truncate(l.cfg.Window)
	key := fmt.Sprintf("%s:%s:%d", l.cfg.KeyPrefix, subject, windowStart.Unix())

	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.cfg.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Result{}, fmt.Errorf("ratelimit: counting %s: %w", key, err)
	}

	count := int(incr.Val())
	remaining := l.cfg.Limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= l.cfg.Limit,
		Limit:     l.cfg.Limit,
		Remaining: remaining,
		ResetAt:   windowStart.Add(l.cfg.Window),
	}, nil
}
