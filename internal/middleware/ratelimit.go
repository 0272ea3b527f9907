package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/sakif/foodgram/internal/auth"
	"github.com/sakif/foodgram/internal/ratelimit"
)

// Limiter is the part of *ratelimit.Limiter the middleware needs.
type Limiter interface {
	Allow(ctx context.Context, subject string) (ratelimit.Result, error)
}

// RateLimit counts every request through limiter, keyed by the
// authenticated user id or, for anonymous requests, the client IP. It sets
// X-RateLimit-Limit, X-RateLimit-Remaining and X-RateLimit-Reset and
// answers 429 with Retry-After once the window is used up.
//
// When the counter store is unreachable the request goes through and the
// failure is logged.
func RateLimit(limiter Limiter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := rateLimitSubject(r)
			res, err := limiter.Allow(r.Context(), subject)
			if err != nil {
				logger.Error("rate limiter unavailable, allowing request",
					slog.String("subject", subject),
					slog.String("error", err.Error()),
				)
				next.ServeHTTP(w, r)
				return
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(res.ResetAt.Unix(), 10))

			if !res.Allowed {
				retry := res.RetryAfter(time.Now())
				seconds := int((retry + time.Second - 1) / time.Second)
				h.Set("Retry-After", strconv.Itoa(seconds))
				h.Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error":   "rate_limited",
					"message": fmt.Sprintf("rate limit of %d requests exceeded, retry in %d seconds", res.Limit, seconds),
				})

				logger.Warn("rate limit exceeded",
					slog.String("subject", subject),
					slog.Int("limit", res.Limit),
				)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitSubject(r *http.Request) string {
	if userID, ok := auth.UserIDFromContext(r.Context()); ok {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}
