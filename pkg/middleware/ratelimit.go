package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/quartzerp/globalsearch/pkg/observability"
)

// RateLimitConfig bounds request volume per caller within a rolling window.
type RateLimitConfig struct {
	RequestsPerWindow int
	WindowDuration    time.Duration
}

// DefaultRateLimitConfig allows a generous per-tenant search volume.
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		RequestsPerWindow: 300,
		WindowDuration:    time.Minute,
	}
}

// RateLimiter is a redis-backed counter shared across instances, so the limit
// holds no matter which replica serves the request.
type RateLimiter struct {
	redis  *redis.Client
	config *RateLimitConfig
	logger *observability.Logger
	prefix string
}

// NewRateLimiter creates a distributed rate limiter.
func NewRateLimiter(redisClient *redis.Client, config *RateLimitConfig, logger *observability.Logger) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		redis:  redisClient,
		config: config,
		logger: logger,
		prefix: "ratelimit",
	}
}

// Allow reports whether the caller identified by key is under its limit.
// A redis failure fails open: search availability outranks limiting.
func (rl *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("%s:%s", rl.prefix, key)

	pipe := rl.redis.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.WindowDuration)
	if _, err := pipe.Exec(ctx); err != nil {
		return true, fmt.Errorf("redis error: %w", err)
	}

	return incr.Val() <= int64(rl.config.RequestsPerWindow), nil
}

// Middleware enforces the limit per tenant, falling back to the remote
// address when no tenant header is present.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get("X-Tenant-ID")
		if key == "" {
			key = r.RemoteAddr
		}

		allowed, err := rl.Allow(r.Context(), key)
		if err != nil {
			rl.logger.WithError(err).Warn("Rate limit check failed, allowing request")
		}
		if !allowed {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(rl.config.WindowDuration.Seconds())))
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]string{"error": "rate limit exceeded"})
			return
		}

		next.ServeHTTP(w, r)
	})
}
