package middleware

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quartzerp/globalsearch/pkg/observability"
)

func testLimiter(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	logger := observability.NewLogger(observability.ErrorLevel, io.Discard)
	return NewRateLimiter(client, &RateLimitConfig{
		RequestsPerWindow: limit,
		WindowDuration:    time.Minute,
	}, logger), mr
}

func TestAllow_EnforcesLimit(t *testing.T) {
	rl, _ := testLimiter(t, 2)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		allowed, err := rl.Allow(ctx, "t1")
		require.NoError(t, err)
		assert.True(t, allowed)
	}

	allowed, err := rl.Allow(ctx, "t1")
	require.NoError(t, err)
	assert.False(t, allowed)

	// Other tenants are unaffected.
	allowed, err = rl.Allow(ctx, "t2")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_WindowExpiry(t *testing.T) {
	rl, mr := testLimiter(t, 1)
	ctx := context.Background()

	allowed, err := rl.Allow(ctx, "t1")
	require.NoError(t, err)
	require.True(t, allowed)

	allowed, err = rl.Allow(ctx, "t1")
	require.NoError(t, err)
	require.False(t, allowed)

	mr.FastForward(2 * time.Minute)

	allowed, err = rl.Allow(ctx, "t1")
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestAllow_FailsOpenOnRedisError(t *testing.T) {
	rl, mr := testLimiter(t, 1)
	mr.Close()

	allowed, err := rl.Allow(context.Background(), "t1")
	require.Error(t, err)
	assert.True(t, allowed)
}

func TestMiddleware_Returns429OverLimit(t *testing.T) {
	rl, _ := testLimiter(t, 1)

	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	req.Header.Set("X-Tenant-ID", "t1")

	first := httptest.NewRecorder()
	handler.ServeHTTP(first, req)
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	handler.ServeHTTP(second, req)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
}
