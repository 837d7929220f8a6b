package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRateLimiter_Allow(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		nilRedis      bool
		redisDown     bool
		expectedAllow bool
		expectErr     bool
	}{
		{name: "test env bypass", env: "test", nilRedis: true, expectedAllow: true},
		{name: "development env bypass", env: "development", nilRedis: true, expectedAllow: true},
		{name: "unset env bypass", env: "", nilRedis: true, expectedAllow: true},
		{name: "production without redis allows", env: "production", nilRedis: true, expectedAllow: true},
		{name: "production with redis down errors", env: "production", redisDown: true, expectErr: true},
		{name: "production first request allowed", env: "production", expectedAllow: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var rdb *redis.Client
			if !tt.nilRedis {
				var mr *miniredis.Miniredis
				mr, rdb = newTestRedis(t)
				if tt.redisDown {
					mr.Close()
				}
			}

			d, err := NewRateLimiter(rdb, tt.env).Allow(t.Context(), "test", "1", 1, time.Minute)
			if tt.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAllow, d.Allowed)
		})
	}
}

func TestRateLimiter_WindowExpires(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")
	ctx := t.Context()

	for i := 0; i < 2; i++ {
		d, err := l.Allow(ctx, "comment", "user:1", 2, time.Minute)
		require.NoError(t, err)
		assert.True(t, d.Allowed)
		assert.Equal(t, 1-i, d.Remaining)
	}

	d, err := l.Allow(ctx, "comment", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)
	assert.Greater(t, d.RetryAfter, time.Duration(0))
	assert.LessOrEqual(t, d.RetryAfter, time.Minute)

	// Other callers have their own counters.
	d, err = l.Allow(ctx, "comment", "user:2", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)

	mr.FastForward(2 * time.Minute)

	d, err = l.Allow(ctx, "comment", "user:1", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, d.Allowed)
}

func TestRateLimiter_Limit(t *testing.T) {
	_, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")

	app := fiber.New()
	app.Get("/limited", l.Limit("limited", 1, time.Minute, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/limited", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get(fiber.HeaderRetryAfter))
}

func TestRateLimiter_FailPolicy(t *testing.T) {
	mr, rdb := newTestRedis(t)
	l := NewRateLimiter(rdb, "production")

	app := fiber.New()
	app.Get("/open", l.Limit("open", 1, time.Minute, FailOpen), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	app.Get("/closed", l.Limit("closed", 1, time.Minute, FailClosed), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	mr.Close()

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
