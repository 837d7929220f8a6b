package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

// FailPolicy decides what happens to a request when Redis cannot be reached.
type FailPolicy int

const (
	// FailOpen lets the request through.
	FailOpen FailPolicy = iota
	// FailClosed answers 503.
	FailClosed
)

const rateLimitPrefix = "rl"

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter counts requests per resource and caller in fixed Redis windows.
// Limits only apply outside development and test environments.
type RateLimiter struct {
	rdb     *redis.Client
	enabled bool
}

// NewRateLimiter creates a limiter for the given APP_ENV value.
func NewRateLimiter(rdb *redis.Client, env string) *RateLimiter {
	switch env {
	case "", "development", "test":
		return &RateLimiter{rdb: rdb}
	}
	return &RateLimiter{rdb: rdb, enabled: true}
}

// Enabled reports whether limits are enforced.
func (l *RateLimiter) Enabled() bool { return l.enabled }

// Allow records one hit for id on resource and reports whether it fits in limit per window.
func (l *RateLimiter) Allow(ctx context.Context, resource, id string, limit int, window time.Duration) (Decision, error) {
	// Without Redis there is nothing to count in.
	if !l.enabled || l.rdb == nil {
		return Decision{Allowed: true, Remaining: limit}, nil
	}

	key := fmt.Sprintf("%s:%s:%s", rateLimitPrefix, resource, id)
	var incr *redis.IntCmd
	var ttl *redis.DurationCmd
	if _, err := l.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, key)
		ttl = p.PTTL(ctx, key)
		return nil
	}); err != nil {
		return Decision{}, err
	}

	// A fresh key (or one that lost its TTL) starts a new window.
	retry := ttl.Val()
	if incr.Val() == 1 || retry < 0 {
		if err := l.rdb.PExpire(ctx, key, window).Err(); err != nil {
			return Decision{}, err
		}
		retry = window
	}

	count := int(incr.Val())
	return Decision{
		Allowed:    count <= limit,
		Remaining:  max(limit-count, 0),
		RetryAfter: retry,
	}, nil
}

// Limit returns a handler allowing limit requests per window for each caller.
// Callers are keyed by user id when authenticated and by IP otherwise.
func (l *RateLimiter) Limit(resource string, limit int, window time.Duration, policy FailPolicy) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := "ip:" + c.IP()
		if uid, ok := c.Locals("userID").(uint); ok && uid != 0 {
			id = "user:" + strconv.FormatUint(uint64(uid), 10)
		}

		d, err := l.Allow(c.UserContext(), resource, id, limit, window)
		if err != nil {
			if policy == FailClosed {
				Logger.WarnContext(c.UserContext(), "rate limit store unavailable, failing closed",
					slog.String("resource", resource),
					slog.String("error", err.Error()),
				)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"error": "rate limit unavailable",
				})
			}
			return c.Next()
		}

		if l.enabled {
			c.Set("X-RateLimit-Limit", strconv.Itoa(limit))
			c.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		}
		if !d.Allowed {
			c.Set(fiber.HeaderRetryAfter, strconv.Itoa(int(d.RetryAfter.Round(time.Second)/time.Second)))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "rate limit exceeded",
			})
		}
		return c.Next()
	}
}
