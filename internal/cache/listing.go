package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"yatube/internal/middleware"
	"yatube/internal/observability"

	"github.com/redis/go-redis/v9"
)

// DefaultListingTTL bounds how stale a cached index page can get.
const DefaultListingTTL = 20 * time.Second

// ListingPrefix namespaces all listing cache keys.
const ListingPrefix = "listing"

const indexPageKeyFormat = "index:page:%d"

// IndexPageKey is the cache key (relative to the prefix) for index page n.
func IndexPageKey(n int) string {
	return fmt.Sprintf(indexPageKeyFormat, n)
}

// ListingCache stores rendered listing pages.
type ListingCache interface {
	// Get decodes the cached value into dest and reports whether it was present.
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	// Invalidate drops every cached listing.
	Invalidate(ctx context.Context) error
}

// RedisListingCache keeps listing pages as JSON under "<prefix>:<key>".
// A nil client disables it: every Get misses and Set/Invalidate do nothing.
type RedisListingCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisListingCache creates a listing cache. ttl <= 0 falls back to DefaultListingTTL.
func NewRedisListingCache(rdb *redis.Client, prefix string, ttl time.Duration) *RedisListingCache {
	if prefix == "" {
		prefix = ListingPrefix
	}
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &RedisListingCache{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *RedisListingCache) fullKey(key string) string {
	return c.prefix + ":" + key
}

func (c *RedisListingCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c.rdb == nil {
		return false, nil
	}
	raw, err := c.rdb.Get(ctx, c.fullKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached listing %q: %w", key, err)
	}
	return true, nil
}

func (c *RedisListingCache) Set(ctx context.Context, key string, v any) error {
	if c.rdb == nil {
		return nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode listing %q: %w", key, err)
	}
	return c.rdb.Set(ctx, c.fullKey(key), raw, c.ttl).Err()
}

// Invalidate removes every key under the prefix using SCAN so Redis is never blocked.
func (c *RedisListingCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	observability.ListingCacheInvalidations.Inc()

	iter := c.rdb.Scan(ctx, 0, c.prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := c.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return c.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

// Aside is cache-aside read-through: return the cached value for key when present,
// otherwise call fetch and store its result. Cache errors are logged and never fatal.
func Aside[T any](ctx context.Context, c ListingCache, key string, fetch func(context.Context) (T, error)) (T, error) {
	var cached T
	if c != nil {
		hit, err := c.Get(ctx, key, &cached)
		switch {
		case err != nil:
			observability.ListingCacheRequests.WithLabelValues("error").Inc()
			middleware.Logger.WarnContext(ctx, "listing cache read failed", slog.String("key", key), slog.String("error", err.Error()))
		case hit:
			observability.ListingCacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			observability.ListingCacheRequests.WithLabelValues("miss").Inc()
		}
	}

	fresh, err := fetch(ctx)
	if err != nil {
		return fresh, err
	}

	if c != nil {
		if err := c.Set(ctx, key, fresh); err != nil {
			middleware.Logger.WarnContext(ctx, "listing cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}
	return fresh, nil
}
