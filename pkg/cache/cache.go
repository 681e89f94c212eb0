package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/emberlane/storefront-backend/pkg/logger"
	"github.com/emberlane/storefront-backend/pkg/redis"
)

// Store is the slice of the redis client the cache depends on.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	CacheKey(parts ...string) string
}

// Cache is a read-through JSON cache with a fixed TTL. Entries are never
// invalidated on writes; the TTL is the staleness bound. Transport errors
// degrade to a miss so callers fall back to the authoritative store.
type Cache struct {
	store Store
	ttl   time.Duration
	logg  *logger.Logger
}

// New builds a cache around the provided store. A nil store yields a cache
// that always misses, which keeps call sites free of nil checks.
func New(store Store, ttl time.Duration, logg *logger.Logger) *Cache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{store: store, ttl: ttl, logg: logg}
}

// Key namespaces the provided parts into a cache key.
func (c *Cache) Key(parts ...string) string {
	if c == nil || c.store == nil {
		return ""
	}
	return c.store.CacheKey(parts...)
}

// Lookup reports whether key held a payload and, if so, unmarshals it into
// dest verbatim.
func (c *Cache) Lookup(ctx context.Context, key string, dest any) bool {
	if c == nil || c.store == nil || key == "" {
		return false
	}
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.Nil) && c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache read degraded to store")
		}
		return false
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache payload unreadable, treating as miss")
		}
		return false
	}
	return true
}

// Fill stores the payload under key with the configured TTL. Failures are
// logged and swallowed; the caller already has the payload.
func (c *Cache) Fill(ctx context.Context, key string, payload any) {
	if c == nil || c.store == nil || key == "" {
		return
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache payload not serializable")
		}
		return
	}
	if err := c.store.Set(ctx, key, raw, c.ttl); err != nil && c.logg != nil {
		c.logg.Warn(c.logg.WithField(ctx, "cache_key", key), "cache write failed")
	}
}

// TTL exposes the staleness bound, mostly for logging and tests.
func (c *Cache) TTL() time.Duration {
	if c == nil {
		return 0
	}
	return c.ttl
}
