// Package cache provides an optional Redis-backed cache for the
// registration board payload. The board is rebuilt from storage on every
// request; with the Sheets backend that means two API round-trips, which
// the kiosk's auto-refresh multiplies. A short TTL absorbs that.
//
// A nil *BoardCache is valid and disables caching.
package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// BoardKey is the cache key for the registration board payload.
const BoardKey = "cantine:board"

// BoardCache caches rendered payloads with a TTL.
type BoardCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zerolog.Logger
}

// New wraps a Redis client. ttl must be positive.
func New(rdb *redis.Client, ttl time.Duration, logger *zerolog.Logger) *BoardCache {
	return &BoardCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Get returns the cached payload, if any. Cache errors degrade to a miss.
func (c *BoardCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, false
	}
	return data, true
}

// Set stores a payload under the configured TTL, best effort.
func (c *BoardCache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

// Invalidate drops keys after a mutation so the kiosk sees its own write.
func (c *BoardCache) Invalidate(ctx context.Context, keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache invalidation failed")
	}
}
