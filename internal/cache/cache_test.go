package cache

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func newTestCache(t *testing.T) (*BoardCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	logger := zerolog.New(io.Discard)
	return New(rdb, time.Minute, &logger), mr
}

func TestBoardCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	_, ok := c.Get(ctx, BoardKey)
	assert.False(t, ok)

	payload := []byte(`{"days":[]}`)
	c.Set(ctx, BoardKey, payload)

	got, ok := c.Get(ctx, BoardKey)
	assert.True(t, ok)
	assert.Equal(t, payload, got)
	assert.Greater(t, mr.TTL(BoardKey), time.Duration(0))

	c.Invalidate(ctx, BoardKey)
	_, ok = c.Get(ctx, BoardKey)
	assert.False(t, ok)
}

func TestBoardCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, BoardKey, []byte("stale"))
	mr.FastForward(2 * time.Minute)

	_, ok := c.Get(ctx, BoardKey)
	assert.False(t, ok)
}

func TestBoardCacheErrorDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c, mr := newTestCache(t)

	c.Set(ctx, BoardKey, []byte("payload"))
	mr.SetError("LOADING server is loading the dataset in memory")

	_, ok := c.Get(ctx, BoardKey)
	assert.False(t, ok)

	// Writes and invalidations against the broken server are swallowed.
	c.Set(ctx, BoardKey, []byte("again"))
	c.Invalidate(ctx, BoardKey)
}

func TestNilCacheIsDisabled(t *testing.T) {
	ctx := context.Background()
	var c *BoardCache

	data, ok := c.Get(ctx, BoardKey)
	assert.False(t, ok)
	assert.Nil(t, data)

	// Writes and invalidations on the nil cache are no-ops.
	c.Set(ctx, BoardKey, []byte("payload"))
	c.Invalidate(ctx, BoardKey)
}
