package services

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMiniredisCache(t *testing.T) (*RedisReportCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rc.Close() })
	return NewRedisReportCache(rc, "test:", time.Minute), mr
}

func TestRedisReportCacheKeys(t *testing.T) {
	c := NewRedisReportCache(nil, "pos-tracker:", time.Minute)

	assert.Equal(t, "pos-tracker:reports:generation", c.generationKey())
	assert.Equal(t, "pos-tracker:reports:3:dashboard:2024-02-01:2024-02-29", c.entryKey(3, "dashboard:2024-02-01:2024-02-29"))
}

func TestRedisReportCacheRoundTrip(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	var out map[string]int
	gen, hit, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Zero(t, gen)

	require.NoError(t, c.Set(ctx, gen, "k", map[string]int{"value": 1}))
	gen, hit, err = c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Zero(t, gen)
	assert.Equal(t, map[string]int{"value": 1}, out)
	assert.Equal(t, time.Minute, mr.TTL("test:reports:0:k"))

	require.NoError(t, c.Invalidate(ctx))
	out = nil
	gen, hit, err = c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(1), gen)
	assert.Nil(t, out)
}

func TestRedisReportCacheSetAfterInvalidate(t *testing.T) {
	c, mr := newMiniredisCache(t)
	ctx := context.Background()

	var out map[string]int
	gen, hit, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	require.False(t, hit)

	// data changes while the report is being computed
	require.NoError(t, c.Invalidate(ctx))
	require.NoError(t, c.Set(ctx, gen, "k", map[string]int{"value": 1}))

	_, hit, err = c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, mr.Exists("test:reports:1:k"))
}

func TestRedisReportCacheUnreachable(t *testing.T) {
	rc := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rc.Close() })
	c := NewRedisReportCache(rc, "test:", time.Minute)
	ctx := context.Background()

	var out map[string]int
	_, hit, err := c.Get(ctx, "k", &out)
	require.Error(t, err)
	assert.False(t, hit)
	assert.Error(t, c.Set(ctx, 0, "k", map[string]int{"a": 1}))
	assert.Error(t, c.Invalidate(ctx))
}

func TestNoopReportCache(t *testing.T) {
	var c ReportCache = NewNoopReportCache()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, 0, "k", 1))
	var out int
	_, hit, err := c.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.Invalidate(ctx))
}
