// Package services contains infrastructure services used by the business flows
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ReportCache stores computed report payloads until the next data change.
// Get returns the generation it read; a payload computed after that Get must
// be stored with Set under the same generation so an Invalidate in between
// leaves it unreachable.
type ReportCache interface {
	Get(ctx context.Context, key string, out any) (gen int64, hit bool, err error)
	Set(ctx context.Context, gen int64, key string, value any) error
	// Invalidate drops every cached entry
	Invalidate(ctx context.Context) error
}

// RedisReportCache keys entries by a generation number. Invalidate bumps the
// generation so stale entries are never read again and expire on their TTL.
type RedisReportCache struct {
	rc     *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisReportCache creates a redis-backed report cache
func NewRedisReportCache(rc *redis.Client, prefix string, ttl time.Duration) *RedisReportCache {
	return &RedisReportCache{rc: rc, prefix: prefix, ttl: ttl}
}

func (c *RedisReportCache) generationKey() string {
	return c.prefix + "reports:generation"
}

func (c *RedisReportCache) generation(ctx context.Context) (int64, error) {
	gen, err := c.rc.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisReportCache) entryKey(gen int64, key string) string {
	return fmt.Sprintf("%sreports:%d:%s", c.prefix, gen, key)
}

func (c *RedisReportCache) Get(ctx context.Context, key string, out any) (int64, bool, error) {
	gen, err := c.generation(ctx)
	if err != nil {
		return 0, false, err
	}
	bs, err := c.rc.Get(ctx, c.entryKey(gen, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return gen, false, nil
	}
	if err != nil {
		return gen, false, err
	}
	if err := json.Unmarshal(bs, out); err != nil {
		return gen, false, err
	}
	return gen, true, nil
}

// Set stores value under generation gen. Writes for a superseded generation
// are skipped.
func (c *RedisReportCache) Set(ctx context.Context, gen int64, key string, value any) error {
	current, err := c.generation(ctx)
	if err != nil {
		return err
	}
	if current != gen {
		return nil
	}
	bs, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rc.Set(ctx, c.entryKey(gen, key), bs, c.ttl).Err()
}

func (c *RedisReportCache) Invalidate(ctx context.Context) error {
	return c.rc.Incr(ctx, c.generationKey()).Err()
}

// NoopReportCache never stores anything
type NoopReportCache struct{}

func NewNoopReportCache() *NoopReportCache {
	return &NoopReportCache{}
}

func (NoopReportCache) Get(context.Context, string, any) (int64, bool, error) { return 0, false, nil }
func (NoopReportCache) Set(context.Context, int64, string, any) error         { return nil }
func (NoopReportCache) Invalidate(context.Context) error                      { return nil }
