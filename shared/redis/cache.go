// Package redis holds the Redis-backed cache facade and client bootstrap.
package redis

import (
	"context"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Cache is a best-effort key/value hint store. It is never authoritative:
// callers log errors and carry on.
type Cache interface {
	SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error
	Delete(ctx context.Context, key string) error
}

// LiveCache delegates to a Redis server.
type LiveCache struct {
	client *goredis.Client
}

func NewLiveCache(client *goredis.Client) *LiveCache {
	return &LiveCache{client: client}
}

func (c *LiveCache) SetWithExpiry(ctx context.Context, key string, ttl time.Duration, value string) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *LiveCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// NullCache accepts every call and does nothing.
type NullCache struct{}

func (NullCache) SetWithExpiry(context.Context, string, time.Duration, string) error { return nil }

func (NullCache) Delete(context.Context, string) error { return nil }

// NewCache picks the cache variant once at startup. An empty URL, a bad URL or
// an unreachable server all yield NullCache. The returned client is nil unless
// the live cache was selected; the caller owns closing it.
func NewCache(ctx context.Context, url string, logger *slog.Logger) (Cache, *goredis.Client) {
	if url == "" {
		logger.Warn("no redis url configured, using null cache")
		return NullCache{}, nil
	}
	client, err := NewClient(ctx, url)
	if err != nil {
		logger.Error("redis unavailable, using null cache", "error", err)
		return NullCache{}, nil
	}
	logger.Info("connected to redis cache")
	return NewLiveCache(client), client
}
