// Package redis is the shared cache backend used when several matcher
// processes serve the same users.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spigell/job-matcher/internal/cache"
)

var _ cache.Cache = (*Cache)(nil)

type Cache struct {
	client     *redis.Client
	defaultTTL time.Duration
}

// New parses the URL and verifies the connection before returning.
func New(ctx context.Context, opts cache.Options) (*Cache, error) {
	parsed, err := redis.ParseURL(opts.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	client := redis.NewClient(parsed)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return NewWithClient(client, opts.DefaultTTL), nil
}

func NewWithClient(client *redis.Client, defaultTTL time.Duration) *Cache {
	if defaultTTL <= 0 {
		defaultTTL = cache.DefaultOptions().DefaultTTL
	}
	return &Cache{client: client, defaultTTL: defaultTTL}
}

func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
