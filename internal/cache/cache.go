// Package cache stores serialized match results keyed by user and job set.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound = errors.New("key not found in cache")
	ErrClosed   = errors.New("cache is closed")
)

type Cache interface {
	// Get returns ErrNotFound for missing or expired keys.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value for ttl. A zero ttl uses the backend default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	Close() error
}

type Options struct {
	Backend    string        `mapstructure:"backend"`
	DefaultTTL time.Duration `mapstructure:"ttl"`
	RedisURL   string        `mapstructure:"redis-url"`
}

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

func DefaultOptions() Options {
	return Options{
		Backend:    BackendMemory,
		DefaultTTL: 30 * time.Minute,
	}
}
