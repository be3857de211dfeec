package services

import (
	"context"
	"time"

	"qc-tracker/backend/internal/cache"
)

// LoginThrottle limits failed logins per email address.
type LoginThrottle interface {
	Allow(ctx context.Context, key string) (bool, error)
	RecordFailure(ctx context.Context, key string) error
	Reset(ctx context.Context, key string) error
}

type NoopThrottle struct{}

func (NoopThrottle) Allow(context.Context, string) (bool, error) { return true, nil }
func (NoopThrottle) RecordFailure(context.Context, string) error { return nil }
func (NoopThrottle) Reset(context.Context, string) error         { return nil }

type RedisLoginThrottle struct {
	cache       *cache.RedisCache
	maxAttempts int64
	window      time.Duration
}

func NewRedisLoginThrottle(c *cache.RedisCache, maxAttempts int, window time.Duration) *RedisLoginThrottle {
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	return &RedisLoginThrottle{cache: c, maxAttempts: int64(maxAttempts), window: window}
}

func throttleKey(email string) string {
	return "qc:login:failures:" + email
}

func (t *RedisLoginThrottle) Allow(ctx context.Context, key string) (bool, error) {
	n, err := t.cache.Count(ctx, throttleKey(key))
	if err != nil {
		return true, err
	}
	return n < t.maxAttempts, nil
}

func (t *RedisLoginThrottle) RecordFailure(ctx context.Context, key string) error {
	_, err := t.cache.Increment(ctx, throttleKey(key), t.window)
	return err
}

func (t *RedisLoginThrottle) Reset(ctx context.Context, key string) error {
	return t.cache.Delete(ctx, throttleKey(key))
}
