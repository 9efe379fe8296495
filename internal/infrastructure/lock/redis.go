// Package lock provides distributed save locks on Redis.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"stockbook/internal/core/apperror"
	"stockbook/internal/domain/documents"
	"stockbook/pkg/logger"
)

// Config configures the Redis connection and lock behaviour.
type Config struct {
	Addr     string
	Password string
	DB       int

	// TTL bounds how long a crashed holder keeps a key.
	TTL time.Duration
	// Wait is how long Acquire retries a held key before giving up.
	Wait time.Duration
}

const (
	keyPrefix    = "stockbook:lock:"
	retryBackoff = 50 * time.Millisecond
)

// Client takes per-item locks with bsm/redislock.
type Client struct {
	rdb   *redis.Client
	locks *redislock.Client
	ttl   time.Duration
	wait  time.Duration
}

var _ documents.Locker = (*Client)(nil)

// NewClient connects to Redis and verifies the connection.
func NewClient(ctx context.Context, cfg Config) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: 50,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewFromRedis(rdb, cfg.TTL, cfg.Wait), nil
}

// NewFromRedis builds a Client over an existing connection.
func NewFromRedis(rdb *redis.Client, ttl, wait time.Duration) *Client {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 5 * time.Second
	}
	return &Client{rdb: rdb, locks: redislock.New(rdb), ttl: ttl, wait: wait}
}

// Redis exposes the underlying connection, e.g. for stream publishing.
func (c *Client) Redis() *redis.Client {
	return c.rdb
}

// Ping implements the readiness check.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// Acquire obtains keys in the given order, which callers keep sorted. When
// one key cannot be obtained the keys already held are released and the
// error is a RESOURCE_LOCKED conflict.
func (c *Client) Acquire(ctx context.Context, keys []string) (documents.Release, error) {
	held := make([]*redislock.Lock, 0, len(keys))
	releaseAll := func(ctx context.Context) error {
		var errs []error
		for i := len(held) - 1; i >= 0; i-- {
			if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	}

	attempts := int(c.wait / retryBackoff)
	opts := &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(retryBackoff), attempts),
	}

	for _, key := range keys {
		l, err := c.locks.Obtain(ctx, keyPrefix+key, c.ttl, opts)
		if err != nil {
			if relErr := releaseAll(ctx); relErr != nil {
				logger.Warn(ctx, "release partial locks", "error", relErr)
			}
			if errors.Is(err, redislock.ErrNotObtained) {
				return nil, apperror.NewLocked(key)
			}
			return nil, apperror.NewUnavailable("redis", err)
		}
		held = append(held, l)
	}

	return documents.Once(releaseAll), nil
}
