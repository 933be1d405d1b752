// Package redis wraps go-redis/v9 with the operations the query cache
// needs: get/set with TTL and glob-pattern invalidation.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/querylab/vectorrank/pkg/config"
)

// Client wraps a pooled go-redis client.
type Client struct {
	rdb *redis.Client
}

// NewClient connects to Redis and verifies the connection with a PING
// so a misconfigured address fails at startup, not on first use.
func NewClient(cfg config.RedisConfig) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return &Client{rdb: rdb}, nil
}

// Get returns the string value stored at key. A missing key reports
// true from IsNilError.
func (c *Client) Get(ctx context.Context, key string) (string, error) {
	return c.rdb.Get(ctx, key).Result()
}

// Set stores value at key with the given TTL.
func (c *Client) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

// Del deletes the given keys in one round trip.
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// FlushByPattern deletes every key matching the glob pattern and
// returns how many were removed. Keys are discovered with SCAN and
// deleted in batches, so flushing a large cache after a model swap
// does not block the server the way KEYS would.
func (c *Client) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	const batchSize = 100

	var deleted int64
	batch := make([]string, 0, batchSize)
	iter := c.rdb.Scan(ctx, 0, pattern, batchSize).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == batchSize {
			if err := c.Del(ctx, batch...); err != nil {
				return deleted, fmt.Errorf("deleting batch: %w", err)
			}
			deleted += int64(len(batch))
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("scanning pattern %s: %w", pattern, err)
	}
	if err := c.Del(ctx, batch...); err != nil {
		return deleted, fmt.Errorf("deleting batch: %w", err)
	}
	deleted += int64(len(batch))
	return deleted, nil
}

// IsNilError reports whether err means the key did not exist.
func IsNilError(err error) bool {
	return errors.Is(err, redis.Nil)
}

// Ping checks the connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}
