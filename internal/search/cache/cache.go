// Package cache caches computed search results in Redis, keyed by the
// canonical form of the query so that reorderings of the same terms
// share an entry. Concurrent misses for the same key are collapsed with
// singleflight, and a circuit breaker keeps a down Redis from slowing
// every query.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/querylab/vectorrank/internal/search"
	"github.com/querylab/vectorrank/pkg/config"
	"github.com/querylab/vectorrank/pkg/logger"
	"github.com/querylab/vectorrank/pkg/metrics"
	pkgredis "github.com/querylab/vectorrank/pkg/redis"
	"github.com/querylab/vectorrank/pkg/resilience"
)

const keyPrefix = "search:"

// Backend is the slice of the Redis client the cache uses.
type Backend interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

// QueryCache stores search results in Redis with a TTL.
type QueryCache struct {
	client    Backend
	cfg       config.RedisConfig
	normalize func(string) string
	breaker   *resilience.CircuitBreaker
	group     singleflight.Group
	metrics   *metrics.Metrics
	logger    *slog.Logger
	hits      atomic.Int64
	misses    atomic.Int64
}

// New creates a QueryCache. normalize maps a raw query to its canonical
// cache form; queries that normalise identically share a cache entry.
func New(client Backend, cfg config.RedisConfig, normalize func(string) string, m *metrics.Metrics) *QueryCache {
	c := &QueryCache{
		client:    client,
		cfg:       cfg,
		normalize: normalize,
		metrics:   m,
		logger:    logger.WithComponent("query-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-cache", resilience.CircuitBreakerConfig{
		OnStateChange: func(name string, s resilience.State) {
			m.CircuitBreakerState.WithLabelValues(name).Set(float64(s))
		},
	})
	return c
}

// Get returns the cached result for query and limit, if present. Redis
// failures count as misses; the breaker stops hammering a down Redis.
func (c *QueryCache) Get(ctx context.Context, query string, limit int) (*search.Result, bool) {
	key := c.buildKey(query, limit)

	var data string
	var found bool
	err := c.breaker.Execute(func() error {
		val, err := c.client.Get(ctx, key)
		if err != nil {
			if pkgredis.IsNilError(err) {
				// A missing key is a miss, not a Redis failure.
				return nil
			}
			return err
		}
		data = val
		found = true
		return nil
	})
	if err != nil {
		if !errors.Is(err, resilience.ErrCircuitOpen) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.miss()
		return nil, false
	}
	if !found {
		c.miss()
		return nil, false
	}

	var result search.Result
	if err := json.Unmarshal([]byte(data), &result); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.miss()
		return nil, false
	}
	c.hit()
	return &result, true
}

// Set stores a result under the query's cache key. Failures are logged
// and swallowed; the caller already has the result.
func (c *QueryCache) Set(ctx context.Context, query string, limit int, result *search.Result) {
	key := c.buildKey(query, limit)
	data, err := json.Marshal(result)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.client.Set(ctx, key, data, c.cfg.CacheTTL)
	})
	if err != nil && !errors.Is(err, resilience.ErrCircuitOpen) {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached result or computes and caches it.
// Concurrent callers with the same key share one computation. The bool
// reports whether the result came from the cache.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query string,
	limit int,
	computeFn func() (*search.Result, error),
) (*search.Result, bool, error) {
	if result, ok := c.Get(ctx, query, limit); ok {
		return result, true, nil
	}

	key := c.buildKey(query, limit)
	val, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have populated the cache while we waited.
		if result, ok := c.Get(ctx, query, limit); ok {
			return result, nil
		}
		result, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, query, limit, result)
		return result, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.(*search.Result), false, nil
}

// Invalidate drops every cached search result. Called after a model
// swap so stale rankings never outlive the model that produced them.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	deleted, err := c.client.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidated", "keys_deleted", deleted)
	return nil
}

// Stats returns the hit and miss counts since startup.
func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) hit() {
	c.hits.Add(1)
	c.metrics.CacheHitsTotal.Inc()
}

func (c *QueryCache) miss() {
	c.misses.Add(1)
	c.metrics.CacheMissesTotal.Inc()
}

func (c *QueryCache) buildKey(query string, limit int) string {
	raw := fmt.Sprintf("%s:limit=%d", c.normalize(query), limit)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%x", keyPrefix, hash[:16])
}
