// Package cache stores document vectors in Redis keyed by a hash of the
// token sequence and the vocabulary they were computed against. Concurrent
// misses for the same key are collapsed into one computation.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/abstract-features/internal/embedding"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/metrics"
	pkgredis "github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/abstract-features/pkg/resilience"
)

const keyPrefix = "vec:"

// Store is the subset of the Redis client the cache needs.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type VectorCache struct {
	store   Store
	vocabID string
	ttl     time.Duration
	breaker *resilience.CircuitBreaker
	metrics *metrics.Metrics
	group   singleflight.Group
	logger  *slog.Logger
	hits    atomic.Int64
	misses  atomic.Int64
}

// New returns a cache over store. vocabID identifies the vocabulary so that
// vectors computed against a different model never collide. m may be nil.
func New(store Store, vocabID string, ttl time.Duration, m *metrics.Metrics) *VectorCache {
	c := &VectorCache{
		store:   store,
		vocabID: vocabID,
		ttl:     ttl,
		metrics: m,
		logger:  slog.Default().With("component", "vector-cache"),
	}
	c.breaker = resilience.NewCircuitBreaker("redis-vector-cache", resilience.BreakerConfig{
		FailureThreshold: 5,
		Cooldown:         30 * time.Second,
		OnStateChange:    c.breakerChanged,
	})
	return c
}

// Get returns the cached embedding for tokens. Redis failures and an open
// breaker are reported as misses.
func (c *VectorCache) Get(ctx context.Context, tokens []string) (embedding.Embedding, bool) {
	key := c.buildKey(tokens)
	var data []byte
	err := c.breaker.Execute(func() error {
		var err error
		data, err = c.store.Get(ctx, key)
		if pkgredis.IsNilError(err) {
			data = nil
			return nil
		}
		return err
	})
	if err != nil {
		c.logger.Warn("cache get failed", "key", key, "error", err)
		c.recordMiss()
		return embedding.Embedding{}, false
	}
	if data == nil {
		c.recordMiss()
		return embedding.Embedding{}, false
	}
	var e embedding.Embedding
	if err := json.Unmarshal(data, &e); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.recordMiss()
		return embedding.Embedding{}, false
	}
	c.recordHit()
	c.logger.Debug("cache hit", "key", key)
	return e, true
}

func (c *VectorCache) Set(ctx context.Context, tokens []string, e embedding.Embedding) {
	key := c.buildKey(tokens)
	data, err := json.Marshal(e)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	err = c.breaker.Execute(func() error {
		return c.store.Set(ctx, key, data, c.ttl)
	})
	if err != nil {
		c.logger.Warn("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns the cached embedding or computes, stores and returns
// it. The boolean reports a cache hit.
func (c *VectorCache) GetOrCompute(
	ctx context.Context,
	tokens []string,
	computeFn func() (embedding.Embedding, error),
) (embedding.Embedding, bool, error) {
	if e, ok := c.Get(ctx, tokens); ok {
		return e, true, nil
	}
	key := c.buildKey(tokens)
	val, err, _ := c.group.Do(key, func() (any, error) {
		e, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.Set(ctx, tokens, e)
		return e, nil
	})
	if err != nil {
		return embedding.Embedding{}, false, err
	}
	return val.(embedding.Embedding), false, nil
}

// Invalidate removes every cached vector.
func (c *VectorCache) Invalidate(ctx context.Context) error {
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Info("cache invalidate", "keys_deleted", deleted)
	return nil
}

func (c *VectorCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// BreakerState reports whether Redis lookups are currently attempted:
// "closed" normally, "open" while Redis is being skipped, "half-open" when
// the next lookup decides.
func (c *VectorCache) BreakerState() string {
	return c.breaker.State().String()
}

func (c *VectorCache) breakerChanged(from, to resilience.State) {
	c.logger.Info("vector cache breaker state changed", "from", from.String(), "to", to.String())
	if c.metrics != nil {
		c.metrics.VectorCacheBreaker.Set(float64(to))
	}
}

func (c *VectorCache) recordHit() {
	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.VectorCacheHits.Inc()
	}
}

func (c *VectorCache) recordMiss() {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.VectorCacheMisses.Inc()
	}
}

// buildKey hashes the vocabulary id and the JSON-encoded token sequence.
func (c *VectorCache) buildKey(tokens []string) string {
	raw, _ := json.Marshal(tokens)
	h := sha256.New()
	h.Write([]byte(c.vocabID))
	h.Write([]byte{0})
	h.Write(raw)
	return fmt.Sprintf("%s%x", keyPrefix, h.Sum(nil)[:16])
}
