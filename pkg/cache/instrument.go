package cache

import (
	"context"
	"time"

	"github.com/mhalstead/rigmeta/pkg/observability"
)

// Instrumented decorates a Cache so every operation is reported through
// the registered observability hooks. keyType labels the cached content
// ("graph", "artifact") so hits and misses can be attributed.
type Instrumented struct {
	inner   Cache
	keyType string
}

// WithHooks wraps a cache with hook reporting.
func WithHooks(inner Cache, keyType string) Cache {
	return &Instrumented{inner: inner, keyType: keyType}
}

// Get retrieves a value and records the hit or miss.
func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, hit, err := c.inner.Get(ctx, key)
	if err == nil {
		if hit {
			observability.Cache().OnCacheHit(ctx, c.keyType)
		} else {
			observability.Cache().OnCacheMiss(ctx, c.keyType)
		}
	}
	return data, hit, err
}

// Set stores a value and records the write.
func (c *Instrumented) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	err := c.inner.Set(ctx, key, data, ttl)
	if err == nil {
		observability.Cache().OnCacheSet(ctx, c.keyType, len(data))
	}
	return err
}

// Delete removes a value.
func (c *Instrumented) Delete(ctx context.Context, key string) error {
	return c.inner.Delete(ctx, key)
}

// Close closes the underlying cache.
func (c *Instrumented) Close() error {
	return c.inner.Close()
}

// Ensure Instrumented implements Cache.
var _ Cache = (*Instrumented)(nil)
