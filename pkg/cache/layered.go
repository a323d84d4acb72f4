package cache

import (
	"context"
)

// LayeredCache implements a two-level cache: L1 memory scoped to one run,
// L2 a persistent backend (file or Redis).
type LayeredCache struct {
	memCache   *MemoryCache
	persistent Service
}

// LayeredOption configures LayeredCache.
type LayeredOption func(*LayeredConfig)

// LayeredConfig holds layered cache configuration.
type LayeredConfig struct {
	MemoryMaxSize int
}

// WithLayeredMemorySize sets the L1 capacity.
func WithLayeredMemorySize(size int) LayeredOption {
	return func(c *LayeredConfig) {
		c.MemoryMaxSize = size
	}
}

// NewLayeredCache creates a layered cache over a persistent backend.
func NewLayeredCache(persistent Service, opts ...LayeredOption) *LayeredCache {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &LayeredCache{
		memCache:   NewMemoryCache(WithMemoryMaxSize(cfg.MemoryMaxSize)),
		persistent: persistent,
	}
}

func (lc *LayeredCache) Set(ctx context.Context, key string, value []byte) error {
	// Write-through: persistent first, then memory
	if err := lc.persistent.Set(ctx, key, value); err != nil {
		return err
	}
	_ = lc.memCache.Set(ctx, key, value)
	return nil
}

func (lc *LayeredCache) Get(ctx context.Context, key string) ([]byte, error) {
	// L1: try memory first
	if v, err := lc.memCache.Get(ctx, key); err == nil {
		return v, nil
	}

	// L2: persistent tier
	v, err := lc.persistent.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	// Store in memory for next time
	_ = lc.memCache.Set(ctx, key, v)
	return v, nil
}

func (lc *LayeredCache) Delete(ctx context.Context, keys ...string) error {
	_ = lc.memCache.Delete(ctx, keys...)
	return lc.persistent.Delete(ctx, keys...)
}

func (lc *LayeredCache) Exists(ctx context.Context, key string) (bool, error) {
	return lc.persistent.Exists(ctx, key)
}

func (lc *LayeredCache) Keys(ctx context.Context, prefix string) ([]string, error) {
	return lc.persistent.Keys(ctx, prefix)
}

// Close closes both cache layers.
func (lc *LayeredCache) Close() error {
	_ = lc.memCache.Close()
	return lc.persistent.Close()
}
