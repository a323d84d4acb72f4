package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemoryCache implements Service using in-memory storage with LRU eviction.
// It is the run-scoped fast tier of the layered cache.
type MemoryCache struct {
	data    map[string][]byte
	access  map[string]time.Time
	mutex   sync.RWMutex
	maxSize int
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache(opts ...MemoryOption) *MemoryCache {
	cfg := &MemoryConfig{
		MaxSize: 1000,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryCache{
		data:    make(map[string][]byte),
		access:  make(map[string]time.Time),
		maxSize: cfg.MaxSize,
	}
}

func (mc *MemoryCache) Set(_ context.Context, key string, value []byte) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	if _, exists := mc.data[key]; !exists && len(mc.data) >= mc.maxSize {
		mc.evictLRU()
	}

	buf := make([]byte, len(value))
	copy(buf, value)
	mc.data[key] = buf
	mc.access[key] = time.Now()
	return nil
}

func (mc *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	value, exists := mc.data[key]
	if !exists {
		return nil, ErrCacheMiss
	}

	mc.access[key] = time.Now()
	out := make([]byte, len(value))
	copy(out, value)
	return out, nil
}

func (mc *MemoryCache) Delete(_ context.Context, keys ...string) error {
	mc.mutex.Lock()
	defer mc.mutex.Unlock()

	for _, key := range keys {
		delete(mc.data, key)
		delete(mc.access, key)
	}
	return nil
}

func (mc *MemoryCache) Exists(_ context.Context, key string) (bool, error) {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	_, ok := mc.data[key]
	return ok, nil
}

func (mc *MemoryCache) Keys(_ context.Context, prefix string) ([]string, error) {
	mc.mutex.RLock()
	defer mc.mutex.RUnlock()

	keys := make([]string, 0, len(mc.data))
	for k := range mc.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// Close releases nothing; present to satisfy Service.
func (mc *MemoryCache) Close() error { return nil }

// evictLRU removes the least recently used entry. Caller holds the lock.
func (mc *MemoryCache) evictLRU() {
	var oldest string
	var oldestAt time.Time
	for k, at := range mc.access {
		if oldest == "" || at.Before(oldestAt) {
			oldest = k
			oldestAt = at
		}
	}
	if oldest != "" {
		delete(mc.data, oldest)
		delete(mc.access, oldest)
	}
}
