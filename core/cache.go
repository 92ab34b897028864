package core

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Cache is a keyed store with TTL-only expiry. Values are JSON encoded so that
// the in-memory and redis implementations are interchangeable.
type Cache interface {
	// Get decodes the cached value into dst. found is false on a miss or an expired entry.
	Get(ctx context.Context, key string, dst interface{}) (found bool, err error)
	Set(ctx context.Context, key string, val interface{}, ttl time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

type memoryCacheItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is a process-local Cache. It is safe for concurrent use.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memoryCacheItem
	now   func() time.Time
}

var _ Cache = (*MemoryCache)(nil)

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memoryCacheItem), now: time.Now}
}

// WithClock overrides the clock used to evaluate expiry.
func (c *MemoryCache) WithClock(now func() time.Time) *MemoryCache {
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string, dst interface{}) (bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if !c.now().Before(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return false, nil
	}
	if err := json.Unmarshal(item.data, dst); err != nil {
		return false, errors.Wrapf(err, "decoding cached %q", key)
	}
	return true, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, val interface{}, ttl time.Duration) error {
	data, err := json.Marshal(val)
	if err != nil {
		return errors.Wrapf(err, "encoding %q", key)
	}
	c.mu.Lock()
	c.items[key] = memoryCacheItem{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache) Invalidate(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(keys) == 0 {
		c.items = make(map[string]memoryCacheItem)
		return nil
	}
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}
