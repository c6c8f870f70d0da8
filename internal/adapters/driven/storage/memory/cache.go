package memory

import (
	"context"
	"sync"
	"time"

	"github.com/custodia-labs/medterm/internal/core/domain"
	"github.com/custodia-labs/medterm/internal/core/ports/driven"
)

// Ensure Cache implements the interface.
var _ driven.LookupCache = (*Cache)(nil)

type cacheItem struct {
	entries []domain.LookupEntry
	expires time.Time
}

// Cache is an in-process driven.LookupCache with per-key expiry.
// Expired items are dropped lazily on read.
type Cache struct {
	mu    sync.RWMutex
	items map[string]cacheItem
	now   func() time.Time
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		items: make(map[string]cacheItem),
		now:   time.Now,
	}
}

// Get returns cached entries and true on a live hit.
func (c *Cache) Get(_ context.Context, key string) ([]domain.LookupEntry, bool, error) {
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}
	if !item.expires.IsZero() && !c.now().Before(item.expires) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return append([]domain.LookupEntry(nil), item.entries...), true, nil
}

// Set stores entries under key. A ttl <= 0 never expires.
func (c *Cache) Set(_ context.Context, key string, entries []domain.LookupEntry, ttl time.Duration) error {
	item := cacheItem{entries: append([]domain.LookupEntry(nil), entries...)}
	if ttl > 0 {
		item.expires = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.items[key] = item
	c.mu.Unlock()
	return nil
}

// Delete drops the given keys.
func (c *Cache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.items, k)
	}
	return nil
}

// Len returns the number of stored items, including expired ones not yet evicted.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close releases resources.
func (c *Cache) Close() error {
	return nil
}
