package cache

import (
	"sync"
	"time"

	"github.com/shelfgear/backend/internal/domain"
)

// cacheItem is a single resolved identifier with expiration.
type cacheItem struct {
	identifier domain.ProductIdentifier
	expiration time.Time
}

// MemoryCache is a thread-safe in-memory cache of resolved short links.
// Short-link redirect targets are stable, so remembering them skips the
// network hop on repeat previews. Metadata is never cached here: freshness
// matters more than repeat-call cost for the provider chain.
type MemoryCache struct {
	data  map[string]cacheItem
	mutex sync.RWMutex
}

// NewMemoryCache creates a new in-memory cache.
func NewMemoryCache() *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
	}

	// Remove expired entries every 10 minutes.
	go cache.cleanupExpired()

	return cache
}

// Get returns the cached identifier for a short-link URL.
func (c *MemoryCache) Get(key string) (domain.ProductIdentifier, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || time.Now().After(item.expiration) {
		return domain.ProductIdentifier{}, false
	}
	return item.identifier, true
}

// Set stores a resolved identifier with a TTL.
func (c *MemoryCache) Set(key string, id domain.ProductIdentifier, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = cacheItem{
		identifier: id,
		expiration: time.Now().Add(ttl),
	}
}

// Delete removes an entry.
func (c *MemoryCache) Delete(key string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.data, key)
}

// Size returns the current number of items (for debugging/monitoring).
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items.
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}

// cleanupExpired removes expired entries periodically.
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.mutex.Lock()
		now := time.Now()
		for key, item := range c.data {
			if now.After(item.expiration) {
				delete(c.data, key)
			}
		}
		c.mutex.Unlock()
	}
}
