// Package cache provides a small in-memory TTL cache used by the store for
// settings and catalog lookups.
package cache

import (
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	// DefaultTTL is applied when Set is called without an explicit TTL.
	DefaultTTL time.Duration
	// CleanupInterval controls how often expired items are swept.
	CleanupInterval time.Duration
	// MaxItems caps the number of cached entries; 0 means unbounded.
	// When the cap is hit the entry closest to expiry is evicted.
	MaxItems int
	// OnEviction, when set, is invoked for every evicted or expired entry.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a mutex-guarded TTL cache.
type Cache struct {
	mu     sync.RWMutex
	items  map[string]item
	config Config

	stopCleanup chan struct{}
	stopOnce    sync.Once
}

// New creates a cache and starts its background sweeper.
func New(config Config) *Cache {
	if config.DefaultTTL <= 0 {
		config.DefaultTTL = 10 * time.Minute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = 5 * time.Minute
	}

	c := &Cache{
		items:       make(map[string]item),
		config:      config,
		stopCleanup: make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get returns the cached value for key, or false when absent or expired.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if time.Now().After(it.expiresAt) {
		c.Delete(key)
		return nil, false
	}
	return it.value, true
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetWithTTL(key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key with an explicit TTL.
func (c *Cache) SetWithTTL(key string, value any, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.config.DefaultTTL
	}

	c.mu.Lock()
	if c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		if _, exists := c.items[key]; !exists {
			c.evictOldestLocked()
		}
	}
	c.items[key] = item{value: value, expiresAt: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes key from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	it, ok := c.items[key]
	if ok {
		delete(c.items, key)
	}
	c.mu.Unlock()

	if ok && c.config.OnEviction != nil {
		c.config.OnEviction(key, it.value)
	}
}

// Clear removes every entry.
func (c *Cache) Clear() {
	c.mu.Lock()
	evicted := c.items
	c.items = make(map[string]item)
	c.mu.Unlock()

	if c.config.OnEviction != nil {
		for k, it := range evicted {
			c.config.OnEviction(k, it.value)
		}
	}
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the background sweeper.
func (c *Cache) Close() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

// evictOldestLocked removes the entry closest to expiry. Caller holds mu.
func (c *Cache) evictOldestLocked() {
	var oldestKey string
	var oldestExpiry time.Time
	first := true
	for k, it := range c.items {
		if first || it.expiresAt.Before(oldestExpiry) {
			oldestKey = k
			oldestExpiry = it.expiresAt
			first = false
		}
	}
	if !first {
		it := c.items[oldestKey]
		delete(c.items, oldestKey)
		if c.config.OnEviction != nil {
			c.config.OnEviction(oldestKey, it.value)
		}
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) removeExpired() {
	now := time.Now()

	c.mu.Lock()
	var expired map[string]any
	for k, it := range c.items {
		if now.After(it.expiresAt) {
			if expired == nil {
				expired = make(map[string]any)
			}
			expired[k] = it.value
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	if c.config.OnEviction != nil {
		for k, v := range expired {
			c.config.OnEviction(k, v)
		}
	}
}
