package cache

import (
	"context"
	"sync"
	"time"
)

// TTLCache is the in-memory Cache implementation: a map with per-entry
// expiration, LRU eviction above maxEntries and a background janitor.
type TTLCache struct {
	mu         sync.RWMutex
	entries    map[string]*cacheEntry
	maxEntries int

	stats  Stats
	stopCh chan struct{}
}

type cacheEntry struct {
	value    []byte
	expires  time.Time
	accessed time.Time
}

// Stats reports cache effectiveness counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
}

// NewTTLCache creates an in-memory cache bounded to maxEntries and
// starts its cleanup goroutine. Call Close when done.
func NewTTLCache(maxEntries int) *TTLCache {
	c := &TTLCache{
		entries:    make(map[string]*cacheEntry),
		maxEntries: maxEntries,
		stopCh:     make(chan struct{}),
	}
	go c.janitor()
	return c
}

// Get returns the cached value if present and not expired.
func (c *TTLCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok || time.Now().After(entry.expires) {
		c.stats.Misses++
		return nil, false, nil
	}
	entry.accessed = time.Now()
	c.stats.Hits++
	return entry.value, true, nil
}

// Set stores a value under key for ttl. Evicts the least recently
// accessed entry when the cache is full.
func (c *TTLCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLRU()
	}
	now := time.Now()
	c.entries[key] = &cacheEntry{value: value, expires: now.Add(ttl), accessed: now}
	return nil
}

// Stats returns a copy of the effectiveness counters.
func (c *TTLCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}

// Close stops the cleanup goroutine.
func (c *TTLCache) Close() { close(c.stopCh) }

func (c *TTLCache) evictLRU() {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if oldestKey == "" || e.accessed.Before(oldest) {
			oldestKey = k
			oldest = e.accessed
		}
	}
	if oldestKey != "" {
		delete(c.entries, oldestKey)
		c.stats.Evictions++
	}
}

func (c *TTLCache) janitor() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			now := time.Now()
			c.mu.Lock()
			for k, e := range c.entries {
				if now.After(e.expires) {
					delete(c.entries, k)
				}
			}
			c.mu.Unlock()
		case <-c.stopCh:
			return
		}
	}
}
