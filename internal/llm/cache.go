package llm

import (
	"sync"
	"time"
)

// cacheEntry represents a cached extraction.
type cacheEntry struct {
	expiry     time.Time
	extraction PaymentExtraction
}

// extractionCache provides thread-safe caching of extractions keyed by message id.
type extractionCache struct {
	entries map[string]cacheEntry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
}

// newExtractionCache creates a new cache with the specified TTL.
func newExtractionCache(ttl time.Duration) *extractionCache {
	if ttl == 0 {
		ttl = 15 * time.Minute
	}

	cache := &extractionCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup()

	return cache
}

// get retrieves an extraction if it exists and hasn't expired.
func (c *extractionCache) get(key string) (PaymentExtraction, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists || time.Now().After(entry.expiry) {
		return PaymentExtraction{}, false
	}
	return entry.extraction, true
}

// set stores an extraction in the cache.
func (c *extractionCache) set(key string, extraction PaymentExtraction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = cacheEntry{
		extraction: extraction,
		expiry:     time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *extractionCache) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, entry := range c.entries {
				if now.After(entry.expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// size returns the number of entries in the cache.
func (c *extractionCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine.
func (c *extractionCache) Close() {
	close(c.stopCh)
}
