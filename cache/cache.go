// Package cache keeps recent aggregated scrape results in memory so repeat
// requests for the same site can skip the crawl.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"

	"github.com/use-agent/sitebrief/models"
)

// entry holds a cached result with its creation timestamp.
type entry struct {
	result    *models.AggregatedScrapeResult
	createdAt time.Time
}

// Cache is a bounded in-memory cache of aggregated scrape results.
// It is safe for concurrent use.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*entry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time

	stop chan struct{}
	once sync.Once
}

// New creates a Cache holding at most maxEntries results for at most ttl.
// A background goroutine evicts expired entries until Close is called.
func New(maxEntries int, ttl time.Duration) *Cache {
	c := &Cache{
		store:      make(map[string]*entry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
		stop:       make(chan struct{}),
	}

	go c.cleanupLoop()
	return c
}

// Key derives the cache key for a site and tier.
func Key(siteURL string, tier models.Tier) string {
	h := sha256.New()
	h.Write([]byte(strings.ToLower(strings.TrimRight(siteURL, "/"))))
	h.Write([]byte("|"))
	h.Write([]byte(tier))
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a cached result younger than both maxAge and the cache TTL.
// maxAge <= 0 disables the lookup.
func (c *Cache) Get(key string, maxAge time.Duration) (*models.AggregatedScrapeResult, bool) {
	if maxAge <= 0 {
		return nil, false
	}

	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	age := c.now().Sub(e.createdAt)
	if age > maxAge || (c.ttl > 0 && age > c.ttl) {
		return nil, false
	}
	return e.result, true
}

// Set stores a successful result. Failed results are never cached. At
// capacity the oldest entry is evicted.
func (c *Cache) Set(key string, result *models.AggregatedScrapeResult) {
	if result == nil || !result.Success || c.maxEntries <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.store[key]; !exists && len(c.store) >= c.maxEntries {
		var (
			oldestKey string
			oldest    time.Time
		)
		for k, e := range c.store {
			if oldestKey == "" || e.createdAt.Before(oldest) {
				oldestKey, oldest = k, e.createdAt
			}
		}
		delete(c.store, oldestKey)
	}

	c.store[key] = &entry{result: result, createdAt: c.now()}
}

// Len returns the number of stored entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

// Close stops the cleanup goroutine.
func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) evictExpired() {
	if c.ttl <= 0 {
		return
	}
	cutoff := c.now().Add(-c.ttl)
	c.mu.Lock()
	for k, e := range c.store {
		if e.createdAt.Before(cutoff) {
			delete(c.store, k)
		}
	}
	c.mu.Unlock()
}

// cleanupLoop evicts expired entries every 5 minutes.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.evictExpired()
		case <-c.stop:
			return
		}
	}
}
