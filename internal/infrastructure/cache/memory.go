package cache

import (
	"context"
	"sync"
	"time"

	"github.com/proposalagent/backend/internal/domain"
)

const cleanupInterval = 10 * time.Minute

// cacheItem represents a single analysis in the cache. A zero expiration never expires.
type cacheItem struct {
	value      *domain.AnalysisResult
	expiration time.Time
}

func (i cacheItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// MemoryCache is a thread-safe in-memory analysis cache.
// With a zero TTL it is a process-lifetime memoization table and Get
// returns the exact pointer that was stored.
type MemoryCache struct {
	data  map[string]cacheItem
	ttl   time.Duration
	mutex sync.RWMutex
	stop  chan struct{}
	once  sync.Once
}

// NewMemoryCache creates a new in-memory cache. ttl <= 0 disables expiry.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	cache := &MemoryCache{
		data: make(map[string]cacheItem),
		stop: make(chan struct{}),
	}

	if ttl > 0 {
		cache.ttl = ttl
		go cache.cleanupExpired()
	}

	return cache
}

// Get retrieves an analysis from the cache
func (c *MemoryCache) Get(ctx context.Context, key string) (*domain.AnalysisResult, error) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	item, exists := c.data[key]
	if !exists || item.expired(time.Now()) {
		return nil, domain.ErrCacheMiss
	}

	return item.value, nil
}

// Put stores an analysis. Concurrent puts for the same key are last-write-wins.
func (c *MemoryCache) Put(ctx context.Context, key string, result *domain.AnalysisResult) error {
	if result == nil {
		return domain.ErrInvalidRequest
	}

	item := cacheItem{value: result}
	if c.ttl > 0 {
		item.expiration = time.Now().Add(c.ttl)
	}

	c.mutex.Lock()
	c.data[key] = item
	c.mutex.Unlock()

	return nil
}

// Delete removes an analysis from the cache
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	delete(c.data, key)
	return nil
}

// cleanupExpired removes expired entries periodically until Close is called
func (c *MemoryCache) cleanupExpired() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.removeExpired(time.Now())
		}
	}
}

func (c *MemoryCache) removeExpired(now time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	for key, item := range c.data {
		if item.expired(now) {
			delete(c.data, key)
		}
	}
}

// Close stops the cleanup goroutine
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stop) })
	return nil
}

// Size returns the current number of items in the cache (for debugging/monitoring)
func (c *MemoryCache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}

// Clear removes all items from the cache
func (c *MemoryCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.data = make(map[string]cacheItem)
}
