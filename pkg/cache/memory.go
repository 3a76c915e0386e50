// Package cache provides the stores behind the gallery listing cache: a
// thread-safe in-memory store with TTL expiration and size-bounded eviction,
// and a Redis-backed store for multi-instance deployments.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront/pkg/logger"
	"storefront/pkg/utils"
)

const (
	DefaultMaxSize = 16 // MB
	DefaultTTL     = time.Minute

	// DefaultMaxItem keeps single listings from crowding out everything else.
	DefaultMaxItem = 512 * 1024

	GCInterval      = 5 * time.Minute
	MonitorInterval = 30 * time.Minute
)

// Store is implemented by every cache driver. Errors are logged by the driver
// and surface as a miss: a broken cache must never break a request.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Delete(ctx context.Context, key string)
	Close() error
}

type Options struct {
	// MaxCapacityMB bounds the total payload held in RAM.
	MaxCapacityMB int
	TTL           time.Duration
	// MaxItemBytes skips values larger than this. Zero means DefaultMaxItem.
	MaxItemBytes int64
}

type Item struct {
	Data      []byte
	ExpiresAt time.Time
	Size      int64
}

type MemoryCache struct {
	sync.RWMutex
	items     map[string]Item
	totalSize int64
	maxSize   int64
	maxItem   int64
	ttl       time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

// NewMemory initializes the in-memory cache and starts the GC and monitor workers.
// Call Close to stop them.
func NewMemory(opts Options) *MemoryCache {
	limitMB := int64(opts.MaxCapacityMB)
	if limitMB <= 0 {
		limitMB = DefaultMaxSize
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	maxItem := opts.MaxItemBytes
	if maxItem <= 0 {
		maxItem = DefaultMaxItem
	}

	c := &MemoryCache{
		items:   make(map[string]Item),
		maxSize: limitMB * 1024 * 1024,
		maxItem: maxItem,
		ttl:     ttl,
		stop:    make(chan struct{}),
	}

	go c.startGC()
	go c.startMonitor()

	logger.LogInfo("Memory Cache Initialized: %d MB Limit, TTL: %s", limitMB, ttl)
	return c
}

// Set stores a value with the configured TTL.
func (c *MemoryCache) Set(_ context.Context, key string, data []byte) {
	c.Lock()
	defer c.Unlock()

	size := int64(len(data))

	// A single item may not take more than half the cache.
	if size > c.maxSize/2 || size > c.maxItem {
		return
	}

	// Overwrite: remove the old size before adding the new one
	if old, exists := c.items[key]; exists {
		c.totalSize -= old.Size
		delete(c.items, key)
	}

	if c.totalSize+size > c.maxSize {
		c.prune()
	}

	c.items[key] = Item{
		Data:      data,
		ExpiresAt: time.Now().Add(c.ttl),
		Size:      size,
	}
	c.totalSize += size
}

// Get retrieves an item if it exists and hasn't expired.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.RLock()
	defer c.RUnlock()

	item, found := c.items[key]
	if !found || time.Now().After(item.ExpiresAt) {
		return nil, false
	}
	return item.Data, true
}

// Delete explicitly removes an item from the cache.
func (c *MemoryCache) Delete(_ context.Context, key string) {
	c.Lock()
	defer c.Unlock()

	if item, found := c.items[key]; found {
		delete(c.items, key)
		c.totalSize -= item.Size
	}
}

// Len reports the number of stored items, expired or not.
func (c *MemoryCache) Len() int {
	c.RLock()
	defer c.RUnlock()
	return len(c.items)
}

func (c *MemoryCache) Close() error {
	c.stopOnce.Do(func() { close(c.stop) })
	return nil
}

// prune evicts the soonest-expiring items until usage drops below 80%.
// Caller holds the write lock.
func (c *MemoryCache) prune() {
	if len(c.items) == 0 {
		return
	}

	targetSize := int64(float64(c.maxSize) * 0.80)

	type candidate struct {
		Key       string
		ExpiresAt time.Time
		Size      int64
	}

	candidates := make([]candidate, 0, len(c.items))
	for k, v := range c.items {
		candidates = append(candidates, candidate{k, v.ExpiresAt, v.Size})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].ExpiresAt.Before(candidates[j].ExpiresAt)
	})

	for _, cand := range candidates {
		if c.totalSize <= targetSize {
			break
		}
		delete(c.items, cand.Key)
		c.totalSize -= cand.Size
	}
}

// removeExpired drops every expired item and reports what it freed.
func (c *MemoryCache) removeExpired(now time.Time) (int, int64) {
	c.Lock()
	defer c.Unlock()

	removedCount := 0
	removedBytes := int64(0)
	for k, v := range c.items {
		if now.After(v.ExpiresAt) {
			delete(c.items, k)
			c.totalSize -= v.Size
			removedBytes += v.Size
			removedCount++
		}
	}
	return removedCount, removedBytes
}

func (c *MemoryCache) startGC() {
	ticker := time.NewTicker(GCInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case now := <-ticker.C:
			if n, freed := c.removeExpired(now); n > 0 {
				logger.LogInfo("[CACHE] GC: Cleaned %d items (%s freed)", n, utils.FormatBytes(freed))
			}
		}
	}
}

func (c *MemoryCache) startMonitor() {
	ticker := time.NewTicker(MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.RLock()
			count := len(c.items)
			used := c.totalSize
			max := c.maxSize
			c.RUnlock()

			if count == 0 {
				continue
			}
			percent := (float64(used) / float64(max)) * 100
			logger.LogInfo("[CACHE] Cache: %d items | Usage: %s / %s (%.2f%%)",
				count, utils.FormatBytes(used), utils.FormatBytes(max), percent)
		}
	}
}

// Noop is the pass-through store used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Noop) Set(context.Context, string, []byte)        {}
func (Noop) Delete(context.Context, string)             {}
func (Noop) Close() error                               { return nil }
