// Package cache implements the in-memory TTL cache shared by the match
// aggregation and analysis pipeline. Expiry is evaluated lazily on read and
// eagerly by a background sweep, whichever occurs first, so an entry
// returned by Get is never older than its TTL.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Default TTLs by use. AI calls are the expensive resource the analysis
// TTL protects.
const (
	TTLMatchList = 2 * time.Minute
	TTLMatch     = 2 * time.Minute
	TTLAnalysis  = 10 * time.Minute
)

const sweepInterval = 60 * time.Second

var (
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs2_cache_hits_total",
		Help: "Total number of cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs2_cache_misses_total",
		Help: "Total number of cache misses",
	})

	cacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cs2_cache_evictions_total",
		Help: "Total number of entries evicted on expiry",
	})

	cacheSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cs2_cache_entries",
		Help: "Current number of cache entries",
	})
)

type entry struct {
	value    any
	storedAt time.Time
	ttl      time.Duration
}

// Stats is the snapshot exposed on the health endpoint.
type Stats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

// Cache is a thread-safe key/value store with per-entry expiry. Instances
// are constructed explicitly and injected; Start launches the background
// sweep and Stop halts it, so tests can create isolated instances.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(logger *zap.Logger) *Cache {
	return &Cache{
		entries: make(map[string]entry),
		logger:  logger.Sugar(),
	}
}

// Start launches the periodic sweep that removes expired entries
// proactively, bounding memory growth from keys that are never re-read.
func (c *Cache) Start(ctx context.Context) {
	c.ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.sweepLoop()
}

// Stop halts the background sweep. Safe to call once after Start.
func (c *Cache) Stop() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = entry{value: value, storedAt: time.Now(), ttl: ttl}
	cacheSize.Set(float64(len(c.entries)))
	c.mu.Unlock()

	c.logger.Debugw("Cache set", "key", key, "ttl", ttl)
}

// Get returns the value stored under key, or nil and false when the key is
// absent or expired. Expired entries are evicted on read.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok {
		cacheMisses.Inc()
		return nil, false
	}

	if time.Since(e.storedAt) > e.ttl {
		c.mu.Lock()
		// Re-check under the write lock: a concurrent Set may have
		// refreshed the entry.
		if cur, still := c.entries[key]; still && time.Since(cur.storedAt) > cur.ttl {
			delete(c.entries, key)
			cacheEvictions.Inc()
			cacheSize.Set(float64(len(c.entries)))
		}
		c.mu.Unlock()
		cacheMisses.Inc()
		c.logger.Debugw("Cache expired", "key", key, "age", time.Since(e.storedAt))
		return nil, false
	}

	cacheHits.Inc()
	return e.value, true
}

// Has reports whether key holds an unexpired entry.
func (c *Cache) Has(key string) bool {
	_, ok := c.Get(key)
	return ok
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	cacheSize.Set(float64(len(c.entries)))
	c.mu.Unlock()
}

func (c *Cache) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	cacheSize.Set(0)
	c.mu.Unlock()
}

func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return Stats{Size: len(c.entries), Keys: keys}
}

func (c *Cache) sweepLoop() {
	defer close(c.done)

	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Cache) sweep() {
	now := time.Now()
	removed := 0

	c.mu.Lock()
	for k, e := range c.entries {
		if now.Sub(e.storedAt) > e.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	cacheSize.Set(float64(len(c.entries)))
	c.mu.Unlock()

	if removed > 0 {
		cacheEvictions.Add(float64(removed))
		c.logger.Infow("Cache sweep removed expired entries", "removed", removed)
	}
}
