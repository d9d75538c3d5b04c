// Package cache is a capacity-bounded, TTL-boxed read cache in front of the
// record store. It is an optimization layer only: values are invalidated by
// every write path, so a hit must always equal what the store would return.
package cache

import (
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
)

const (
	DefaultCapacity = 1000
	DefaultTTL      = 5 * time.Minute
	// Aggregate stats go stale faster than plain records.
	StatsTTL = time.Minute

	sweepInterval = time.Minute
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Stats is the running hit/miss tally.
type Stats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

type Cache struct {
	lru        *lru.Cache
	defaultTTL time.Duration

	mu     sync.Mutex
	hits   int64
	misses int64

	stop chan struct{}
	once sync.Once
}

// New builds a cache with the given capacity and default TTL and starts the
// background expiry sweep. Close stops the sweep.
func New(capacity int, defaultTTL time.Duration) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}

	// lru.New only errors on a non-positive size, which is guarded above.
	inner, _ := lru.New(capacity)

	c := &Cache{
		lru:        inner,
		defaultTTL: defaultTTL,
		stop:       make(chan struct{}),
	}
	go c.sweepLoop()
	return c
}

// Key builds a cache key in the {kind}:{id}[:{subId}] scheme.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Set stores a value. A zero ttl uses the cache default. LRU eviction is
// handled by the underlying cache when the insert exceeds capacity.
func (c *Cache) Set(key string, value interface{}, ttl ...time.Duration) {
	d := c.defaultTTL
	if len(ttl) > 0 && ttl[0] > 0 {
		d = ttl[0]
	}
	c.lru.Add(key, entry{value: value, expiresAt: time.Now().Add(d)})
}

// Get returns the cached value or nil on miss or expiry. Expired entries are
// removed on access.
func (c *Cache) Get(key string) interface{} {
	v, ok := c.lru.Get(key)
	if ok {
		e := v.(entry)
		if time.Now().Before(e.expiresAt) {
			c.count(true)
			return e.value
		}
		c.lru.Remove(key)
	}
	c.count(false)
	return nil
}

// Invalidate removes every key containing the pattern. Used to drop all
// entries belonging to one user in a single call.
func (c *Cache) Invalidate(pattern string) int {
	removed := 0
	for _, k := range c.lru.Keys() {
		key := k.(string)
		if strings.Contains(key, pattern) {
			c.lru.Remove(k)
			removed++
		}
	}
	return removed
}

// Clear drops everything and returns the number of entries freed.
func (c *Cache) Clear() int {
	n := c.lru.Len()
	c.lru.Purge()
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Hits: c.hits, Misses: c.misses, Entries: c.lru.Len()}
}

func (c *Cache) Close() {
	c.once.Do(func() { close(c.stop) })
}

func (c *Cache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

func (c *Cache) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.stop:
			return
		case <-ticker.C:
			c.sweep()
		}
	}
}

// sweep removes TTL-expired entries regardless of capacity pressure.
func (c *Cache) sweep() {
	now := time.Now()
	for _, k := range c.lru.Keys() {
		if v, ok := c.lru.Peek(k); ok {
			if now.After(v.(entry).expiresAt) {
				c.lru.Remove(k)
			}
		}
	}
}
