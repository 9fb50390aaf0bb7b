package fetch

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/mitchellh/hashstructure/v2"
	"golang.org/x/sync/singleflight"
)

// DefaultTTL is how long API results stay fresh.
const DefaultTTL = time.Hour

// Key hashes the call arguments into a cache key.
func Key(parts ...any) (uint64, error) {
	h, err := hashstructure.Hash(parts, hashstructure.FormatV2, nil)
	if err != nil {
		return 0, fmt.Errorf("hashing cache key: %w", err)
	}
	return h, nil
}

type entry struct {
	value    any
	storedAt time.Time
}

// Stats summarizes cache usage.
type Stats struct {
	Entries int
	Hits    int
	Misses  int
	TTL     time.Duration
}

// Cache is a TTL map keyed by argument hashes. Concurrent loads of the
// same key share one call.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[uint64]entry
	hits    int
	misses  int
	group   singleflight.Group
	now     func() time.Time
}

func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{ttl: ttl, entries: make(map[uint64]entry), now: time.Now}
}

func (c *Cache) Get(key uint64) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, key)
		c.misses++
		return nil, false
	}
	c.hits++
	return e.value, true
}

func (c *Cache) Set(key uint64, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Clear drops every entry and returns how many were removed.
func (c *Cache) Clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[uint64]entry)
	return n
}

func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{Entries: len(c.entries), Hits: c.hits, Misses: c.misses, TTL: c.ttl}
}

// GetOrLoad returns the cached value for key or calls load once, caching a
// successful result. Errors are not cached.
func GetOrLoad[T any](ctx context.Context, c *Cache, key uint64, load func(context.Context) (T, error)) (T, error) {
	if v, ok := c.Get(key); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	v, err, _ := c.group.Do(strconv.FormatUint(key, 10), func() (any, error) {
		val, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.Set(key, val)
		return val, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}
