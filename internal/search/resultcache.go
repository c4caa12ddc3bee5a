package search

import (
	"sync"
	"time"

	"github.com/lepinkainen/biblio/internal/books"
)

// CacheEntry is the last known result set for a normalized query.
type CacheEntry struct {
	Items      []books.Book
	TotalItems int
	Timestamp  time.Time
}

// resultCache is the in-memory stale-while-revalidate cache keyed by
// normalized query. It lives for the process only; the durable API response
// cache is a separate concern.
type resultCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]CacheEntry
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]CacheEntry),
	}
}

// Get returns the entry for key if present and fresh. Expired entries are
// evicted on read.
func (c *resultCache) Get(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return CacheEntry{}, false
	}
	if c.ttl > 0 && c.now().Sub(entry.Timestamp) > c.ttl {
		delete(c.entries, key)
		return CacheEntry{}, false
	}
	return entry, true
}

// Set stores items under key with the current timestamp, overwriting any
// prior entry.
func (c *resultCache) Set(key string, items []books.Book, totalItems int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = CacheEntry{
		Items:      items,
		TotalItems: totalItems,
		Timestamp:  c.now(),
	}
}
