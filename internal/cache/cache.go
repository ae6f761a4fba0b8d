// Package cache stores search result sets keyed by the raw query string.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"norelock.dev/listenify/grabber/internal/models"
)

// DefaultMaxEntries bounds the in-memory cache when no size is configured.
const DefaultMaxEntries = 1000

// ResultCache maps a query to the result set first returned for it.
// Keys are used verbatim: case-sensitive and untrimmed.
type ResultCache interface {
	// Get returns the cached set for query. A miss returns ok == false and a nil error.
	Get(ctx context.Context, query string) (set models.ResultSet, ok bool, err error)

	// Put stores set under query, replacing any previous entry as a whole.
	Put(ctx context.Context, query string, set models.ResultSet) error

	// Len reports the number of cached entries, or -1 when unknown.
	Len(ctx context.Context) int

	// Name identifies the backend in logs and health output.
	Name() string
}

// MemoryCache is a process-local ResultCache with least-recently-used eviction.
type MemoryCache struct {
	entries *lru.Cache[string, models.ResultSet]
}

// Compile-time check
var _ ResultCache = (*MemoryCache)(nil)

// NewMemoryCache creates a cache holding at most maxEntries result sets.
// A non-positive maxEntries selects DefaultMaxEntries.
func NewMemoryCache(maxEntries int) *MemoryCache {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	// lru.New only fails for a non-positive size
	entries, _ := lru.New[string, models.ResultSet](maxEntries)
	return &MemoryCache{entries: entries}
}

// Get returns a copy of the cached set and marks it recently used.
func (c *MemoryCache) Get(_ context.Context, query string) (models.ResultSet, bool, error) {
	set, ok := c.entries.Get(query)
	if !ok {
		return nil, false, nil
	}
	return set.Clone(), true, nil
}

// Put stores a private copy of set.
func (c *MemoryCache) Put(_ context.Context, query string, set models.ResultSet) error {
	c.entries.Add(query, set.Clone())
	return nil
}

// Len reports the number of cached entries.
func (c *MemoryCache) Len(_ context.Context) int {
	return c.entries.Len()
}

// Name identifies the backend.
func (c *MemoryCache) Name() string {
	return "memory"
}
