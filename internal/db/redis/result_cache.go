package redis

import (
	"context"
	"time"

	"norelock.dev/listenify/grabber/internal/cache"
	"norelock.dev/listenify/grabber/internal/models"
)

// DefaultKeyPrefix namespaces result set keys.
const DefaultKeyPrefix = "grabber:search:"

// ResultCache is a ResultCache shared by every instance pointed at the same Redis.
// Each entry is one JSON document written with a single SET, so readers never
// observe a partial result set.
type ResultCache struct {
	client *Client
	prefix string
	ttl    time.Duration
}

// Compile-time check
var _ cache.ResultCache = (*ResultCache)(nil)

// NewResultCache creates a Redis-backed cache. A zero ttl keeps entries until
// Redis evicts them under its own maxmemory policy.
func NewResultCache(client *Client, prefix string, ttl time.Duration) *ResultCache {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ResultCache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Get loads the result set stored for query.
func (c *ResultCache) Get(ctx context.Context, query string) (models.ResultSet, bool, error) {
	var set models.ResultSet
	found, err := c.client.GetObject(ctx, c.key(query), &set)
	if err != nil || !found {
		return nil, false, err
	}
	return set, true, nil
}

// Put writes set under query.
func (c *ResultCache) Put(ctx context.Context, query string, set models.ResultSet) error {
	return c.client.SetObject(ctx, c.key(query), set, c.ttl)
}

// Len counts cached queries, or returns -1 if Redis could not be scanned.
func (c *ResultCache) Len(ctx context.Context) int {
	n, err := c.client.CountKeys(ctx, c.prefix+"*")
	if err != nil {
		return -1
	}
	return n
}

// Name identifies the backend.
func (c *ResultCache) Name() string {
	return "redis"
}

// Ping checks the backing connection.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx)
}

// key builds the Redis key. The query is used verbatim.
func (c *ResultCache) key(query string) string {
	return c.prefix + query
}
