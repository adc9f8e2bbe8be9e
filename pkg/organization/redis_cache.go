package organization

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisCache shares resolved organizations across server instances.
// Entries are stored as JSON under a common key prefix.
type redisCache struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisCache creates a Redis-backed cache. An empty prefix defaults
// to "org:".
func NewRedisCache(client redis.UniversalClient, prefix string) Cache {
	if client == nil {
		panic("organization: redis client is required")
	}
	if prefix == "" {
		prefix = "org:"
	}
	return &redisCache{client: client, prefix: prefix}
}

func (c *redisCache) Get(ctx context.Context, key string) (*Organization, bool) {
	raw, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		return nil, false
	}

	var org Organization
	if err := json.Unmarshal(raw, &org); err != nil {
		// Stale or corrupt entry, drop it.
		c.client.Del(ctx, c.prefix+key)
		return nil, false
	}
	return &org, true
}

func (c *redisCache) Set(ctx context.Context, key string, org *Organization, ttl time.Duration) {
	raw, err := json.Marshal(org)
	if err != nil {
		return
	}
	c.client.Set(ctx, c.prefix+key, raw, ttl)
}

func (c *redisCache) Delete(ctx context.Context, key string) {
	c.client.Del(ctx, c.prefix+key)
}

func (c *redisCache) Close() error { return nil }
