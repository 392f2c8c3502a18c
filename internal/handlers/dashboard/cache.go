package dashboard

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a short-TTL byte cache for rendered dashboard responses.
// Aggregations walk weeks of rows; the dashboard polls every few
// seconds. Any cache failure degrades to a direct read.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// CacheConfig holds configuration for the response cache
type CacheConfig struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewCache creates a new response cache
func NewCache(cfg *CacheConfig) (*Cache, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.Client == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 60 * time.Second
	}

	return &Cache{
		client: cfg.Client,
		ttl:    ttl,
	}, nil
}

// Get returns the cached payload for a key, or false on a miss or any
// redis failure
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	payload, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return payload, true
}

// Set stores a payload under a key for the configured TTL
func (c *Cache) Set(ctx context.Context, key string, payload []byte) error {
	return c.client.Set(ctx, key, payload, c.ttl).Err()
}
