package cache

import (
	"context"
	"encoding/json"
	"time"

	"pharmart/config"

	"github.com/redis/go-redis/v9"
)

// Cache is a thin cache-aside layer over redis. A nil *Cache (no REDIS_ADDR
// configured) disables caching; all methods are nil-safe.
type Cache struct {
	client *redis.Client
}

func New(cfg *config.RedisConfig) *Cache {
	if cfg.Addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return &Cache{client: client}
}

// Get unmarshals the cached value into dest, reporting whether it was found.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, dest) == nil
}

func (c *Cache) Set(ctx context.Context, key string, val interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	data, err := json.Marshal(val)
	if err != nil {
		return
	}
	c.client.Set(ctx, key, data, ttl)
}

func (c *Cache) Delete(ctx context.Context, keys ...string) {
	if c == nil {
		return
	}
	c.client.Del(ctx, keys...)
}
