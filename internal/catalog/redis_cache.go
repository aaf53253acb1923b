package catalog

import (
	"context"
	"errors"
	"time"

	pkgredis "github.com/hananlabs/wishpos-backend/pkg/redis"
)

// RedisCache is the external cache backend, shared by every API instance.
type RedisCache struct {
	client *pkgredis.Client
}

// NewRedisCache wraps the platform redis client as a catalog cache.
func NewRedisCache(client *pkgredis.Client) (*RedisCache, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := c.client.Get(ctx, c.client.CatalogKey(key))
	if err != nil {
		if errors.Is(err, pkgredis.Nil) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return c.client.Set(ctx, c.client.CatalogKey(key), value, ttl)
}

func (c *RedisCache) Clear(ctx context.Context) error {
	return c.client.DelPrefix(ctx, c.client.CatalogKey(""))
}
