package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storefront/pkg/logger"
)

// RedisCache shares cached listings between instances.
type RedisCache struct {
	inner  *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedis connects using a redis:// URL and verifies the connection with PING.
func NewRedis(ctx context.Context, url string, ttl time.Duration, prefix string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newRedisFromOptions(ctx, opts, ttl, prefix)
}

func newRedisFromOptions(ctx context.Context, opts *redis.Options, ttl time.Duration, prefix string) (*RedisCache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}

	logger.LogInfo("Redis Cache Connected: %s (db %d), TTL: %s", opts.Addr, opts.DB, ttl)
	return &RedisCache{inner: client, ttl: ttl, prefix: prefix}, nil
}

func (c *RedisCache) key(k string) string {
	return c.prefix + k
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.inner.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.LogWarn("[CACHE] redis get %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

func (c *RedisCache) Set(ctx context.Context, key string, data []byte) {
	if err := c.inner.Set(ctx, c.key(key), data, c.ttl).Err(); err != nil {
		logger.LogWarn("[CACHE] redis set %s: %v", key, err)
	}
}

func (c *RedisCache) Delete(ctx context.Context, key string) {
	if err := c.inner.Del(ctx, c.key(key)).Err(); err != nil {
		logger.LogWarn("[CACHE] redis del %s: %v", key, err)
	}
}

func (c *RedisCache) Close() error {
	return c.inner.Close()
}
