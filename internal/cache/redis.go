package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisCache общий кеш для нескольких экземпляров сервиса
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisClient создаёт клиента по адресу или redis:// URL
func NewRedisClient(addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, fmt.Errorf("redis address is empty")
	}

	opts, err := redis.ParseURL(addr)
	if err != nil {
		// Адрес вида host:port
		opts = &redis.Options{Addr: addr}
	}

	return redis.NewClient(opts), nil
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]string, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}

	var days []string
	if err := json.Unmarshal(raw, &days); err != nil {
		return nil, false, fmt.Errorf("decode cached days: %w", err)
	}
	return days, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, days []string) error {
	raw, err := json.Marshal(days)
	if err != nil {
		return fmt.Errorf("encode days: %w", err)
	}

	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
