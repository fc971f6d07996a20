package cache

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisCache caches feeds for an hour, matching the Cache-Control max-age
// served to feed crawlers. Jitter spreads expiry so all feeds of a store do
// not regenerate in the same burst.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: time.Hour,
	}
}

type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, storeSlug, feedType string) (string, error) {
	body, err := r.client.Get(ctx, cacheKey(storeSlug, feedType)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrCacheMiss
	}
	if err != nil {
		return "", fmt.Errorf("redis get failed: %w", err)
	}
	return body, nil
}

func (r RedisCache) Set(ctx context.Context, storeSlug, feedType, body string) error {
	jitter := time.Duration(rand.Intn(300)) * time.Second
	ttl := r.baseTTL + jitter
	if err := r.client.Set(ctx, cacheKey(storeSlug, feedType), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r RedisCache) Delete(ctx context.Context, storeSlug, feedType string) error {
	if err := r.client.Del(ctx, cacheKey(storeSlug, feedType)).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(storeSlug, feedType string) string {
	return fmt.Sprintf("feed:%s:%s", storeSlug, feedType)
}
