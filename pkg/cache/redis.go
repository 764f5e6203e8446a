package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces every key the Redis store writes.
const DefaultRedisPrefix = "exchange-sdk:"

// scanBatch is the COUNT hint used when clearing the namespace.
const scanBatch = 500

// RedisStore keeps documents in Redis and relies on key expiry for TTLs.
type RedisStore struct {
	redis  *redis.Client
	prefix string
}

// NewRedisStore creates a store on redisClient. An empty prefix selects
// DefaultRedisPrefix.
func NewRedisStore(redisClient *redis.Client, prefix string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Name implements Store.
func (s *RedisStore) Name() string {
	return "redis"
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + key
}

// Get retrieves a document by key.
func (s *RedisStore) Get(ctx context.Context, key string) (Document, error) {
	data, err := s.redis.Get(ctx, s.redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		// Drop the corrupted value so the next lookup refetches.
		_ = s.Delete(ctx, key)
		return nil, fmt.Errorf("%w: %v", ErrInvalidEntry, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: null document", ErrInvalidEntry)
	}

	return doc, nil
}

// Set stores a document with the given TTL; Redis removes it on expiry.
func (s *RedisStore) Set(ctx context.Context, key string, value Document, ttl time.Duration) error {
	if value == nil {
		return fmt.Errorf("cache value cannot be nil")
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}

	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.redisKey(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}

	return nil
}

// Delete removes a cache entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Clear removes every key under the store prefix. Keys outside the prefix
// are left alone so a shared Redis database is safe to use.
func (s *RedisStore) Clear(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := s.redis.Scan(ctx, cursor, s.prefix+"*", scanBatch).Result()
		if err != nil {
			return fmt.Errorf("redis scan: %w", err)
		}
		if len(keys) > 0 {
			if err := s.redis.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("redis del: %w", err)
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
