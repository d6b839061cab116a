package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ahrav/go-schulze/internal/ports"
)

var _ ports.CacheStore = (*RedisStore)(nil)

// DefaultRedisPrefix namespaces every key written by a RedisStore.
const DefaultRedisPrefix = "schulze:outcome:"

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int

	// Prefix is prepended to every key; Clear only removes keys under it.
	Prefix string
}

// RedisStore keeps evaluation outcomes in Redis so several server
// instances share one cache.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection with PING.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, ports.NewCacheError(cfg.Addr, "Ping", fmt.Errorf("%w: %v", ports.ErrServiceUnavailable, err))
	}
	return NewRedisStoreFromClient(client, cfg.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client. An empty prefix uses
// DefaultRedisPrefix.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

// Get returns the value under key; redis.Nil is reported as a miss.
func (r *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, ports.NewCacheError(key, "Get", err)
	}
	return data, true, nil
}

// Set stores value under key. A zero expiration keeps the key forever.
func (r *RedisStore) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := r.client.Set(ctx, r.prefix+key, value, expiration).Err(); err != nil {
		return ports.NewCacheError(key, "Set", err)
	}
	return nil
}

// Delete removes key.
func (r *RedisStore) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.prefix+key).Err(); err != nil {
		return ports.NewCacheError(key, "Delete", err)
	}
	return nil
}

// Clear removes every key under the store's prefix using SCAN, so other
// data in the same database is left alone.
func (r *RedisStore) Clear(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
		if len(keys) == 100 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return ports.NewCacheError(r.prefix+"*", "Clear", err)
			}
			keys = keys[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return ports.NewCacheError(r.prefix+"*", "Clear", err)
	}
	if len(keys) > 0 {
		if err := r.client.Del(ctx, keys...).Err(); err != nil {
			return ports.NewCacheError(r.prefix+"*", "Clear", err)
		}
	}
	return nil
}

// Close releases the underlying client.
func (r *RedisStore) Close() error { return r.client.Close() }
