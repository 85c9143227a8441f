package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

// CacheRepository stores JSON payloads in redis under a namespace prefix.
type CacheRepository struct {
	client    redis.UniversalClient
	namespace string
}

// NewCacheRepository constructs a cache repository. A nil client turns every call into a miss or no-op.
func NewCacheRepository(client redis.UniversalClient, namespace string) *CacheRepository {
	return &CacheRepository{client: client, namespace: namespace}
}

func (r *CacheRepository) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Get unmarshals the cached value into dest or returns appErrors.ErrCacheMiss.
func (r *CacheRepository) Get(ctx context.Context, key string, dest interface{}) error {
	if r.client == nil {
		return appErrors.ErrCacheMiss
	}
	raw, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return appErrors.ErrCacheMiss
		}
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set marshals value and stores it with ttl.
func (r *CacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if r.client == nil {
		return nil
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.key(key), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeleteByPattern removes entries matching a glob pattern within the namespace.
func (r *CacheRepository) DeleteByPattern(ctx context.Context, pattern string) error {
	if r.client == nil {
		return nil
	}
	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(pattern), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan pattern %s: %w", pattern, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete %s: %w", pattern, err)
	}
	return nil
}
