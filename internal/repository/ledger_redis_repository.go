package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"
)

// RedisLedgerStore keeps each ledger as a plain string value under its key.
type RedisLedgerStore struct {
	client redis.UniversalClient
}

// NewRedisLedgerStore wraps a redis client.
func NewRedisLedgerStore(client redis.UniversalClient) *RedisLedgerStore {
	return &RedisLedgerStore{client: client}
}

// Get reads the document at key. redis.Nil maps to found=false.
func (s *RedisLedgerStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	raw, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return raw, true, nil
}

// Set writes the document without expiry.
func (s *RedisLedgerStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	if err := s.client.Set(ctx, key, []byte(value), 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Keys scans for keys with the given prefix. SCAN may return a key more than once,
// so the result is deduplicated.
func (s *RedisLedgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s*: %w", prefix, err)
	}
	return uniqueSorted(keys), nil
}

func uniqueSorted(keys []string) []string {
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, key := range keys {
		if len(out) > 0 && out[len(out)-1] == key {
			continue
		}
		out = append(out, key)
	}
	return out
}
