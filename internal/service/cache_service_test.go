package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

type memoryCacheRepo struct {
	mu      sync.Mutex
	data    map[string][]byte
	failGet bool
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{data: make(map[string][]byte)}
}

func (r *memoryCacheRepo) Get(_ context.Context, key string, dest interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failGet {
		return errors.New("redis down")
	}
	raw, ok := r.data[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (r *memoryCacheRepo) Set(_ context.Context, key string, value interface{}, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	r.data[key] = raw
	return nil
}

func (r *memoryCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k := range r.data {
		if ok, _ := path.Match(pattern, k); ok {
			delete(r.data, k)
		}
	}
	return nil
}

func TestCacheServiceHitMissAndInvalidate(t *testing.T) {
	repo := newMemoryCacheRepo()
	metrics := NewMetricsService()
	cache := NewCacheService(repo, metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out []string
	assert.False(t, cache.Get(ctx, "analysis:semester:3", &out))

	cache.Set(ctx, "analysis:semester:3", []string{"DBMS"}, 0)
	assert.True(t, cache.Get(ctx, "analysis:semester:3", &out))
	assert.Equal(t, []string{"DBMS"}, out)

	cache.Invalidate(ctx, "analysis:*")
	assert.False(t, cache.Get(ctx, "analysis:semester:3", &out))

	snap := metrics.Snapshot()
	assert.Equal(t, uint64(1), snap.CacheHits)
	assert.Equal(t, uint64(2), snap.CacheMisses)
}

func TestCacheServiceDisabledAndFailing(t *testing.T) {
	ctx := context.Background()
	var out string

	disabled := NewCacheService(newMemoryCacheRepo(), nil, 0, nil, false)
	assert.False(t, disabled.Enabled())
	disabled.Set(ctx, "k", "v", 0)
	assert.False(t, disabled.Get(ctx, "k", &out))

	repo := newMemoryCacheRepo()
	repo.failGet = true
	failing := NewCacheService(repo, nil, 0, nil, true)
	assert.False(t, failing.Get(ctx, "k", &out))
}
