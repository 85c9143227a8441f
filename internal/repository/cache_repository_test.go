package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/academic-marks-api/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "marks")
	ctx := context.Background()

	var dest map[string]string
	err := repo.Get(ctx, "analysis:semester:3", &dest)
	assert.True(t, errors.Is(err, appErrors.ErrCacheMiss))
	require.NoError(t, repo.Set(ctx, "analysis:semester:3", map[string]string{"a": "b"}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "analysis:*"))
}

func TestCacheRepositoryNamespacesKeys(t *testing.T) {
	assert.Equal(t, "marks:analysis:semesters", NewCacheRepository(nil, "marks").key("analysis:semesters"))
	assert.Equal(t, "analysis:semesters", NewCacheRepository(nil, "").key("analysis:semesters"))
}
