package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLedgerStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()

	_, found, err := store.Get(ctx, "student_marks_1X21CS001")
	require.NoError(t, err)
	assert.False(t, found)

	doc := json.RawMessage(`[{"id":"a"}]`)
	require.NoError(t, store.Set(ctx, "student_marks_1X21CS001", doc))
	doc[2] = 'X'

	got, found, err := store.Get(ctx, "student_marks_1X21CS001")
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `[{"id":"a"}]`, string(got))
}

func TestMemoryLedgerStoreKeys(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryLedgerStore()
	for _, key := range []string{"student_marks_B", "other", "student_marks_A"} {
		require.NoError(t, store.Set(ctx, key, json.RawMessage(`[]`)))
	}

	keys, err := store.Keys(ctx, "student_marks_")
	require.NoError(t, err)
	assert.Equal(t, []string{"student_marks_A", "student_marks_B"}, keys)
}
