package service

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
)

var errStoreDown = errors.New("connection refused")

type mockLedgerStore struct {
	mu      sync.Mutex
	data    map[string]json.RawMessage
	sets    int
	failSet int
	failGet bool
}

func newMockLedgerStore() *mockLedgerStore {
	return &mockLedgerStore{data: make(map[string]json.RawMessage)}
}

func (m *mockLedgerStore) Get(ctx context.Context, key string) (json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, false, errStoreDown
	}
	v, ok := m.data[key]
	return v, ok, nil
}

// Set fails on the failSet-th call (1-based) when failSet > 0.
func (m *mockLedgerStore) Set(ctx context.Context, key string, value json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	if m.failSet > 0 && m.sets >= m.failSet {
		return errStoreDown
	}
	m.data[key] = append(json.RawMessage(nil), value...)
	return nil
}

func (m *mockLedgerStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failGet {
		return nil, errStoreDown
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
