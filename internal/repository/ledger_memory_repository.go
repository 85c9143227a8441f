package repository

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
)

// MemoryLedgerStore keeps ledger documents in process memory. Used for development and tests.
type MemoryLedgerStore struct {
	mu   sync.RWMutex
	docs map[string]json.RawMessage
}

// NewMemoryLedgerStore constructs an empty store.
func NewMemoryLedgerStore() *MemoryLedgerStore {
	return &MemoryLedgerStore{docs: make(map[string]json.RawMessage)}
}

// Get returns a copy of the stored document.
func (s *MemoryLedgerStore) Get(_ context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[key]
	if !ok {
		return nil, false, nil
	}
	return append(json.RawMessage(nil), doc...), true, nil
}

// Set replaces the document stored at key.
func (s *MemoryLedgerStore) Set(_ context.Context, key string, value json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[key] = append(json.RawMessage(nil), value...)
	return nil
}

// Keys lists keys with the given prefix in lexical order.
func (s *MemoryLedgerStore) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.docs))
	for k := range s.docs {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
