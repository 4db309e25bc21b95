// internal/snapshot/memory.go
package snapshot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	custom_errors "github-trending-notifier/internal/errors"
	"github-trending-notifier/internal/model"
)

// MemoryStore keeps encoded snapshots in memory. Safe for concurrent use.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: make(map[string][]byte)}
}

func (s *MemoryStore) Location(key string) string { return "memory://" + key }

func (s *MemoryStore) Save(_ context.Context, key string, records []model.Repository) error {
	data, err := Encode(records)
	if err != nil {
		return &custom_errors.StorageWriteError{Path: s.Location(key), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[key] = data
	return nil
}

func (s *MemoryStore) Load(_ context.Context, key string) ([]model.Repository, error) {
	s.mu.RLock()
	data, ok := s.files[key]
	s.mu.RUnlock()
	if !ok {
		return nil, &custom_errors.StorageReadError{Path: s.Location(key), Err: fmt.Errorf("snapshot not found")}
	}

	records, err := Decode(data)
	if err != nil {
		return nil, &custom_errors.StorageReadError{Path: s.Location(key), Err: err}
	}
	return records, nil
}

// Keys returns the stored keys in sorted order.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.files))
	for k := range s.files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
