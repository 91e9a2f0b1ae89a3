package store

import (
	"context"
	"strings"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and as a last-resort
// fallback when no persistent backend can be opened. Contents do not survive
// the process.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string][]byte

	// FailReads and FailWrites inject storage errors in tests.
	FailReads  error
	FailWrites error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string][]byte)}
}

func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, false, s.FailReads
	}

	value, ok := s.items[key]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, true, nil
}

func (s *MemoryStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	s.items[key] = cp
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWrites != nil {
		return s.FailWrites
	}

	delete(s.items, key)
	return nil
}

func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.FailReads != nil {
		return nil, s.FailReads
	}

	var keys []string
	for key := range s.items {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}

func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string][]byte)
	return nil
}

func (s *MemoryStore) Close() error {
	return nil
}

func (s *MemoryStore) Health() error {
	return nil
}

// Len returns the number of stored records; test helper.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

var _ Store = (*MemoryStore)(nil)
