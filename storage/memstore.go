package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
)

// memoryStore holds entries in process memory. Its contents end with the
// owning process, which makes it the session-scoped medium.
type memoryStore struct {
	entries map[string][]byte
	size    int64
	quota   int64
	mu      sync.RWMutex
}

// NewMemoryStore creates an in-memory Store. A positive quota caps the total
// size of keys and values in bytes; saves beyond it fail with
// ErrQuotaExceeded.
func NewMemoryStore(quota int64) Store {
	return &memoryStore{
		entries: make(map[string][]byte),
		quota:   quota,
	}
}

// NewMemory creates a session Backend held in memory.
func NewMemory(quota int64) *KV {
	return NewKV(NewMemoryStore(quota), Session)
}

func (s *memoryStore) List(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}

func (s *memoryStore) Load(_ context.Context, keys ...string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries := make([]Entry, 0, len(keys))
	for _, key := range keys {
		val, ok := s.entries[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
		}
		entries = append(entries, Entry{Key: key, Value: slices.Clone(val)})
	}
	return entries, nil
}

func (s *memoryStore) Save(_ context.Context, entries ...Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.size
	for _, e := range entries {
		if old, ok := s.entries[e.Key]; ok {
			size -= entrySize(e.Key, old)
		}
		size += entrySize(e.Key, e.Value)
	}
	if s.quota > 0 && size > s.quota {
		return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, size, s.quota)
	}

	for _, e := range entries {
		s.entries[e.Key] = slices.Clone(e.Value)
	}
	s.size = size
	return nil
}

func (s *memoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, key := range keys {
		if old, ok := s.entries[key]; ok {
			s.size -= entrySize(key, old)
			delete(s.entries, key)
		}
	}
	return nil
}

func entrySize(key string, value []byte) int64 {
	return int64(len(key) + len(value))
}
