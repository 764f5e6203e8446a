package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local store. Expired entries are dropped lazily
// on read.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]storedEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]storedEntry)}
}

// Name implements Store.
func (s *MemoryStore) Name() string {
	return "memory"
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, key string) (Document, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrCacheMiss
	}
	if entry.IsExpired() {
		s.mu.Lock()
		if current, ok := s.entries[key]; ok && current.IsExpired() {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}

	return entry.Value.Clone(), nil
}

// Set implements Store.
func (s *MemoryStore) Set(_ context.Context, key string, value Document, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = newStoredEntry(key, value, ttl)
	return nil
}

// Delete implements Store.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

// Clear implements Store.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]storedEntry)
	return nil
}

// Len returns the number of entries, including ones that expired but have
// not been read since.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the keys currently held.
func (s *MemoryStore) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for k := range s.entries {
		keys = append(keys, k)
	}
	return keys
}
