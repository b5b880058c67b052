package cache

import (
	"context"
	"sync"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"
)

// In-process CacheStore. Contents are lost on restart.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.CacheEntry
}

var _ ports.CacheStore = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]domain.CacheEntry)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (domain.CacheEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	return e, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, e domain.CacheEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e
	return nil
}

func (s *MemoryStore) Touch(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.LastAccess = at
		s.entries[key] = e
	}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

func (s *MemoryStore) List(_ context.Context) ([]ports.StoredKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ports.StoredKey, 0, len(s.entries))
	for k, e := range s.entries {
		out = append(out, ports.StoredKey{Key: k, LastAccess: e.LastAccess})
	}
	return out, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.entries), nil
}
