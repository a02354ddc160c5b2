package cache

import (
	"context"
	"sync"
	"time"

	"github.com/caliban/dropzone/pkg/metrics"
)

// memEntry is one in-memory cache record.
type memEntry struct {
	payload   []byte
	storedAt  time.Time
	expiresAt time.Time
}

// MemoryStore is an in-process Store. It backs the local tier when no cache
// directory is configured, and doubles as the test double for both tiers.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memEntry
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memEntry)}
}

// Get returns the payload for key; expired entries are evicted and reported
// as absent.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if !time.Now().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a concurrent Set may have refreshed it.
		if cur, ok := s.entries[key]; ok && !time.Now().Before(cur.expiresAt) {
			delete(s.entries, key)
			metrics.RecordCacheEviction()
		}
		s.mu.Unlock()
		return nil, false, nil
	}

	return e.payload, true, nil
}

// Set stores payload under key for ttl.
func (s *MemoryStore) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if key == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	now := time.Now()
	s.mu.Lock()
	s.entries[key] = memEntry{
		payload:   payload,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	s.mu.Unlock()
	return nil
}

// Delete removes key if present.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len returns the number of live entries (expired ones included until read).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
