// Package ratelimit implements the shared, time-windowed request budget that
// every outbound feed call must acquire before executing.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// CounterStore is the atomic counter backing a fixed rate window. Incr must
// have increment-and-get semantics, not read-then-write, so that concurrent
// workers sharing one budget cannot race past the ceiling.
type CounterStore interface {
	// Incr atomically increments the counter for key and returns the new
	// value. A fresh key expires after ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Get returns the current counter value for key, zero if absent.
	Get(ctx context.Context, key string) (int64, error)
}

// MemoryStore is a process-local CounterStore for single-instance deployments
// and tests. Expired windows are pruned lazily on access.
type MemoryStore struct {
	mu      sync.Mutex
	counts  map[string]int64
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryStore creates an in-memory counter store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		counts:  make(map[string]int64),
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Incr atomically increments the counter for key
func (s *MemoryStore) Incr(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()

	if _, ok := s.counts[key]; !ok {
		s.expires[key] = s.now().Add(ttl)
	}
	s.counts[key]++
	return s.counts[key], nil
}

// Get returns the current counter value for key
func (s *MemoryStore) Get(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.prune()
	return s.counts[key], nil
}

func (s *MemoryStore) prune() {
	now := s.now()
	for key, expiry := range s.expires {
		if now.After(expiry) {
			delete(s.counts, key)
			delete(s.expires, key)
		}
	}
}
