package store

import (
	"context"
	"sync"
	"time"
)

// RateLimitMemoryStore keeps sliding-window counters in process memory.
// Suitable for single-instance deployments and tests; multi-instance
// setups use the redis store so limits hold across replicas.
type RateLimitMemoryStore struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// NewRateLimitMemoryStore creates a new in-memory rate limit store.
func NewRateLimitMemoryStore() *RateLimitMemoryStore {
	return &RateLimitMemoryStore{
		windows: make(map[string][]time.Time),
	}
}

func (s *RateLimitMemoryStore) Record(_ context.Context, key string, window time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	kept := s.windows[key][:0]
	for _, ts := range s.windows[key] {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	kept = append(kept, now)
	s.windows[key] = kept

	return int64(len(kept)), nil
}
