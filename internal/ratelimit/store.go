// Package ratelimit bounds how often one caller can start a parse. Each
// parse fans out to paid model calls, so the limiter sits in front of the
// pipeline, not behind it.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Store answers whether a keyed caller may proceed within a sliding window.
type Store interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// MemoryStore is a per-process sliding-window limiter. State does not
// survive restarts, which is acceptable for a single-instance deployment.
type MemoryStore struct {
	mu   sync.Mutex
	hits map[string][]time.Time
	now  func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

// Allow records the attempt and reports whether it fits inside the window.
// A non-positive limit disables limiting for the key.
func (s *MemoryStore) Allow(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	cutoff := now.Add(-window)

	kept := s.hits[key][:0]
	for _, t := range s.hits[key] {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}

	if len(kept) >= limit {
		s.hits[key] = kept
		return false, nil
	}

	s.hits[key] = append(kept, now)
	return true, nil
}
