package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps records in process memory. Records whose window has
// elapsed are evicted lazily. It does not share state between instances.
type MemoryStore struct {
	mu              sync.Mutex
	records         map[string]*Record
	cleanupInterval time.Duration
	lastCleanup     time.Time
}

// MemoryOption configures a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithCleanupInterval sets how often expired records are swept (default: 1m).
func WithCleanupInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if d > 0 {
			s.cleanupInterval = d
		}
	}
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		records:         make(map[string]*Record),
		cleanupInterval: time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Take implements Store.
func (s *MemoryStore) Take(_ context.Context, key string, limit int, window time.Duration, now time.Time) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastCleanup) >= s.cleanupInterval {
		for k, rec := range s.records {
			if !now.Before(rec.WindowStart.Add(window)) {
				delete(s.records, k)
			}
		}
		s.lastCleanup = now
	}

	rec, ok := s.records[key]
	if !ok || !now.Before(rec.WindowStart.Add(window)) {
		rec = &Record{Key: key, Count: 1, WindowStart: now}
		s.records[key] = rec
		return *rec, nil
	}

	if rec.Count <= limit {
		rec.Count++
	}
	return *rec, nil
}

// Len returns the number of records currently held.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
