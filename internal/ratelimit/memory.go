package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Expired windows are swept once the map grows past this many keys.
const sweepThreshold = 4096

type memoryStore struct {
	mu      sync.Mutex
	windows map[string]*windowEntry
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

// NewMemoryStore builds the in-process store used when no Redis URL is
// configured. Counters are per instance.
func NewMemoryStore() Store {
	return &memoryStore{windows: make(map[string]*windowEntry)}
}

func (s *memoryStore) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.windows[key]
	if !ok || now.After(e.resetAt) {
		if len(s.windows) > sweepThreshold {
			for k, w := range s.windows {
				if now.After(w.resetAt) {
					delete(s.windows, k)
				}
			}
		}
		e = &windowEntry{resetAt: now.Add(window)}
		s.windows[key] = e
	}
	e.count++
	return e.count, nil
}

func (s *memoryStore) Close() error {
	return nil
}
