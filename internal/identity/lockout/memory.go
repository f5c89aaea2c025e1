package lockout

import (
	"context"
	"sync"
	"time"

	"healthfund/pkg/requestcontext"
)

type entry struct {
	count     int
	expiresAt time.Time
}

// InMemoryStore is the single-process failure counter.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
}

// NewInMemoryStore creates an empty counter.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: make(map[string]entry)}
}

func (s *InMemoryStore) Failures(ctx context.Context, identifier string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[normalize(identifier)]
	if !ok || !requestcontext.Now(ctx).Before(e.expiresAt) {
		return 0, nil
	}
	return e.count, nil
}

func (s *InMemoryStore) RecordFailure(ctx context.Context, identifier string, window time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := requestcontext.Now(ctx)
	key := normalize(identifier)
	e, ok := s.entries[key]
	if !ok || !now.Before(e.expiresAt) {
		e = entry{expiresAt: now.Add(window)}
	}
	e.count++
	s.entries[key] = e
	return e.count, nil
}

func (s *InMemoryStore) Clear(_ context.Context, identifier string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, normalize(identifier))
	return nil
}
