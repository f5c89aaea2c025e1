package store

import (
	"context"
	"sync"

	"healthfund/internal/review/models"
	"healthfund/pkg/platform/sentinel"
)

// InMemoryStore keeps each application's decision log in insertion order.
type InMemoryStore struct {
	mu     sync.RWMutex
	seq    int64
	byCode map[string][]*models.Decision
}

// NewInMemoryStore creates an empty decision log.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byCode: make(map[string][]*models.Decision)}
}

// Append records d and assigns its sequence number.
func (s *InMemoryStore) Append(_ context.Context, d *models.Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	d.Seq = s.seq
	stored := *d
	s.byCode[d.ApplicationCode] = append(s.byCode[d.ApplicationCode], &stored)
	return nil
}

// Latest returns the most recently appended decision for code.
func (s *InMemoryStore) Latest(_ context.Context, code string) (*models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	log := s.byCode[code]
	if len(log) == 0 {
		return nil, sentinel.ErrNotFound
	}
	latest := *log[len(log)-1]
	return &latest, nil
}

// History returns every decision for code, oldest first.
func (s *InMemoryStore) History(_ context.Context, code string) ([]*models.Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Decision, 0, len(s.byCode[code]))
	for _, d := range s.byCode[code] {
		c := *d
		out = append(out, &c)
	}
	return out, nil
}
