package store

import (
	"context"
	"slices"
	"sync"

	"healthfund/internal/certification/models"
	"healthfund/pkg/platform/sentinel"
)

// FieldApplicationCode is reported when a code is already certified.
const FieldApplicationCode = "application_code"

// InMemoryStore keeps certifications keyed by application code.
type InMemoryStore struct {
	mu     sync.RWMutex
	byCode map[string]*models.Certification
}

// NewInMemoryStore creates an empty certification store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byCode: make(map[string]*models.Certification)}
}

// Create stores c unless its application code is already certified.
func (s *InMemoryStore) Create(_ context.Context, c *models.Certification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byCode[c.ApplicationCode]; taken {
		return sentinel.Unique(FieldApplicationCode)
	}
	s.byCode[c.ApplicationCode] = clone(c)
	return nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.Certification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byCode[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(c), nil
}

func (s *InMemoryStore) Exists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCode[code]
	return ok, nil
}

func clone(c *models.Certification) *models.Certification {
	out := *c
	out.Conditions = slices.Clone(c.Conditions)
	return &out
}
