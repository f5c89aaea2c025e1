package store

import (
	"context"
	"sync"

	"healthfund/internal/membership/models"
	"healthfund/pkg/platform/sentinel"
)

// FieldMemberNumber is reported when a generated member number is taken.
const FieldMemberNumber = "member_number"

// InMemoryStore keeps memberships keyed by national ID.
type InMemoryStore struct {
	mu      sync.RWMutex
	byNatID map[string]*models.Membership
	numbers map[string]struct{}
}

// NewInMemoryStore creates an empty membership store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		byNatID: make(map[string]*models.Membership),
		numbers: make(map[string]struct{}),
	}
}

// CreateIfAbsent stores m unless its national ID already holds a membership,
// in which case created is false. A taken member number is a
// sentinel.UniqueViolation on FieldMemberNumber.
func (s *InMemoryStore) CreateIfAbsent(_ context.Context, m *models.Membership) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byNatID[m.NationalID]; ok {
		return false, nil
	}
	if _, ok := s.numbers[m.MemberNumber]; ok {
		return false, sentinel.Unique(FieldMemberNumber)
	}
	stored := *m
	s.byNatID[m.NationalID] = &stored
	s.numbers[m.MemberNumber] = struct{}{}
	return true, nil
}

func (s *InMemoryStore) FindByNationalID(_ context.Context, nationalID string) (*models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.byNatID[nationalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *m
	return &found, nil
}

// Count returns the number of stored memberships.
func (s *InMemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byNatID)
}
