package store

import (
	"context"
	"sort"
	"sync"

	"healthfund/internal/application/models"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/sentinel"
)

// Unique field names reported through sentinel.UniqueViolation.
const (
	FieldCode  = "code"
	FieldOwner = "owner_id"
)

// ListFilter narrows List. A nil Owner lists every application.
type ListFilter struct {
	Owner *domain.IdentityID
	Limit int
}

// InMemoryStore keeps applications in a map keyed by code.
type InMemoryStore struct {
	mu      sync.RWMutex
	apps    map[string]*models.Application
	byOwner map[domain.IdentityID]string
}

// NewInMemoryStore creates an empty application store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		apps:    make(map[string]*models.Application),
		byOwner: make(map[domain.IdentityID]string),
	}
}

// Create stores app unless its code or owner is already taken.
func (s *InMemoryStore) Create(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.apps[app.Code]; taken {
		return sentinel.Unique(FieldCode)
	}
	if app.OwnerID != nil {
		if _, taken := s.byOwner[*app.OwnerID]; taken {
			return sentinel.Unique(FieldOwner)
		}
		s.byOwner[*app.OwnerID] = app.Code
	}
	stored := *app
	s.apps[app.Code] = &stored
	return nil
}

func (s *InMemoryStore) ExistsForOwner(_ context.Context, owner domain.IdentityID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byOwner[owner]
	return ok, nil
}

func (s *InMemoryStore) FindByCode(_ context.Context, code string) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[code]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *app
	return &found, nil
}

// List returns applications newest first, ties broken by code descending.
func (s *InMemoryStore) List(_ context.Context, filter ListFilter) ([]*models.Application, error) {
	s.mu.RLock()
	out := make([]*models.Application, 0, len(s.apps))
	for _, app := range s.apps {
		if filter.Owner != nil && (app.OwnerID == nil || *app.OwnerID != *filter.Owner) {
			continue
		}
		found := *app
		out = append(out, &found)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].Code > out[j].Code
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (s *InMemoryStore) Exists(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.apps[code]
	return ok, nil
}
