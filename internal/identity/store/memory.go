package store

import (
	"context"
	"fmt"
	"sync"

	"healthfund/internal/identity/models"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/sentinel"
)

// Unique field names reported through sentinel.UniqueViolation.
const (
	FieldUsername = "username"
	FieldEmail    = "email"
	FieldTRN      = "trn"
	FieldMCJRegNo = "mcj_reg_no"
	FieldStaffID  = "staff_id"
)

// InMemoryStore keeps identities and role profiles in maps. Register checks
// every unique key before writing anything, so a rejected registration leaves
// no partial state.
type InMemoryStore struct {
	mu sync.RWMutex

	identities map[domain.IdentityID]*models.Identity
	byUsername map[string]domain.IdentityID
	byEmail    map[string]domain.IdentityID

	profiles     map[domain.IdentityID]models.Profile
	applicantTRN map[string]domain.IdentityID
	doctorRegNo  map[string]domain.IdentityID
	staffTRN     map[string]domain.IdentityID
	staffIDs     map[string]domain.IdentityID
}

// NewInMemoryStore creates an empty identity store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		identities:   make(map[domain.IdentityID]*models.Identity),
		byUsername:   make(map[string]domain.IdentityID),
		byEmail:      make(map[string]domain.IdentityID),
		profiles:     make(map[domain.IdentityID]models.Profile),
		applicantTRN: make(map[string]domain.IdentityID),
		doctorRegNo:  make(map[string]domain.IdentityID),
		staffTRN:     make(map[string]domain.IdentityID),
		staffIDs:     make(map[string]domain.IdentityID),
	}
}

// Register stores the identity and its profile as one unit.
func (s *InMemoryStore) Register(_ context.Context, reg *models.Registration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ident := reg.Identity
	if _, taken := s.byUsername[ident.Username]; taken {
		return sentinel.Unique(FieldUsername)
	}
	if _, taken := s.byEmail[ident.Email]; taken {
		return sentinel.Unique(FieldEmail)
	}

	switch p := reg.Profile.(type) {
	case models.ApplicantProfile:
		if _, taken := s.applicantTRN[p.TRN]; taken {
			return sentinel.Unique(FieldTRN)
		}
		s.applicantTRN[p.TRN] = ident.ID
	case models.DoctorProfile:
		if _, taken := s.doctorRegNo[p.MCJRegNo]; taken {
			return sentinel.Unique(FieldMCJRegNo)
		}
		s.doctorRegNo[p.MCJRegNo] = ident.ID
	case models.StaffProfile:
		if _, taken := s.staffTRN[p.TRN]; taken {
			return sentinel.Unique(FieldTRN)
		}
		if _, taken := s.staffIDs[p.StaffID]; taken {
			return sentinel.Unique(FieldStaffID)
		}
		s.staffTRN[p.TRN] = ident.ID
		s.staffIDs[p.StaffID] = ident.ID
	default:
		return fmt.Errorf("unsupported profile type %T", reg.Profile)
	}

	stored := *ident
	s.identities[ident.ID] = &stored
	s.byUsername[ident.Username] = ident.ID
	s.byEmail[ident.Email] = ident.ID
	s.profiles[ident.ID] = reg.Profile
	return nil
}

// FindByLogin looks an identity up by username, then by email.
func (s *InMemoryStore) FindByLogin(_ context.Context, login string) (*models.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byUsername[login]
	if !ok {
		id, ok = s.byEmail[login]
	}
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	found := *s.identities[id]
	return &found, nil
}
