package models

import (
	"strings"
	"time"

	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
)

// Identity is a login-capable account. It is written once at registration and
// never mutated.
type Identity struct {
	ID             domain.IdentityID
	Username       string
	Email          string
	CredentialHash string
	Role           domain.Role
	CreatedAt      time.Time
}

// NewIdentity builds an Identity and checks its invariants.
func NewIdentity(id domain.IdentityID, username, email, credentialHash string, role domain.Role, createdAt time.Time) (*Identity, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if id.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "identity id is required")
	}
	if username == "" || email == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "username and email are required")
	}
	if credentialHash == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "credential hash is required")
	}
	if !role.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "unknown role")
	}
	return &Identity{
		ID:             id,
		Username:       username,
		Email:          email,
		CredentialHash: credentialHash,
		Role:           role,
		CreatedAt:      createdAt,
	}, nil
}

// Profile is the role-specific record created alongside an identity.
type Profile interface {
	Role() domain.Role
}

// ApplicantProfile holds the personal details of an applicant.
type ApplicantProfile struct {
	FullName string
	TRN      string
	DOB      string
	Gender   string
	Address  string
	Phone    string
	Parish   string
}

func (ApplicantProfile) Role() domain.Role { return domain.RoleApplicant }

// DoctorProfile holds a doctor's registration and office details.
type DoctorProfile struct {
	FullName      string
	MCJRegNo      string
	Phone         string
	Parish        string
	OfficeAddress string
}

func (DoctorProfile) Role() domain.Role { return domain.RoleDoctor }

// StaffProfile extends a staff identity with staff-only fields. Credentials
// live on the Identity only.
type StaffProfile struct {
	TRN     string
	StaffID string
	DOB     string
	Gender  string
}

func (StaffProfile) Role() domain.Role { return domain.RoleStaff }

// Registration is the unit a store writes atomically: an identity and exactly
// one profile matching its role.
type Registration struct {
	Identity *Identity
	Profile  Profile
}

// NewRegistration pairs identity with profile. The profile must match the
// identity's role.
func NewRegistration(identity *Identity, profile Profile) (*Registration, error) {
	if identity == nil || profile == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "identity and profile are required")
	}
	if profile.Role() != identity.Role {
		return nil, dErrors.New(dErrors.CodeValidation, "profile does not match identity role")
	}
	return &Registration{Identity: identity, Profile: profile}, nil
}
