// Package access decides which callers may perform workflow operations.
//
// The caller is asserted by a trusted upstream (see the Caller middleware);
// this package only interprets it.
package access

import (
	"fmt"

	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
)

const (
	PolicyOpen = "open"
	PolicyRole = "role"
)

// Scope limits the applications a caller may list. A nil Owner means all.
type Scope struct {
	Owner *domain.IdentityID
}

// All reports whether the scope is unrestricted.
func (s Scope) All() bool {
	return s.Owner == nil
}

// Policy is consulted by the workflow services before acting for a caller.
type Policy interface {
	AllowSubmit(caller domain.Caller, owner domain.IdentityID) error
	AllowCertify(caller domain.Caller) error
	AllowDecide(caller domain.Caller) error
	AllowView(caller domain.Caller, owner *domain.IdentityID) error
	ListScope(caller domain.Caller) (Scope, error)
}

// New returns the policy registered under name.
func New(name string) (Policy, error) {
	switch name {
	case "", PolicyOpen:
		return Open{}, nil
	case PolicyRole:
		return RoleBased{}, nil
	default:
		return nil, fmt.Errorf("unknown access policy %q", name)
	}
}

// Open allows every operation to every caller, anonymous included.
type Open struct{}

func (Open) AllowSubmit(domain.Caller, domain.IdentityID) error { return nil }
func (Open) AllowCertify(domain.Caller) error                   { return nil }
func (Open) AllowDecide(domain.Caller) error                    { return nil }
func (Open) AllowView(domain.Caller, *domain.IdentityID) error  { return nil }
func (Open) ListScope(domain.Caller) (Scope, error)             { return Scope{}, nil }

// RoleBased requires the role matching each operation. Applicants act only on
// their own applications.
type RoleBased struct{}

func (RoleBased) AllowSubmit(caller domain.Caller, owner domain.IdentityID) error {
	if caller.Role != domain.RoleApplicant {
		return forbidden("only applicants may submit applications")
	}
	if caller.ID != owner {
		return forbidden("applicants may only submit their own application")
	}
	return nil
}

func (RoleBased) AllowCertify(caller domain.Caller) error {
	if caller.Role != domain.RoleDoctor {
		return forbidden("only doctors may certify applications")
	}
	return nil
}

func (RoleBased) AllowDecide(caller domain.Caller) error {
	if caller.Role != domain.RoleStaff {
		return forbidden("only staff may decide applications")
	}
	return nil
}

// AllowView lets staff read any application and an applicant read the one
// they own. A nil owner matches no applicant.
func (RoleBased) AllowView(caller domain.Caller, owner *domain.IdentityID) error {
	switch caller.Role {
	case domain.RoleStaff:
		return nil
	case domain.RoleApplicant:
		if !caller.Anonymous() && owner != nil && *owner == caller.ID {
			return nil
		}
		return forbidden("applicants may only view their own application")
	default:
		return forbidden("only staff may view application details")
	}
}

func (RoleBased) ListScope(caller domain.Caller) (Scope, error) {
	switch caller.Role {
	case domain.RoleStaff, domain.RoleDoctor:
		return Scope{}, nil
	case domain.RoleApplicant:
		if caller.Anonymous() {
			return Scope{}, forbidden("caller identity is required")
		}
		id := caller.ID
		return Scope{Owner: &id}, nil
	default:
		return Scope{}, forbidden("caller role is required")
	}
}

func forbidden(msg string) error {
	return dErrors.New(dErrors.CodeForbidden, msg)
}
