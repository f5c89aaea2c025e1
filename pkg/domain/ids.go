// Package domain holds identifier and role types shared across modules.
package domain

import (
	"github.com/google/uuid"

	dErrors "healthfund/pkg/domain-errors"
)

// IdentityID identifies a login identity. It is distinct from a bare UUID so a
// national ID or application code can never be passed where an identity is expected.
type IdentityID uuid.UUID

// NewIdentityID returns a fresh random identity ID.
func NewIdentityID() IdentityID {
	return IdentityID(uuid.New())
}

// ParseIdentityID parses s at a trust boundary. Empty, malformed and nil UUIDs
// are rejected with a validation error.
func ParseIdentityID(s string) (IdentityID, error) {
	if s == "" {
		return IdentityID{}, dErrors.New(dErrors.CodeValidation, "missing identity id")
	}
	parsed, err := uuid.Parse(s)
	if err != nil {
		return IdentityID{}, dErrors.New(dErrors.CodeValidation, "invalid identity id")
	}
	if parsed == uuid.Nil {
		return IdentityID{}, dErrors.New(dErrors.CodeValidation, "invalid identity id")
	}
	return IdentityID(parsed), nil
}

func (id IdentityID) String() string { return uuid.UUID(id).String() }

// IsNil reports whether id is the zero value.
func (id IdentityID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

func (id IdentityID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *IdentityID) UnmarshalText(b []byte) error {
	parsed, err := ParseIdentityID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
