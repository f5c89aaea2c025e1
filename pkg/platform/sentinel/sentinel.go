package sentinel

import (
	"errors"
	"fmt"
)

// Sentinel errors for storage facts. Stores return these (optionally wrapped)
// so services can translate them into domain errors.
//
//   - ErrNotFound: entity does not exist in store
//   - ErrAlreadyUsed: a unique key is already taken (see UniqueViolation)
//   - ErrUnavailable: backing service temporarily unavailable
//
// For validation errors (bad input, missing fields), use pkg/domain-errors directly.
var (
	ErrNotFound    = errors.New("not found")
	ErrAlreadyUsed = errors.New("already used")
	ErrUnavailable = errors.New("unavailable")
)

// UniqueViolation reports which unique key rejected a write. It matches
// ErrAlreadyUsed under errors.Is.
type UniqueViolation struct {
	Field string
}

func (e *UniqueViolation) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyUsed, e.Field)
}

func (e *UniqueViolation) Is(target error) bool {
	return target == ErrAlreadyUsed
}

// Unique builds a UniqueViolation for field.
func Unique(field string) error {
	return &UniqueViolation{Field: field}
}

// ViolatedField returns the field of a UniqueViolation in the chain, if any.
func ViolatedField(err error) (string, bool) {
	var uv *UniqueViolation
	if errors.As(err, &uv) {
		return uv.Field, true
	}
	return "", false
}

// IsField reports whether err is a UniqueViolation on field.
func IsField(err error, field string) bool {
	got, ok := ViolatedField(err)
	return ok && got == field
}
