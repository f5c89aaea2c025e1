// Package secrets hashes and verifies login credentials with bcrypt.
package secrets

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"

	dErrors "healthfund/pkg/domain-errors"
)

// ErrMismatch is returned by Verify when the credential does not match.
var ErrMismatch = errors.New("credential mismatch")

// Hash creates a salted bcrypt hash of the credential.
func Hash(credential string) (string, error) {
	if credential == "" {
		return "", dErrors.New(dErrors.CodeMissingFields, "password is required")
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return "", dErrors.New(dErrors.CodeValidation, "password is too long")
		}
		return "", fmt.Errorf("could not hash credential: %w", err)
	}
	return string(hashed), nil
}

// Verify checks a plaintext credential against a bcrypt hash.
func Verify(credential, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(credential)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrMismatch
		}
		return fmt.Errorf("could not verify credential: %w", err)
	}
	return nil
}

var (
	dummyOnce sync.Once
	dummyHash []byte
)

// Burn spends the same bcrypt work as Verify against a throwaway hash. Login
// calls it for unknown identifiers so response timing does not reveal whether
// an account exists.
func Burn(credential string) {
	dummyOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("healthfund-timing-equalizer"), bcrypt.DefaultCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(credential))
}
