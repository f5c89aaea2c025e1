package models

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
)

// Application is an applicant's enrollment request. It is immutable once
// created.
type Application struct {
	Code      string
	OwnerID   *domain.IdentityID
	FullName  string
	TRN       string
	DOB       string
	Gender    string
	Address   string
	Phone     string
	Parish    string
	Condition string
	CreatedAt time.Time
}

// Details are the applicant-supplied fields of an application.
type Details struct {
	FullName  string
	TRN       string
	DOB       string
	Gender    string
	Address   string
	Phone     string
	Parish    string
	Condition string
}

// NewApplication builds an application owned by owner.
func NewApplication(code string, owner domain.IdentityID, d Details, createdAt time.Time) (*Application, error) {
	if code == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "application code is required")
	}
	if owner.IsNil() || d.FullName == "" || d.TRN == "" || d.DOB == "" || d.Gender == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "Missing required fields")
	}
	return &Application{
		Code:      code,
		OwnerID:   &owner,
		FullName:  d.FullName,
		TRN:       d.TRN,
		DOB:       d.DOB,
		Gender:    d.Gender,
		Address:   d.Address,
		Phone:     d.Phone,
		Parish:    d.Parish,
		Condition: d.Condition,
		CreatedAt: createdAt.UTC(),
	}, nil
}

// CodeAlphabet omits 0, 1, I and O.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeSuffixLen = 6

// CodeGenerator returns a fresh application code for the given instant.
type CodeGenerator func(now time.Time) (string, error)

// NewCode returns a code of the form NHF-YYYYMMDD-XXXXXX using crypto/rand.
func NewCode(now time.Time) (string, error) {
	return newCodeFrom(rand.Reader, now)
}

func newCodeFrom(r io.Reader, now time.Time) (string, error) {
	size := big.NewInt(int64(len(CodeAlphabet)))
	suffix := make([]byte, codeSuffixLen)
	for i := range suffix {
		n, err := rand.Int(r, size)
		if err != nil {
			return "", fmt.Errorf("generate application code: %w", err)
		}
		suffix[i] = CodeAlphabet[n.Int64()]
	}
	return fmt.Sprintf("NHF-%s-%s", now.UTC().Format("20060102"), suffix), nil
}
