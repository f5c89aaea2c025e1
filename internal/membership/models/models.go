package models

import (
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"
)

// Membership is issued once per national ID when an application is approved.
// It is never mutated or deleted.
type Membership struct {
	MemberNumber string    `json:"member_number"`
	FullName     string    `json:"full_name"`
	NationalID   string    `json:"trn"`
	ValidFrom    time.Time `json:"valid_from"`
}

// New builds a membership valid from the UTC date of issuedAt.
func New(number, fullName, nationalID string, issuedAt time.Time) *Membership {
	return &Membership{
		MemberNumber: number,
		FullName:     fullName,
		NationalID:   nationalID,
		ValidFrom:    Date(issuedAt),
	}
}

// Date truncates t to midnight UTC.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ValidFromString formats ValidFrom as YYYY-MM-DD.
func (m *Membership) ValidFromString() string {
	return m.ValidFrom.Format(time.DateOnly)
}

// NumberGenerator returns a fresh member number.
type NumberGenerator func() (string, error)

const memberDigits = 9

// NewMemberNumber returns "NHF" followed by nine random digits.
func NewMemberNumber() (string, error) {
	return newMemberNumberFrom(rand.Reader)
}

func newMemberNumberFrom(r io.Reader) (string, error) {
	n, err := rand.Int(r, big.NewInt(1_000_000_000))
	if err != nil {
		return "", fmt.Errorf("generate member number: %w", err)
	}
	return fmt.Sprintf("NHF%0*d", memberDigits, n.Int64()), nil
}

// IssuedEvent is published after a membership is committed.
type IssuedEvent struct {
	MemberNumber    string    `json:"member_number"`
	FullName        string    `json:"full_name"`
	TRN             string    `json:"trn"`
	ValidFrom       string    `json:"valid_from"`
	ApplicationCode string    `json:"application_code"`
	IssuedAt        time.Time `json:"issued_at"`
}

// NewIssuedEvent describes m as issued for applicationCode at issuedAt.
func NewIssuedEvent(m *Membership, applicationCode string, issuedAt time.Time) IssuedEvent {
	return IssuedEvent{
		MemberNumber:    m.MemberNumber,
		FullName:        m.FullName,
		TRN:             m.NationalID,
		ValidFrom:       m.ValidFromString(),
		ApplicationCode: applicationCode,
		IssuedAt:        issuedAt.UTC(),
	}
}
