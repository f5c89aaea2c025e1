package models

import (
	"strings"
	"time"

	dErrors "healthfund/pkg/domain-errors"
)

// Status is the state recorded by an approval decision.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// DefaultReviewer is recorded when a decision names no reviewer.
const DefaultReviewer = "staff"

// Decision is one row of an application's append-only approval log. The row
// with the highest Seq is the application's current status.
type Decision struct {
	Seq              int64
	ApplicationCode  string
	Status           Status
	ReviewerUsername string
	ReviewedAt       *time.Time
	Reason           string
}

// NewPending is the decision recorded when an application is created.
func NewPending(code string) *Decision {
	return &Decision{ApplicationCode: code, Status: StatusPending}
}

// NewDecision builds a reviewer's decision. Only approved and rejected are
// valid actions.
func NewDecision(code string, action Status, reviewer, reason string, at time.Time) (*Decision, error) {
	code = strings.TrimSpace(code)
	if code == "" || (action != StatusApproved && action != StatusRejected) {
		return nil, dErrors.New(dErrors.CodeInvalidAction, "Invalid action")
	}
	reviewer = strings.TrimSpace(reviewer)
	if reviewer == "" {
		reviewer = DefaultReviewer
	}
	at = at.UTC()
	return &Decision{
		ApplicationCode:  code,
		Status:           action,
		ReviewerUsername: reviewer,
		ReviewedAt:       &at,
		Reason:           reason,
	}, nil
}
