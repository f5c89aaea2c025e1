package models

import (
	"time"

	appModels "healthfund/internal/application/models"
	certModels "healthfund/internal/certification/models"
	reviewModels "healthfund/internal/review/models"
)

// Detail is the staff view of one application: the application itself, its
// certification when a doctor has certified it, and its current approval state.
type Detail struct {
	Application   *appModels.Application
	Certification *certModels.Certification
	Approval      Approval
}

// Approval is the latest decision on an application.
type Approval struct {
	Status           reviewModels.Status
	ReviewerUsername string
	ReviewedAt       *time.Time
	Reason           string
}

// ApprovalFrom summarizes the latest decision. No decision reads as pending.
func ApprovalFrom(d *reviewModels.Decision) Approval {
	if d == nil || d.Status == "" {
		return Approval{Status: reviewModels.StatusPending}
	}
	return Approval{
		Status:           d.Status,
		ReviewerUsername: d.ReviewerUsername,
		ReviewedAt:       d.ReviewedAt,
		Reason:           d.Reason,
	}
}

// Shape drops a certification without a certifying doctor and fills in the
// pending default.
func (d *Detail) Shape() *Detail {
	if d.Certification != nil && d.Certification.DoctorName == "" {
		d.Certification = nil
	}
	if d.Approval.Status == "" {
		d.Approval.Status = reviewModels.StatusPending
	}
	return d
}

// DoctorView is what a doctor sees before certifying.
type DoctorView struct {
	Application *appModels.Application
	IsCertified bool
}
