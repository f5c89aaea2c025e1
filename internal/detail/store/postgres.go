package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	appModels "healthfund/internal/application/models"
	certModels "healthfund/internal/certification/models"
	"healthfund/internal/detail/models"
	"healthfund/internal/platform/postgres"
	reviewModels "healthfund/internal/review/models"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/sentinel"
)

// PostgresReader loads a Detail in one query. The latest decision is picked
// with a lateral subquery so older decisions never multiply the row.
type PostgresReader struct {
	db *sql.DB
}

// NewPostgresReader creates a reader over db.
func NewPostgresReader(db *sql.DB) *PostgresReader {
	return &PostgresReader{db: db}
}

const detailQuery = `
	SELECT
		a.code, a.owner_id, a.full_name, a.trn, a.dob, a.gender, a.address, a.phone, a.parish,
		a.condition, a.created_at,
		c.doctor_name, c.mcj_reg_no, c.office_address, c.parish, c.office_phone,
		c.conditions::text, c.notes, c.certification_date,
		d.status, d.reviewer_username, d.reviewed_at, d.reason
	FROM applications a
	LEFT JOIN certifications c ON c.application_code = a.code
	LEFT JOIN LATERAL (
		SELECT status, reviewer_username, reviewed_at, reason
		FROM approval_decisions
		WHERE application_code = a.code
		ORDER BY seq DESC
		LIMIT 1
	) d ON TRUE
	WHERE a.code = $1
`

// Detail returns sentinel.ErrNotFound when the application does not exist.
func (r *PostgresReader) Detail(ctx context.Context, code string) (*models.Detail, error) {
	var (
		app   appModels.Application
		owner sql.NullString

		doctorName, mcjRegNo, officeAddress sql.NullString
		doctorParish, officePhone           sql.NullString
		conditions, notes                   sql.NullString
		certifiedAt                         sql.NullTime

		status, reviewer, reason sql.NullString
		reviewedAt               sql.NullTime
	)
	err := postgres.Conn(ctx, r.db).QueryRowContext(ctx, detailQuery, code).Scan(
		&app.Code, &owner, &app.FullName, &app.TRN, &app.DOB, &app.Gender, &app.Address, &app.Phone, &app.Parish,
		&app.Condition, &app.CreatedAt,
		&doctorName, &mcjRegNo, &officeAddress, &doctorParish, &officePhone,
		&conditions, &notes, &certifiedAt,
		&status, &reviewer, &reviewedAt, &reason,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load application detail: %w", err)
	}
	app.CreatedAt = app.CreatedAt.UTC()
	if owner.Valid {
		id, err := domain.ParseIdentityID(owner.String)
		if err != nil {
			return nil, fmt.Errorf("decode owner id: %w", err)
		}
		app.OwnerID = &id
	}

	detail := &models.Detail{Application: &app}

	if doctorName.Valid {
		parsed, err := certModels.ParseConditions(conditions.String)
		if err != nil {
			return nil, fmt.Errorf("decode certification conditions: %w", err)
		}
		detail.Certification = &certModels.Certification{
			ApplicationCode:   app.Code,
			DoctorName:        doctorName.String,
			MCJRegNo:          mcjRegNo.String,
			OfficeAddress:     officeAddress.String,
			Parish:            doctorParish.String,
			OfficePhone:       officePhone.String,
			Conditions:        parsed,
			Notes:             notes.String,
			CertificationDate: certifiedAt.Time.UTC(),
		}
	}

	if status.Valid {
		latest := &reviewModels.Decision{
			ApplicationCode:  app.Code,
			Status:           reviewModels.Status(status.String),
			ReviewerUsername: reviewer.String,
			Reason:           reason.String,
		}
		if reviewedAt.Valid {
			t := reviewedAt.Time.UTC()
			latest.ReviewedAt = &t
		}
		detail.Approval = models.ApprovalFrom(latest)
	} else {
		detail.Approval = models.ApprovalFrom(nil)
	}
	return detail, nil
}
