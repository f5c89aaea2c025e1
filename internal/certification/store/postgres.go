package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthfund/internal/certification/models"
	"healthfund/internal/platform/postgres"
	"healthfund/pkg/platform/sentinel"
)

var constraintFields = map[string]string{
	"certifications_application_code_key": FieldApplicationCode,
}

// PostgresStore persists certifications. Conditions are stored as JSONB.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed certification store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts c. The unique constraint on application_code rejects a
// second certification.
func (s *PostgresStore) Create(ctx context.Context, c *models.Certification) error {
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO certifications (application_code, doctor_name, mcj_reg_no, office_address, parish,
			office_phone, conditions, notes, certification_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $9)
	`, c.ApplicationCode, c.DoctorName, c.MCJRegNo, c.OfficeAddress, c.Parish,
		c.OfficePhone, c.ConditionsJSON(), c.Notes, c.CertificationDate)
	if err != nil {
		return fmt.Errorf("insert certification: %w", postgres.MapUnique(err, constraintFields))
	}
	return nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Certification, error) {
	var (
		c          models.Certification
		conditions string
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT application_code, doctor_name, mcj_reg_no, office_address, parish,
			office_phone, conditions::text, notes, certification_date
		FROM certifications
		WHERE application_code = $1
	`, code).Scan(&c.ApplicationCode, &c.DoctorName, &c.MCJRegNo, &c.OfficeAddress, &c.Parish,
		&c.OfficePhone, &conditions, &c.Notes, &c.CertificationDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certification: %w", err)
	}
	if c.Conditions, err = models.ParseConditions(conditions); err != nil {
		return nil, fmt.Errorf("decode certification conditions: %w", err)
	}
	c.CertificationDate = c.CertificationDate.UTC()
	return &c, nil
}

func (s *PostgresStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM certifications WHERE application_code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check certification: %w", err)
	}
	return exists, nil
}
