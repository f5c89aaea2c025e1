package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthfund/internal/identity/models"
	"healthfund/internal/platform/postgres"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/sentinel"
)

// constraintFields maps unique constraints to the field reported to callers.
var constraintFields = map[string]string{
	"identities_username_key":        FieldUsername,
	"identities_email_key":           FieldEmail,
	"applicant_profiles_trn_key":     FieldTRN,
	"doctor_profiles_mcj_reg_no_key": FieldMCJRegNo,
	"staff_profiles_trn_key":         FieldTRN,
	"staff_profiles_staff_id_key":    FieldStaffID,
}

// PostgresStore persists identities and role profiles. Unique constraints are
// the only uniqueness check; violations come back as sentinel.UniqueViolation.
type PostgresStore struct {
	db *sql.DB
	tx *postgres.TxRunner
}

// NewPostgres constructs a Postgres-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, tx: postgres.NewTxRunner(db)}
}

// Register inserts the identity and its profile in one transaction. A profile
// violation rolls the identity insert back.
func (s *PostgresStore) Register(ctx context.Context, reg *models.Registration) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		conn := postgres.Conn(ctx, s.db)
		ident := reg.Identity
		_, err := conn.ExecContext(ctx, `
			INSERT INTO identities (id, username, email, credential_hash, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, ident.ID.String(), ident.Username, ident.Email, ident.CredentialHash, string(ident.Role), ident.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert identity: %w", postgres.MapUnique(err, constraintFields))
		}

		if err := s.insertProfile(ctx, conn, reg); err != nil {
			return fmt.Errorf("insert %s profile: %w", ident.Role, postgres.MapUnique(err, constraintFields))
		}
		return nil
	})
}

func (s *PostgresStore) insertProfile(ctx context.Context, conn postgres.Querier, reg *models.Registration) error {
	id := reg.Identity.ID.String()
	switch p := reg.Profile.(type) {
	case models.ApplicantProfile:
		_, err := conn.ExecContext(ctx, `
			INSERT INTO applicant_profiles (identity_id, full_name, trn, dob, gender, address, phone, parish)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, id, p.FullName, p.TRN, p.DOB, p.Gender, p.Address, p.Phone, p.Parish)
		return err
	case models.DoctorProfile:
		_, err := conn.ExecContext(ctx, `
			INSERT INTO doctor_profiles (identity_id, full_name, mcj_reg_no, phone, parish, office_address)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, id, p.FullName, p.MCJRegNo, p.Phone, p.Parish, p.OfficeAddress)
		return err
	case models.StaffProfile:
		_, err := conn.ExecContext(ctx, `
			INSERT INTO staff_profiles (identity_id, trn, staff_id, dob, gender)
			VALUES ($1, $2, $3, $4, $5)
		`, id, p.TRN, p.StaffID, p.DOB, p.Gender)
		return err
	default:
		return fmt.Errorf("unsupported profile type %T", reg.Profile)
	}
}

// FindByLogin matches login against username or email, preferring a username
// match when both exist.
func (s *PostgresStore) FindByLogin(ctx context.Context, login string) (*models.Identity, error) {
	var (
		ident models.Identity
		rawID string
		role  string
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT id, username, email, credential_hash, role, created_at
		FROM identities
		WHERE username = $1 OR email = $1
		ORDER BY (username = $1) DESC
		LIMIT 1
	`, login).Scan(&rawID, &ident.Username, &ident.Email, &ident.CredentialHash, &role, &ident.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find identity by login: %w", err)
	}
	if err := ident.ID.UnmarshalText([]byte(rawID)); err != nil {
		return nil, fmt.Errorf("decode identity id: %w", err)
	}
	ident.Role = domain.Role(role)
	return &ident, nil
}
