package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthfund/internal/application/models"
	"healthfund/internal/platform/postgres"
	"healthfund/pkg/domain"
	"healthfund/pkg/platform/sentinel"
)

var constraintFields = map[string]string{
	"applications_pkey":         FieldCode,
	"applications_owner_id_key": FieldOwner,
}

const selectColumns = `code, owner_id, full_name, trn, dob, gender, address, phone, parish, condition, created_at`

// PostgresStore persists applications in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed application store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Create inserts app. The primary key and the partial unique index on
// owner_id decide duplicates.
func (s *PostgresStore) Create(ctx context.Context, app *models.Application) error {
	var owner any
	if app.OwnerID != nil {
		owner = app.OwnerID.String()
	}
	_, err := postgres.Conn(ctx, s.db).ExecContext(ctx, `
		INSERT INTO applications (code, owner_id, full_name, trn, dob, gender, address, phone, parish, condition, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, app.Code, owner, app.FullName, app.TRN, app.DOB, app.Gender, app.Address, app.Phone, app.Parish, app.Condition, app.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert application: %w", postgres.MapUnique(err, constraintFields))
	}
	return nil
}

func (s *PostgresStore) ExistsForOwner(ctx context.Context, owner domain.IdentityID) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE owner_id = $1)`, owner.String(),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check application owner: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) FindByCode(ctx context.Context, code string) (*models.Application, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+selectColumns+` FROM applications WHERE code = $1`, code)
	app, err := scanApplication(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

// List returns applications newest first, ties broken by code descending.
func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]*models.Application, error) {
	var owner any
	if filter.Owner != nil {
		owner = filter.Owner.String()
	}
	var limit any
	if filter.Limit > 0 {
		limit = filter.Limit
	}
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM applications
		WHERE ($1::uuid IS NULL OR owner_id = $1::uuid)
		ORDER BY created_at DESC, code DESC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	defer rows.Close()

	var out []*models.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanApplication(row scanner) (*models.Application, error) {
	var (
		app   models.Application
		owner sql.NullString
	)
	if err := row.Scan(&app.Code, &owner, &app.FullName, &app.TRN, &app.DOB, &app.Gender,
		&app.Address, &app.Phone, &app.Parish, &app.Condition, &app.CreatedAt); err != nil {
		return nil, err
	}
	if owner.Valid {
		id, err := domain.ParseIdentityID(owner.String)
		if err != nil {
			return nil, err
		}
		app.OwnerID = &id
	}
	app.CreatedAt = app.CreatedAt.UTC()
	return &app, nil
}

func (s *PostgresStore) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM applications WHERE code = $1)`, code,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check application: %w", err)
	}
	return exists, nil
}
