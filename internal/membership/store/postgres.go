package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthfund/internal/membership/models"
	"healthfund/internal/platform/postgres"
	"healthfund/pkg/platform/sentinel"
)

// PostgresStore persists memberships.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed membership store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// CreateIfAbsent inserts m with ON CONFLICT DO NOTHING so a conflict never
// aborts the surrounding transaction. When nothing is inserted the national ID
// decides: an existing membership means created is false, otherwise the member
// number collided.
func (s *PostgresStore) CreateIfAbsent(ctx context.Context, m *models.Membership) (bool, error) {
	conn := postgres.Conn(ctx, s.db)
	var number string
	err := conn.QueryRowContext(ctx, `
		INSERT INTO memberships (member_number, full_name, national_id, valid_from)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
		RETURNING member_number
	`, m.MemberNumber, m.FullName, m.NationalID, m.ValidFrom).Scan(&number)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("insert membership: %w", err)
	}

	var exists bool
	err = conn.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM memberships WHERE national_id = $1)`, m.NationalID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check membership: %w", err)
	}
	if exists {
		return false, nil
	}
	return false, sentinel.Unique(FieldMemberNumber)
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Membership, error) {
	var m models.Membership
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT member_number, full_name, national_id, valid_from
		FROM memberships
		WHERE national_id = $1
	`, nationalID).Scan(&m.MemberNumber, &m.FullName, &m.NationalID, &m.ValidFrom)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find membership: %w", err)
	}
	m.ValidFrom = models.Date(m.ValidFrom)
	return &m, nil
}
