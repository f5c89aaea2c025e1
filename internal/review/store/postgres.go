package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"healthfund/internal/platform/postgres"
	"healthfund/internal/review/models"
	"healthfund/pkg/platform/sentinel"
)

const selectColumns = `seq, application_code, status, reviewer_username, reviewed_at, reason`

// PostgresStore persists the decision log. Rows are only ever inserted.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a Postgres-backed decision log.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append inserts d and sets d.Seq from the assigned sequence.
func (s *PostgresStore) Append(ctx context.Context, d *models.Decision) error {
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		INSERT INTO approval_decisions (application_code, status, reviewer_username, reviewed_at, reason)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING seq
	`, d.ApplicationCode, string(d.Status), d.ReviewerUsername, d.ReviewedAt, d.Reason).Scan(&d.Seq)
	if err != nil {
		return fmt.Errorf("append decision: %w", err)
	}
	return nil
}

// Latest returns the decision with the highest sequence for code.
func (s *PostgresStore) Latest(ctx context.Context, code string) (*models.Decision, error) {
	row := postgres.Conn(ctx, s.db).QueryRowContext(ctx, `
		SELECT `+selectColumns+`
		FROM approval_decisions
		WHERE application_code = $1
		ORDER BY seq DESC
		LIMIT 1
	`, code)
	d, err := scanDecision(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("latest decision: %w", err)
	}
	return d, nil
}

// History returns every decision for code, oldest first.
func (s *PostgresStore) History(ctx context.Context, code string) ([]*models.Decision, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, `
		SELECT `+selectColumns+`
		FROM approval_decisions
		WHERE application_code = $1
		ORDER BY seq
	`, code)
	if err != nil {
		return nil, fmt.Errorf("decision history: %w", err)
	}
	defer rows.Close()

	var out []*models.Decision
	for rows.Next() {
		d, err := scanDecision(rows)
		if err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDecision(row scanner) (*models.Decision, error) {
	var (
		d          models.Decision
		status     string
		reviewedAt sql.NullTime
	)
	if err := row.Scan(&d.Seq, &d.ApplicationCode, &status, &d.ReviewerUsername, &reviewedAt, &d.Reason); err != nil {
		return nil, err
	}
	d.Status = models.Status(status)
	if reviewedAt.Valid {
		t := reviewedAt.Time.UTC()
		d.ReviewedAt = &t
	}
	return &d, nil
}
