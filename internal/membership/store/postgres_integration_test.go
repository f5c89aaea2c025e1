//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"healthfund/internal/membership/models"
	"healthfund/internal/platform/postgres"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), containers.AllTables...))
}

func (s *PostgresStoreSuite) TestCreateIfAbsent() {
	ctx := context.Background()
	issued := time.Date(2025, 6, 30, 22, 0, 0, 0, time.UTC)

	created, err := s.store.CreateIfAbsent(ctx, models.New("NHF000000001", "Jane Doe", "123456789", issued))
	s.Require().NoError(err)
	s.True(created)

	created, err = s.store.CreateIfAbsent(ctx, models.New("NHF000000002", "Jane Doe", "123456789", issued))
	s.Require().NoError(err)
	s.False(created)

	_, err = s.store.CreateIfAbsent(ctx, models.New("NHF000000001", "John Roe", "987654321", issued))
	s.True(sentinel.IsField(err, FieldMemberNumber), "got %v", err)

	m, err := s.store.FindByNationalID(ctx, "123456789")
	s.Require().NoError(err)
	s.Equal("NHF000000001", m.MemberNumber)
	s.Equal("2025-06-30", m.ValidFromString())
}

func (s *PostgresStoreSuite) TestConflictDoesNotAbortTransaction() {
	ctx := context.Background()
	issued := time.Now()
	s.Require().NoError(postgres.NewTxRunner(s.postgres.DB).RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.store.CreateIfAbsent(ctx, models.New("NHF000000001", "Jane Doe", "123456789", issued)); err != nil {
			return err
		}
		_, err := s.store.CreateIfAbsent(ctx, models.New("NHF000000001", "John Roe", "987654321", issued))
		s.True(sentinel.IsField(err, FieldMemberNumber))

		created, err := s.store.CreateIfAbsent(ctx, models.New("NHF000000002", "John Roe", "987654321", issued))
		s.True(created)
		return err
	}))

	_, err := s.store.FindByNationalID(ctx, "987654321")
	s.NoError(err)
}
