//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"healthfund/internal/application/models"
	"healthfund/pkg/domain"
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

func (s *PostgresStoreSuite) newApp(code string, owner domain.IdentityID, at time.Time) *models.Application {
	app, err := models.NewApplication(code, owner, models.Details{
		FullName: "Jane Doe", TRN: "123456789", DOB: "1990-01-01", Gender: "F", Parish: "Kingston",
	}, at.Truncate(time.Microsecond))
	s.Require().NoError(err)
	return app
}

func (s *PostgresStoreSuite) TestCreateFindAndDuplicates() {
	ctx := context.Background()
	owner := domain.NewIdentityID()
	app := s.newApp("NHF-20250101-AAAAAA", owner, time.Now())
	s.Require().NoError(s.store.Create(ctx, app))

	found, err := s.store.FindByCode(ctx, app.Code)
	s.Require().NoError(err)
	s.Equal("Kingston", found.Parish)
	s.Require().NotNil(found.OwnerID)
	s.Equal(owner, *found.OwnerID)
	s.True(app.CreatedAt.Equal(found.CreatedAt))

	err = s.store.Create(ctx, s.newApp(app.Code, domain.NewIdentityID(), time.Now()))
	s.True(sentinel.IsField(err, FieldCode), "got %v", err)

	err = s.store.Create(ctx, s.newApp("NHF-20250101-BBBBBB", owner, time.Now()))
	s.True(sentinel.IsField(err, FieldOwner), "got %v", err)

	exists, err := s.store.ExistsForOwner(ctx, owner)
	s.Require().NoError(err)
	s.True(exists)
}

func (s *PostgresStoreSuite) TestList() {
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	alice := domain.NewIdentityID()
	s.Require().NoError(s.store.Create(ctx, s.newApp("NHF-20250101-AAAAAA", alice, base)))
	s.Require().NoError(s.store.Create(ctx, s.newApp("NHF-20250101-CCCCCC", domain.NewIdentityID(), base)))
	s.Require().NoError(s.store.Create(ctx, s.newApp("NHF-20250102-BBBBBB", domain.NewIdentityID(), base.Add(time.Hour))))

	all, err := s.store.List(ctx, ListFilter{Limit: 100})
	s.Require().NoError(err)
	s.Require().Len(all, 3)
	s.Equal([]string{"NHF-20250102-BBBBBB", "NHF-20250101-CCCCCC", "NHF-20250101-AAAAAA"},
		[]string{all[0].Code, all[1].Code, all[2].Code})

	own, err := s.store.List(ctx, ListFilter{Owner: &alice, Limit: 100})
	s.Require().NoError(err)
	s.Require().Len(own, 1)
	s.Equal("NHF-20250101-AAAAAA", own[0].Code)
}
