package lockout

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"healthfund/pkg/requestcontext"
)

type InMemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	now   time.Time
}

func TestInMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryStoreSuite))
}

func (s *InMemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *InMemoryStoreSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *InMemoryStoreSuite) TestCountsCaseInsensitively() {
	_, err := s.store.RecordFailure(s.at(0), "Jane", time.Minute)
	s.Require().NoError(err)
	n, err := s.store.RecordFailure(s.at(time.Second), " jane ", time.Minute)
	s.Require().NoError(err)
	s.Equal(2, n)

	got, err := s.store.Failures(s.at(2*time.Second), "JANE")
	s.Require().NoError(err)
	s.Equal(2, got)
}

func (s *InMemoryStoreSuite) TestWindowExpires() {
	_, _ = s.store.RecordFailure(s.at(0), "jane", time.Minute)

	got, err := s.store.Failures(s.at(2*time.Minute), "jane")
	s.Require().NoError(err)
	s.Zero(got)

	n, err := s.store.RecordFailure(s.at(2*time.Minute), "jane", time.Minute)
	s.Require().NoError(err)
	s.Equal(1, n)
}

func (s *InMemoryStoreSuite) TestClear() {
	_, _ = s.store.RecordFailure(s.at(0), "jane", time.Minute)
	s.Require().NoError(s.store.Clear(s.at(0), "jane"))

	got, err := s.store.Failures(s.at(0), "jane")
	s.Require().NoError(err)
	s.Zero(got)
}
