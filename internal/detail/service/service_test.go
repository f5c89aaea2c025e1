package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"healthfund/internal/access"
	appModels "healthfund/internal/application/models"
	appStore "healthfund/internal/application/store"
	certModels "healthfund/internal/certification/models"
	certStore "healthfund/internal/certification/store"
	"healthfund/internal/detail/models"
	"healthfund/internal/detail/store"
	reviewModels "healthfund/internal/review/models"
	reviewStore "healthfund/internal/review/store"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	now       time.Time
	apps      *appStore.InMemoryStore
	certs     *certStore.InMemoryStore
	decisions *reviewStore.InMemoryStore
	service   *Service
	app       *appModels.Application
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.now = time.Date(2025, 5, 4, 10, 0, 0, 0, time.UTC)
	s.apps = appStore.NewInMemoryStore()
	s.certs = certStore.NewInMemoryStore()
	s.decisions = reviewStore.NewInMemoryStore()
	s.service = New(store.NewCompositeReader(s.apps, s.certs, s.decisions), s.apps, s.certs)

	app, err := appModels.NewApplication("NHF-20250504-ABCDEF", domain.NewIdentityID(), appModels.Details{
		FullName: "Jane Doe", TRN: "123456789", DOB: "1990-01-01", Gender: "F",
	}, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.apps.Create(s.ctx, app))
	s.Require().NoError(s.decisions.Append(s.ctx, reviewModels.NewPending(app.Code)))
	s.app = app
}

func (s *ServiceSuite) TestDetailPendingUncertified() {
	d, err := s.service.Detail(s.ctx, domain.Caller{}, s.app.Code)
	s.Require().NoError(err)
	s.Equal("Jane Doe", d.Application.FullName)
	s.Nil(d.Certification)
	s.Equal(reviewModels.StatusPending, d.Approval.Status)
	s.Nil(d.Approval.ReviewedAt)
}

func (s *ServiceSuite) TestDetailUsesLatestDecision() {
	s.Require().NoError(s.certs.Create(s.ctx, &certModels.Certification{
		ApplicationCode:   s.app.Code,
		DoctorName:        "Dr Smith",
		Conditions:        []certModels.Condition{{Name: "asthma", Severity: "mild"}},
		CertificationDate: s.now,
	}))
	approved, err := reviewModels.NewDecision(s.app.Code, reviewModels.StatusApproved, "", "", s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().NoError(s.decisions.Append(s.ctx, approved))

	d, err := s.service.Detail(s.ctx, domain.Caller{}, s.app.Code)
	s.Require().NoError(err)
	s.Require().NotNil(d.Certification)
	s.Equal("Dr Smith", d.Certification.DoctorName)
	s.Equal(reviewModels.StatusApproved, d.Approval.Status)
	s.Equal(reviewModels.DefaultReviewer, d.Approval.ReviewerUsername)
	s.Require().NotNil(d.Approval.ReviewedAt)
}

func (s *ServiceSuite) TestDetailUnknownCode() {
	_, err := s.service.Detail(s.ctx, domain.Caller{}, "NHF-20250504-NOSUCH")
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationNotFound))

	_, err = s.service.Detail(s.ctx, domain.Caller{}, "  ")
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationNotFound))
}

func (s *ServiceSuite) TestDetailReaderFailureIsInternal() {
	svc := New(failingReader{}, s.apps, s.certs)
	_, err := svc.Detail(s.ctx, domain.Caller{}, s.app.Code)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))
}

func (s *ServiceSuite) TestDoctorView() {
	v, err := s.service.DoctorView(s.ctx, domain.Caller{}, s.app.Code)
	s.Require().NoError(err)
	s.Equal(s.app.Code, v.Application.Code)
	s.False(v.IsCertified)

	s.Require().NoError(s.certs.Create(s.ctx, &certModels.Certification{
		ApplicationCode: s.app.Code, DoctorName: "Dr Smith", CertificationDate: s.now,
	}))
	v, err = s.service.DoctorView(s.ctx, domain.Caller{}, s.app.Code)
	s.Require().NoError(err)
	s.True(v.IsCertified)

	_, err = s.service.DoctorView(s.ctx, domain.Caller{}, "NHF-20250504-NOSUCH")
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationNotFound))
}

func (s *ServiceSuite) TestRolePolicy() {
	svc := New(store.NewCompositeReader(s.apps, s.certs, s.decisions), s.apps, s.certs,
		WithPolicy(access.RoleBased{}))
	doctor := domain.Caller{ID: domain.NewIdentityID(), Role: domain.RoleDoctor}
	staff := domain.Caller{ID: domain.NewIdentityID(), Role: domain.RoleStaff}

	_, err := svc.Detail(s.ctx, doctor, s.app.Code)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = svc.Detail(s.ctx, staff, s.app.Code)
	s.NoError(err)
	_, err = svc.Detail(s.ctx, staff, "NHF-20250504-NOSUCH")
	s.True(dErrors.HasCode(err, dErrors.CodeApplicationNotFound))

	s.Run("applicant reads only their own detail", func() {
		owner := domain.Caller{ID: *s.app.OwnerID, Role: domain.RoleApplicant}
		d, err := svc.Detail(s.ctx, owner, s.app.Code)
		s.Require().NoError(err)
		s.Equal(s.app.Code, d.Application.Code)

		stranger := domain.Caller{ID: domain.NewIdentityID(), Role: domain.RoleApplicant}
		_, err = svc.Detail(s.ctx, stranger, s.app.Code)
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
		_, err = svc.Detail(s.ctx, stranger, "NHF-20250504-NOSUCH")
		s.True(dErrors.HasCode(err, dErrors.CodeForbidden), "unknown codes are not revealed")
	})

	_, err = svc.DoctorView(s.ctx, staff, s.app.Code)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
	_, err = svc.DoctorView(s.ctx, doctor, s.app.Code)
	s.NoError(err)
}

type failingReader struct{}

func (failingReader) Detail(context.Context, string) (*models.Detail, error) {
	return nil, errors.New("connection reset")
}
