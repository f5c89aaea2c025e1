package service

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"healthfund/internal/access"
	"healthfund/internal/certification/models"
	"healthfund/internal/certification/store"
	"healthfund/internal/platform/metrics"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/certification")

// Store persists certifications.
type Store interface {
	Create(ctx context.Context, c *models.Certification) error
}

// ApplicationReader is consulted only when certifications must reference an
// existing application.
type ApplicationReader interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// Service records doctor certifications.
type Service struct {
	store              Store
	applications       ApplicationReader
	requireApplication bool
	policy             access.Policy
	logger             *slog.Logger
	metrics            *metrics.Metrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithPolicy(p access.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

// WithRequiredApplication rejects certifications for codes apps does not know.
func WithRequiredApplication(apps ApplicationReader) Option {
	return func(s *Service) {
		s.applications = apps
		s.requireApplication = apps != nil
	}
}

// New constructs a Service. By default the application code is not checked.
func New(st Store, opts ...Option) *Service {
	s := &Service{store: st, policy: access.Open{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CertifyCommand carries a certification. Conditions wins over ConditionsJSON
// when both are set.
type CertifyCommand struct {
	AppCode           string
	DoctorName        string
	MCJRegNo          string
	OfficeAddress     string
	Parish            string
	OfficePhone       string
	Conditions        []models.Condition
	ConditionsJSON    string
	Notes             string
	CertificationDate string
}

// Certify stores the certification for cmd.AppCode. A code is certified at most once.
func (s *Service) Certify(ctx context.Context, caller domain.Caller, cmd CertifyCommand) (err error) {
	ctx, span := tracer.Start(ctx, "certification.certify")
	span.SetAttributes(attribute.String("code", cmd.AppCode))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	code := strings.TrimSpace(cmd.AppCode)
	doctor := strings.TrimSpace(cmd.DoctorName)
	if code == "" || doctor == "" {
		return dErrors.New(dErrors.CodeMissingFields, "Missing required fields")
	}

	conditions := cmd.Conditions
	if conditions == nil {
		if conditions, err = models.ParseConditions(cmd.ConditionsJSON); err != nil {
			return err
		}
	}
	certifiedAt, err := models.ParseCertificationDate(cmd.CertificationDate, requestcontext.Now(ctx))
	if err != nil {
		return err
	}

	if err := s.policy.AllowCertify(caller); err != nil {
		return err
	}

	if s.requireApplication {
		exists, err := s.applications.Exists(ctx, code)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
		}
		if !exists {
			return dErrors.New(dErrors.CodeApplicationNotFound, "Application not found")
		}
	}

	cert := &models.Certification{
		ApplicationCode:   code,
		DoctorName:        doctor,
		MCJRegNo:          cmd.MCJRegNo,
		OfficeAddress:     cmd.OfficeAddress,
		Parish:            cmd.Parish,
		OfficePhone:       cmd.OfficePhone,
		Conditions:        conditions,
		Notes:             cmd.Notes,
		CertificationDate: certifiedAt,
	}
	if err := s.store.Create(ctx, cert); err != nil {
		if sentinel.IsField(err, store.FieldApplicationCode) {
			return dErrors.New(dErrors.CodeAlreadyCertified, "This application has already been certified")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save certification")
	}

	s.logEvent(ctx, "application_certified",
		"code", code,
		"conditions", len(conditions),
	)
	s.metrics.IncCertification()
	return nil
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
