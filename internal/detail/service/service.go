package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"healthfund/internal/access"
	appModels "healthfund/internal/application/models"
	"healthfund/internal/detail/models"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/detail")

// Reader loads the joined detail for an application code.
type Reader interface {
	Detail(ctx context.Context, code string) (*models.Detail, error)
}

// Applications finds a single application.
type Applications interface {
	FindByCode(ctx context.Context, code string) (*appModels.Application, error)
}

// Certifications reports whether a code has been certified.
type Certifications interface {
	Exists(ctx context.Context, code string) (bool, error)
}

// Service serves the read-side views of an application.
type Service struct {
	reader Reader
	apps   Applications
	certs  Certifications
	policy access.Policy
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPolicy(p access.Policy) Option {
	return func(s *Service) {
		s.policy = p
	}
}

func New(reader Reader, apps Applications, certs Certifications, opts ...Option) *Service {
	s := &Service{reader: reader, apps: apps, certs: certs, policy: access.Open{}}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detail returns the application with its certification and latest decision.
// The policy decides on the loaded owner, so a caller who may not view the
// application cannot tell a missing code from a foreign one.
func (s *Service) Detail(ctx context.Context, caller domain.Caller, code string) (_ *models.Detail, err error) {
	ctx, span := tracer.Start(ctx, "detail.detail", trace.WithAttributes(attribute.String("code", code)))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, notFound()
	}

	d, err := s.reader.Detail(ctx, code)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	var owner *domain.IdentityID
	if d != nil && d.Application != nil {
		owner = d.Application.OwnerID
	}
	if err := s.policy.AllowView(caller, owner); err != nil {
		return nil, err
	}
	if d == nil {
		return nil, notFound()
	}
	s.logDebug(ctx, "application detail read", "code", code, "status", string(d.Approval.Status))
	return d.Shape(), nil
}

// DoctorView returns the application and whether it has been certified. The
// two reads run concurrently.
func (s *Service) DoctorView(ctx context.Context, caller domain.Caller, code string) (_ *models.DoctorView, err error) {
	ctx, span := tracer.Start(ctx, "detail.doctor_view", trace.WithAttributes(attribute.String("code", code)))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, notFound()
	}
	if err := s.policy.AllowCertify(caller); err != nil {
		return nil, err
	}

	var (
		app       *appModels.Application
		certified bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		app, err = s.apps.FindByCode(gctx, code)
		return err
	})
	g.Go(func() error {
		var err error
		certified, err = s.certs.Exists(gctx, code)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, notFound()
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}
	return &models.DoctorView{Application: app, IsCertified: certified}, nil
}

func notFound() error {
	return dErrors.New(dErrors.CodeApplicationNotFound, "Application not found")
}

func (s *Service) logDebug(ctx context.Context, msg string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.DebugContext(ctx, msg, args...)
}
