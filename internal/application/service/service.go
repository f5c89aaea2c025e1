package service

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"healthfund/internal/access"
	"healthfund/internal/application/models"
	"healthfund/internal/application/store"
	"healthfund/internal/platform/metrics"
	reviewModels "healthfund/internal/review/models"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/platform/tx"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/application")

const (
	DefaultListLimit    = 100
	MaxListLimit        = 1000
	DefaultCodeAttempts = 5
)

// Store persists applications.
type Store interface {
	Create(ctx context.Context, app *models.Application) error
	ExistsForOwner(ctx context.Context, owner domain.IdentityID) (bool, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Application, error)
}

// DecisionLog receives the pending decision written with each new application.
type DecisionLog interface {
	Append(ctx context.Context, d *reviewModels.Decision) error
}

// Service accepts and lists applications.
type Service struct {
	store        Store
	decisions    DecisionLog
	tx           tx.Runner
	policy       access.Policy
	newCode      models.CodeGenerator
	codeAttempts int
	logger       *slog.Logger
	metrics      *metrics.Metrics
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

// WithCodeAttempts bounds how many codes Submit tries before giving up.
func WithCodeAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.codeAttempts = n
		}
	}
}

func WithCodeGenerator(gen models.CodeGenerator) Option {
	return func(s *Service) {
		s.newCode = gen
	}
}

// New constructs a Service. The application and its pending decision are
// written through runner as one unit.
func New(st Store, decisions DecisionLog, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		store:        st,
		decisions:    decisions,
		tx:           runner,
		policy:       access.Open{},
		newCode:      models.NewCode,
		codeAttempts: DefaultCodeAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SubmitCommand carries a new application. UserID is the owning identity.
type SubmitCommand struct {
	UserID    string
	FullName  string
	TRN       string
	DOB       string
	Gender    string
	Address   string
	Phone     string
	Parish    string
	Condition string
}

// Submit creates an application with a fresh code and its pending decision.
func (s *Service) Submit(ctx context.Context, caller domain.Caller, cmd SubmitCommand) (_ string, err error) {
	ctx, span := tracer.Start(ctx, "application.submit")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if cmd.UserID == "" || cmd.FullName == "" || cmd.TRN == "" || cmd.DOB == "" || cmd.Gender == "" {
		return "", dErrors.New(dErrors.CodeMissingFields, "Missing required fields")
	}
	owner, err := domain.ParseIdentityID(cmd.UserID)
	if err != nil {
		return "", err
	}
	if err := s.policy.AllowSubmit(caller, owner); err != nil {
		return "", err
	}

	exists, err := s.store.ExistsForOwner(ctx, owner)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing application")
	}
	if exists {
		return "", duplicateApplication()
	}

	details := models.Details{
		FullName:  cmd.FullName,
		TRN:       cmd.TRN,
		DOB:       cmd.DOB,
		Gender:    cmd.Gender,
		Address:   cmd.Address,
		Phone:     cmd.Phone,
		Parish:    cmd.Parish,
		Condition: cmd.Condition,
	}
	now := requestcontext.Now(ctx)

	for attempt := 1; attempt <= s.codeAttempts; attempt++ {
		code, err := s.newCode(now)
		if err != nil {
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate application code")
		}
		app, err := models.NewApplication(code, owner, details, now)
		if err != nil {
			return "", err
		}

		err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if err := s.store.Create(ctx, app); err != nil {
				return err
			}
			return s.decisions.Append(ctx, reviewModels.NewPending(code))
		})
		switch {
		case err == nil:
			span.SetAttributes(attribute.String("code", code), attribute.Int("attempts", attempt))
			s.logEvent(ctx, "application_submitted",
				"code", code,
				"owner_id", owner.String(),
				"attempts", attempt,
			)
			s.metrics.IncApplicationCreated()
			return code, nil
		case sentinel.IsField(err, store.FieldCode):
			s.metrics.IncCodeCollision("application")
			s.logEvent(ctx, "application_code_collision", "code", code, "attempt", attempt)
			continue
		case sentinel.IsField(err, store.FieldOwner):
			return "", duplicateApplication()
		default:
			if _, ok := dErrors.As(err); ok {
				return "", err
			}
			return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create application")
		}
	}
	return "", dErrors.New(dErrors.CodeDuplicateCode, "Could not allocate a unique application code")
}

// List returns applications newest first within the caller's scope. A zero
// limit means DefaultListLimit; larger limits are capped at MaxListLimit.
func (s *Service) List(ctx context.Context, caller domain.Caller, limit int) (_ []*models.Application, err error) {
	ctx, span := tracer.Start(ctx, "application.list")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	switch {
	case limit < 0:
		return nil, dErrors.New(dErrors.CodeValidation, "limit must be a non-negative integer")
	case limit == 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}

	scope, err := s.policy.ListScope(caller)
	if err != nil {
		return nil, err
	}

	apps, err := s.store.List(ctx, store.ListFilter{Owner: scope.Owner, Limit: limit})
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list applications")
	}
	return apps, nil
}

func duplicateApplication() error {
	return dErrors.New(dErrors.CodeDuplicateApplication, "You already submitted an application")
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
