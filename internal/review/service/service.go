package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"healthfund/internal/access"
	appModels "healthfund/internal/application/models"
	memberModels "healthfund/internal/membership/models"
	"healthfund/internal/platform/metrics"
	"healthfund/internal/review/models"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/platform/tx"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/review")

// Applications reads the application being decided.
type Applications interface {
	FindByCode(ctx context.Context, code string) (*appModels.Application, error)
}

// DecisionLog appends approval decisions.
type DecisionLog interface {
	Append(ctx context.Context, d *models.Decision) error
}

// Memberships issues a membership inside the decision transaction and
// announces it once the transaction has committed.
type Memberships interface {
	Issue(ctx context.Context, fullName, nationalID string) (*memberModels.Membership, bool, error)
	Announce(ctx context.Context, m *memberModels.Membership, applicationCode string)
}

// Service records staff decisions on applications.
type Service struct {
	applications Applications
	decisions    DecisionLog
	memberships  Memberships
	tx           tx.Runner
	policy       access.Policy
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

// New constructs a Service.
func New(apps Applications, decisions DecisionLog, memberships Memberships, runner tx.Runner, opts ...Option) *Service {
	s := &Service{
		applications: apps,
		decisions:    decisions,
		memberships:  memberships,
		tx:           runner,
		policy:       access.Open{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DecideCommand carries a staff decision. Action is "approved" or "rejected".
type DecideCommand struct {
	AppCode          string
	Action           string
	ReviewerUsername string
	Reason           string
}

// Decide appends a decision to the application's log. Approval issues a
// membership for the applicant's TRN unless one already exists.
func (s *Service) Decide(ctx context.Context, caller domain.Caller, cmd DecideCommand) (err error) {
	ctx, span := tracer.Start(ctx, "review.decide")
	span.SetAttributes(attribute.String("code", cmd.AppCode), attribute.String("action", cmd.Action))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	decision, err := models.NewDecision(cmd.AppCode, models.Status(cmd.Action), cmd.ReviewerUsername, cmd.Reason, requestcontext.Now(ctx))
	if err != nil {
		return err
	}
	if err := s.policy.AllowDecide(caller); err != nil {
		return err
	}

	var issued *memberModels.Membership
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		issued = nil
		app, err := s.applications.FindByCode(ctx, decision.ApplicationCode)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeApplicationNotFound, "Application not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up application")
		}

		if decision.Status == models.StatusApproved {
			m, created, err := s.memberships.Issue(ctx, app.FullName, app.TRN)
			if err != nil {
				return err
			}
			if created {
				issued = m
			}
		}

		if err := s.decisions.Append(ctx, decision); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
		}
		return nil
	})
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return err
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record decision")
	}

	s.metrics.IncDecision(string(decision.Status))
	s.logEvent(ctx, "application_decided",
		"code", decision.ApplicationCode,
		"status", string(decision.Status),
		"reviewer", decision.ReviewerUsername,
		"membership_issued", issued != nil,
	)
	if issued != nil {
		s.memberships.Announce(ctx, issued, decision.ApplicationCode)
	}
	return nil
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}
