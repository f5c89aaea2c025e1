package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"healthfund/internal/membership/models"
	"healthfund/internal/membership/store"
	"healthfund/internal/platform/metrics"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/membership")

const DefaultNumberAttempts = 5

// Store persists memberships.
type Store interface {
	CreateIfAbsent(ctx context.Context, m *models.Membership) (bool, error)
	FindByNationalID(ctx context.Context, nationalID string) (*models.Membership, error)
}

// Cache is a read-through cache of memberships by national ID. Get returns
// nil, nil on a miss.
type Cache interface {
	Get(ctx context.Context, nationalID string) (*models.Membership, error)
	Set(ctx context.Context, m *models.Membership) error
}

// Publisher announces issued memberships.
type Publisher interface {
	PublishIssued(ctx context.Context, evt models.IssuedEvent) error
}

// Service issues and looks up memberships.
type Service struct {
	store          Store
	cache          Cache
	publisher      Publisher
	newNumber      models.NumberGenerator
	numberAttempts int
	logger         *slog.Logger
	metrics        *metrics.Metrics
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

func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithNumberAttempts(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.numberAttempts = n
		}
	}
}

func WithNumberGenerator(gen models.NumberGenerator) Option {
	return func(s *Service) {
		s.newNumber = gen
	}
}

// New constructs a Service. Without a cache every lookup reads the store;
// without a publisher issued memberships are not announced.
func New(st Store, opts ...Option) *Service {
	s := &Service{
		store:          st,
		newNumber:      models.NewMemberNumber,
		numberAttempts: DefaultNumberAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Issue creates a membership for nationalID unless one exists. It is meant to
// run inside the caller's transaction; issued is false when the national ID
// already held a membership. Member number collisions are retried.
func (s *Service) Issue(ctx context.Context, fullName, nationalID string) (_ *models.Membership, issued bool, err error) {
	ctx, span := tracer.Start(ctx, "membership.issue")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	now := requestcontext.Now(ctx)
	for attempt := 1; attempt <= s.numberAttempts; attempt++ {
		number, err := s.newNumber()
		if err != nil {
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate member number")
		}
		m := models.New(number, fullName, nationalID, now)

		created, err := s.store.CreateIfAbsent(ctx, m)
		switch {
		case err == nil:
			span.SetAttributes(attribute.Bool("issued", created), attribute.Int("attempts", attempt))
			return m, created, nil
		case sentinel.IsField(err, store.FieldMemberNumber):
			s.metrics.IncCodeCollision("member_number")
			continue
		default:
			return nil, false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue membership")
		}
	}
	return nil, false, dErrors.New(dErrors.CodeConflict, "Could not allocate a unique member number")
}

// Announce runs after the issuing transaction commits. It warms the cache and
// publishes the membership.issued event; failures are logged, never returned.
func (s *Service) Announce(ctx context.Context, m *models.Membership, applicationCode string) {
	s.metrics.IncMembershipIssued()
	s.logEvent(ctx, "membership_issued",
		"member_number", m.MemberNumber,
		"application_code", applicationCode,
	)

	if s.cache != nil {
		if err := s.cache.Set(ctx, m); err != nil {
			s.logWarn(ctx, "failed to cache membership", err)
		}
	}
	if s.publisher != nil {
		evt := models.NewIssuedEvent(m, applicationCode, requestcontext.Now(ctx))
		if err := s.publisher.PublishIssued(ctx, evt); err != nil {
			s.metrics.IncEventPublishFailure()
			s.logWarn(ctx, "failed to publish membership event", err)
		}
	}
}

// Lookup returns the membership held by nationalID.
func (s *Service) Lookup(ctx context.Context, nationalID string) (_ *models.Membership, err error) {
	ctx, span := tracer.Start(ctx, "membership.lookup")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	nationalID = strings.TrimSpace(nationalID)
	if nationalID == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "trn is required")
	}

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, nationalID)
		switch {
		case err != nil:
			s.metrics.IncMemberCache("error")
			s.logWarn(ctx, "member cache unavailable", err)
		case cached != nil:
			s.metrics.IncMemberCache("hit")
			span.SetAttributes(attribute.Bool("cache_hit", true))
			return cached, nil
		default:
			s.metrics.IncMemberCache("miss")
		}
	}

	m, err := s.store.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeMemberNotFound, "Member not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up member")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, m); err != nil {
			s.logWarn(ctx, "failed to cache membership", err)
		}
	}
	return m, nil
}

func (s *Service) logEvent(ctx context.Context, event string, attrs ...any) {
	if s.logger == nil {
		return
	}
	args := append([]any{"event", event, "request_id", requestcontext.RequestID(ctx)}, attrs...)
	s.logger.InfoContext(ctx, event, args...)
}

func (s *Service) logWarn(ctx context.Context, msg string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
}
