package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"healthfund/internal/identity/models"
	"healthfund/internal/identity/secrets"
	"healthfund/internal/identity/store"
	"healthfund/internal/platform/metrics"
	"healthfund/pkg/domain"
	dErrors "healthfund/pkg/domain-errors"
	"healthfund/pkg/platform/sentinel"
	"healthfund/pkg/requestcontext"
)

var tracer = otel.Tracer("healthfund/identity")

// invalidCredentialsMsg is returned for every failed login, whatever the cause.
const invalidCredentialsMsg = "Invalid username or password"

// Store persists identities with their role profiles.
type Store interface {
	Register(ctx context.Context, reg *models.Registration) error
	FindByLogin(ctx context.Context, login string) (*models.Identity, error)
}

// LockoutStore counts failed logins per identifier.
type LockoutStore interface {
	Failures(ctx context.Context, identifier string) (int, error)
	RecordFailure(ctx context.Context, identifier string, window time.Duration) (int, error)
	Clear(ctx context.Context, identifier string) error
}

// Service registers identities and verifies credentials.
type Service struct {
	store       Store
	lockout     LockoutStore
	maxFailures int
	window      time.Duration
	logger      *slog.Logger
	metrics     *metrics.Metrics
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

// WithLockout enables login lockout after maxFailures failures within window.
func WithLockout(lockout LockoutStore, maxFailures int, window time.Duration) Option {
	return func(s *Service) {
		s.lockout = lockout
		s.maxFailures = maxFailures
		s.window = window
	}
}

// New constructs a Service.
func New(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplicantRegistration carries the fields for a new applicant.
type ApplicantRegistration struct {
	Username, Email, Password string
	FullName, TRN, DOB, Gender string
	Address, Phone, Parish     string
}

// DoctorRegistration carries the fields for a new doctor.
type DoctorRegistration struct {
	Username, Email, Password string
	FullName, MCJRegNo        string
	Phone, Parish, OfficeAddr string
}

// StaffRegistration carries the fields for a new staff member.
type StaffRegistration struct {
	Username, Email, Password string
	DOB, Gender, TRN, StaffID string
}

// RegisterApplicant creates an applicant identity with its profile.
func (s *Service) RegisterApplicant(ctx context.Context, cmd ApplicantRegistration) (domain.Role, error) {
	if anyBlank(cmd.Username, cmd.Email, cmd.Password, cmd.FullName, cmd.TRN, cmd.DOB, cmd.Gender) {
		return "", dErrors.New(dErrors.CodeMissingFields, "Missing required applicant fields")
	}
	return s.register(ctx, cmd.Username, cmd.Email, cmd.Password, models.ApplicantProfile{
		FullName: cmd.FullName,
		TRN:      cmd.TRN,
		DOB:      cmd.DOB,
		Gender:   cmd.Gender,
		Address:  cmd.Address,
		Phone:    cmd.Phone,
		Parish:   cmd.Parish,
	})
}

// RegisterDoctor creates a doctor identity with its profile.
func (s *Service) RegisterDoctor(ctx context.Context, cmd DoctorRegistration) (domain.Role, error) {
	if anyBlank(cmd.Username, cmd.Email, cmd.Password, cmd.FullName, cmd.MCJRegNo) {
		return "", dErrors.New(dErrors.CodeMissingFields, "Missing required doctor fields")
	}
	return s.register(ctx, cmd.Username, cmd.Email, cmd.Password, models.DoctorProfile{
		FullName:      cmd.FullName,
		MCJRegNo:      cmd.MCJRegNo,
		Phone:         cmd.Phone,
		Parish:        cmd.Parish,
		OfficeAddress: cmd.OfficeAddr,
	})
}

// RegisterStaff creates a staff identity with its staff extension record.
func (s *Service) RegisterStaff(ctx context.Context, cmd StaffRegistration) (domain.Role, error) {
	if anyBlank(cmd.Username, cmd.Email, cmd.Password, cmd.DOB, cmd.Gender, cmd.TRN, cmd.StaffID) {
		return "", dErrors.New(dErrors.CodeMissingFields, "Missing required staff registration fields")
	}
	return s.register(ctx, cmd.Username, cmd.Email, cmd.Password, models.StaffProfile{
		TRN:     cmd.TRN,
		StaffID: cmd.StaffID,
		DOB:     cmd.DOB,
		Gender:  cmd.Gender,
	})
}

func (s *Service) register(ctx context.Context, username, email, password string, profile models.Profile) (_ domain.Role, err error) {
	ctx, span := tracer.Start(ctx, "identity.register")
	span.SetAttributes(attribute.String("role", string(profile.Role())))
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	hash, err := secrets.Hash(password)
	if err != nil {
		if _, ok := dErrors.As(err); ok {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash credential")
	}

	ident, err := models.NewIdentity(domain.NewIdentityID(), username, email, hash, profile.Role(), requestcontext.Now(ctx))
	if err != nil {
		return "", err
	}
	reg, err := models.NewRegistration(ident, profile)
	if err != nil {
		return "", err
	}

	if err := s.store.Register(ctx, reg); err != nil {
		if field, ok := sentinel.ViolatedField(err); ok {
			return "", duplicateIdentity(field)
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to register identity")
	}

	s.logEvent(ctx, "identity_registered",
		"identity_id", ident.ID.String(),
		"role", string(ident.Role),
	)
	s.metrics.IncRegistration(string(ident.Role))
	return ident.Role, nil
}

func duplicateIdentity(field string) error {
	switch field {
	case store.FieldUsername, store.FieldEmail:
		return dErrors.New(dErrors.CodeDuplicateIdentity, "Account already exists with another role")
	case store.FieldTRN:
		return dErrors.New(dErrors.CodeDuplicateIdentity, "An account with this TRN already exists")
	case store.FieldMCJRegNo:
		return dErrors.New(dErrors.CodeDuplicateIdentity, "An account with this MCJ registration number already exists")
	case store.FieldStaffID:
		return dErrors.New(dErrors.CodeDuplicateIdentity, "An account with this staff ID already exists")
	default:
		return dErrors.New(dErrors.CodeDuplicateIdentity, "Account already exists")
	}
}

// Login verifies a username-or-email and password. Unknown identities, wrong
// passwords and locked identifiers all fail with the same invalid_credentials error.
func (s *Service) Login(ctx context.Context, login, password string) (_ *models.Identity, err error) {
	ctx, span := tracer.Start(ctx, "identity.login")
	defer func() {
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, dErrors.New(dErrors.CodeMissingFields, "Missing credentials")
	}

	if s.locked(ctx, login) {
		secrets.Burn(password)
		s.metrics.IncLogin("locked")
		s.logEvent(ctx, "login_locked")
		return nil, dErrors.New(dErrors.CodeInvalidCredentials, invalidCredentialsMsg)
	}

	ident, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
		}
		secrets.Burn(password)
		return nil, s.loginFailed(ctx, login)
	}

	if err := secrets.Verify(password, ident.CredentialHash); err != nil {
		if !errors.Is(err, secrets.ErrMismatch) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credential")
		}
		return nil, s.loginFailed(ctx, login)
	}

	if s.lockout != nil {
		if err := s.lockout.Clear(ctx, login); err != nil {
			s.logWarn(ctx, "failed to clear login failures", err)
		}
	}
	s.metrics.IncLogin("success")
	s.logEvent(ctx, "login_succeeded",
		"identity_id", ident.ID.String(),
		"role", string(ident.Role),
	)
	return ident, nil
}

func (s *Service) locked(ctx context.Context, login string) bool {
	if s.lockout == nil || s.maxFailures <= 0 {
		return false
	}
	n, err := s.lockout.Failures(ctx, login)
	if err != nil {
		// An unavailable counter never blocks logins.
		s.logWarn(ctx, "failed to read login failures", err)
		return false
	}
	return n >= s.maxFailures
}

func (s *Service) loginFailed(ctx context.Context, login string) error {
	if s.lockout != nil {
		if _, err := s.lockout.RecordFailure(ctx, login, s.window); err != nil {
			s.logWarn(ctx, "failed to record login failure", err)
		}
	}
	s.metrics.IncLogin("invalid")
	s.logEvent(ctx, "login_failed")
	return dErrors.New(dErrors.CodeInvalidCredentials, invalidCredentialsMsg)
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

func anyBlank(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return true
		}
	}
	return false
}
