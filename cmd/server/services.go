package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"healthfund/internal/access"
	appService "healthfund/internal/application/service"
	appStore "healthfund/internal/application/store"
	certModels "healthfund/internal/certification/models"
	certService "healthfund/internal/certification/service"
	certStore "healthfund/internal/certification/store"
	detailService "healthfund/internal/detail/service"
	detailStore "healthfund/internal/detail/store"
	identityService "healthfund/internal/identity/service"
	"healthfund/internal/identity/lockout"
	identityStore "healthfund/internal/identity/store"
	memberCache "healthfund/internal/membership/cache"
	memberEvents "healthfund/internal/membership/events"
	memberService "healthfund/internal/membership/service"
	memberStore "healthfund/internal/membership/store"
	"healthfund/internal/platform/config"
	"healthfund/internal/platform/metrics"
	"healthfund/internal/platform/postgres"
	reviewModels "healthfund/internal/review/models"
	reviewService "healthfund/internal/review/service"
	reviewStore "healthfund/internal/review/store"
	"healthfund/pkg/platform/circuit"
	"healthfund/pkg/platform/tx"
)

type applicationStore interface {
	appService.Store
	reviewService.Applications
	certService.ApplicationReader
}

type certificationStore interface {
	certService.Store
	detailService.Certifications
	FindByCode(ctx context.Context, code string) (*certModels.Certification, error)
}

type decisionStore interface {
	reviewService.DecisionLog
	Latest(ctx context.Context, code string) (*reviewModels.Decision, error)
}

// stores is one storage engine's implementation of every repository.
type stores struct {
	identities     identityService.Store
	applications   applicationStore
	certifications certificationStore
	decisions      decisionStore
	memberships    memberService.Store
	details        detailService.Reader
	runner         tx.Runner
}

func newStores(in *infra) stores {
	if in.db != nil {
		return stores{
			identities:     identityStore.NewPostgres(in.db),
			applications:   appStore.NewPostgres(in.db),
			certifications: certStore.NewPostgres(in.db),
			decisions:      reviewStore.NewPostgres(in.db),
			memberships:    memberStore.NewPostgres(in.db),
			details:        detailStore.NewPostgresReader(in.db),
			runner:         postgres.NewTxRunner(in.db),
		}
	}
	apps := appStore.NewInMemoryStore()
	certs := certStore.NewInMemoryStore()
	decisions := reviewStore.NewInMemoryStore()
	return stores{
		identities:     identityStore.NewInMemoryStore(),
		applications:   apps,
		certifications: certs,
		decisions:      decisions,
		memberships:    memberStore.NewInMemoryStore(),
		details:        detailStore.NewCompositeReader(apps, certs, decisions),
		runner:         tx.NewLocked(),
	}
}

type services struct {
	identity      *identityService.Service
	applications  *appService.Service
	certification *certService.Service
	review        *reviewService.Service
	membership    *memberService.Service
	detail        *detailService.Service
	metrics       *metrics.Metrics
}

func buildServices(cfg config.Server, log *slog.Logger, in *infra, reg prometheus.Registerer) (services, error) {
	policy, err := access.New(cfg.Workflow.AccessPolicy)
	if err != nil {
		return services{}, err
	}
	m := metrics.New(reg)
	st := newStores(in)

	var lockouts identityService.LockoutStore = lockout.NewInMemoryStore()
	if in.redis != nil {
		lockouts = lockout.NewRedisStore(in.redis.Client)
	}

	memberOpts := []memberService.Option{
		memberService.WithLogger(log),
		memberService.WithMetrics(m),
		memberService.WithNumberAttempts(cfg.Workflow.MemberNumberAttempts),
		memberService.WithPublisher(newPublisher(in, log)),
	}
	if in.redis != nil {
		memberOpts = append(memberOpts, memberService.WithCache(memberCache.NewRedisCache(in.redis.Client, cfg.Redis.MemberCacheTTL)))
	}
	membership := memberService.New(st.memberships, memberOpts...)

	certOpts := []certService.Option{
		certService.WithLogger(log),
		certService.WithMetrics(m),
		certService.WithPolicy(policy),
	}
	if cfg.Workflow.CertifyRequiresApplication {
		certOpts = append(certOpts, certService.WithRequiredApplication(st.applications))
	}

	return services{
		identity: identityService.New(st.identities,
			identityService.WithLogger(log),
			identityService.WithMetrics(m),
			identityService.WithLockout(lockouts, cfg.Login.MaxFailures, cfg.Login.Window),
		),
		applications: appService.New(st.applications, st.decisions, st.runner,
			appService.WithLogger(log),
			appService.WithMetrics(m),
			appService.WithPolicy(policy),
			appService.WithCodeAttempts(cfg.Workflow.CodeAttempts),
		),
		certification: certService.New(st.certifications, certOpts...),
		review: reviewService.New(st.applications, st.decisions, membership, st.runner,
			reviewService.WithLogger(log),
			reviewService.WithMetrics(m),
			reviewService.WithPolicy(policy),
		),
		membership: membership,
		detail: detailService.New(st.details, st.applications, st.certifications,
			detailService.WithLogger(log),
			detailService.WithPolicy(policy),
		),
		metrics: m,
	}, nil
}

// newPublisher publishes membership events to Kafka behind a circuit breaker,
// or only logs them when no brokers are configured.
func newPublisher(in *infra, log *slog.Logger) memberService.Publisher {
	if in.producer == nil {
		return memberEvents.NewLogPublisher(log)
	}
	breaker := circuit.New("kafka-membership",
		circuit.WithFailureThreshold(5),
		circuit.WithCooldown(30*time.Second),
	)
	return memberEvents.NewKafkaPublisher(in.producer, breaker, log)
}
