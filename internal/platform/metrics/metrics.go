package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var durationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5}

// Metrics holds the Prometheus collectors for the service. A nil *Metrics is
// valid and records nothing, so services can run without instrumentation.
type Metrics struct {
	Registrations        *prometheus.CounterVec
	Logins               *prometheus.CounterVec
	ApplicationsCreated  prometheus.Counter
	CodeCollisions       *prometheus.CounterVec
	Certifications       prometheus.Counter
	Decisions            *prometheus.CounterVec
	MembershipsIssued    prometheus.Counter
	MemberCacheLookups   *prometheus.CounterVec
	EventPublishFailures prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfund_registrations_total",
			Help: "Successful identity registrations by role",
		}, []string{"role"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfund_logins_total",
			Help: "Login attempts by outcome (success, invalid, locked)",
		}, []string{"outcome"}),
		ApplicationsCreated: f.NewCounter(prometheus.CounterOpts{
			Name: "healthfund_applications_created_total",
			Help: "Applications successfully submitted",
		}),
		CodeCollisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfund_generated_code_collisions_total",
			Help: "Random code collisions that forced a retry, by kind (application, member)",
		}, []string{"kind"}),
		Certifications: f.NewCounter(prometheus.CounterOpts{
			Name: "healthfund_certifications_total",
			Help: "Certifications recorded",
		}),
		Decisions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfund_decisions_total",
			Help: "Approval decisions appended, by action",
		}, []string{"action"}),
		MembershipsIssued: f.NewCounter(prometheus.CounterOpts{
			Name: "healthfund_memberships_issued_total",
			Help: "Memberships created on approval",
		}),
		MemberCacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "healthfund_member_cache_lookups_total",
			Help: "Member cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
		EventPublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "healthfund_event_publish_failures_total",
			Help: "Membership events that could not be published",
		}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "healthfund_http_request_duration_seconds",
			Help:    "HTTP request latency by route pattern and status",
			Buckets: durationBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncRegistration(role string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(role).Inc()
}

func (m *Metrics) IncLogin(outcome string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(outcome).Inc()
}

func (m *Metrics) IncApplicationCreated() {
	if m == nil {
		return
	}
	m.ApplicationsCreated.Inc()
}

func (m *Metrics) IncCodeCollision(kind string) {
	if m == nil {
		return
	}
	m.CodeCollisions.WithLabelValues(kind).Inc()
}

func (m *Metrics) IncCertification() {
	if m == nil {
		return
	}
	m.Certifications.Inc()
}

func (m *Metrics) IncDecision(action string) {
	if m == nil {
		return
	}
	m.Decisions.WithLabelValues(action).Inc()
}

func (m *Metrics) IncMembershipIssued() {
	if m == nil {
		return
	}
	m.MembershipsIssued.Inc()
}

func (m *Metrics) IncMemberCache(result string) {
	if m == nil {
		return
	}
	m.MemberCacheLookups.WithLabelValues(result).Inc()
}

func (m *Metrics) IncEventPublishFailure() {
	if m == nil {
		return
	}
	m.EventPublishFailures.Inc()
}

// ObserveRequest records the latency of one HTTP request.
// Call with time.Now() taken at the start of the request.
func (m *Metrics) ObserveRequest(method, route, status string, start time.Time) {
	if m == nil {
		return
	}
	m.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
}
