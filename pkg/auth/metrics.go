package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Authentication outcomes recorded by Metrics.
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeExempt        = "exempt"
	OutcomeAnonymous     = "anonymous"
	OutcomeMissing       = "missing"
	OutcomeExpired       = "expired"
	OutcomeInvalid       = "invalid"
	OutcomeUnsupported   = "unsupported"
	OutcomeRejected      = "rejected"
)

// Metrics provides Prometheus metrics for authentication and authorization.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	authentications   *prometheus.CounterVec
	authorizations    *prometheus.CounterVec
	authorityDuration *prometheus.HistogramVec
}

// NewMetrics creates a new Metrics instance. Register it with a
// prometheus.Registerer to expose it.
func NewMetrics() *Metrics {
	return &Metrics{
		authentications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_authentications_total",
				Help: "Total number of authentication decisions by strategy and outcome",
			},
			[]string{"strategy", "outcome"},
		),
		authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "authgate_authorizations_total",
				Help: "Total number of role authorization decisions by outcome",
			},
			[]string{"outcome"},
		),
		authorityDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "authgate_authority_request_duration_seconds",
				Help:    "Latency of delegated authority calls by result",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"result"},
		),
	}
}

// Describe implements prometheus.Collector.
func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.authentications.Describe(ch)
	m.authorizations.Describe(ch)
	m.authorityDuration.Describe(ch)
}

// Collect implements prometheus.Collector.
func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.authentications.Collect(ch)
	m.authorizations.Collect(ch)
	m.authorityDuration.Collect(ch)
}

// RecordAuthentication increments the authentication counter.
func (m *Metrics) RecordAuthentication(strategy, outcome string) {
	if m == nil {
		return
	}
	if strategy == "" {
		strategy = "unknown"
	}
	m.authentications.WithLabelValues(strategy, outcome).Inc()
}

// RecordAuthorization increments the authorization counter.
func (m *Metrics) RecordAuthorization(allowed bool) {
	if m == nil {
		return
	}
	outcome := "denied"
	if allowed {
		outcome = "allowed"
	}
	m.authorizations.WithLabelValues(outcome).Inc()
}

// ObserveAuthority records the duration of one authority call.
func (m *Metrics) ObserveAuthority(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.authorityDuration.WithLabelValues(result).Observe(d.Seconds())
}
