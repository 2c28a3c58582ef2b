package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Login outcomes.
const (
	OutcomeSuccess        = "success"
	OutcomeMissingInput   = "missing_input"
	OutcomeUnknownAccount = "unknown_account"
	OutcomeMissingEmail   = "missing_email"
	OutcomeProviderError  = "provider_error"
	OutcomeLookupError    = "lookup_error"
)

// Subscription kinds.
const (
	KindBalance     = "balance"
	KindSubAccounts = "sub_accounts"
)

var loginDurationBuckets = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.2, 0.3, 0.5, 1, 2}

// Metrics tracks the login and account-sync flows. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	LoginDuration       *prometheus.HistogramVec
	ActiveSubscriptions *prometheus.GaugeVec
	SnapshotsApplied    *prometheus.CounterVec
	SubscriptionErrors  *prometheus.CounterVec
	ActiveSessions      prometheus.Gauge
}

// New registers the collectors on reg under namespace.
func New(namespace string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "login_duration_seconds",
				Help:      "Latency of login attempts by outcome",
				Buckets:   loginDurationBuckets,
			},
			[]string{"outcome"},
		),
		ActiveSubscriptions: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "account_subscriptions_active",
				Help:      "Open live document subscriptions by kind",
			},
			[]string{"kind"},
		),
		SnapshotsApplied: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_snapshots_applied_total",
				Help:      "Snapshots applied to account state by subscription kind",
			},
			[]string{"kind"},
		),
		SubscriptionErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "account_subscription_errors_total",
				Help:      "Errors delivered by live subscriptions by kind",
			},
			[]string{"kind"},
		),
		ActiveSessions: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "sessions_active",
				Help:      "Client sessions held by the registry",
			},
		),
	}
}

// ObserveLogin records one login attempt.
func (m *Metrics) ObserveLogin(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.LoginDuration.WithLabelValues(outcome).Observe(d.Seconds())
}

// SubscriptionOpened increments the open subscription gauge.
func (m *Metrics) SubscriptionOpened(kind string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(kind).Inc()
}

// SubscriptionClosed decrements the open subscription gauge.
func (m *Metrics) SubscriptionClosed(kind string) {
	if m == nil {
		return
	}
	m.ActiveSubscriptions.WithLabelValues(kind).Dec()
}

// SnapshotApplied counts a snapshot that changed account state.
func (m *Metrics) SnapshotApplied(kind string) {
	if m == nil {
		return
	}
	m.SnapshotsApplied.WithLabelValues(kind).Inc()
}

// SubscriptionError counts an error event.
func (m *Metrics) SubscriptionError(kind string) {
	if m == nil {
		return
	}
	m.SubscriptionErrors.WithLabelValues(kind).Inc()
}

// SetActiveSessions publishes the registry size.
func (m *Metrics) SetActiveSessions(n int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(n))
}
