package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Notification outcomes.
const (
	OutcomeEmpty       = "empty"
	OutcomeInvalid     = "invalid"
	OutcomeLocked      = "locked"
	OutcomeReconciled  = "reconciled"
	OutcomeStoreFailed = "store_failed"
)

type Metrics struct {
	Notifications *prometheus.CounterVec
	Transitions   *prometheus.CounterVec
	TokenRequests *prometheus.CounterVec
}

// New registers the collectors on reg. Pass prometheus.DefaultRegisterer to
// expose them on /metrics, or a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tilopay_notifications_total",
			Help: "Provider callbacks received, by outcome.",
		}, []string{"outcome"}),
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tilopay_transitions_total",
			Help: "Transaction state transitions written by reconciliation.",
		}, []string{"state"}),
		TokenRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "tilopay_token_requests_total",
			Help: "Token acquisitions against the provider API, by result.",
		}, []string{"result"}),
	}
}

// NewNop returns collectors registered nowhere.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}
