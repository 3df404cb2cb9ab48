// Package metrics exposes operator telemetry.  Failures that are
// deliberately swallowed on the request path (audit writes, audit
// reads) surface here instead.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	DecisionsGranted  prometheus.Counter
	DecisionsDenied   prometheus.Counter
	AuditWriteFailed  prometheus.Counter
	AuditReadFailed   prometheus.Counter
	ReasoningFailed   prometheus.Counter
	FeedReconnects    prometheus.Counter
	RegistrationsOK   prometheus.Counter
	RegistrationsFail prometheus.Counter
}

// New creates and registers all counters.  Passing nil registers on the
// default registry; tests pass their own prometheus.NewRegistry().
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Metrics{
		DecisionsGranted: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_decisions_granted_total",
			Help: "Access decisions that granted entry.",
		}),
		DecisionsDenied: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_decisions_denied_total",
			Help: "Access decisions that denied entry.",
		}),
		AuditWriteFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_audit_write_failures_total",
			Help: "Audit log appends that failed and were swallowed.",
		}),
		AuditReadFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_audit_read_failures_total",
			Help: "Audit log reads that failed and degraded to empty.",
		}),
		ReasoningFailed: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_reasoning_failures_total",
			Help: "Reasoning engine calls that failed closed.",
		}),
		FeedReconnects: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_feed_reconnects_total",
			Help: "Reader feed reconnect attempts.",
		}),
		RegistrationsOK: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_registrations_succeeded_total",
			Help: "Card registrations that committed all three steps.",
		}),
		RegistrationsFail: f.NewCounter(prometheus.CounterOpts{
			Name: "cardgate_registrations_failed_total",
			Help: "Card registrations that failed and rolled back.",
		}),
	}
}
