package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the verification workflow.
type Metrics struct {
	// Workflow transitions by operation (apply, admin_create, approve,
	// reject, edit, delete)
	Transitions *prometheus.CounterVec

	// Audit appends that failed after the triggering mutation committed
	AuditAppendFailures prometheus.Counter
}

// New registers and returns the workflow metrics. Call once per process;
// a nil *Metrics is safe to use everywhere and records nothing.
func New() *Metrics {
	return &Metrics{
		Transitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "counselor_admin_workflow_transitions_total",
			Help: "Completed verification workflow operations by type",
		}, []string{"operation"}),

		AuditAppendFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "counselor_admin_audit_append_failures_total",
			Help: "Audit writes that failed after the workflow mutation committed",
		}),
	}
}

func (m *Metrics) ObserveTransition(operation string) {
	if m != nil {
		m.Transitions.WithLabelValues(operation).Inc()
	}
}

func (m *Metrics) ObserveAuditFailure() {
	if m != nil {
		m.AuditAppendFailures.Inc()
	}
}
