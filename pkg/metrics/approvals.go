package metrics

import "github.com/prometheus/client_golang/prometheus"

// ApprovalMetrics counts member approval state transitions.
type ApprovalMetrics struct {
	transitions *prometheus.CounterVec
}

func NewApprovalMetrics(reg prometheus.Registerer) *ApprovalMetrics {
	if reg == nil {
		return &ApprovalMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "approval_transitions_total",
		Help:      "Member approval transitions by kind (approve, reject, revoke, change_branch).",
	}, []string{"transition"})
	reg.MustRegister(transitions)
	return &ApprovalMetrics{transitions: transitions}
}

func (a *ApprovalMetrics) IncTransition(transition string) {
	if a == nil || a.transitions == nil {
		return
	}
	a.transitions.WithLabelValues(normalizeLabel(transition)).Inc()
}
