package metrics

import "github.com/prometheus/client_golang/prometheus"

// Allocation outcomes.
const (
	OutcomeAllowed  = "allowed"
	OutcomeRejected = "rejected"
)

// AllocationMetrics counts commitment admission decisions and state machine
// transitions. A nil receiver is a no-op so services can run without a
// registry in tests.
type AllocationMetrics struct {
	decisions   *prometheus.CounterVec
	transitions *prometheus.CounterVec
}

// NewAllocationMetrics registers the allocation counters on reg.
func NewAllocationMetrics(reg prometheus.Registerer) *AllocationMetrics {
	if reg == nil {
		return &AllocationMetrics{}
	}
	decisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "allocation",
		Name:      "decisions_total",
		Help:      "Commitment create and resize decisions by outcome and rejection reason.",
	}, []string{"operation", "outcome", "reason"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "commitments",
		Name:      "transitions_total",
		Help:      "Accepted commitment state transitions.",
	}, []string{"action", "to"})
	reg.MustRegister(decisions, transitions)
	return &AllocationMetrics{decisions: decisions, transitions: transitions}
}

// ObserveDecision records one allocation decision. reason is empty when the
// request was allowed.
func (m *AllocationMetrics) ObserveDecision(operation, outcome, reason string) {
	if m == nil || m.decisions == nil {
		return
	}
	if outcome == OutcomeAllowed {
		reason = "none"
	}
	m.decisions.WithLabelValues(normalizeLabel(operation), normalizeLabel(outcome), normalizeLabel(reason)).Inc()
}

func (m *AllocationMetrics) ObserveTransition(action, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(action), normalizeLabel(to)).Inc()
}
