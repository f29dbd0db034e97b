package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

func TestAllocationMetricsCountsDecisions(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewAllocationMetrics(reg)

	m.ObserveDecision("create", OutcomeAllowed, "")
	m.ObserveDecision("create", OutcomeRejected, "EXCEEDS_VENDOR_LIMIT")
	m.ObserveDecision("create", OutcomeRejected, "EXCEEDS_VENDOR_LIMIT")
	m.ObserveTransition("SUBMIT_TRACKING", "IN_TRANSIT")

	mfs, err := reg.Gather()
	require.NoError(t, err)

	rejected, err := fetchCounterValue(mfs, "vendorpool_allocation_decisions_total", "reason", "EXCEEDS_VENDOR_LIMIT")
	require.NoError(t, err)
	require.Equal(t, float64(2), rejected)

	allowed, err := fetchCounterValue(mfs, "vendorpool_allocation_decisions_total", "reason", "none")
	require.NoError(t, err)
	require.Equal(t, float64(1), allowed)

	moved, err := fetchCounterValue(mfs, "vendorpool_commitments_transitions_total", "to", "IN_TRANSIT")
	require.NoError(t, err)
	require.Equal(t, float64(1), moved)
}

func TestAllocationMetricsNilSafe(t *testing.T) {
	var m *AllocationMetrics
	m.ObserveDecision("create", OutcomeAllowed, "")
	m.ObserveTransition("CANCEL", "CANCELLED")

	unregistered := NewAllocationMetrics(nil)
	unregistered.ObserveDecision("resize", OutcomeRejected, "EXCEEDS_VENDOR_LIMIT")
}
