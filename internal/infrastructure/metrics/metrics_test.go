package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewWithRegistererRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	if m.EntriesApplied == nil || m.HoldsPlaced == nil || m.WithdrawalsRejected == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.HoldsPlaced.Inc()
	m.EntriesApplied.WithLabelValues("DEPOSIT", "COMPLETED").Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}

	if got := testutil.ToFloat64(m.HoldsPlaced); got != 1 {
		t.Fatalf("expected holds placed to be 1, got %v", got)
	}
}

func TestNewWithRegistererIsolatedRegistries(t *testing.T) {
	first := NewWithRegisterer(prometheus.NewRegistry())
	second := NewWithRegisterer(prometheus.NewRegistry())

	first.WithdrawalsRequested.Inc()

	if got := testutil.ToFloat64(second.WithdrawalsRequested); got != 0 {
		t.Fatalf("expected independent counters, got %v", got)
	}
}
