package metrics

import (
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopRecorderIsSafe(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncMutation("cart", "add", MutationApplied)
	r.IncReconcile("watch", ReconcileUnchanged)
	r.ObservePersistDuration("cart", time.Millisecond, true)
	r.IncSkippedAmountLines(1)
	r.SetCartLines(2)
	r.SetCatalogProducts(3)
}

func TestPrometheusRecorderRegistersAndCounts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)

	pr.IncMutation("cart", "add", MutationApplied)
	pr.IncReconcile("backstop", ReconcileApplied)
	pr.ObservePersistDuration("cart", 5*time.Millisecond, false)
	pr.SetCartLines(4)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["shopsync_mutations_total"])
	assert.True(t, names["shopsync_reconciles_total"])
	assert.True(t, names["shopsync_persist_duration_seconds"])
	assert.True(t, names["shopsync_cart_lines"])
}
