// Package metrics defines observability hooks for store mutations and
// reconciliation. Implementations may forward to Prometheus; the zero-cost
// NoopRecorder is the default when metrics are not configured.
package metrics

import "time"

// MutationResult enumerates mutation outcome categories for counters.
type MutationResult string

const (
	MutationApplied       MutationResult = "applied"
	MutationRejected      MutationResult = "rejected"
	MutationPersistFailed MutationResult = "persist_failed"
)

// Reconcile outcome labels.
const (
	ReconcileApplied   = "applied"
	ReconcileUnchanged = "unchanged"
	ReconcileReadError = "read_error"
)

// Recorder defines observability hooks for store and sync metrics.
type Recorder interface {
	IncMutation(store, op string, result MutationResult)
	IncReconcile(trigger, outcome string)
	ObservePersistDuration(key string, d time.Duration, success bool)
	IncSkippedAmountLines(n int)
	SetCartLines(n int)
	SetCatalogProducts(n int)
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncMutation(string, string, MutationResult)       {}
func (NoopRecorder) IncReconcile(string, string)                      {}
func (NoopRecorder) ObservePersistDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncSkippedAmountLines(int)                        {}
func (NoopRecorder) SetCartLines(int)                                 {}
func (NoopRecorder) SetCatalogProducts(int)                           {}
