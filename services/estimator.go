package services

import (
	"context"
	"log/slog"
	"time"

	"waitlist-system/models"
)

// minWindowSamples is the smallest sample count the short-window average is
// trusted with; below it the estimator widens its lookback and flags the
// snapshot as a fallback.
const minWindowSamples = 3

// fallbackLookback is the wider window used when the estimation window holds
// too few seated parties.
const fallbackLookback = 24 * time.Hour

// Estimator derives the wait-time snapshot for a tenant. It holds no state of
// its own: the snapshot is a pure function of the stored entries, the tenant
// settings and the current time, so recomputing it is always safe.
type Estimator struct {
	store Store
}

func NewEstimator(store Store) *Estimator {
	return &Estimator{store: store}
}

// Snapshot never fails; on a store error it returns an empty fallback
// snapshot and logs the cause.
func (e *Estimator) Snapshot(ctx context.Context, tenantID string, settings models.QueueSettings, now time.Time) models.WaitMetrics {
	windowMin := settings.EstimationWindowMin
	if windowMin <= 0 {
		windowMin = 120
	}

	snapshot := models.WaitMetrics{
		WindowMinutes: windowMin,
		FallbackUsed:  true,
		LastUpdated:   now.UTC(),
	}

	seated, err := e.store.ListSeatedSince(ctx, tenantID, now.Add(-time.Duration(windowMin)*time.Minute))
	if err != nil {
		slog.Error("estimator: window query failed", "tenant_id", tenantID, "error", err)
		return snapshot
	}

	if avg, n := averageWaitSeconds(seated); n >= minWindowSamples {
		snapshot.AvgWaitSeconds = &avg
		snapshot.SampleCount = n
		snapshot.FallbackUsed = false
		return snapshot
	}

	// Too few recent samples: widen to the day's completed entries so a slow
	// afternoon still produces a usable, if approximate, estimate.
	completed, err := e.store.ListCompletedSince(ctx, tenantID, now.Add(-fallbackLookback))
	if err != nil {
		slog.Error("estimator: fallback query failed", "tenant_id", tenantID, "error", err)
		return snapshot
	}

	if avg, n := averageWaitSeconds(completed); n > 0 {
		snapshot.AvgWaitSeconds = &avg
		snapshot.SampleCount = n
	}
	// No sample anywhere: AvgWaitSeconds stays nil rather than inventing a
	// number or dividing by zero.
	return snapshot
}

// averageWaitSeconds averages the creation-to-call wait of entries that were
// actually called. Entries cancelled straight from waiting carry no signal.
func averageWaitSeconds(entries []models.WaitlistEntry) (float64, int) {
	var sum float64
	var n int
	for i := range entries {
		if w, ok := entries[i].WaitSeconds(); ok {
			sum += w
			n++
		}
	}
	if n == 0 {
		return 0, 0
	}
	return sum / float64(n), n
}
