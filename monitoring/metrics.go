package monitoring

import (
	"context"
	"log/slog"
	"time"

	"github.com/pocketbase/dbx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	activeEntries = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "waitlist_active_entries",
			Help: "Current number of active waitlist entries per tenant and status",
		},
		[]string{"tenant_id", "status"},
	)

	queueOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_operations_total",
			Help: "Total waitlist operations",
		},
		[]string{"operation", "tenant_id", "result"},
	)

	broadcastFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "waitlist_broadcast_failures_total",
			Help: "Realtime broadcasts that could not be delivered",
		},
		[]string{"tenant_id"},
	)

	seatedWaitSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "waitlist_seated_wait_seconds",
			Help:    "Total wait duration (creation to seating) of seated parties",
			Buckets: prometheus.ExponentialBuckets(60, 2, 9),
		},
		[]string{"tenant_id"},
	)
)

// TrackOperation counts one queue operation outcome.
func TrackOperation(operation, tenantID, result string) {
	queueOperations.WithLabelValues(operation, tenantID, result).Inc()
}

// TrackBroadcastFailure counts a dropped realtime broadcast.
func TrackBroadcastFailure(tenantID string) {
	broadcastFailures.WithLabelValues(tenantID).Inc()
}

// ObserveSeatedWait records how long a seated party spent from registration
// to being seated.
func ObserveSeatedWait(tenantID string, d time.Duration) {
	seatedWaitSeconds.WithLabelValues(tenantID).Observe(d.Seconds())
}

// Monitor periodically samples active-entry counts from the entry table into
// the gauges above.
type Monitor struct {
	db       dbx.Builder
	interval time.Duration
}

func NewMonitor(db dbx.Builder, interval time.Duration) *Monitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Monitor{db: db, interval: interval}
}

// Run blocks until ctx is cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.collect(ctx)
		case <-ctx.Done():
			return
		}
	}
}

type statusCount struct {
	TenantID string `db:"tenant_id"`
	Status   string `db:"status"`
	Total    int    `db:"total"`
}

func (m *Monitor) collect(ctx context.Context) {
	var counts []statusCount
	err := m.db.NewQuery(
		`SELECT tenant_id, status, COUNT(*) AS total
		 FROM waitlist_entries
		 WHERE status IN ('waiting', 'called')
		 GROUP BY tenant_id, status`,
	).WithContext(ctx).All(&counts)
	if err != nil {
		slog.Error("monitoring: active entry collection failed", "error", err)
		return
	}

	// Reset so tenants whose queues drained stop reporting stale counts.
	activeEntries.Reset()
	for _, c := range counts {
		activeEntries.WithLabelValues(c.TenantID, c.Status).Set(float64(c.Total))
	}
}
