package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"waitlist-system/internal/status"
	"waitlist-system/models"
	"waitlist-system/monitoring"
)

// EnqueueRequest carries the fields needed to register a walk-in party.
// Transition actions carry only the entry id, taken from the request path.
type EnqueueRequest struct {
	CustomerName string `json:"customer_name"`
	Phone        string `json:"phone"`
	PartySize    int    `json:"party_size"`
	Notes        string `json:"notes"`
}

// QueueView is the single-round-trip read staff devices render from: the
// active queue in FIFO order with per-entry alerts, plus the wait estimate.
type QueueView struct {
	Active  []models.EntryWithAlert `json:"active"`
	Metrics models.WaitMetrics      `json:"metrics"`
}

// QueueService composes the entry store, state machine, estimator, alert
// classification and broadcaster into the externally exposed operations.
type QueueService struct {
	store       Store
	estimator   *Estimator
	broadcaster Publisher
	settings    SettingsSource
	customers   CustomerDirectory
	cache       *MetricsCache

	now func() time.Time
}

func NewQueueService(store Store, broadcaster Publisher, settings SettingsSource, customers CustomerDirectory, cache *MetricsCache) *QueueService {
	return &QueueService{
		store:       store,
		estimator:   NewEstimator(store),
		broadcaster: broadcaster,
		settings:    settings,
		customers:   customers,
		cache:       cache,
		now:         time.Now,
	}
}

// Enqueue validates and registers a party, pre-filling the display name and
// notes from the customer directory when the caller only supplied a phone.
func (s *QueueService) Enqueue(ctx context.Context, tenantID string, req EnqueueRequest) (*models.WaitlistEntry, error) {
	if req.CustomerName == "" && req.Phone != "" {
		customer, err := s.customers.FindByPhone(ctx, tenantID, req.Phone)
		if err != nil {
			// Pre-fill is advisory; a directory failure must not block enqueue.
			slog.Warn("customer lookup failed", "tenant_id", tenantID, "error", err)
		} else if customer != nil {
			req.CustomerName = customer.Name
			if req.Notes == "" {
				req.Notes = customer.Notes
			}
		}
	}

	entry, err := s.store.Create(ctx, tenantID, req, s.now())
	if err != nil {
		monitoring.TrackOperation("enqueue", tenantID, "error")
		return nil, err
	}

	monitoring.TrackOperation("enqueue", tenantID, "success")
	s.broadcaster.Publish(tenantID, EventEntryCreated, map[string]any{
		"entry_id": entry.ID,
		"status":   entry.Status,
	})
	return entry, nil
}

func (s *QueueService) Call(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	return s.transition(ctx, tenantID, entryID, models.TransitionCall)
}

func (s *QueueService) Seat(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	return s.transition(ctx, tenantID, entryID, models.TransitionSeat)
}

func (s *QueueService) Cancel(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	return s.transition(ctx, tenantID, entryID, models.TransitionCancel)
}

func (s *QueueService) MarkNoShow(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	return s.transition(ctx, tenantID, entryID, models.TransitionNoShow)
}

func (s *QueueService) transition(ctx context.Context, tenantID, entryID string, tr models.Transition) (*models.WaitlistEntry, error) {
	entry, err := s.store.ApplyTransition(ctx, tenantID, entryID, tr, s.now())
	if errors.Is(err, status.ErrConcurrentModification) {
		// One transparent retry against fresh state. The state machine is
		// deterministic given the current status, so if the entry still
		// allows this transition the retry succeeds; otherwise it surfaces
		// the real conflict (usually InvalidTransition).
		slog.Info("transition lost the race, retrying", "tenant_id", tenantID, "entry_id", entryID, "transition", tr)
		entry, err = s.store.ApplyTransition(ctx, tenantID, entryID, tr, s.now())
	}
	if err != nil {
		monitoring.TrackOperation(string(tr), tenantID, "error")
		return nil, err
	}

	monitoring.TrackOperation(string(tr), tenantID, "success")

	if entry.Status == models.StatusSeated {
		if entry.SeatedAt != nil {
			monitoring.ObserveSeatedWait(tenantID, entry.SeatedAt.Sub(entry.CreatedAt))
		}
		// Seating adds an estimator sample; the next metrics read should see it.
		if s.cache != nil {
			s.cache.Invalidate(ctx, tenantID)
		}
	}

	s.broadcaster.Publish(tenantID, EventEntryUpdated, map[string]any{
		"entry_id": entry.ID,
		"status":   entry.Status,
	})
	return entry, nil
}

// ListQueue composes active entries, alert classification and the metrics
// snapshot into one read.
func (s *QueueService) ListQueue(ctx context.Context, tenantID string) (*QueueView, error) {
	now := s.now()

	settings := s.tenantSettings(ctx, tenantID)

	active, err := s.store.ListActive(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	view := &QueueView{Active: make([]models.EntryWithAlert, 0, len(active))}
	for i, entry := range active {
		view.Active = append(view.Active, models.EntryWithAlert{
			WaitlistEntry: entry,
			Position:      i + 1,
			Alert:         ClassifyAlert(entry, settings, now),
		})
	}

	view.Metrics = s.metricsSnapshot(ctx, tenantID, settings, now)
	return view, nil
}

// Metrics returns the wait-time snapshot on its own.
func (s *QueueService) Metrics(ctx context.Context, tenantID string) models.WaitMetrics {
	now := s.now()
	return s.metricsSnapshot(ctx, tenantID, s.tenantSettings(ctx, tenantID), now)
}

func (s *QueueService) metricsSnapshot(ctx context.Context, tenantID string, settings models.QueueSettings, now time.Time) models.WaitMetrics {
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, tenantID); ok {
			return *cached
		}
	}

	snapshot := s.estimator.Snapshot(ctx, tenantID, settings, now)

	if s.cache != nil {
		s.cache.Put(ctx, tenantID, snapshot)
	}
	return snapshot
}

func (s *QueueService) tenantSettings(ctx context.Context, tenantID string) models.QueueSettings {
	settings, err := s.settings.QueueSettings(ctx, tenantID)
	if err != nil {
		// A settings outage should not take queue reads down with it.
		slog.Warn("settings read failed, using defaults", "tenant_id", tenantID, "error", err)
		return models.QueueSettings{TenantID: tenantID, EstimationWindowMin: 120}
	}
	return settings
}
