package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"waitlist-system/internal/status"
	"waitlist-system/models"
)

// fakeStore is an in-memory Store with the same compare-and-swap discipline
// as the SQL implementation, so concurrency tests exercise real conflicts.
type fakeStore struct {
	mu      sync.Mutex
	entries map[string]*models.WaitlistEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{entries: make(map[string]*models.WaitlistEntry)}
}

func (f *fakeStore) Create(ctx context.Context, tenantID string, req EnqueueRequest, now time.Time) (*models.WaitlistEntry, error) {
	if err := validateEnqueue(req); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entry := &models.WaitlistEntry{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		CustomerName: req.CustomerName,
		Phone:        req.Phone,
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		Status:       models.StatusWaiting,
		CreatedAt:    now.UTC(),
	}
	f.entries[entry.ID] = entry
	clone := *entry
	return &clone, nil
}

func (f *fakeStore) add(entry models.WaitlistEntry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	f.entries[entry.ID] = &entry
}

func (f *fakeStore) Get(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return nil, status.ErrNotFound
	}
	clone := *entry
	return &clone, nil
}

func (f *fakeStore) ListActive(ctx context.Context, tenantID string) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.WaitlistEntry
	for _, entry := range f.entries {
		if entry.TenantID == tenantID && entry.Status.Active() {
			out = append(out, *entry)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f *fakeStore) ListSeatedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.WaitlistEntry
	for _, entry := range f.entries {
		if entry.TenantID == tenantID && entry.Status == models.StatusSeated &&
			entry.SeatedAt != nil && !entry.SeatedAt.Before(since) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeStore) ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.WaitlistEntry
	for _, entry := range f.entries {
		if entry.TenantID != tenantID || !entry.Status.Terminal() {
			continue
		}
		terminal := entry.SeatedAt
		if terminal == nil {
			terminal = entry.CancelledAt
		}
		if terminal == nil {
			terminal = entry.NoShowAt
		}
		if terminal != nil && !terminal.Before(since) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

func (f *fakeStore) ApplyTransition(ctx context.Context, tenantID, entryID string, tr models.Transition, now time.Time) (*models.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entry, ok := f.entries[entryID]
	if !ok || entry.TenantID != tenantID {
		return nil, status.ErrNotFound
	}

	next, stamp, err := models.NextStatus(entry.Status, tr)
	if err != nil {
		return nil, err
	}

	ts := now.UTC()
	entry.Status = next
	switch stamp {
	case models.StampCalledAt:
		entry.CalledAt = &ts
	case models.StampSeatedAt:
		entry.SeatedAt = &ts
	case models.StampCancelledAt:
		entry.CancelledAt = &ts
	case models.StampNoShowAt:
		entry.NoShowAt = &ts
	}

	clone := *entry
	return &clone, nil
}

// conflictOnceStore fails the first ApplyTransition with a CAS conflict and
// then delegates, for exercising the service's transparent retry.
type conflictOnceStore struct {
	Store
	mu       sync.Mutex
	attempts int
}

func (c *conflictOnceStore) ApplyTransition(ctx context.Context, tenantID, entryID string, tr models.Transition, now time.Time) (*models.WaitlistEntry, error) {
	c.mu.Lock()
	c.attempts++
	first := c.attempts == 1
	c.mu.Unlock()

	if first {
		return nil, status.ErrConcurrentModification
	}
	return c.Store.ApplyTransition(ctx, tenantID, entryID, tr, now)
}

type publishedEvent struct {
	tenantID string
	event    string
	payload  map[string]any
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(tenantID, event string, payload map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{tenantID: tenantID, event: event, payload: payload})
}

func (f *fakePublisher) recorded() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]publishedEvent, len(f.events))
	copy(out, f.events)
	return out
}

type fakeSettings struct {
	settings models.QueueSettings
	err      error
}

func (f *fakeSettings) QueueSettings(ctx context.Context, tenantID string) (models.QueueSettings, error) {
	if f.err != nil {
		return models.QueueSettings{}, f.err
	}
	s := f.settings
	s.TenantID = tenantID
	return s, nil
}

type fakeCustomers struct {
	byPhone map[string]*models.Customer
}

func (f *fakeCustomers) FindByPhone(ctx context.Context, tenantID, phone string) (*models.Customer, error) {
	if f.byPhone == nil {
		return nil, nil
	}
	return f.byPhone[phone], nil
}
