package models

import (
	"time"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCalled    Status = "called"
	StatusSeated    Status = "seated"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Terminal reports whether no further transition is allowed from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusSeated, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Active reports whether the entry still occupies a position in the queue.
func (s Status) Active() bool {
	return s == StatusWaiting || s == StatusCalled
}

// WaitlistEntry is one party's registration on a restaurant's walk-in
// waitlist. Entries are never deleted; terminal entries remain as the
// historical record the reporting side reads from.
type WaitlistEntry struct {
	ID           string     `json:"id"`
	TenantID     string     `json:"tenant_id"`
	CustomerName string     `json:"customer_name"`
	Phone        string     `json:"phone"`
	PartySize    int        `json:"party_size"`
	Notes        string     `json:"notes"`
	ConfirmCode  string     `json:"confirm_code"`
	Status       Status     `json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	CalledAt     *time.Time `json:"called_at,omitempty"`
	SeatedAt     *time.Time `json:"seated_at,omitempty"`
	CancelledAt  *time.Time `json:"cancelled_at,omitempty"`
	NoShowAt     *time.Time `json:"no_show_at,omitempty"`
}

// WaitSeconds is the time the party actually spent waiting before staff
// addressed them (creation to call). Returns false until the entry was called.
func (e *WaitlistEntry) WaitSeconds() (float64, bool) {
	if e.CalledAt == nil {
		return 0, false
	}
	return e.CalledAt.Sub(e.CreatedAt).Seconds(), true
}

type AlertLevel string

const (
	AlertNone           AlertLevel = "none"
	AlertWaitingOverdue AlertLevel = "waiting_overdue"
	AlertCalledOverdue  AlertLevel = "called_overdue"
)

// EntryWithAlert decorates an active entry with its FIFO position and the
// alert classification computed for the current read. Neither field is stored.
type EntryWithAlert struct {
	WaitlistEntry
	Position int        `json:"position"`
	Alert    AlertLevel `json:"alert"`
}

// WaitMetrics is the derived wait-time snapshot for one tenant. It is a pure
// function of the stored entries and the current time and is never persisted.
// AvgWaitSeconds is nil when no sample exists at all.
type WaitMetrics struct {
	AvgWaitSeconds *float64  `json:"avg_wait_seconds"`
	SampleCount    int       `json:"sample_count"`
	FallbackUsed   bool      `json:"fallback_used"`
	WindowMinutes  int       `json:"window_minutes"`
	LastUpdated    time.Time `json:"last_updated"`
}

// QueueSettings is the tenant-scoped configuration the engine reads but never
// writes. A zero alert threshold disables that alert class.
type QueueSettings struct {
	TenantID                 string `json:"tenant_id"`
	WaitingAlertThresholdMin int    `json:"waiting_alert_threshold_min"`
	CalledAlertThresholdMin  int    `json:"called_alert_threshold_min"`
	EstimationWindowMin      int    `json:"estimation_window_min"`
}

// Customer is the denormalized view of a customer record, owned by the
// customer subsystem. The engine only reads it to pre-fill enqueue fields.
type Customer struct {
	ID       string `json:"id"`
	TenantID string `json:"tenant_id"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Notes    string `json:"notes"`
}
