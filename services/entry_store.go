package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"

	"waitlist-system/internal/status"
	"waitlist-system/models"
	"waitlist-system/utils"
)

// Store is the persistence surface the queue service and estimator depend on.
// *EntryStore is the dbx-backed implementation; tests substitute in-memory fakes.
type Store interface {
	Create(ctx context.Context, tenantID string, req EnqueueRequest, now time.Time) (*models.WaitlistEntry, error)
	Get(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error)
	ListActive(ctx context.Context, tenantID string) ([]models.WaitlistEntry, error)
	ListSeatedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error)
	ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error)
	ApplyTransition(ctx context.Context, tenantID, entryID string, tr models.Transition, now time.Time) (*models.WaitlistEntry, error)
}

// EntryStore persists waitlist entries in the waitlist_entries table.
type EntryStore struct {
	db dbx.Builder
}

func NewEntryStore(db dbx.Builder) *EntryStore {
	return &EntryStore{db: db}
}

type entryRow struct {
	ID           string        `db:"id"`
	TenantID     string        `db:"tenant_id"`
	CustomerName string        `db:"customer_name"`
	Phone        string        `db:"phone"`
	PartySize    int           `db:"party_size"`
	Notes        string        `db:"notes"`
	ConfirmCode  string        `db:"confirm_code"`
	Status       string        `db:"status"`
	CreatedAt    int64         `db:"created_at"`
	CalledAt     sql.NullInt64 `db:"called_at"`
	SeatedAt     sql.NullInt64 `db:"seated_at"`
	CancelledAt  sql.NullInt64 `db:"cancelled_at"`
	NoShowAt     sql.NullInt64 `db:"no_show_at"`
}

func (r *entryRow) toEntry() *models.WaitlistEntry {
	e := &models.WaitlistEntry{
		ID:           r.ID,
		TenantID:     r.TenantID,
		CustomerName: r.CustomerName,
		Phone:        r.Phone,
		PartySize:    r.PartySize,
		Notes:        r.Notes,
		ConfirmCode:  r.ConfirmCode,
		Status:       models.Status(r.Status),
		CreatedAt:    time.Unix(r.CreatedAt, 0).UTC(),
	}
	e.CalledAt = unixPtr(r.CalledAt)
	e.SeatedAt = unixPtr(r.SeatedAt)
	e.CancelledAt = unixPtr(r.CancelledAt)
	e.NoShowAt = unixPtr(r.NoShowAt)
	return e
}

func unixPtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.Unix(v.Int64, 0).UTC()
	return &t
}

func validateEnqueue(req EnqueueRequest) error {
	if strings.TrimSpace(req.CustomerName) == "" {
		return status.NewValidationError("customer_name", "must not be empty")
	}
	if strings.TrimSpace(req.Phone) == "" {
		return status.NewValidationError("phone", "must not be empty")
	}
	if req.PartySize < 1 {
		return status.NewValidationError("party_size", "must be at least 1")
	}
	return nil
}

func (s *EntryStore) Create(ctx context.Context, tenantID string, req EnqueueRequest, now time.Time) (*models.WaitlistEntry, error) {
	if err := validateEnqueue(req); err != nil {
		return nil, err
	}

	code, err := utils.GenerateCode(3)
	if err != nil {
		return nil, fmt.Errorf("generate confirm code: %w", err)
	}

	entry := &models.WaitlistEntry{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		CustomerName: strings.TrimSpace(req.CustomerName),
		Phone:        strings.TrimSpace(req.Phone),
		PartySize:    req.PartySize,
		Notes:        req.Notes,
		ConfirmCode:  code,
		Status:       models.StatusWaiting,
		CreatedAt:    now.UTC().Truncate(time.Second),
	}

	_, err = s.db.NewQuery(
		`INSERT INTO waitlist_entries
			(id, tenant_id, customer_name, phone, party_size, notes, confirm_code, status, created_at)
		 VALUES
			({:id}, {:tenant_id}, {:customer_name}, {:phone}, {:party_size}, {:notes}, {:confirm_code}, {:status}, {:created_at})`,
	).WithContext(ctx).Bind(dbx.Params{
		"id":            entry.ID,
		"tenant_id":     entry.TenantID,
		"customer_name": entry.CustomerName,
		"phone":         entry.Phone,
		"party_size":    entry.PartySize,
		"notes":         entry.Notes,
		"confirm_code":  entry.ConfirmCode,
		"status":        string(entry.Status),
		"created_at":    entry.CreatedAt.Unix(),
	}).Execute()
	if err != nil {
		return nil, fmt.Errorf("insert entry: %w", err)
	}

	return entry, nil
}

func (s *EntryStore) Get(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error) {
	var row entryRow
	err := s.db.NewQuery(
		`SELECT * FROM waitlist_entries WHERE tenant_id = {:tenant_id} AND id = {:id}`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID, "id": entryID}).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, status.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load entry: %w", err)
	}
	return row.toEntry(), nil
}

// ListActive returns waiting and called entries in FIFO order. The id
// tie-break keeps the order stable for identical creation times.
func (s *EntryStore) ListActive(ctx context.Context, tenantID string) ([]models.WaitlistEntry, error) {
	var rows []entryRow
	err := s.db.NewQuery(
		`SELECT * FROM waitlist_entries
		 WHERE tenant_id = {:tenant_id} AND status IN ('waiting', 'called')
		 ORDER BY created_at ASC, id ASC`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID}).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list active entries: %w", err)
	}
	return rowsToEntries(rows), nil
}

// ListSeatedSince returns entries seated at or after since.
func (s *EntryStore) ListSeatedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error) {
	var rows []entryRow
	err := s.db.NewQuery(
		`SELECT * FROM waitlist_entries
		 WHERE tenant_id = {:tenant_id} AND status = 'seated' AND seated_at >= {:since}
		 ORDER BY seated_at ASC`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID, "since": since.Unix()}).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list seated entries: %w", err)
	}
	return rowsToEntries(rows), nil
}

// ListCompletedSince returns terminal entries whose terminal timestamp is at
// or after since, regardless of how they ended.
func (s *EntryStore) ListCompletedSince(ctx context.Context, tenantID string, since time.Time) ([]models.WaitlistEntry, error) {
	var rows []entryRow
	err := s.db.NewQuery(
		`SELECT * FROM waitlist_entries
		 WHERE tenant_id = {:tenant_id}
		   AND status IN ('seated', 'cancelled', 'no_show')
		   AND COALESCE(seated_at, cancelled_at, no_show_at) >= {:since}
		 ORDER BY COALESCE(seated_at, cancelled_at, no_show_at) ASC`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID, "since": since.Unix()}).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list completed entries: %w", err)
	}
	return rowsToEntries(rows), nil
}

// ApplyTransition loads the entry, asks the state machine for the outcome and
// persists it with a compare-and-swap on the previous status. Losing the swap
// means another staff member changed the entry between our read and write;
// the caller retries against fresh state.
func (s *EntryStore) ApplyTransition(ctx context.Context, tenantID, entryID string, tr models.Transition, now time.Time) (*models.WaitlistEntry, error) {
	entry, err := s.Get(ctx, tenantID, entryID)
	if err != nil {
		return nil, err
	}

	next, stamp, err := models.NextStatus(entry.Status, tr)
	if err != nil {
		return nil, err
	}

	// stamp comes from the transition table, never from request input.
	res, err := s.db.NewQuery(fmt.Sprintf(
		`UPDATE waitlist_entries
		 SET status = {:next}, %s = {:ts}
		 WHERE tenant_id = {:tenant_id} AND id = {:id} AND status = {:prev}`,
		stamp,
	)).WithContext(ctx).Bind(dbx.Params{
		"next":      string(next),
		"ts":        now.UTC().Unix(),
		"tenant_id": tenantID,
		"id":        entryID,
		"prev":      string(entry.Status),
	}).Execute()
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("apply transition: %w", err)
	}
	if affected == 0 {
		// Status moved under us (or the entry vanished). Distinguish the two.
		if _, gerr := s.Get(ctx, tenantID, entryID); gerr != nil {
			return nil, gerr
		}
		return nil, status.ErrConcurrentModification
	}

	return s.Get(ctx, tenantID, entryID)
}

func rowsToEntries(rows []entryRow) []models.WaitlistEntry {
	entries := make([]models.WaitlistEntry, 0, len(rows))
	for i := range rows {
		entries = append(entries, *rows[i].toEntry())
	}
	return entries
}
