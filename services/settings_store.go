package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/pocketbase/dbx"

	"waitlist-system/models"
)

// SettingsSource reads a tenant's queue settings. The engine treats the
// result as an immutable snapshot; the settings subsystem owns mutation.
type SettingsSource interface {
	QueueSettings(ctx context.Context, tenantID string) (models.QueueSettings, error)
}

// SettingsStore reads restaurant_settings rows, falling back to process-wide
// defaults for tenants that never configured thresholds.
type SettingsStore struct {
	db       dbx.Builder
	defaults models.QueueSettings
}

func NewSettingsStore(db dbx.Builder, defaults models.QueueSettings) *SettingsStore {
	return &SettingsStore{db: db, defaults: defaults}
}

type settingsRow struct {
	TenantID            string `db:"tenant_id"`
	WaitingAlertMin     int    `db:"waiting_alert_min"`
	CalledAlertMin      int    `db:"called_alert_min"`
	EstimationWindowMin int    `db:"estimation_window_min"`
}

func (s *SettingsStore) QueueSettings(ctx context.Context, tenantID string) (models.QueueSettings, error) {
	var row settingsRow
	err := s.db.NewQuery(
		`SELECT * FROM restaurant_settings WHERE tenant_id = {:tenant_id}`,
	).WithContext(ctx).Bind(dbx.Params{"tenant_id": tenantID}).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		settings := s.defaults
		settings.TenantID = tenantID
		return settings, nil
	}
	if err != nil {
		return models.QueueSettings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := models.QueueSettings{
		TenantID:                 row.TenantID,
		WaitingAlertThresholdMin: row.WaitingAlertMin,
		CalledAlertThresholdMin:  row.CalledAlertMin,
		EstimationWindowMin:      row.EstimationWindowMin,
	}
	if settings.EstimationWindowMin <= 0 {
		settings.EstimationWindowMin = s.defaults.EstimationWindowMin
	}
	return settings, nil
}
