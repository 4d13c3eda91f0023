package services

import (
	"time"

	"waitlist-system/models"
)

// ClassifyAlert derives the staff-facing alert flag for one active entry.
// The classification is stateless and recomputed on every read; nothing is
// stored or debounced. A zero threshold disables that alert class.
func ClassifyAlert(entry models.WaitlistEntry, settings models.QueueSettings, now time.Time) models.AlertLevel {
	switch entry.Status {
	case models.StatusWaiting:
		threshold := time.Duration(settings.WaitingAlertThresholdMin) * time.Minute
		if threshold > 0 && now.Sub(entry.CreatedAt) >= threshold {
			return models.AlertWaitingOverdue
		}
	case models.StatusCalled:
		threshold := time.Duration(settings.CalledAlertThresholdMin) * time.Minute
		if threshold > 0 && entry.CalledAt != nil && now.Sub(*entry.CalledAt) >= threshold {
			return models.AlertCalledOverdue
		}
	}
	return models.AlertNone
}
