package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/apis"
	"github.com/pocketbase/pocketbase/core"

	"waitlist-system/internal/status"
	"waitlist-system/models"
	"waitlist-system/services"
)

type QueueHandler struct {
	app          *pocketbase.PocketBase
	queueService *services.QueueService
}

func NewQueueHandler(app *pocketbase.PocketBase, queueService *services.QueueService) *QueueHandler {
	return &QueueHandler{
		app:          app,
		queueService: queueService,
	}
}

// tenantID resolves the restaurant the authenticated staff record belongs to.
// Every request arrives already bound to exactly one tenant.
func tenantID(e *core.RequestEvent) (string, error) {
	if e.Auth == nil {
		return "", apis.NewUnauthorizedError("Unauthorized", nil)
	}
	tenant := e.Auth.GetString("restaurant")
	if tenant == "" {
		return "", apis.NewForbiddenError("No restaurant bound to this account", nil)
	}
	return tenant, nil
}

func (h *QueueHandler) CreateEntry(e *core.RequestEvent) error {
	tenant, err := tenantID(e)
	if err != nil {
		return err
	}

	var req services.EnqueueRequest
	if err := e.BindBody(&req); err != nil {
		return apis.NewBadRequestError("Invalid request", err)
	}

	entry, err := h.queueService.Enqueue(e.Request.Context(), tenant, req)
	if err != nil {
		return mapError(err)
	}

	return e.JSON(http.StatusCreated, entry)
}

func (h *QueueHandler) CallEntry(e *core.RequestEvent) error {
	return h.transition(e, h.queueService.Call)
}

func (h *QueueHandler) SeatEntry(e *core.RequestEvent) error {
	return h.transition(e, h.queueService.Seat)
}

func (h *QueueHandler) CancelEntry(e *core.RequestEvent) error {
	return h.transition(e, h.queueService.Cancel)
}

func (h *QueueHandler) NoShowEntry(e *core.RequestEvent) error {
	return h.transition(e, h.queueService.MarkNoShow)
}

func (h *QueueHandler) transition(e *core.RequestEvent, action func(ctx context.Context, tenantID, entryID string) (*models.WaitlistEntry, error)) error {
	tenant, err := tenantID(e)
	if err != nil {
		return err
	}

	entryID := e.Request.PathValue("entryId")
	if entryID == "" {
		return apis.NewBadRequestError("Missing entry id", nil)
	}

	entry, err := action(e.Request.Context(), tenant, entryID)
	if err != nil {
		return mapError(err)
	}

	return e.JSON(http.StatusOK, entry)
}

func (h *QueueHandler) GetQueue(e *core.RequestEvent) error {
	tenant, err := tenantID(e)
	if err != nil {
		return err
	}

	view, err := h.queueService.ListQueue(e.Request.Context(), tenant)
	if err != nil {
		return mapError(err)
	}

	return e.JSON(http.StatusOK, view)
}

func (h *QueueHandler) GetMetrics(e *core.RequestEvent) error {
	tenant, err := tenantID(e)
	if err != nil {
		return err
	}

	return e.JSON(http.StatusOK, h.queueService.Metrics(e.Request.Context(), tenant))
}

// mapError translates engine errors into API responses.
func mapError(err error) error {
	var validation *status.ValidationError
	switch {
	case errors.As(err, &validation):
		return apis.NewBadRequestError(validation.Error(), map[string]string{"field": validation.Field})
	case errors.Is(err, status.ErrNotFound):
		return apis.NewNotFoundError("Entry not found", err)
	case errors.Is(err, status.ErrInvalidTransition):
		return apis.NewApiError(http.StatusConflict, err.Error(), nil)
	case errors.Is(err, status.ErrConcurrentModification):
		return apis.NewApiError(http.StatusConflict, "Entry was modified concurrently, refresh and retry", nil)
	default:
		return apis.NewApiError(http.StatusInternalServerError, "Something went wrong", err)
	}
}
