package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	errs "bloodlink/internal/errors"
)

// SyncTrigger runs one full reconciliation pass.
type SyncTrigger interface {
	SyncAll(ctx context.Context) error
}

// SyncHandler exposes the manual sync trigger.
type SyncHandler struct {
	engine SyncTrigger
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(engine SyncTrigger) *SyncHandler {
	return &SyncHandler{engine: engine}
}

// TriggerSync runs a full bidirectional reconciliation. A sync already in
// flight for an entity type absorbs the trigger. Per-record failures are
// reported but do not make the call fail: affected records retry next
// pass. A phase failure, such as the remote store being unreachable, is an
// error response.
func (h *SyncHandler) TriggerSync(c echo.Context) error {
	err := h.engine.SyncAll(c.Request().Context())
	if err == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
	if errs.IsPartialOnly(err) {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status": "completed with failures",
			"detail": err.Error(),
		})
	}
	return echo.NewHTTPError(http.StatusBadGateway, errs.ErrorResponse{
		Error: err.Error(),
		Code:  "SYNC_FAILED",
	})
}
