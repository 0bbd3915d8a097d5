package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"account-service/internal/service"
	"account-service/pkg/logger"
	"account-service/prometheus"
)

// BulkHandler exposes the bulk mutation engine over HTTP.
type BulkHandler struct {
	bulk *service.BulkService
}

// NewBulkHandler creates a BulkHandler.
func NewBulkHandler(bulk *service.BulkService) *BulkHandler {
	return &BulkHandler{bulk: bulk}
}

// Apply runs one bulk operation over a set of account IDs. Partial success
// is a normal outcome and still returns 200 with per-item results.
func (h *BulkHandler) Apply(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAccountOperation("bulk")

	var req service.BulkRequest
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("bulk")(time.Now())

	result, err := h.bulk.Apply(c.Request().Context(), tenantID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	prometheus.RecordBulkItems(string(req.Kind), result.SuccessCount, result.FailedCount)
	log.Info("Bulk operation completed",
		zap.String("kind", string(req.Kind)),
		zap.Int("success_count", result.SuccessCount),
		zap.Int("failed_count", result.FailedCount))
	return c.JSON(http.StatusOK, result)
}
