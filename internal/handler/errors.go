package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"account-service/internal/service"
	"account-service/pkg/logger"
)

// tenantID returns the tenant ID placed in the context by the tenant
// middleware. Handlers are only registered behind RequireTenantContext, so
// an empty value here means a wiring mistake, which the store rejects too.
func tenantID(c echo.Context) string {
	id, _ := c.Get("tenant_id").(string)
	return id
}

// respondError maps typed service errors to HTTP responses. Anything not in
// the taxonomy is an infrastructure failure and surfaces as a 500.
func respondError(c echo.Context, err error) error {
	log := logger.FromContext(c)

	var status int
	switch {
	case service.IsValidation(err):
		status = http.StatusBadRequest
	case service.IsNotFound(err):
		status = http.StatusNotFound
	case service.IsConflict(err):
		status = http.StatusConflict
	default:
		log.Error("request failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Warn("request rejected", zap.Int("status", status), zap.Error(err))
	return c.JSON(status, echo.Map{"error": err.Error()})
}
