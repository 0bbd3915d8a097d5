package middleware

import (
	"net/http"

	"account-service/pkg/logger"
	"account-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TenantHeader carries the caller's tenant ID. The gateway in front of this
// service authenticates the caller and stamps the header; this service only
// requires that it is present.
const TenantHeader = "X-Tenant-ID"

// TenantContext extracts the tenant ID from the request header and stores
// it in the Echo context for handlers and in the request logger.
func TenantContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID := c.Request().Header.Get(TenantHeader)
		if tenantID != "" {
			c.Set("tenant_id", tenantID)

			log := logger.FromContext(c).With(zap.String("tenant_id", tenantID))
			c.Set("logger", log)
		}
		return next(c)
	}
}

// RequireTenantContext ensures the request carries a tenant ID. Requests
// without one never reach an account handler.
func RequireTenantContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		tenantID, ok := c.Get("tenant_id").(string)
		if !ok || tenantID == "" {
			log := logger.FromContext(c)
			log.Warn("Missing tenant context")
			prometheus.TenantContextMissingCounter.Inc()
			return c.JSON(http.StatusForbidden, echo.Map{
				"error":   "tenant context required",
				"message": "Requests must carry the " + TenantHeader + " header",
			})
		}

		// Tenant context exists, proceed
		return next(c)
	}
}
