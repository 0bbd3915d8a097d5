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

// HierarchyHandler exposes hierarchy navigation and reparenting over HTTP.
// Reparenting goes through the account service so the change reaches the
// search syncer like every other mutation.
type HierarchyHandler struct {
	hierarchy *service.HierarchyService
	accounts  *service.AccountService
}

// NewHierarchyHandler creates a HierarchyHandler.
func NewHierarchyHandler(hierarchy *service.HierarchyService, accounts *service.AccountService) *HierarchyHandler {
	return &HierarchyHandler{hierarchy: hierarchy, accounts: accounts}
}

// Descendants returns the flat, depth-annotated closure under an account
func (h *HierarchyHandler) Descendants(c echo.Context) error {
	prometheus.RecordAccountOperation("descendants")

	defer prometheus.TrackDBOperation("query")(time.Now())

	entries, err := h.hierarchy.Descendants(c.Request().Context(), tenantID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}

	if len(entries) > 0 {
		prometheus.HierarchyDepthHistogram.Observe(float64(entries[len(entries)-1].Depth))
	}
	return c.JSON(http.StatusOK, echo.Map{"descendants": entries})
}

// Tree returns the nested hierarchy rooted at an account
func (h *HierarchyHandler) Tree(c echo.Context) error {
	prometheus.RecordAccountOperation("tree")

	defer prometheus.TrackDBOperation("query")(time.Now())

	tree, err := h.hierarchy.BuildTree(c.Request().Context(), tenantID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"tree": tree})
}

// Reparent moves an account under a new parent. A null parent_id makes the
// account a root.
func (h *HierarchyHandler) Reparent(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAccountOperation("reparent")

	var req struct {
		ParentID *string `json:"parent_id"`
	}
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	account, err := h.accounts.Reparent(c.Request().Context(), tenantID(c), c.Param("id"), req.ParentID)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Account reparented",
		zap.String("account_id", account.ID),
		zap.Stringp("parent_id", account.ParentID))
	return c.JSON(http.StatusOK, echo.Map{"account": account})
}
