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

// AccountHandler exposes the single-account operations over HTTP.
type AccountHandler struct {
	accounts *service.AccountService
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(accounts *service.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Create creates a new account for the current tenant
func (h *AccountHandler) Create(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAccountOperation("create")

	var req service.CreateAccountInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())

	account, err := h.accounts.Create(c.Request().Context(), tenantID(c), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Account created",
		zap.String("account_id", account.ID),
		zap.String("name", account.Name))
	return c.JSON(http.StatusCreated, echo.Map{"account": account})
}

// Get retrieves an account by ID for the current tenant
func (h *AccountHandler) Get(c echo.Context) error {
	prometheus.RecordAccountOperation("get")

	defer prometheus.TrackDBOperation("query")(time.Now())

	account, err := h.accounts.Get(c.Request().Context(), tenantID(c), c.Param("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"account": account})
}

// List retrieves all accounts for the current tenant, optionally filtered
// by status via the ?status= query parameter
func (h *AccountHandler) List(c echo.Context) error {
	prometheus.RecordAccountOperation("list")

	defer prometheus.TrackDBOperation("query")(time.Now())

	accounts, err := h.accounts.List(c.Request().Context(), tenantID(c), c.QueryParam("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accounts": accounts})
}

// Update applies field changes to an account
func (h *AccountHandler) Update(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAccountOperation("update")

	var req service.UpdateAccountInput
	if err := c.Bind(&req); err != nil {
		log.Error("Invalid request data", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request data"})
	}

	defer prometheus.TrackDBOperation("update")(time.Now())

	account, err := h.accounts.Update(c.Request().Context(), tenantID(c), c.Param("id"), req)
	if err != nil {
		return respondError(c, err)
	}

	log.Info("Account updated", zap.String("account_id", account.ID))
	return c.JSON(http.StatusOK, echo.Map{"account": account})
}

// Delete soft-deletes an account. Accounts with children are rejected.
func (h *AccountHandler) Delete(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RecordAccountOperation("delete")

	defer prometheus.TrackDBOperation("delete")(time.Now())

	id := c.Param("id")
	if err := h.accounts.Delete(c.Request().Context(), tenantID(c), id); err != nil {
		return respondError(c, err)
	}

	log.Info("Account deleted", zap.String("account_id", id))
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
