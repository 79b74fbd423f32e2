package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/integrations"
)

// IntegrationHandler handles channel settings
type IntegrationHandler struct {
	integrations *integrations.Service
}

// NewIntegrationHandler creates a new integration handler
func NewIntegrationHandler(integrationService *integrations.Service) *IntegrationHandler {
	return &IntegrationHandler{integrations: integrationService}
}

// Get godoc
// @Summary Get integration settings
// @Tags Integrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} integrations.Integrations
// @Router /integrations [get]
func (h *IntegrationHandler) Get(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	settings, err := h.integrations.Get(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// Save godoc
// @Summary Save integration settings
// @Description Connection status is kept unless credentials change
// @Tags Integrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body integrations.Integrations true "Settings"
// @Success 200 {object} integrations.Integrations
// @Router /integrations [put]
func (h *IntegrationHandler) Save(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req integrations.Integrations
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	settings, err := h.integrations.Save(ctx, userID, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, settings)
}

// Test godoc
// @Summary Test a connection
// @Tags Integrations
// @Produce json
// @Security BearerAuth
// @Param service path string true "email, sms, whatsapp, google or facebook"
// @Success 200 {object} integrations.TestResult
// @Router /integrations/{service}/test [post]
func (h *IntegrationHandler) Test(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	result, err := h.integrations.Test(ctx, userID, c.Param("service"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

// Sync godoc
// @Summary Pull a lead from an ad platform
// @Tags Integrations
// @Produce json
// @Security BearerAuth
// @Param service path string true "google or facebook"
// @Success 201 {object} leads.LeadView
// @Router /integrations/{service}/sync [post]
func (h *IntegrationHandler) Sync(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, aiTimeout)
	defer cancel()

	view, err := h.integrations.Sync(ctx, userID, c.Param("service"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}
