package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/billing"
	"github.com/levrixhq/levrix/pkg/integrations"
	"github.com/levrixhq/levrix/pkg/profile"
)

// ProfileHandler handles the account settings row
type ProfileHandler struct {
	profiles     *profile.Store
	integrations *integrations.Service
	catalog      *billing.Catalog
	validator    *validator.Validate
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles *profile.Store, integrationService *integrations.Service, catalog *billing.Catalog) *ProfileHandler {
	return &ProfileHandler{
		profiles:     profiles,
		integrations: integrationService,
		catalog:      catalog,
		validator:    validator.New(),
	}
}

// Get godoc
// @Summary Get profile
// @Tags Profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} profile.Profile
// @Router /profile [get]
func (h *ProfileHandler) Get(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	p, err := h.profiles.Get(ctx, userID)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

// Update godoc
// @Summary Update profile
// @Description Paid plans can only be activated through checkout
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body profile.UpdateInput true "Fields to change"
// @Success 200 {object} profile.Profile
// @Failure 403 {object} models.ErrorResponse "Checkout required"
// @Router /profile [patch]
func (h *ProfileHandler) Update(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req profile.UpdateInput
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	if req.SubscriptionPlan != nil {
		current, err := h.profiles.Plan(ctx, userID)
		if err != nil {
			return errors.FromDomain(c, err)
		}
		plan := h.catalog.Resolve(*req.SubscriptionPlan)
		if plan.Name != current && !plan.Free() {
			return errors.ForbiddenError(c, "checkout_required", "Paid plans are activated through checkout.")
		}
	}

	// settings go through the integration rules so connection state survives
	if req.Integrations != nil {
		if _, err := h.integrations.Save(ctx, userID, *req.Integrations); err != nil {
			return errors.FromDomain(c, err)
		}
		req.Integrations = nil
	}

	p, err := h.profiles.Update(ctx, userID, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, p)
}
