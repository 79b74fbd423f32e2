package handlers

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/marketing"
)

// MarketingHandler runs the marketing studio
type MarketingHandler struct {
	studio    *marketing.Service
	validator *validator.Validate
}

// NewMarketingHandler creates a new marketing handler
func NewMarketingHandler(studio *marketing.Service) *MarketingHandler {
	return &MarketingHandler{
		studio:    studio,
		validator: validator.New(),
	}
}

// Generate godoc
// @Summary Generate a listing campaign
// @Description Returns a hero image and social copy; either half may be missing
// @Tags Marketing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body marketing.Request true "Property description"
// @Success 200 {object} marketing.Result
// @Failure 400 {object} models.ErrorResponse "Studio unavailable"
// @Router /marketing/generate [post]
func (h *MarketingHandler) Generate(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req marketing.Request
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	// image generation is the slowest call we make
	ctx, cancel := withTimeout(c, 2*time.Minute)
	defer cancel()

	result, err := h.studio.Generate(ctx, userID, req.Description)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
