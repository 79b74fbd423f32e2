package handlers

import (
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/billing"
	"github.com/levrixhq/levrix/pkg/models"
)

// maxWebhookBody matches Stripe's own payload ceiling
const maxWebhookBody = 65536

// BillingHandler handles plans and checkout
type BillingHandler struct {
	billing   *billing.Service
	validator *validator.Validate
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.Service) *BillingHandler {
	return &BillingHandler{
		billing:   billingService,
		validator: validator.New(),
	}
}

// Plans godoc
// @Summary Pricing plans
// @Tags Billing
// @Produce json
// @Success 200 {object} models.PricingResponse
// @Router /billing/plans [get]
func (h *BillingHandler) Plans(c echo.Context) error {
	return c.JSON(http.StatusOK, h.billing.Catalog().Pricing())
}

// Checkout godoc
// @Summary Switch plan
// @Description Free plans are applied at once; paid plans return a Stripe Checkout URL
// @Tags Billing
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body models.CheckoutRequest true "Plan"
// @Success 200 {object} models.CheckoutResponse
// @Failure 400 {object} models.ErrorResponse "Billing not configured"
// @Router /billing/checkout [post]
func (h *BillingHandler) Checkout(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req models.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, paymentTimeout)
	defer cancel()

	resp, err := h.billing.Checkout(ctx, userID, custommw.UserEmail(c), req.Plan)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Webhook godoc
// @Summary Stripe webhook
// @Description Verified with the Stripe-Signature header
// @Tags Billing
// @Accept json
// @Produce json
// @Success 200 {object} models.SuccessResponse
// @Failure 400 {object} models.ErrorResponse "Invalid signature"
// @Router /webhooks/stripe [post]
func (h *BillingHandler) Webhook(c echo.Context) error {
	payload, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c, paymentTimeout)
	defer cancel()

	if err := h.billing.HandleWebhook(ctx, payload, c.Request().Header.Get("Stripe-Signature")); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true})
}
