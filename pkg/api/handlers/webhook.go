package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/inbound"
	"github.com/levrixhq/levrix/pkg/leads"
)

// WebhookHandler receives leads pushed by ad platforms and forms
type WebhookHandler struct {
	inbound *inbound.Service
}

// NewWebhookHandler creates a new inbound webhook handler
func NewWebhookHandler(inboundService *inbound.Service) *WebhookHandler {
	return &WebhookHandler{inbound: inboundService}
}

// InboundResponse acknowledges a stored lead
type InboundResponse struct {
	Success bool            `json:"success"`
	Lead    *leads.LeadView `json:"lead"`
}

// Handshake godoc
// @Summary Webhook subscription check
// @Description Echoes hub.challenge when hub.verify_token matches
// @Tags Webhooks
// @Produce plain
// @Param userId path string true "Workspace owner"
// @Param hub.mode query string true "subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge"
// @Success 200 {string} string
// @Failure 403 {object} models.ErrorResponse
// @Router /webhooks/lead-inbound/{userId} [get]
func (h *WebhookHandler) Handshake(c echo.Context) error {
	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	challenge, err := h.inbound.Handshake(ctx, c.Param("userId"),
		c.QueryParam("hub.mode"), c.QueryParam("hub.verify_token"), c.QueryParam("hub.challenge"))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.String(http.StatusOK, challenge)
}

// Receive godoc
// @Summary Push a lead
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param userId path string true "Workspace owner"
// @Param verify_token query string true "Verify token"
// @Param request body inbound.Payload true "Lead"
// @Success 201 {object} InboundResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /webhooks/lead-inbound/{userId} [post]
func (h *WebhookHandler) Receive(c echo.Context) error {
	var req inbound.Payload
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	view, err := h.inbound.Receive(ctx, c.Param("userId"), c.QueryParam("verify_token"), req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, InboundResponse{Success: true, Lead: view})
}

// Info godoc
// @Summary Inbound webhook URL and token
// @Tags Webhooks
// @Produce json
// @Security BearerAuth
// @Success 200 {object} inbound.Info
// @Router /webhooks/info [get]
func (h *WebhookHandler) Info(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}
	return c.JSON(http.StatusOK, h.inbound.Info(userID, custommw.UserEmail(c)))
}
