package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	"github.com/levrixhq/levrix/pkg/outreach"
)

// OutreachHandler handles bulk messaging
type OutreachHandler struct {
	outreach  *outreach.Service
	validator *validator.Validate
}

// NewOutreachHandler creates a new outreach handler
func NewOutreachHandler(outreachService *outreach.Service) *OutreachHandler {
	return &OutreachHandler{
		outreach:  outreachService,
		validator: validator.New(),
	}
}

// SendResponse carries one result per requested lead
type SendResponse struct {
	Results []outreach.SendResult `json:"results"`
	Sent    int                   `json:"sent"`
	Queued  int                   `json:"queued"`
	Failed  int                   `json:"failed"`
}

// Send godoc
// @Summary Send or schedule a message to many leads
// @Description Each lead gets its own result; one failure never stops the others
// @Tags Outreach
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body outreach.SendRequest true "Message"
// @Success 200 {object} SendResponse
// @Failure 400 {object} models.ErrorResponse "Channel not connected"
// @Router /outreach/send [post]
func (h *OutreachHandler) Send(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	var req outreach.SendRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, sendTimeout)
	defer cancel()

	results, err := h.outreach.Send(ctx, userID, req)
	if stderrors.Is(err, outreach.ErrChannelNotConnected) {
		return errors.BadRequestError(c, "channel_not_connected", "Connect the "+string(req.Channel)+" integration before sending.")
	}
	if err != nil {
		return errors.FromDomain(c, err)
	}

	resp := SendResponse{Results: results}
	for _, r := range results {
		switch r.Status {
		case outreach.StatusSent:
			resp.Sent++
		case outreach.StatusQueued:
			resp.Queued++
		case outreach.StatusFailed:
			resp.Failed++
		}
	}
	return c.JSON(http.StatusOK, resp)
}

// History godoc
// @Summary Message history
// @Tags Outreach
// @Produce json
// @Security BearerAuth
// @Param search query string false "Lead name or content"
// @Param page query integer false "Page number" default(1)
// @Success 200 {object} outreach.HistoryResult
// @Router /outreach/history [get]
func (h *OutreachHandler) History(c echo.Context) error {
	userID, ok := currentUser(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	result, err := h.outreach.History(ctx, userID, c.QueryParam("search"), queryInt(c, "page", 1))
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
