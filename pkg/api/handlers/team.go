package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/models"
	"github.com/levrixhq/levrix/pkg/team"
)

// TeamHandler handles workspace members
type TeamHandler struct {
	team      *team.Service
	validator *validator.Validate
}

// NewTeamHandler creates a new team handler
func NewTeamHandler(teamService *team.Service) *TeamHandler {
	return &TeamHandler{
		team:      teamService,
		validator: validator.New(),
	}
}

func owner(c echo.Context) (team.Owner, bool) {
	userID, ok := currentUser(c)
	return team.Owner{ID: userID, Email: custommw.UserEmail(c)}, ok
}

// List godoc
// @Summary List team members
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Success 200 {array} team.Member
// @Router /team [get]
func (h *TeamHandler) List(c echo.Context) error {
	o, ok := owner(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	return c.JSON(http.StatusOK, h.team.List(ctx, o))
}

// Invite godoc
// @Summary Invite a team member
// @Tags Team
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body team.InviteRequest true "Invite"
// @Success 201 {object} team.Member
// @Failure 403 {object} models.ErrorResponse "Plan limit reached"
// @Failure 409 {object} models.ErrorResponse "Already invited"
// @Router /team [post]
func (h *TeamHandler) Invite(c echo.Context) error {
	o, ok := owner(c)
	if !ok {
		return unauthorized(c)
	}

	var req team.InviteRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	m, err := h.team.Invite(ctx, o, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, m)
}

// Remove godoc
// @Summary Remove a team member
// @Tags Team
// @Produce json
// @Security BearerAuth
// @Param id path string true "Member ID"
// @Success 200 {object} models.SuccessResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /team/{id} [delete]
func (h *TeamHandler) Remove(c echo.Context) error {
	o, ok := owner(c)
	if !ok {
		return unauthorized(c)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	if err := h.team.Remove(ctx, o, c.Param("id")); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Member removed"})
}
