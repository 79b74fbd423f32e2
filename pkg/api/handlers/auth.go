package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/models"
	"github.com/levrixhq/levrix/pkg/users"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	users     *users.Service
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(userService *users.Service) *AuthHandler {
	return &AuthHandler{
		users:     userService,
		validator: validator.New(),
	}
}

// Register godoc
// @Summary Register a new account
// @Description Create an account with its profile on the Starter plan
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration data"
// @Success 201 {object} models.AuthResponse
// @Failure 400 {object} models.ErrorResponse "Invalid request"
// @Failure 409 {object} models.ErrorResponse "User already exists"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req models.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	resp, err := h.users.Register(ctx, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusCreated, resp)
}

// Login godoc
// @Summary Log in
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Credentials"
// @Success 200 {object} models.AuthResponse
// @Failure 401 {object} models.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req models.LoginRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	if err := h.validator.Struct(req); err != nil {
		return errors.ValidationError(c, err)
	}

	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	resp, err := h.users.Login(ctx, req)
	if err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, resp)
}

// Logout godoc
// @Summary Log out
// @Description Revoke the current token for the rest of its lifetime
// @Tags Authentication
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.SuccessResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := withTimeout(c, defaultTimeout)
	defer cancel()

	if err := h.users.Logout(ctx, custommw.Token(c)); err != nil {
		return errors.FromDomain(c, err)
	}
	return c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: "Logged out"})
}
