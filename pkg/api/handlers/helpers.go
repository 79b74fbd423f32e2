// Package handlers exposes the Levrix services over HTTP.
package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/api/errors"
	custommw "github.com/levrixhq/levrix/pkg/api/middleware"
	"github.com/levrixhq/levrix/pkg/models"
)

// Request budgets
const (
	defaultTimeout = 5 * time.Second
	aiTimeout      = 60 * time.Second
	sendTimeout    = 2 * time.Minute
	paymentTimeout = 15 * time.Second
)

// invalidBody answers a request whose body could not be decoded
func invalidBody(c echo.Context) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "invalid_request",
		Message: "Invalid request body",
	})
}

// currentUser returns the authenticated user id or writes a 401
func currentUser(c echo.Context) (string, bool) {
	userID := custommw.UserID(c)
	return userID, userID != ""
}

func withTimeout(c echo.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), d)
}

// queryInt parses an integer query parameter, falling back to def
func queryInt(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func unauthorized(c echo.Context) error {
	return errors.UnauthorizedError(c)
}
