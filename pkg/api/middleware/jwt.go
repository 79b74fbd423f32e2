package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/auth"
	"github.com/levrixhq/levrix/pkg/models"
)

// Context keys set by the JWT middleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextToken     = "token"
)

// JWTMiddleware creates a JWT authentication middleware
func JWTMiddleware(secret string) echo.MiddlewareFunc {
	return JWTMiddlewareWithBlacklist(secret, nil)
}

// JWTMiddlewareWithBlacklist rejects requests without a valid bearer token.
// Logged-out tokens are refused when a blacklist is configured.
func JWTMiddlewareWithBlacklist(secret string, blacklist *auth.TokenBlacklist) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "missing_token",
					Message: "Authorization header is required",
				})
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token_format",
					Message: "Authorization header must be 'Bearer {token}'",
				})
			}
			token = strings.TrimSpace(token)

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := auth.ValidateJWTWithBlacklist(ctx, token, secret, blacklist)
			if err != nil {
				return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
					Error:   "invalid_token",
					Message: err.Error(),
				})
			}

			// kept for logout
			c.Set(ContextToken, token)
			c.Set(ContextUserID, claims.UserID)
			c.Set(ContextUserEmail, claims.Email)

			return next(c)
		}
	}
}

// UserID returns the authenticated user's id, or "" outside the JWT group
func UserID(c echo.Context) string {
	id, _ := c.Get(ContextUserID).(string)
	return id
}

// UserEmail returns the authenticated user's email
func UserEmail(c echo.Context) string {
	email, _ := c.Get(ContextUserEmail).(string)
	return email
}

// Token returns the raw bearer token of the request
func Token(c echo.Context) string {
	token, _ := c.Get(ContextToken).(string)
	return token
}
