package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/models"
)

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	log.Printf("[VALIDATION ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// BadRequestError returns a 400 with a caller-safe message
func BadRequestError(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// DatabaseError returns a generic database error without exposing internal details
func DatabaseError(c echo.Context, err error) error {
	log.Printf("[DATABASE ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "database_error",
		Message: "A database error occurred. Please try again later.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// UnauthorizedError returns a generic unauthorized error
func UnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:   "unauthorized",
		Message: "You are not authorized to access this resource.",
	})
}

// ForbiddenError returns a forbidden error
func ForbiddenError(c echo.Context, code, message string) error {
	if code == "" {
		code = "forbidden"
	}
	if message == "" {
		message = "You do not have permission to access this resource."
	}
	return c.JSON(http.StatusForbidden, models.ErrorResponse{
		Error:   code,
		Message: message,
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: "The requested " + resource + " was not found.",
	})
}

// ConflictError returns a generic conflict error
func ConflictError(c echo.Context, message string) error {
	return c.JSON(http.StatusConflict, models.ErrorResponse{
		Error:   "conflict",
		Message: message, // Message is safe to expose (e.g., "Email already registered")
	})
}

// FromDomain maps a service error onto the matching HTTP response.
// Errors that carry no domain code become 500s.
func FromDomain(c echo.Context, err error) error {
	var de *domain.DomainError
	if !asDomain(err, &de) {
		return InternalError(c, err)
	}

	switch de.Code {
	case domain.ErrCodeNotFound:
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: de.Message})
	case domain.ErrCodeValidation:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "validation_error", Message: de.Message})
	case domain.ErrCodeBadRequest:
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "bad_request", Message: de.Message})
	case domain.ErrCodeUnauthorized:
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: "unauthorized", Message: de.Message})
	case domain.ErrCodeForbidden:
		return ForbiddenError(c, "forbidden", de.Message)
	case domain.ErrCodePlanLimitExceeded:
		return ForbiddenError(c, "plan_limit_exceeded", de.Message)
	case domain.ErrCodeConflict:
		return ConflictError(c, de.Message)
	default:
		return InternalError(c, err)
	}
}
