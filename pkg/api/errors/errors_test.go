package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/domain"
	"github.com/levrixhq/levrix/pkg/models"
)

func newContext(method, path string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func parseBody(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestValidationError_HidesDetails(t *testing.T) {
	c, rec := newContext(http.MethodPost, "/api/v1/leads")
	require.NoError(t, ValidationError(c, errors.New("field 'email' failed on tag 'email'")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := parseBody(t, rec)
	assert.Equal(t, "validation_error", body.Error)
	assert.NotContains(t, body.Message, "tag")
}

func TestInternalError_HidesDetails(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/leads")
	require.NoError(t, InternalError(c, errors.New("pq: password authentication failed")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pq:")
}

func TestNotFoundError_NamesResource(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/api/v1/leads/x")
	require.NoError(t, NotFoundError(c, "lead"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "The requested lead was not found.", parseBody(t, rec).Message)
}

func TestFromDomain(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", domain.NewNotFoundError("lead"), http.StatusNotFound, "not_found"},
		{"validation", domain.NewValidationError("name is required"), http.StatusBadRequest, "validation_error"},
		{"bad request", domain.NewBadRequestError("no recipients"), http.StatusBadRequest, "bad_request"},
		{"unauthorized", domain.NewUnauthorizedError(), http.StatusUnauthorized, "unauthorized"},
		{"forbidden", domain.NewForbiddenError("not yours"), http.StatusForbidden, "forbidden"},
		{"plan limit", domain.NewPlanLimitError("Starter", 500, "leads"), http.StatusForbidden, "plan_limit_exceeded"},
		{"conflict", domain.NewConflictError("Email already registered"), http.StatusConflict, "conflict"},
		{"wrapped", fmt.Errorf("failed to create lead: %w", domain.NewNotFoundError("lead")), http.StatusNotFound, "not_found"},
		{"plain", errors.New("boom"), http.StatusInternalServerError, "internal_error"},
		{"internal", domain.NewInternalError(errors.New("boom")), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/")
			require.NoError(t, FromDomain(c, tt.err))
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.code, parseBody(t, rec).Error)
		})
	}
}
