package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runHeaders(t *testing.T, config SecurityHeadersConfig) http.Header {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/test", nil), rec)

	err := SecurityHeaders(config)(func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})(c)
	require.NoError(t, err)
	return rec.Header()
}

func TestSecurityHeaders_Defaults(t *testing.T) {
	h := runHeaders(t, SecurityHeadersConfig{})

	assert.Contains(t, h.Get("Content-Security-Policy"), "default-src 'none'")
	assert.Contains(t, h.Get("Content-Security-Policy"), "frame-ancestors 'none'")
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Empty(t, h.Get("Strict-Transport-Security"))
}

func TestSecurityHeaders_Overrides(t *testing.T) {
	h := runHeaders(t, SecurityHeadersConfig{ContentSecurityPolicy: "default-src 'self'", HSTS: true})

	assert.Equal(t, "default-src 'self'", h.Get("Content-Security-Policy"))
	assert.Equal(t, "no-referrer", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Strict-Transport-Security"), "max-age=31536000")
}
