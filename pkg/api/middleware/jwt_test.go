package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/auth"
	"github.com/levrixhq/levrix/pkg/cache"
)

const secret = "test-secret"

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, echo.Context) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error {
		return c.String(http.StatusOK, UserID(c))
	})(c)
	require.NoError(t, err)
	return rec, c
}

func TestJWTMiddleware(t *testing.T) {
	token, err := auth.GenerateJWT("u1", "agent@levrix.io", secret, 1)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		code   int
		error  string
	}{
		{"missing header", "", http.StatusUnauthorized, "missing_token"},
		{"wrong scheme", "Basic abc", http.StatusUnauthorized, "invalid_token_format"},
		{"garbage token", "Bearer nope", http.StatusUnauthorized, "invalid_token"},
		{"valid", "Bearer " + token, http.StatusOK, ""},
		{"lowercase scheme", "bearer " + token, http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, c := serve(t, JWTMiddleware(secret), tt.header)
			assert.Equal(t, tt.code, rec.Code)
			if tt.error != "" {
				assert.Contains(t, rec.Body.String(), tt.error)
				return
			}
			assert.Equal(t, "u1", rec.Body.String())
			assert.Equal(t, "agent@levrix.io", UserEmail(c))
			assert.Equal(t, token, Token(c))
		})
	}
}

func TestJWTMiddleware_RevokedToken(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := &cache.Client{Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()})}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	blacklist := auth.NewTokenBlacklist(client)
	token, err := auth.GenerateJWT("u1", "agent@levrix.io", secret, 1)
	require.NoError(t, err)
	require.NoError(t, blacklist.Add(context.Background(), token, time.Hour))

	rec, _ := serve(t, JWTMiddlewareWithBlacklist(secret, blacklist), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "revoked")
}
