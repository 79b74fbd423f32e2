package whatsapp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/10987/messages", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		var msg textMessage
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "whatsapp", msg.MessagingProduct)
		assert.Equal(t, "16502530000", msg.To)
		assert.Equal(t, "Hello Jo", msg.Text.Body)

		_, _ = w.Write([]byte(`{"messaging_product":"whatsapp","messages":[{"id":"wamid.ABC"}]}`))
	}))
	defer srv.Close()

	id, err := NewClient(srv.URL, "10987", "tok", srv.Client()).SendText(context.Background(), "16502530000", "Hello Jo")
	require.NoError(t, err)
	assert.Equal(t, "wamid.ABC", id)
}

func TestClient_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Invalid OAuth access token.","type":"OAuthException","code":190}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "10987", "bad", srv.Client()).SendText(context.Background(), "1", "x")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 190, apiErr.Code)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
}

func TestClient_MissingCredentials(t *testing.T) {
	_, err := NewClient("", "", "", nil).SendText(context.Background(), "1", "x")
	assert.ErrorIs(t, err, ErrMissingCredentials)
}
