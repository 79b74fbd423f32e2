package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a test Redis client using miniredis
func setupTestRedis(t *testing.T) (*Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := &Client{
		Redis: redis.NewClient(&redis.Options{Addr: mr.Addr()}),
	}

	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})

	return client, mr
}

func TestClient_GetMissing(t *testing.T) {
	client, _ := setupTestRedis(t)

	_, err := client.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClient_JSONRoundTrip(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	type stats struct {
		Total int     `json:"total"`
		Rate  float64 `json:"rate"`
	}

	require.NoError(t, client.SetJSON(ctx, DashboardKey("u1"), stats{Total: 4, Rate: 25}, time.Minute))

	var got stats
	require.NoError(t, client.GetJSON(ctx, DashboardKey("u1"), &got))
	assert.Equal(t, stats{Total: 4, Rate: 25}, got)

	err := client.GetJSON(ctx, DashboardKey("u2"), &got)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestClient_SetNX(t *testing.T) {
	client, mr := setupTestRedis(t)
	ctx := context.Background()
	key := ReminderKey("lead-1", "2026-01-02")

	ok, err := client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(2 * time.Hour)

	ok, err = client.SetNX(ctx, key, "1", time.Hour)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestClient_InvalidateUser(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	_ = client.Set(ctx, DashboardKey("u1"), "a", time.Hour)
	_ = client.Set(ctx, ReportKey("u1"), "b", time.Hour)
	_ = client.Set(ctx, InsightKey("u1", "abc"), "c", time.Hour)
	_ = client.Set(ctx, DashboardKey("u2"), "d", time.Hour)

	require.NoError(t, client.InvalidateUser(ctx, "u1"))

	for _, key := range []string{DashboardKey("u1"), ReportKey("u1"), InsightKey("u1", "abc")} {
		exists, err := client.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, key)
	}

	val, err := client.Get(ctx, DashboardKey("u2"))
	require.NoError(t, err)
	assert.Equal(t, "d", val)
}

func TestClient_Multi(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.SetMulti(ctx, map[string]interface{}{"k1": "v1", "k2": "v2"}, time.Hour))

	vals, err := client.GetMulti(ctx, "k1", "missing", "k2")
	require.NoError(t, err)
	assert.Equal(t, []string{"v1", "", "v2"}, vals)

	empty, err := client.GetMulti(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestClient_TTL(t *testing.T) {
	client, _ := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "ttl", "x", 30*time.Second))
	ttl, err := client.TTL(ctx, "ttl")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, ttl)
}
