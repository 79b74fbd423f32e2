package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/levrixhq/levrix/pkg/cache"
)

const testSecret = "test-secret-key-minimum-32-characters-long"

func setupTestRedis(t *testing.T) *cache.Client {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client, err := cache.NewClient("redis://" + mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestGenerateAndValidateJWT(t *testing.T) {
	token, err := GenerateJWT("user-123", "agent@levrix.io", testSecret, 24)
	require.NoError(t, err)

	claims, err := ValidateJWT(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, "user-123", claims.UserID)
	assert.Equal(t, "agent@levrix.io", claims.Email)
	assert.InDelta(t, (24 * time.Hour).Seconds(), claims.Remaining(time.Now()).Seconds(), 5)
}

func TestValidateJWT_Rejects(t *testing.T) {
	token, err := GenerateJWT("user-123", "agent@levrix.io", testSecret, 24)
	require.NoError(t, err)

	_, err = ValidateJWT(token, "another-secret-key-minimum-32-characters")
	assert.Error(t, err, "wrong secret")

	expired, err := GenerateJWT("user-123", "agent@levrix.io", testSecret, -1)
	require.NoError(t, err)
	_, err = ValidateJWT(expired, testSecret)
	assert.Error(t, err, "expired")

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: "user-123"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = ValidateJWT(unsigned, testSecret)
	assert.Error(t, err, "alg none")
}

func TestValidateJWTWithBlacklist(t *testing.T) {
	client := setupTestRedis(t)
	blacklist := NewTokenBlacklist(client)
	ctx := context.Background()

	token, err := GenerateJWT("user-1", "a@levrix.io", testSecret, 1)
	require.NoError(t, err)

	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	require.NoError(t, err)

	require.NoError(t, blacklist.Add(ctx, token, time.Hour))
	_, err = ValidateJWTWithBlacklist(ctx, token, testSecret, blacklist)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	ok, err := client.Exists(ctx, "jwt:blacklist:"+HashToken(token))
	require.NoError(t, err)
	assert.True(t, ok, "stored under the hashed key")
}

func TestTokenBlacklist_ZeroTTLIsNoop(t *testing.T) {
	client := setupTestRedis(t)
	blacklist := NewTokenBlacklist(client)

	require.NoError(t, blacklist.Add(context.Background(), "tok", 0))
	revoked, err := blacklist.IsBlacklisted(context.Background(), "tok")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestPassword(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "battery staple"))
}

func TestHashToken(t *testing.T) {
	assert.Len(t, HashToken("abc"), 64)
	assert.Equal(t, HashToken("abc"), HashToken("abc"))
}
