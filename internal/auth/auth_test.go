package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPasswordHash("secret123", hash))
	assert.False(t, CheckPasswordHash("wrong", hash))
}

func TestNewAccessTokenCarriesUsername(t *testing.T) {
	token, err := NewAccessToken("alice", "test-secret", time.Hour)
	require.NoError(t, err)

	claims := &CustomClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "laojia-backend", claims.Issuer)
}

func TestExpiredTokenRejected(t *testing.T) {
	token, err := NewAccessToken("alice", "test-secret", -time.Minute)
	require.NoError(t, err)

	claims := &CustomClaims{}
	_, err = jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("test-secret"), nil
	})
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestGetUsernameFromContext(t *testing.T) {
	_, ok := GetUsernameFromContext(context.Background())
	assert.False(t, ok)

	ctx := context.WithValue(context.Background(), UsernameKey, "alice")
	username, ok := GetUsernameFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, "alice", username)
}
