package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService_RoundTrip(t *testing.T) {
	tokens := NewTokenService("test-secret-at-least-32-characters")

	tokenString, err := tokens.Mint(42, 7, "android", time.Hour)
	require.NoError(t, err)
	require.NotEmpty(t, tokenString)

	claims, err := tokens.Decode(tokenString)
	require.NoError(t, err)

	userID, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)

	sessionID, err := claims.DeviceSessionID()
	require.NoError(t, err)
	assert.Equal(t, int64(7), sessionID)

	assert.Equal(t, "android", claims.DevicePlatform)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestTokenService_Expired(t *testing.T) {
	tokens := NewTokenService("test-secret-at-least-32-characters")

	tokenString, err := tokens.Mint(42, 7, "ios", -time.Minute)
	require.NoError(t, err)

	_, err = tokens.Decode(tokenString)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestTokenService_WrongSecret(t *testing.T) {
	tokens := NewTokenService("test-secret-at-least-32-characters")
	other := NewTokenService("a-completely-different-signing-key")

	tokenString, err := other.Mint(42, 7, "ios", time.Hour)
	require.NoError(t, err)

	_, err = tokens.Decode(tokenString)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestTokenService_Garbage(t *testing.T) {
	tokens := NewTokenService("test-secret-at-least-32-characters")

	for _, tokenString := range []string{"", "not-a-token", "aaa.bbb.ccc"} {
		_, err := tokens.Decode(tokenString)
		assert.ErrorIs(t, err, ErrTokenInvalid, "input %q", tokenString)
	}
}
