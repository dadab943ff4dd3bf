package auth

import (
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuestRoundTrip(t *testing.T) {
	require.NoError(t, Init("1h"))

	user, token, err := NewGuest("alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)

	got, err := AuthenticateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user, got)
}

func TestAuthenticateRejectsForeignKey(t *testing.T) {
	require.NoError(t, Init("never"))

	_, otherKey, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	forged, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{"sub": "x"}).SignedString(otherKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthenticateRejectsExpired(t *testing.T) {
	require.NoError(t, Init("never"))

	expired, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, jwt.MapClaims{
		"sub": "7d0ab5c2-5f5a-4c69-8d58-3a5d6e0e7f10",
		"exp": time.Now().Add(-time.Minute).Unix(),
	}).SignedString(privateKey)
	require.NoError(t, err)

	_, err = AuthenticateJWT(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseTokenExpireTime(t *testing.T) {
	require.NoError(t, parseTokenExpireTime("72h"))
	assert.Equal(t, 72*time.Hour, tokenTTL)

	require.NoError(t, parseTokenExpireTime("never"))
	assert.Zero(t, tokenTTL)

	assert.Error(t, parseTokenExpireTime("soon"))
}
