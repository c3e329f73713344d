package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManager() *JWTManager {
	return NewJWTManager(JWTConfig{
		Secret:        "test-secret",
		Expiry:        time.Minute,
		RefreshExpiry: time.Hour,
		Issuer:        "coursehub-api",
	})
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := testManager()
	token, jti, err := m.GenerateAccessToken(Subject{UserID: 7, Email: "a@example.com", Name: "Ada", Role: "student", TokenVersion: 2})
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.Equal(t, "Ada", claims.Name)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.Equal(t, 2, claims.TokenVersion)
	assert.Equal(t, jti, claims.ID)

	_, err = m.ValidateRefreshToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Rejects(t *testing.T) {
	m := testManager()

	expired := NewJWTManager(JWTConfig{Secret: "test-secret", Expiry: time.Nanosecond, Issuer: "coursehub-api"})
	token, _, err := expired.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)

	other := NewJWTManager(JWTConfig{Secret: "other-secret", Issuer: "coursehub-api"})
	token, _, err = other.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	foreign := NewJWTManager(JWTConfig{Secret: "test-secret", Issuer: "someone-else"})
	token, _, err = foreign.GenerateAccessToken(Subject{UserID: 1})
	require.NoError(t, err)
	_, err = m.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.ValidateToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestPassword(t *testing.T) {
	_, err := HashPassword("short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NoError(t, VerifyPassword(hash, "correct horse battery"))
	assert.ErrorIs(t, VerifyPassword(hash, "wrong password"), ErrPasswordMismatch)
}
