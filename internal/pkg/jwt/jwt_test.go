package jwt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "alice", "LIBRARIAN", testSecret, 15)
	require.NoError(t, err)

	claims, err := ValidateAccessToken(token, testSecret)
	require.NoError(t, err)

	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "LIBRARIAN", claims.Role)
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, err := GenerateAccessToken(1, "alice", "USER", testSecret, 15)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, "a-different-secret")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestAccessTokenExpired(t *testing.T) {
	token, err := GenerateAccessToken(1, "alice", "USER", testSecret, -1)
	require.NoError(t, err)

	_, err = ValidateAccessToken(token, testSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestAccessTokenGarbage(t *testing.T) {
	_, err := ValidateAccessToken("not.a.token", testSecret)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	token, err := GenerateRefreshToken(7, "token-id-123", testSecret, 7)
	require.NoError(t, err)

	claims, err := ValidateRefreshToken(token, testSecret)
	require.NoError(t, err)

	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "token-id-123", claims.TokenID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	refresh, err := GenerateRefreshToken(7, "token-id-123", testSecret, 7)
	require.NoError(t, err)

	// A refresh token parsed as an access token yields empty identity
	claims, err := ValidateAccessToken(refresh, testSecret)
	require.NoError(t, err)
	assert.Empty(t, claims.Username)
	assert.Empty(t, claims.Role)
}
