package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopauth/internal/models"
)

func newTestManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestIssueAndVerifyTokens(t *testing.T) {
	m := newTestManager()

	pair, err := m.IssueTokens("user-1", models.UserRoleSeller)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	assert.NotEqual(t, pair.AccessToken, pair.RefreshToken)

	access, err := m.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", access.Subject)
	assert.Equal(t, "SELLER", access.Role)
	assert.Equal(t, TokenTypeAccess, access.TokenType)

	refresh, err := m.VerifyRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "user-1", refresh.Subject)
	assert.Equal(t, TokenTypeRefresh, refresh.TokenType)
	// Refresh tokens never carry a role; the role is re-read at rotation.
	assert.Empty(t, refresh.Role)
}

func TestVerifyRejectsWrongTokenType(t *testing.T) {
	m := newTestManager()

	pair, err := m.IssueTokens("user-1", models.UserRoleCustomer)
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = m.VerifyRefresh(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	m := newTestManager()
	other := NewTokenManager("other-access", "other-refresh", 15*time.Minute, 7*24*time.Hour)

	pair, err := other.IssueTokens("user-1", models.UserRoleCustomer)
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	m := NewTokenManager("access-secret", "refresh-secret", -time.Minute, -time.Minute)

	pair, err := m.IssueTokens("user-1", models.UserRoleCustomer)
	require.NoError(t, err)

	_, err = m.VerifyAccess(pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	_, err = m.VerifyRefresh(pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := newTestManager()

	for _, token := range []string{"", "garbage", "a.b.c"} {
		_, err := m.VerifyAccess(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}

func TestIssuedTokensAreUniquePerSession(t *testing.T) {
	m := newTestManager()

	// Issuing repeatedly within the same second must still yield distinct
	// token strings; the registry has a unique index on them.
	seenAccess := make(map[string]bool)
	seenRefresh := make(map[string]bool)
	for i := 0; i < 10; i++ {
		pair, err := m.IssueTokens("user-1", models.UserRoleCustomer)
		require.NoError(t, err)
		assert.False(t, seenAccess[pair.AccessToken], "access token collision")
		assert.False(t, seenRefresh[pair.RefreshToken], "refresh token collision")
		seenAccess[pair.AccessToken] = true
		seenRefresh[pair.RefreshToken] = true
	}
}

func TestTokenExpiryWindows(t *testing.T) {
	m := newTestManager()

	before := time.Now()
	pair, err := m.IssueTokens("user-1", models.UserRoleCustomer)
	require.NoError(t, err)

	assert.WithinDuration(t, before.Add(15*time.Minute), pair.AccessExpiresAt, 5*time.Second)
	assert.WithinDuration(t, before.Add(7*24*time.Hour), pair.RefreshExpiresAt, 5*time.Second)
}
