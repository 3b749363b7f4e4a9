package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuth(now time.Time) *Authenticator {
	a := New("test-secret", 24*time.Hour, time.Hour)
	a.now = func() time.Time { return now }
	return a
}

func TestToken_RoundTrip(t *testing.T) {
	now := time.Now()
	a := newTestAuth(now)

	tok, err := a.IssueToken("ops", CapManageOptions)
	require.NoError(t, err)

	claims, err := a.ParseToken(tok)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.True(t, claims.Can(CapManageOptions))
	assert.False(t, claims.Can("edit_posts"))
}

func TestToken_WithoutCapability(t *testing.T) {
	a := newTestAuth(time.Now())
	tok, err := a.IssueToken("viewer")
	require.NoError(t, err)

	claims, err := a.ParseToken(tok)
	require.NoError(t, err)
	assert.False(t, claims.Can(CapManageOptions))
}

func TestToken_Rejections(t *testing.T) {
	now := time.Now()
	a := newTestAuth(now)
	tok, err := a.IssueToken("ops", CapManageOptions)
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newTestAuth(now.Add(25 * time.Hour))
		_, err := later.ParseToken(tok)
		assert.ErrorIs(t, err, ErrExpired)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := New("other-secret", time.Hour, time.Hour)
		_, err := other.ParseToken(tok)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := a.ParseToken("not-a-token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("nonce is not an admin token", func(t *testing.T) {
		nonce, err := a.IssueNonce("ops", "save_settings")
		require.NoError(t, err)
		_, err = a.ParseToken(nonce)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("nil claims cannot", func(t *testing.T) {
		var c *Claims
		assert.False(t, c.Can(CapManageOptions))
	})
}

func TestNonce(t *testing.T) {
	now := time.Now()
	a := newTestAuth(now)

	nonce, err := a.IssueNonce("ops", "save_settings")
	require.NoError(t, err)

	assert.NoError(t, a.VerifyNonce(nonce, "ops", "save_settings"))
	assert.ErrorIs(t, a.VerifyNonce(nonce, "ops", "clear_cache"), ErrInvalidToken)
	assert.ErrorIs(t, a.VerifyNonce(nonce, "someone-else", "save_settings"), ErrInvalidToken)
	assert.ErrorIs(t, a.VerifyNonce("", "ops", "save_settings"), ErrInvalidToken)

	later := newTestAuth(now.Add(2 * time.Hour))
	assert.ErrorIs(t, later.VerifyNonce(nonce, "ops", "save_settings"), ErrExpired)

	tok, err := a.IssueToken("ops", CapManageOptions)
	require.NoError(t, err)
	assert.ErrorIs(t, a.VerifyNonce(tok, "ops", "save_settings"), ErrInvalidToken)
}
