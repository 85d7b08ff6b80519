package authkit_test

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehatguru/authkit"
)

func TestTokenService_IssueAndVerify(t *testing.T) {
	cfg := newTestConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	service := authkit.NewTokenService(cfg).WithClock(fixedClock(now))

	t.Run("round trips an access token", func(t *testing.T) {
		token, err := service.Issue(authkit.TokenAccess, "user-123", "user@example.com")
		require.NoError(t, err)
		require.NotEmpty(t, token)

		session, err := service.Verify(token, authkit.TokenAccess)
		require.NoError(t, err)
		assert.Equal(t, "user-123", session.UserID)
		assert.Equal(t, "user@example.com", session.Email)
		assert.Equal(t, authkit.TokenAccess, session.TokenType)
		assert.Equal(t, now.Unix(), session.IssuedAt.Unix())
		assert.Equal(t, now.Add(cfg.accessTTL).Unix(), session.ExpiresAt.Unix())
	})

	t.Run("round trips a refresh token", func(t *testing.T) {
		token, err := service.Issue(authkit.TokenRefresh, "user-123", "user@example.com")
		require.NoError(t, err)

		session, err := service.Verify(token, authkit.TokenRefresh)
		require.NoError(t, err)
		assert.Equal(t, authkit.TokenRefresh, session.TokenType)
		assert.Equal(t, now.Add(cfg.refreshTTL).Unix(), session.ExpiresAt.Unix())
	})

	t.Run("assigns a unique jti per token", func(t *testing.T) {
		first, err := service.Issue(authkit.TokenAccess, "user-123", "")
		require.NoError(t, err)
		second, err := service.Issue(authkit.TokenAccess, "user-123", "")
		require.NoError(t, err)
		assert.NotEqual(t, first, second)
	})

	t.Run("rejects an unknown kind", func(t *testing.T) {
		_, err := service.Issue(authkit.TokenKind("session"), "user-123", "")
		assert.Error(t, err)
	})

	t.Run("rejects an empty subject", func(t *testing.T) {
		_, err := service.Issue(authkit.TokenAccess, "", "")
		assert.Error(t, err)
	})
}

func TestTokenService_Expiry(t *testing.T) {
	cfg := newTestConfig()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	issuer := authkit.NewTokenService(cfg).WithClock(fixedClock(issuedAt))
	token, err := issuer.Issue(authkit.TokenAccess, "user-123", "user@example.com")
	require.NoError(t, err)

	t.Run("valid just inside the window", func(t *testing.T) {
		verifier := authkit.NewTokenService(cfg).
			WithClock(fixedClock(issuedAt.Add(29 * time.Minute)))

		_, err := verifier.Verify(token, authkit.TokenAccess)
		assert.NoError(t, err)
	})

	t.Run("expired just past the window", func(t *testing.T) {
		verifier := authkit.NewTokenService(cfg).
			WithClock(fixedClock(issuedAt.Add(31 * time.Minute)))

		_, err := verifier.Verify(token, authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrTokenExpired)
	})
}

func TestTokenService_Verify_Failures(t *testing.T) {
	cfg := newTestConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := authkit.NewTokenService(cfg).WithClock(fixedClock(now))

	t.Run("bad signature", func(t *testing.T) {
		other := authkit.NewTokenService(testConfig{
			signingKey: "a-different-key",
			issuer:     cfg.issuer,
			accessTTL:  cfg.accessTTL,
			refreshTTL: cfg.refreshTTL,
		}).WithClock(fixedClock(now))

		token, err := other.Issue(authkit.TokenAccess, "user-123", "")
		require.NoError(t, err)

		_, err = service.Verify(token, authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrBadSignature)
	})

	t.Run("bad signature wins over expiry", func(t *testing.T) {
		past := now.Add(-48 * time.Hour)
		other := authkit.NewTokenService(testConfig{
			signingKey: "a-different-key",
			issuer:     cfg.issuer,
			accessTTL:  cfg.accessTTL,
			refreshTTL: cfg.refreshTTL,
		}).WithClock(fixedClock(past))

		token, err := other.Issue(authkit.TokenAccess, "user-123", "")
		require.NoError(t, err)

		_, err = service.Verify(token, authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrBadSignature)
	})

	t.Run("wrong kind", func(t *testing.T) {
		token, err := service.Issue(authkit.TokenRefresh, "user-123", "")
		require.NoError(t, err)

		_, err = service.Verify(token, authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrWrongTokenType)
	})

	t.Run("reset token is not an access token", func(t *testing.T) {
		token, err := service.IssueResetToken("user@example.com")
		require.NoError(t, err)

		_, err = service.Verify(token, authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrWrongTokenType)
	})

	t.Run("garbage input", func(t *testing.T) {
		_, err := service.Verify("not-a-token", authkit.TokenAccess)
		assert.ErrorIs(t, err, authkit.ErrMalformedClaims)
	})

	t.Run("rejects none algorithm", func(t *testing.T) {
		unsigned := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
			Subject:   "user-123",
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		})
		token, err := unsigned.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = service.Verify(token, authkit.TokenAccess)
		require.Error(t, err)
		assert.True(t, errors.Is(err, authkit.ErrBadSignature) || errors.Is(err, authkit.ErrMalformedClaims))
	})
}

func TestTokenService_ResetTokens(t *testing.T) {
	cfg := newTestConfig()
	issuedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := authkit.NewTokenService(cfg).WithClock(fixedClock(issuedAt))

	t.Run("round trips the email", func(t *testing.T) {
		token, err := service.IssueResetToken("user@example.com")
		require.NoError(t, err)

		email, err := service.VerifyResetToken(token)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("expires after one hour regardless of config", func(t *testing.T) {
		token, err := service.IssueResetToken("user@example.com")
		require.NoError(t, err)

		verifier := authkit.NewTokenService(cfg).
			WithClock(fixedClock(issuedAt.Add(61 * time.Minute)))

		_, err = verifier.VerifyResetToken(token)
		assert.ErrorIs(t, err, authkit.ErrTokenExpired)
	})
}

func TestTokenService_PeekExpiry(t *testing.T) {
	cfg := newTestConfig()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service := authkit.NewTokenService(cfg).WithClock(fixedClock(now))

	t.Run("reads exp without verifying", func(t *testing.T) {
		token, err := service.Issue(authkit.TokenAccess, "user-123", "")
		require.NoError(t, err)

		expiresAt, ok := service.PeekExpiry(token)
		assert.True(t, ok)
		assert.Equal(t, now.Add(cfg.accessTTL).Unix(), expiresAt.Unix())
	})

	t.Run("reports false for garbage", func(t *testing.T) {
		_, ok := service.PeekExpiry("not-a-token")
		assert.False(t, ok)
	})
}
