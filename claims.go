package authkit

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind discriminates the three token variants. The kind travels inside
// the signed payload, so a token always states what it is.
type TokenKind string

const (
	// TokenAccess is the short-lived credential authorizing API calls.
	TokenAccess TokenKind = "access"
	// TokenRefresh is the long-lived credential used to mint new pairs.
	TokenRefresh TokenKind = "refresh"
	// TokenPasswordReset is the single-purpose, email-scoped reset credential.
	TokenPasswordReset TokenKind = "password_reset"
)

// Valid reports whether k is one of the known kinds.
func (k TokenKind) Valid() bool {
	switch k {
	case TokenAccess, TokenRefresh, TokenPasswordReset:
		return true
	}
	return false
}

// TokenClaims is the wire payload shared by all token kinds:
// {sub, token_type, iat, exp} plus email for access/refresh tokens.
// The shape must stay stable across services that accept these tokens.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email     string    `json:"email,omitempty"`
	TokenType TokenKind `json:"token_type"`
}

// ensureTokenID assigns a jti when the claims carry none.
func ensureTokenID(claims *jwt.RegisteredClaims) {
	if claims.ID == "" {
		claims.ID = uuid.NewString()
	}
}

// issuedAt returns the iat claim or the zero time.
func (c *TokenClaims) issuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}

// expiresAt returns the exp claim or the zero time.
func (c *TokenClaims) expiresAt() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}
