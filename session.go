package authkit

import (
	"fmt"
	"time"
)

// Session is the ephemeral result of a successful token verification. It is
// created per request and never persisted.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	TokenType TokenKind `json:"token_type"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (s Session) String() string {
	return fmt.Sprintf(
		"sub=%s kind=%s iat=%s",
		s.UserID,
		s.TokenType,
		s.IssuedAt.Format(time.RFC3339),
	)
}

// sessionFromClaims builds a Session from verified claims.
func sessionFromClaims(claims *TokenClaims) *Session {
	return &Session{
		UserID:    claims.RegisteredClaims.Subject,
		Email:     claims.Email,
		TokenType: claims.TokenType,
		IssuedAt:  claims.issuedAt(),
		ExpiresAt: claims.expiresAt(),
	}
}

// TokenPair is the login/refresh response: a fresh access+refresh token pair
// plus the access token's lifetime in seconds.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// AuthenticatedUser pairs the verified session with the credential record it
// resolved to. It is what protected handlers receive.
type AuthenticatedUser struct {
	Session    *Session
	Credential *Credential
}
