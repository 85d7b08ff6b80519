// Package googleid verifies Google ID tokens and exposes them as federated
// identity assertions.
package googleid

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/sehatguru/authkit"
)

// DefaultJWKSetURL is Google's published signing key set.
const DefaultJWKSetURL = "https://www.googleapis.com/oauth2/v3/certs"

var acceptedIssuers = []string{
	"https://accounts.google.com",
	"accounts.google.com",
}

// idTokenClaims is the subset of Google ID token claims we read.
type idTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier validates Google ID tokens against Google's JWK set. The key set
// refreshes in the background; construct once and share.
type Verifier struct {
	jwks *keyfunc.JWKS
}

var _ authkit.AssertionVerifier = (*Verifier)(nil)

// New fetches the JWK set from jwkSetURL (DefaultJWKSetURL when empty) and
// returns a Verifier. Close releases the background refresh goroutine.
func New(jwkSetURL string) (*Verifier, error) {
	if jwkSetURL == "" {
		jwkSetURL = DefaultJWKSetURL
	}

	jwks, err := keyfunc.Get(jwkSetURL, keyfunc.Options{
		RefreshErrorHandler: func(err error) {
			log.Printf("failed to do a background refresh of JWT set: %s", err)
		},
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get JWK set: %w", err)
	}

	return &Verifier{jwks: jwks}, nil
}

// Close stops the background key refresh.
func (v *Verifier) Close() {
	v.jwks.EndBackground()
}

// VerifyAssertion implements authkit.AssertionVerifier. Signature, issuer,
// audience and expiry must all check out; any failure collapses into
// authkit.ErrAssertionInvalid.
func (v *Verifier) VerifyAssertion(ctx context.Context, rawAssertion, expectedAudience string) (*authkit.FederatedIdentity, error) {
	claims := &idTokenClaims{}

	token, err := jwt.ParseWithClaims(rawAssertion, claims, v.jwks.Keyfunc,
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithAudience(expectedAudience),
	)
	if err != nil || !token.Valid {
		return nil, authkit.ErrAssertionInvalid
	}

	if !issuerAccepted(claims.Issuer) {
		return nil, authkit.ErrAssertionInvalid
	}

	if claims.Subject == "" || claims.Email == "" {
		return nil, authkit.ErrAssertionInvalid
	}

	return &authkit.FederatedIdentity{
		Subject:       claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		EmailVerified: claims.EmailVerified,
	}, nil
}

func issuerAccepted(issuer string) bool {
	for _, iss := range acceptedIssuers {
		if issuer == iss {
			return true
		}
	}
	return false
}
