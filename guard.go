package authkit

import (
	"context"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// authScheme is the bearer convention on every authenticated call.
const authScheme = "Bearer"

// BearerToken extracts the token from an Authorization header value.
// Missing or malformed headers map to ErrNoCredentials.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", ErrNoCredentials
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], authScheme) {
		return "", ErrNoCredentials
	}

	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", ErrNoCredentials
	}
	return token, nil
}

// SessionGuard authenticates individual requests. Each call is independent;
// the only shared state is the revocation store and the credential store.
type SessionGuard struct {
	tokens   *TokenService
	revoked  RevocationStore
	store    CredentialStore
	registry IdentityRegistry
	logger   Logger
}

// NewSessionGuard wires the guard's collaborators.
func NewSessionGuard(tokens *TokenService, revoked RevocationStore, store CredentialStore) *SessionGuard {
	return &SessionGuard{
		tokens:  tokens,
		revoked: revoked,
		store:   store,
		logger:  defLogger{},
	}
}

// WithLogger overrides the guard logger.
func (g *SessionGuard) WithLogger(logger Logger) *SessionGuard {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithRegistry enables the best-effort email_verified sync against the
// upstream registry's live record. Sync failures never reject a request.
func (g *SessionGuard) WithRegistry(registry IdentityRegistry) *SessionGuard {
	g.registry = registry
	return g
}

// AuthenticateHeader runs Authenticate on the token carried by an
// Authorization header value.
func (g *SessionGuard) AuthenticateHeader(ctx context.Context, header string) (*AuthenticatedUser, error) {
	token, err := BearerToken(header)
	if err != nil {
		return nil, err
	}
	return g.Authenticate(ctx, token)
}

// Authenticate validates an access token end to end:
//
//  1. empty token -> ErrNoCredentials
//  2. revocation check (cheap, short-circuits before signature work; both
//     checks must pass regardless of order)
//  3. signature/expiry/kind verification
//  4. credential fetch -> ErrUserNotFound when the record is gone
//  5. password-change invalidation: a token issued before the subject's most
//     recent password change is dead, no revocation entry needed
//  6. best-effort email_verified sync from the upstream registry
func (g *SessionGuard) Authenticate(ctx context.Context, token string) (*AuthenticatedUser, error) {
	if token == "" {
		return nil, ErrNoCredentials
	}

	revoked, err := g.revoked.IsRevoked(token)
	if err != nil {
		return nil, ServiceUnavailable(err, "revocation store unavailable")
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	session, err := g.tokens.Verify(token, TokenAccess)
	if err != nil {
		return nil, err
	}

	cred, err := g.store.GetByUID(ctx, session.UserID)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, ServiceUnavailable(err, "credential store unavailable")
	}

	if cred.PasswordChangedAt.After(session.IssuedAt) {
		g.logger.Info("rejecting token issued before password change",
			"uid", session.UserID,
			"issued_at", session.IssuedAt,
			"password_changed_at", cred.PasswordChangedAt,
		)
		return nil, ErrSessionInvalidated
	}

	g.syncVerifiedFlag(ctx, cred)

	return &AuthenticatedUser{Session: session, Credential: cred}, nil
}

// VerifyRefresh validates a refresh token: presence, revocation, and codec
// verification only. There is no credential fetch and no password-change
// check on this path; logout revokes the access token presented at logout, so
// a paired refresh token stays valid unless it is revoked explicitly.
func (g *SessionGuard) VerifyRefresh(ctx context.Context, token string) (*Session, error) {
	if token == "" {
		return nil, ErrNoCredentials
	}

	revoked, err := g.revoked.IsRevoked(token)
	if err != nil {
		return nil, ServiceUnavailable(err, "revocation store unavailable")
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return g.tokens.Verify(token, TokenRefresh)
}

// syncVerifiedFlag refreshes the cached email_verified flag from the upstream
// registry. It is a cache refresh, not a correctness gate: any failure is
// logged and ignored.
func (g *SessionGuard) syncVerifiedFlag(ctx context.Context, cred *Credential) {
	if g.registry == nil {
		return
	}

	upstream, err := g.registry.GetByUID(ctx, cred.UID)
	if err != nil {
		g.logger.Warn("email_verified sync skipped", "uid", cred.UID, "error", err)
		return
	}

	if upstream.EmailVerified == cred.EmailVerified {
		return
	}

	verified := upstream.EmailVerified
	now := g.tokens.clock()
	if err := g.store.Update(ctx, cred.UID, CredentialUpdate{
		EmailVerified: &verified,
		UpdatedAt:     &now,
	}); err != nil {
		g.logger.Warn("email_verified sync failed", "uid", cred.UID, "error", err)
		return
	}
	cred.EmailVerified = verified
}
