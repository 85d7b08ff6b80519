package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// Authenticator orchestrates local registration, login, refresh, logout, and
// account deletion on top of the token codec and the injected collaborators.
// All dependencies arrive at construction; there is no package-level state.
type Authenticator struct {
	tokens   *TokenService
	revoked  RevocationStore
	store    CredentialStore
	registry IdentityRegistry
	mailer   Mailer
	logger   Logger
	clock    func() time.Time
}

// NewAuthenticator wires the authenticator's collaborators. The registry and
// mailer are optional; without them registration skips upstream identity
// creation and verification mail.
func NewAuthenticator(tokens *TokenService, revoked RevocationStore, store CredentialStore) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		revoked: revoked,
		store:   store,
		logger:  defLogger{},
		clock:   time.Now,
	}
}

// WithRegistry sets the upstream identity registry.
func (a *Authenticator) WithRegistry(registry IdentityRegistry) *Authenticator {
	a.registry = registry
	return a
}

// WithMailer sets the outbound mail transport.
func (a *Authenticator) WithMailer(mailer Mailer) *Authenticator {
	a.mailer = mailer
	return a
}

// WithLogger overrides the authenticator logger.
func (a *Authenticator) WithLogger(logger Logger) *Authenticator {
	if logger != nil {
		a.logger = logger
	}
	return a
}

// WithClock overrides the time source.
func (a *Authenticator) WithClock(clock func() time.Time) *Authenticator {
	if clock != nil {
		a.clock = clock
	}
	return a
}

// RegisterPayload carries a local signup.
type RegisterPayload struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a local email/password account. The credential starts
// unverified; a verification mail goes out best-effort when a registry and
// mailer are present.
func (a *Authenticator) Register(ctx context.Context, payload RegisterPayload) (*Credential, error) {
	if _, err := a.store.GetByEmail(ctx, payload.Email); err == nil {
		return nil, ErrEmailAlreadyRegistered
	} else if !goerrors.IsNotFound(err) {
		return nil, ServiceUnavailable(err, "credential store unavailable")
	}

	uid := uuid.NewString()
	if a.registry != nil {
		upstream, err := a.registry.CreateIdentity(ctx, NewIdentity{
			Email:    payload.Email,
			Password: payload.Password,
			Name:     payload.FullName,
		})
		if err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "upstream identity creation failed")
		}
		uid = upstream.UID
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		return nil, err
	}

	now := a.clock()
	cred := &Credential{
		UID:               uid,
		Email:             payload.Email,
		FullName:          payload.FullName,
		HashedPassword:    hash,
		AuthProvider:      ProviderLocal,
		EmailVerified:     false,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := a.store.Create(ctx, cred); err != nil {
		return nil, ServiceUnavailable(err, "credential store unavailable")
	}

	a.sendVerificationMail(ctx, cred.Email)

	return cred, nil
}

// Login verifies an email/password pair and mints a token pair. Unknown
// email and wrong password are indistinguishable to the caller; an account
// without a local password gets ErrProviderMismatch so clients can route the
// user to federated sign-in.
func (a *Authenticator) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	cred, err := a.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, ServiceUnavailable(err, "credential store unavailable")
	}

	if cred.HashedPassword == "" {
		if !cred.IsLocal() {
			return nil, ErrProviderMismatch
		}
		return nil, ErrInvalidCredentials
	}

	if err := ComparePasswordAndHash(password, cred.HashedPassword); err != nil {
		return nil, err
	}

	now := a.clock()
	if err := a.store.Update(ctx, cred.UID, CredentialUpdate{
		LastLoginAt: &now,
		UpdatedAt:   &now,
	}); err != nil {
		a.logger.Warn("last_login update failed", "uid", cred.UID, "error", err)
	}

	return a.MintPair(cred.UID, cred.Email)
}

// Refresh mints a fresh pair for an already verified refresh session.
func (a *Authenticator) Refresh(ctx context.Context, session *Session) (*TokenPair, error) {
	if session == nil || session.TokenType != TokenRefresh {
		return nil, ErrWrongTokenType
	}
	return a.MintPair(session.UserID, session.Email)
}

// MintPair issues a new access+refresh pair for a subject.
func (a *Authenticator) MintPair(uid, email string) (*TokenPair, error) {
	access, err := a.tokens.Issue(TokenAccess, uid, email)
	if err != nil {
		return nil, err
	}
	refresh, err := a.tokens.Issue(TokenRefresh, uid, email)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
		ExpiresIn:    int64(a.tokens.TTL(TokenAccess).Seconds()),
	}, nil
}

// Logout revokes the presented token, plus any extras the caller wants dead
// in the same operation (e.g. the paired refresh token). Revocation is
// idempotent.
func (a *Authenticator) Logout(ctx context.Context, token string, extra ...string) error {
	for _, t := range append([]string{token}, extra...) {
		if t == "" {
			continue
		}
		expiresAt, ok := a.tokens.PeekExpiry(t)
		if !ok {
			// Unparseable tokens are revoked with a conservative bound so the
			// entry still ages out.
			expiresAt = a.clock().Add(a.tokens.TTL(TokenRefresh))
		}
		if err := a.revoked.Revoke(t, expiresAt); err != nil {
			return ServiceUnavailable(err, "revocation store unavailable")
		}
	}
	return nil
}

// DeleteAccount removes the credential record and, when a registry is
// wired, the upstream identity.
func (a *Authenticator) DeleteAccount(ctx context.Context, uid string) error {
	if a.registry != nil {
		if err := a.registry.Delete(ctx, uid); err != nil && !goerrors.IsNotFound(err) {
			return ServiceUnavailable(err, "upstream identity deletion failed")
		}
	}

	if err := a.store.Delete(ctx, uid); err != nil && !goerrors.IsNotFound(err) {
		return ServiceUnavailable(err, "credential store unavailable")
	}
	return nil
}

// RequestEmailVerification re-sends the verification mail. Like the reset
// request it reveals nothing about whether the email exists.
func (a *Authenticator) RequestEmailVerification(ctx context.Context, email string) error {
	if _, err := a.store.GetByEmail(ctx, email); err != nil {
		if !goerrors.IsNotFound(err) {
			a.logger.Warn("verification request lookup failed", "error", err)
		}
		return nil
	}
	a.sendVerificationMail(ctx, email)
	return nil
}

// sendVerificationMail dispatches the verification link best-effort.
func (a *Authenticator) sendVerificationMail(ctx context.Context, email string) {
	if a.registry == nil || a.mailer == nil {
		return
	}

	link, err := a.registry.VerificationLink(ctx, email)
	if err != nil {
		a.logger.Warn("verification link generation failed", "error", err)
		return
	}

	text, html := emailVerificationMail(link)
	if err := a.mailer.Send(ctx, email, "Verify your email address", text, html); err != nil {
		a.logger.Warn("verification mail dispatch failed", "error", err)
	}
}
