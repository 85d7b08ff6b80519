package authkit

import (
	"context"
	"fmt"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// PasswordResetFlow issues and consumes the single-purpose reset tokens.
//
// Reset tokens are not single-use-tracked: a replay inside the one-hour
// window succeeds again. That is tolerable because consumption is idempotent
// in effect; every consume rewrites the hash and bumps password_changed_at,
// which kills everything older.
type PasswordResetFlow struct {
	tokens   *TokenService
	store    CredentialStore
	registry IdentityRegistry
	mailer   Mailer
	logger   Logger
	resetURL string
	clock    func() time.Time
}

// NewPasswordResetFlow wires the flow's collaborators.
func NewPasswordResetFlow(tokens *TokenService, store CredentialStore, registry IdentityRegistry, mailer Mailer) *PasswordResetFlow {
	return &PasswordResetFlow{
		tokens:   tokens,
		store:    store,
		registry: registry,
		mailer:   mailer,
		logger:   defLogger{},
		resetURL: "http://localhost:3000/reset-password",
		clock:    time.Now,
	}
}

// WithLogger overrides the flow logger.
func (f *PasswordResetFlow) WithLogger(logger Logger) *PasswordResetFlow {
	if logger != nil {
		f.logger = logger
	}
	return f
}

// WithResetURL sets the frontend page the mailed link points at.
func (f *PasswordResetFlow) WithResetURL(url string) *PasswordResetFlow {
	if url != "" {
		f.resetURL = url
	}
	return f
}

// WithClock overrides the time source.
func (f *PasswordResetFlow) WithClock(clock func() time.Time) *PasswordResetFlow {
	if clock != nil {
		f.clock = clock
	}
	return f
}

// Request starts a reset for an email address. It returns nil whether or not
// the email is known, so callers cannot be used as an account oracle; mail
// dispatch failures are likewise swallowed.
func (f *PasswordResetFlow) Request(ctx context.Context, email string) error {
	cred, err := f.store.GetByEmail(ctx, email)
	if err != nil {
		if !goerrors.IsNotFound(err) {
			f.logger.Warn("reset request lookup failed", "error", err)
		}
		return nil
	}

	token, err := f.tokens.IssueResetToken(cred.Email)
	if err != nil {
		f.logger.Error("reset token issue failed", "uid", cred.UID, "error", err)
		return nil
	}

	if f.mailer == nil {
		f.logger.Warn("no mailer configured, dropping reset mail", "uid", cred.UID)
		return nil
	}

	link := fmt.Sprintf("%s?token=%s", f.resetURL, token)
	text, html := passwordResetMail(link)
	if err := f.mailer.Send(ctx, cred.Email, "Reset your password", text, html); err != nil {
		f.logger.Warn("reset mail dispatch failed", "uid", cred.UID, "error", err)
	}
	return nil
}

// Consume verifies a reset token and applies the new password. Setting
// password_changed_at here is what invalidates every session minted before
// the change; SessionGuard enforces it on the next request.
func (f *PasswordResetFlow) Consume(ctx context.Context, token, newPassword string) error {
	select {
	case <-ctx.Done():
		return goerrors.Wrap(ctx.Err(), goerrors.CategoryOperation, "context cancelled during password reset")
	default:
	}

	email, err := f.tokens.VerifyResetToken(token)
	if err != nil {
		return err
	}

	cred, err := f.store.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return ErrUserNotFound
		}
		return ServiceUnavailable(err, "credential store unavailable")
	}

	if !cred.IsLocal() {
		return ErrProviderMismatch
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryValidation, "invalid new password provided")
	}

	now := f.clock()
	update := CredentialUpdate{
		HashedPassword:    &hash,
		PasswordChangedAt: &now,
		UpdatedAt:         &now,
	}
	if err := f.store.Update(ctx, cred.UID, update); err != nil {
		return ServiceUnavailable(err, "credential store unavailable")
	}

	if f.registry != nil {
		if err := f.registry.UpdatePassword(ctx, cred.UID, newPassword); err != nil {
			f.logger.Warn("upstream password sync failed", "uid", cred.UID, "error", err)
		}
	}

	return nil
}
