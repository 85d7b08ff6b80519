package authkit

import (
	"context"
	"fmt"
	"time"
)

// Logger is the minimal logging surface the core writes to. cmd/authd adapts
// log/slog onto it; tests pass mocks.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Config holds the token options the codec needs.
type Config interface {
	GetSigningKey() string
	GetIssuer() string
	GetAccessTokenTTL() time.Duration
	GetRefreshTokenTTL() time.Duration
}

// CredentialStore is the external document store holding credential records,
// keyed by uid. Lookups return ErrCredentialNotFound when no record matches.
type CredentialStore interface {
	GetByEmail(ctx context.Context, email string) (*Credential, error)
	GetByUID(ctx context.Context, uid string) (*Credential, error)
	Create(ctx context.Context, cred *Credential) (string, error)
	Update(ctx context.Context, uid string, fields CredentialUpdate) error
	Delete(ctx context.Context, uid string) error
}

// UpstreamIdentity is a record in the upstream identity registry.
type UpstreamIdentity struct {
	UID           string
	Email         string
	Name          string
	PhotoURL      string
	EmailVerified bool
}

// NewIdentity is the payload for creating an upstream identity.
type NewIdentity struct {
	Email         string
	Password      string
	Name          string
	PhotoURL      string
	EmailVerified bool
}

// IdentityRegistry is the upstream identity provider's management surface
// (user records, password sync, verification links). Lookups return
// ErrIdentityNotFound when no record matches. All calls are best-effort
// collaborator I/O: the core maps failures, it never retries.
type IdentityRegistry interface {
	CreateIdentity(ctx context.Context, identity NewIdentity) (*UpstreamIdentity, error)
	GetByEmail(ctx context.Context, email string) (*UpstreamIdentity, error)
	GetByUID(ctx context.Context, uid string) (*UpstreamIdentity, error)
	UpdatePassword(ctx context.Context, uid, password string) error
	Delete(ctx context.Context, uid string) error
	VerificationLink(ctx context.Context, email string) (string, error)
}

// FederatedIdentity is the verified payload of a federated login assertion.
type FederatedIdentity struct {
	Subject       string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// AssertionVerifier validates a third-party identity assertion (e.g. a
// Google ID token) against the expected audience.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, rawAssertion, expectedAudience string) (*FederatedIdentity, error)
}

// Mailer is the outbound mail transport. Dispatch failures are logged and
// swallowed by callers; mail never gates a primary operation.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) { d.printf("[DBG]", format, args...) }
func (d defLogger) Info(format string, args ...any)  { d.printf("[INF]", format, args...) }
func (d defLogger) Warn(format string, args ...any)  { d.printf("[WRN]", format, args...) }
func (d defLogger) Error(format string, args ...any) { d.printf("[ERR]", format, args...) }

func (defLogger) printf(level, format string, args ...any) {
	fmt.Printf(level+" AUTH "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
