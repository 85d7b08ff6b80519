package authkit

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
)

// IdentityLinker resolves a verified federated assertion to a local
// credential, creating one when no record exists for the asserted email.
//
// Resolution is identity-by-email: an assertion whose email matches an
// existing local-password account logs into that account without proving
// ownership of the password. The merge policy lives here so a future
// ownership challenge has a single insertion point.
type IdentityLinker struct {
	store    CredentialStore
	registry IdentityRegistry
	verifier AssertionVerifier
	audience string
	logger   Logger
	clock    func() time.Time
}

// NewIdentityLinker wires the linker's collaborators. The audience is what
// assertions must be issued for (e.g. the OAuth client id). A nil registry
// keeps identity records local only.
func NewIdentityLinker(store CredentialStore, registry IdentityRegistry, verifier AssertionVerifier, audience string) *IdentityLinker {
	return &IdentityLinker{
		store:    store,
		registry: registry,
		verifier: verifier,
		audience: audience,
		logger:   defLogger{},
		clock:    time.Now,
	}
}

// WithLogger overrides the linker logger.
func (l *IdentityLinker) WithLogger(logger Logger) *IdentityLinker {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithClock overrides the time source.
func (l *IdentityLinker) WithClock(clock func() time.Time) *IdentityLinker {
	if clock != nil {
		l.clock = clock
	}
	return l
}

// Login verifies a raw assertion and returns the credential it resolves to.
// The caller mints the access+refresh pair exactly as for local login.
func (l *IdentityLinker) Login(ctx context.Context, rawAssertion string) (*Credential, error) {
	identity, err := l.verifier.VerifyAssertion(ctx, rawAssertion, l.audience)
	if err != nil {
		l.logger.Warn("federated assertion rejected", "error", err)
		return nil, ErrAssertionInvalid
	}
	if identity.Email == "" {
		return nil, ErrAssertionInvalid
	}

	cred, err := l.store.GetByEmail(ctx, identity.Email)
	if err == nil {
		// Existing account, any provider: merge-by-email login.
		now := l.clock()
		if err := l.store.Update(ctx, cred.UID, CredentialUpdate{UpdatedAt: &now}); err != nil {
			l.logger.Warn("login timestamp update failed", "uid", cred.UID, "error", err)
		}
		return cred, nil
	}
	if !goerrors.IsNotFound(err) {
		return nil, ServiceUnavailable(err, "credential store unavailable")
	}

	return l.create(ctx, identity)
}

// create materializes a brand-new federated credential. When the upstream
// registry already holds the identity (created out of band, no local record
// yet), the canonical uid is fetched and reused instead of failing the login.
// Without a registry the uid is minted locally.
func (l *IdentityLinker) create(ctx context.Context, identity *FederatedIdentity) (*Credential, error) {
	uid := uuid.NewString()

	if l.registry != nil {
		upstream, err := l.registry.CreateIdentity(ctx, NewIdentity{
			Email:         identity.Email,
			Name:          identity.Name,
			PhotoURL:      identity.Picture,
			EmailVerified: true,
		})
		if err != nil {
			existing, lookupErr := l.registry.GetByEmail(ctx, identity.Email)
			if lookupErr != nil {
				l.logger.Error("identity creation failed", "email", identity.Email, "error", err)
				return nil, goerrors.Wrap(err, ErrIdentityCreationFailed.Category, ErrIdentityCreationFailed.Message).
					WithTextCode(ErrIdentityCreationFailed.TextCode)
			}
			upstream = existing
		}
		uid = upstream.UID
	}

	now := l.clock()
	cred := &Credential{
		UID:               uid,
		Email:             identity.Email,
		FullName:          identity.Name,
		AuthProvider:      ProviderFederated,
		EmailVerified:     true,
		PhotoURL:          identity.Picture,
		FederatedSubject:  identity.Subject,
		PasswordChangedAt: now,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if _, err := l.store.Create(ctx, cred); err != nil {
		l.logger.Error("credential creation failed", "email", identity.Email, "error", err)
		return nil, goerrors.Wrap(err, ErrIdentityCreationFailed.Category, ErrIdentityCreationFailed.Message).
			WithTextCode(ErrIdentityCreationFailed.TextCode)
	}

	return cred, nil
}
