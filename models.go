package authkit

import (
	"time"

	"github.com/uptrace/bun"
)

// AuthProvider says how an account authenticates.
type AuthProvider = string

const (
	// ProviderLocal is an email/password account.
	ProviderLocal AuthProvider = "local"
	// ProviderFederated is an account created through a federated identity
	// provider; it carries no local password.
	ProviderFederated AuthProvider = "federated"
)

// Credential is the per-user record owned by the credential store. The uid is
// an opaque store-assigned identifier; HashedPassword is set iff the provider
// is local.
type Credential struct {
	bun.BaseModel `bun:"table:credentials,alias:crd"`

	UID              string       `bun:"uid,pk" json:"uid,omitempty"`
	Email            string       `bun:"email,notnull,unique" json:"email,omitempty"`
	FullName         string       `bun:"full_name" json:"full_name,omitempty"`
	HashedPassword   string       `bun:"hashed_password" json:"-"`
	AuthProvider     AuthProvider `bun:"auth_provider,notnull" json:"auth_provider,omitempty"`
	EmailVerified    bool         `bun:"email_verified" json:"email_verified"`
	PhotoURL         string       `bun:"photo_url" json:"photo_url,omitempty"`
	FederatedSubject string       `bun:"federated_subject" json:"-"`

	// PasswordChangedAt is set at creation and on every password change; every
	// token issued before it is dead. See SessionGuard.
	PasswordChangedAt time.Time `bun:"password_changed_at,notnull" json:"-"`

	LastLoginAt *time.Time `bun:"last_login_at,nullzero" json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `bun:"created_at,notnull" json:"created_at,omitempty"`
	UpdatedAt   time.Time  `bun:"updated_at,notnull" json:"updated_at,omitempty"`
}

// IsLocal reports whether the account holds a local password.
func (c *Credential) IsLocal() bool {
	return c.AuthProvider == ProviderLocal
}

// CredentialUpdate names the mutable fields of a credential record. Nil
// fields are left untouched by CredentialStore.Update.
type CredentialUpdate struct {
	HashedPassword    *string
	PasswordChangedAt *time.Time
	EmailVerified     *bool
	LastLoginAt       *time.Time
	UpdatedAt         *time.Time
}

// IsZero reports whether the update would touch nothing.
func (u CredentialUpdate) IsZero() bool {
	return u.HashedPassword == nil &&
		u.PasswordChangedAt == nil &&
		u.EmailVerified == nil &&
		u.LastLoginAt == nil &&
		u.UpdatedAt == nil
}
