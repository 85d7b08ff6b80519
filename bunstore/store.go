// Package bunstore implements authkit.CredentialStore on a SQL database
// through the bun ORM.
package bunstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/sehatguru/authkit"
)

// Store persists credentials in a credentials table. The schema follows the
// bun tags on authkit.Credential; call CreateTable once at startup for
// embedded databases.
type Store struct {
	db *bun.DB
}

var _ authkit.CredentialStore = (*Store)(nil)

// New creates a Store over the given bun handle.
func New(db *bun.DB) *Store {
	return &Store{db: db}
}

// CreateTable creates the credentials table if it does not exist.
func (s *Store) CreateTable(ctx context.Context) error {
	_, err := s.db.NewCreateTable().
		Model((*authkit.Credential)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// GetByEmail implements authkit.CredentialStore.
func (s *Store) GetByEmail(ctx context.Context, email string) (*authkit.Credential, error) {
	var cred authkit.Credential
	err := s.db.NewSelect().
		Model(&cred).
		Where("email = ?", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authkit.ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// GetByUID implements authkit.CredentialStore.
func (s *Store) GetByUID(ctx context.Context, uid string) (*authkit.Credential, error) {
	var cred authkit.Credential
	err := s.db.NewSelect().
		Model(&cred).
		Where("uid = ?", uid).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authkit.ErrCredentialNotFound
		}
		return nil, err
	}
	return &cred, nil
}

// Create implements authkit.CredentialStore. A missing uid is assigned here;
// the assigned uid is returned either way.
func (s *Store) Create(ctx context.Context, cred *authkit.Credential) (string, error) {
	if cred.UID == "" {
		cred.UID = uuid.NewString()
	}

	now := time.Now()
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = now
	}
	if cred.UpdatedAt.IsZero() {
		cred.UpdatedAt = now
	}

	if _, err := s.db.NewInsert().Model(cred).Exec(ctx); err != nil {
		return "", err
	}
	return cred.UID, nil
}

// Update implements authkit.CredentialStore. Only non-nil fields of the
// update are written.
func (s *Store) Update(ctx context.Context, uid string, fields authkit.CredentialUpdate) error {
	if fields.IsZero() {
		return nil
	}

	q := s.db.NewUpdate().
		Model((*authkit.Credential)(nil)).
		Where("uid = ?", uid)

	if fields.HashedPassword != nil {
		q = q.Set("hashed_password = ?", *fields.HashedPassword)
	}
	if fields.PasswordChangedAt != nil {
		q = q.Set("password_changed_at = ?", *fields.PasswordChangedAt)
	}
	if fields.EmailVerified != nil {
		q = q.Set("email_verified = ?", *fields.EmailVerified)
	}
	if fields.LastLoginAt != nil {
		q = q.Set("last_login_at = ?", *fields.LastLoginAt)
	}
	if fields.UpdatedAt != nil {
		q = q.Set("updated_at = ?", *fields.UpdatedAt)
	} else {
		q = q.Set("updated_at = ?", time.Now())
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authkit.ErrCredentialNotFound
	}
	return nil
}

// Delete implements authkit.CredentialStore.
func (s *Store) Delete(ctx context.Context, uid string) error {
	res, err := s.db.NewDelete().
		Model((*authkit.Credential)(nil)).
		Where("uid = ?", uid).
		Exec(ctx)
	if err != nil {
		return err
	}

	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return authkit.ErrCredentialNotFound
	}
	return nil
}
