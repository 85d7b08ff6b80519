package bunstore_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/sehatguru/authkit"
	"github.com/sehatguru/authkit/bunstore"
)

func newTestStore(t *testing.T) *bunstore.Store {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "store_test.db")
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	db := bun.NewDB(sqldb, sqlitedialect.New())
	store := bunstore.New(db)
	require.NoError(t, store.CreateTable(context.Background()))
	return store
}

func localCredential(email string) *authkit.Credential {
	return &authkit.Credential{
		Email:             email,
		FullName:          "Test User",
		HashedPassword:    "$2a$12$not-a-real-hash",
		AuthProvider:      authkit.ProviderLocal,
		PasswordChangedAt: time.Now().UTC(),
	}
}

func TestStore_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("assigns a uid and reads back", func(t *testing.T) {
		cred := localCredential("user@example.com")
		uid, err := store.Create(ctx, cred)
		require.NoError(t, err)
		assert.NotEmpty(t, uid)
		assert.Equal(t, uid, cred.UID)
		assert.False(t, cred.CreatedAt.IsZero())

		byUID, err := store.GetByUID(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", byUID.Email)
		assert.Equal(t, authkit.ProviderLocal, byUID.AuthProvider)
		assert.WithinDuration(t, cred.PasswordChangedAt, byUID.PasswordChangedAt, time.Second)

		byEmail, err := store.GetByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		assert.Equal(t, uid, byEmail.UID)
	})

	t.Run("keeps a caller-provided uid", func(t *testing.T) {
		cred := localCredential("pinned@example.com")
		cred.UID = "pinned-uid"
		uid, err := store.Create(ctx, cred)
		require.NoError(t, err)
		assert.Equal(t, "pinned-uid", uid)
	})

	t.Run("rejects a duplicate email", func(t *testing.T) {
		_, err := store.Create(ctx, localCredential("user@example.com"))
		assert.Error(t, err)
	})

	t.Run("misses map to not found", func(t *testing.T) {
		_, err := store.GetByUID(ctx, "no-such-uid")
		assert.ErrorIs(t, err, authkit.ErrCredentialNotFound)

		_, err = store.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(t, err, authkit.ErrCredentialNotFound)
	})
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	cred := localCredential("update@example.com")
	uid, err := store.Create(ctx, cred)
	require.NoError(t, err)

	t.Run("writes only the named fields", func(t *testing.T) {
		verified := true
		changed := time.Now().UTC().Add(time.Minute)
		err := store.Update(ctx, uid, authkit.CredentialUpdate{
			EmailVerified:     &verified,
			PasswordChangedAt: &changed,
		})
		require.NoError(t, err)

		got, err := store.GetByUID(ctx, uid)
		require.NoError(t, err)
		assert.True(t, got.EmailVerified)
		assert.WithinDuration(t, changed, got.PasswordChangedAt, time.Second)
		assert.Equal(t, cred.HashedPassword, got.HashedPassword)
		assert.Nil(t, got.LastLoginAt)
	})

	t.Run("touches updated_at", func(t *testing.T) {
		before, err := store.GetByUID(ctx, uid)
		require.NoError(t, err)

		hash := "$2a$12$another-hash"
		require.NoError(t, store.Update(ctx, uid, authkit.CredentialUpdate{HashedPassword: &hash}))

		after, err := store.GetByUID(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, hash, after.HashedPassword)
		assert.False(t, after.UpdatedAt.Before(before.UpdatedAt))
	})

	t.Run("empty update is a no-op", func(t *testing.T) {
		assert.NoError(t, store.Update(ctx, "no-such-uid", authkit.CredentialUpdate{}))
	})

	t.Run("unknown uid maps to not found", func(t *testing.T) {
		verified := true
		err := store.Update(ctx, "no-such-uid", authkit.CredentialUpdate{EmailVerified: &verified})
		assert.ErrorIs(t, err, authkit.ErrCredentialNotFound)
	})
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	uid, err := store.Create(ctx, localCredential("delete@example.com"))
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, uid))

	_, err = store.GetByUID(ctx, uid)
	assert.ErrorIs(t, err, authkit.ErrCredentialNotFound)

	assert.ErrorIs(t, store.Delete(ctx, uid), authkit.ErrCredentialNotFound)
}
