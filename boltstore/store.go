// Package boltstore implements authkit.RevocationStore on a bbolt database,
// for deployments that need the revocation list to survive restarts.
package boltstore

import (
	"bytes"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/sehatguru/authkit"
)

var bucketRevoked = []byte("revoked")

// Store keeps token fingerprints in a single bucket. Values are the
// advisory expiry hints, used by Prune to drop entries for tokens that can
// no longer verify anyway.
type Store struct {
	db *bbolt.DB
}

var _ authkit.RevocationStore = (*Store)(nil)

// New opens the database file at path and initializes the bucket.
func New(path string) (*Store, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open boltdb: %w", err)
	}

	store := &Store{db: db}

	if err := store.initBucket(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize bucket: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) initBucket() error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRevoked)
		return err
	})
}

// Revoke implements authkit.RevocationStore. Revoking the same token twice
// overwrites the hint and is not an error.
func (s *Store) Revoke(token string, expiresAt time.Time) error {
	key := []byte(authkit.TokenFingerprint(token))

	var hint []byte
	if !expiresAt.IsZero() {
		hint, _ = expiresAt.UTC().MarshalBinary()
	}

	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRevoked).Put(key, hint)
	})
}

// IsRevoked implements authkit.RevocationStore.
func (s *Store) IsRevoked(token string) (bool, error) {
	key := []byte(authkit.TokenFingerprint(token))

	var found bool
	err := s.db.View(func(tx *bbolt.Tx) error {
		// Get returns nil for empty values, so seek instead
		k, _ := tx.Bucket(bucketRevoked).Cursor().Seek(key)
		found = k != nil && bytes.Equal(k, key)
		return nil
	})
	return found, err
}

// Prune removes entries whose expiry hint is before now. Entries stored
// without a hint are kept. Returns the number of entries removed.
func (s *Store) Prune(now time.Time) (int, error) {
	var removed int
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRevoked)
		c := b.Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if len(v) == 0 {
				continue
			}
			var expiresAt time.Time
			if err := expiresAt.UnmarshalBinary(v); err != nil {
				continue
			}
			if expiresAt.Before(now) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}
