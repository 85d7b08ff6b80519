package authkit

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

// RevocationStore is the injected logout blacklist. Revoke is idempotent;
// IsRevoked is a membership check on the hot path of every authenticated
// request, so implementations should expect reads to dominate writes by
// orders of magnitude.
//
// The expiresAt hint lets implementations prune entries once the token would
// have died on its own; it is advisory and never extends a token's life.
type RevocationStore interface {
	Revoke(token string, expiresAt time.Time) error
	IsRevoked(token string) (bool, error)
}

// TokenFingerprint derives the stored key for a token. Keeping a digest
// instead of the raw token bounds entry size and keeps live credentials out
// of the store.
func TokenFingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// MemoryRevocationStore is a process-wide in-memory revocation set. It is
// safe for concurrent use and suits single-process deployments only; a
// multi-instance deployment needs a shared keyed store behind the same
// interface.
type MemoryRevocationStore struct {
	mu      sync.RWMutex
	entries map[string]time.Time
	clock   func() time.Time
}

// NewMemoryRevocationStore creates an empty store.
func NewMemoryRevocationStore() *MemoryRevocationStore {
	return &MemoryRevocationStore{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
}

// WithClock overrides the time source used for pruning.
func (s *MemoryRevocationStore) WithClock(clock func() time.Time) *MemoryRevocationStore {
	if clock != nil {
		s.clock = clock
	}
	return s
}

// Revoke inserts the token's fingerprint. Revoking an already revoked token
// is a no-op. Each write also prunes entries whose underlying token has
// expired, so the set stays bounded by the number of live revoked tokens.
func (s *MemoryRevocationStore) Revoke(token string, expiresAt time.Time) error {
	now := s.clock()

	s.mu.Lock()
	defer s.mu.Unlock()

	for fp, exp := range s.entries {
		if !exp.IsZero() && exp.Before(now) {
			delete(s.entries, fp)
		}
	}
	s.entries[TokenFingerprint(token)] = expiresAt
	return nil
}

// IsRevoked reports membership.
func (s *MemoryRevocationStore) IsRevoked(token string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.entries[TokenFingerprint(token)]
	return ok, nil
}

// Len reports the current entry count.
func (s *MemoryRevocationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
