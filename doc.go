// Package authkit implements the token and session lifecycle for the
// SehatGuru backend: issuing signed access/refresh/password-reset tokens,
// verifying them on every request, revoking them at logout, and invalidating
// every outstanding session when an account's password changes.
//
// Core pieces:
//   - TokenService signs and verifies the three token kinds. Tokens are
//     self-describing (the kind travels inside the signed payload) and a token
//     of one kind is never accepted where another is required.
//   - RevocationStore is the injected logout blacklist. MemoryRevocationStore
//     covers single-process deployments; boltstore adds a restart-surviving
//     variant, and a shared keyed store can be dropped in for multi-instance
//     setups.
//   - SessionGuard runs the per-request state machine: bearer extraction,
//     revocation check, signature/expiry/kind verification, credential fetch,
//     and the password-change invalidation check that is the core security
//     invariant of the system.
//   - IdentityLinker resolves a verified federated assertion to a local
//     credential, creating one when absent.
//   - PasswordResetFlow issues and consumes the single-purpose reset tokens.
//
// The credential store, upstream identity registry, assertion verifier, and
// mail transport are collaborators injected at construction; see types.go for
// the interfaces and bunstore, googleid, and smtpmail for implementations.
package authkit
