package authkit

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeNoCredentials      = "auth_no_credentials"
	TextCodeBadSignature       = "auth_bad_signature"
	TextCodeTokenExpired       = "auth_token_expired"
	TextCodeWrongTokenType     = "auth_wrong_token_type"
	TextCodeMalformedClaims    = "auth_malformed_claims"
	TextCodeTokenRevoked       = "auth_token_revoked"
	TextCodeSessionInvalidated = "auth_session_invalidated"
	TextCodeUserNotFound       = "auth_user_not_found"
	TextCodeInvalidCredentials = "auth_invalid_credentials"
	TextCodeProviderMismatch   = "auth_provider_mismatch"
	TextCodeAssertionInvalid   = "auth_assertion_invalid"
	TextCodeIdentityCreateFail = "auth_identity_creation_failed"
	TextCodeEmailExists        = "auth_email_exists"
	TextCodeServiceUnavailable = "auth_service_unavailable"
)

// ErrNoCredentials is returned when a request carries no bearer token.
var ErrNoCredentials = errors.New("missing bearer credentials", errors.CategoryAuth).
	WithTextCode(TextCodeNoCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrBadSignature is returned when a token signature does not verify.
// Nothing else about the token is inspected once the signature fails.
var ErrBadSignature = errors.New("token signature invalid", errors.CategoryAuth).
	WithTextCode(TextCodeBadSignature).
	WithCode(errors.CodeUnauthorized)

// ErrTokenExpired is returned when a token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(errors.CodeUnauthorized)

// ErrWrongTokenType is returned when the embedded token kind does not match
// the kind the caller required.
var ErrWrongTokenType = errors.New("unexpected token type", errors.CategoryAuth).
	WithTextCode(TextCodeWrongTokenType).
	WithCode(errors.CodeUnauthorized)

// ErrMalformedClaims is returned when required claims are absent or the token
// cannot be parsed at all.
var ErrMalformedClaims = errors.New("malformed token claims", errors.CategoryAuth).
	WithTextCode(TextCodeMalformedClaims).
	WithCode(errors.CodeUnauthorized)

// ErrTokenRevoked is returned for tokens revoked at logout.
var ErrTokenRevoked = errors.New("token has been revoked", errors.CategoryAuth).
	WithTextCode(TextCodeTokenRevoked).
	WithCode(errors.CodeUnauthorized)

// ErrSessionInvalidated is returned for tokens issued before the subject's
// most recent password change.
var ErrSessionInvalidated = errors.New("session invalidated by password change", errors.CategoryAuth).
	WithTextCode(TextCodeSessionInvalidated).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when a verified token references a credential
// record that no longer exists.
var ErrUserNotFound = errors.New("user not found", errors.CategoryAuth).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidCredentials collapses unknown-email and wrong-password login
// failures into one indistinguishable outcome.
var ErrInvalidCredentials = errors.New("invalid email or password", errors.CategoryAuth).
	WithTextCode(TextCodeInvalidCredentials).
	WithCode(errors.CodeUnauthorized)

// ErrProviderMismatch is returned when a password operation targets a
// federated-only account.
var ErrProviderMismatch = errors.New("account uses federated sign-in", errors.CategoryAuth).
	WithTextCode(TextCodeProviderMismatch).
	WithCode(errors.CodeBadRequest)

// ErrAssertionInvalid is returned when a federated identity assertion does
// not verify.
var ErrAssertionInvalid = errors.New("identity assertion invalid", errors.CategoryAuth).
	WithTextCode(TextCodeAssertionInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrIdentityCreationFailed is returned when a federated login cannot
// materialize a local credential.
var ErrIdentityCreationFailed = errors.New("identity creation failed", errors.CategoryInternal).
	WithTextCode(TextCodeIdentityCreateFail)

// ErrEmailAlreadyRegistered is returned when registration targets an email
// that already has a credential.
var ErrEmailAlreadyRegistered = errors.New("email already registered", errors.CategoryConflict).
	WithTextCode(TextCodeEmailExists).
	WithCode(errors.CodeConflict)

// ErrCredentialNotFound is the not-found sentinel credential stores return;
// the core never surfaces it directly.
var ErrCredentialNotFound = errors.New("credential not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrIdentityNotFound is the not-found sentinel upstream identity registries
// return from their lookup methods.
var ErrIdentityNotFound = errors.New("upstream identity not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ServiceUnavailable wraps a transient collaborator failure. The cause is
// preserved for logs; callers see a uniform unavailable outcome.
func ServiceUnavailable(err error, msg string) error {
	return errors.Wrap(err, errors.CategoryOperation, msg).
		WithTextCode(TextCodeServiceUnavailable)
}

// FailureCode extracts the taxonomy text code from an error, or "" when the
// error carries none. The codes exist for logging and tests; HTTP responses
// never echo them.
func FailureCode(err error) string {
	if err == nil {
		return ""
	}
	var rich *errors.Error
	if errors.As(err, &rich) {
		return rich.TextCode
	}
	return ""
}

// IsAuthFailure reports whether err is one of the authentication failure
// kinds that must surface to callers as a uniform unauthorized outcome.
func IsAuthFailure(err error) bool {
	switch FailureCode(err) {
	case TextCodeNoCredentials,
		TextCodeBadSignature,
		TextCodeTokenExpired,
		TextCodeWrongTokenType,
		TextCodeMalformedClaims,
		TextCodeTokenRevoked,
		TextCodeSessionInvalidated,
		TextCodeUserNotFound,
		TextCodeInvalidCredentials,
		TextCodeAssertionInvalid:
		return true
	}
	return false
}
