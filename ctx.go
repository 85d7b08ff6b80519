package authkit

import "context"

var sessionCtxKey = &contextKey{"session"}
var credentialCtxKey = &contextKey{"credential"}

type contextKey struct {
	name string
}

// WithSession sets the Session in the given context
func WithSession(ctx context.Context, session *Session) context.Context {
	return context.WithValue(ctx, sessionCtxKey, session)
}

// SessionFromContext finds the session from the context.
func SessionFromContext(ctx context.Context) (*Session, bool) {
	raw, ok := ctx.Value(sessionCtxKey).(*Session)
	return raw, ok
}

// WithCredential sets the Credential in the given context
func WithCredential(ctx context.Context, cred *Credential) context.Context {
	return context.WithValue(ctx, credentialCtxKey, cred)
}

// CredentialFromContext finds the credential from the context.
func CredentialFromContext(ctx context.Context) (*Credential, bool) {
	raw, ok := ctx.Value(credentialCtxKey).(*Credential)
	return raw, ok
}
