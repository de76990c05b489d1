package couchdb

import "context"

type credentialsKey struct{}

// Credentials are HTTP Basic credentials for a single operator session.
type Credentials struct {
	Username string
	Password string
}

// ContextWithCredentials overrides the store credentials for calls made with ctx.
// The console uses it to forward per-request operator credentials without storing them.
func ContextWithCredentials(ctx context.Context, c Credentials) context.Context {
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFromContext extracts credentials placed by ContextWithCredentials.
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok
}
