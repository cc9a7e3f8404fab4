package auth

import (
	"context"
	"net/http"
	"strings"
)

type credentialKey struct{}

// Credential is the bearer token a client attaches to outbound requests. It
// is carried explicitly in the context; a zero Credential means the request
// goes out unauthenticated.
type Credential struct {
	Token string
}

// WithCredential returns a context carrying c. A blank token leaves ctx
// unchanged.
func WithCredential(ctx context.Context, c Credential) context.Context {
	if strings.TrimSpace(c.Token) == "" {
		return ctx
	}
	return context.WithValue(ctx, credentialKey{}, c)
}

// CredentialFromContext returns the credential stored by WithCredential.
func CredentialFromContext(ctx context.Context) (Credential, bool) {
	c, ok := ctx.Value(credentialKey{}).(Credential)
	return c, ok
}

// Authorize sets the Authorization header from the context credential, if any.
func Authorize(req *http.Request) {
	if c, ok := CredentialFromContext(req.Context()); ok {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}
