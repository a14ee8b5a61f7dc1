// Package auth provides request authentication and role authorization for the
// authgate gateway.
//
// Two strategies produce the same Identity value: the local strategy verifies
// a signed token in-process, and the delegated strategy asks a remote
// authority to vouch for the bearer token. Both plug into the Authenticator
// interface, so they compose through ChainAuthenticator and are enforced by
// Middleware. Role predicates read the attached Identity regardless of which
// strategy produced it.
package auth

import (
	"context"
	"net/http"
	"strconv"
)

// Claims is the identity payload attached to a request. Local verification
// produces it from the token payload; delegated verification uses the
// authority's response body verbatim.
type Claims map[string]any

// UserID returns the "user_id" claim formatted as a string, falling back to
// the standard "sub" claim. Returns "" when neither is present.
func (c Claims) UserID() string {
	for _, key := range []string{"user_id", "sub"} {
		switch v := c[key].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case int:
			return strconv.Itoa(v)
		case int64:
			return strconv.FormatInt(v, 10)
		}
	}
	return ""
}

// Role returns the "role" claim. ok is false when the claim is absent or is
// not a string.
func (c Claims) Role() (role string, ok bool) {
	role, ok = c["role"].(string)
	return role, ok
}

// Source identifies which strategy authenticated a request.
type Source int

const (
	// SourceLocal means the token signature was verified in-process.
	SourceLocal Source = iota + 1
	// SourceDelegated means a remote authority vouched for the token.
	SourceDelegated
)

func (s Source) String() string {
	switch s {
	case SourceLocal:
		return "local"
	case SourceDelegated:
		return "delegated"
	default:
		return "unknown"
	}
}

// Identity represents an authenticated caller.
// This is populated by authenticators after successful authentication.
type Identity struct {
	// Subject is the primary identifier, taken from the user_id claim
	// (or sub when user_id is absent).
	Subject string

	// Source records which strategy produced this identity.
	Source Source

	// Claims holds the verified claims. Treat as read-only.
	Claims Claims

	// Token is the raw credential the identity was derived from. It is kept
	// so outbound calls can propagate it and must never be logged.
	Token string
}

// Authenticator authenticates HTTP requests.
// Implementations should be safe for concurrent use.
type Authenticator interface {
	// AuthenticateRequest attempts to authenticate the given request.
	//
	// Returns:
	//   - (*Identity, true, nil): Authentication succeeded
	//   - (nil, false, nil): Authentication not attempted (no credentials present)
	//   - (nil, false, error): Authentication failed (credentials rejected)
	//
	// Implementations MUST:
	//   - Not log or expose credential material
	//   - Be safe for concurrent use
	AuthenticateRequest(r *http.Request) (*Identity, bool, error)
}

// AuthenticatorFunc is an adapter to allow plain functions to be used as Authenticators.
type AuthenticatorFunc func(r *http.Request) (*Identity, bool, error)

// AuthenticateRequest implements Authenticator.
func (f AuthenticatorFunc) AuthenticateRequest(r *http.Request) (*Identity, bool, error) {
	return f(r)
}

// AuthenticatorDescriptor is implemented by authenticators that can name
// their method for logs and metrics.
type AuthenticatorDescriptor interface {
	Method() string
}

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	localIdentityKey contextKey = iota
	delegatedIdentityKey
	exemptKey
)

// ContextWithIdentity returns a new context with the given Identity attached.
// Local and delegated identities are stored under distinct keys so consumers
// can tell which strategy populated the request.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	if id.Source == SourceDelegated {
		return context.WithValue(ctx, delegatedIdentityKey, id)
	}
	return context.WithValue(ctx, localIdentityKey, id)
}

// IdentityFromContext retrieves the authenticated Identity from the context,
// preferring a locally verified one. Returns nil if no identity is present.
func IdentityFromContext(ctx context.Context) *Identity {
	if id := LocalIdentityFromContext(ctx); id != nil {
		return id
	}
	return DelegatedIdentityFromContext(ctx)
}

// LocalIdentityFromContext returns the identity attached by the local strategy.
func LocalIdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(localIdentityKey).(*Identity)
	return id
}

// DelegatedIdentityFromContext returns the identity attached by the delegated strategy.
func DelegatedIdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(delegatedIdentityKey).(*Identity)
	return id
}

// ContextWithExempt marks the request as exempt from authentication.
func ContextWithExempt(ctx context.Context) context.Context {
	return context.WithValue(ctx, exemptKey, true)
}

// IsExemptRequest reports whether the middleware let the request through on an
// exempt path. Gates pass such requests through untouched.
func IsExemptRequest(ctx context.Context) bool {
	v, _ := ctx.Value(exemptKey).(bool)
	return v
}
