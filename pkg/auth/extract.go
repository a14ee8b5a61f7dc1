package auth

import "net/http"

// DefaultCookieName is the cookie checked before the Authorization header.
const DefaultCookieName = "access_token"

// CredentialExtractor locates a token on an inbound request.
// The zero value uses DefaultCookieName.
type CredentialExtractor struct {
	CookieName string
}

// Extract returns the candidate token. A non-empty cookie wins; the
// Authorization header is consulted only when no cookie value is present.
// Absence is reported with ok=false and is never an error.
func (e CredentialExtractor) Extract(r *http.Request) (token string, ok bool) {
	name := e.CookieName
	if name == "" {
		name = DefaultCookieName
	}
	if c, err := r.Cookie(name); err == nil && c.Value != "" {
		return c.Value, true
	}
	return BearerFromRequest(r)
}
