package auth

import (
	"net/http"
	"strings"
)

const bearerPrefix = "Bearer "

// BearerToken returns the token carried by an "Authorization: Bearer <token>"
// header value. A value with any other scheme, or an empty token, reports
// ok=false: that is absence, not a malformed request.
func BearerToken(header string) (token string, ok bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	token = strings.TrimSpace(header[len(bearerPrefix):])
	if token == "" {
		return "", false
	}
	return token, true
}

// BearerFromRequest reads the bearer token from r's Authorization header.
// Header lookup is case-insensitive.
func BearerFromRequest(r *http.Request) (string, bool) {
	return BearerToken(r.Header.Get("Authorization"))
}
