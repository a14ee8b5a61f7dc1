package auth

import "net/http"

// Verifier checks a raw token and returns its claims.
// *TokenCodec implements it.
type Verifier interface {
	Verify(token string) (Claims, error)
}

// LocalAuthenticator verifies tokens in-process, with no database or network
// round trip.
type LocalAuthenticator struct {
	extractor CredentialExtractor
	verifier  Verifier
}

// NewLocalAuthenticator creates a local authenticator.
func NewLocalAuthenticator(extractor CredentialExtractor, verifier Verifier) *LocalAuthenticator {
	return &LocalAuthenticator{extractor: extractor, verifier: verifier}
}

// AuthenticateRequest implements Authenticator.
func (a *LocalAuthenticator) AuthenticateRequest(r *http.Request) (*Identity, bool, error) {
	token, ok := a.extractor.Extract(r)
	if !ok {
		return nil, false, nil
	}

	claims, err := a.verifier.Verify(token)
	if err != nil {
		return nil, false, err
	}

	return &Identity{
		Subject: claims.UserID(),
		Source:  SourceLocal,
		Claims:  claims,
		Token:   token,
	}, true, nil
}

// Method implements AuthenticatorDescriptor.
func (a *LocalAuthenticator) Method() string {
	return "local-jwt"
}
