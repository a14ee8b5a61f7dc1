package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// DefaultAuthorityTimeout bounds a single call to the authority.
const DefaultAuthorityTimeout = 5 * time.Second

// maxAuthorityBody caps how much of the authority's response is read.
const maxAuthorityBody = 1 << 20

// DelegatedConfig configures a DelegatedAuthenticator.
type DelegatedConfig struct {
	// BaseURL is the authority's base URL; identity is fetched from BaseURL + "/me/".
	BaseURL string

	// Timeout bounds each authority call. Defaults to DefaultAuthorityTimeout.
	Timeout time.Duration

	// Transport is the base round tripper. Defaults to http.DefaultTransport.
	Transport http.RoundTripper

	Logger  *slog.Logger
	Metrics *Metrics
}

// DelegatedAuthenticator asks a remote authority to vouch for the bearer
// token. It performs exactly one call per request and never retries.
type DelegatedAuthenticator struct {
	endpoint  string
	timeout   time.Duration
	transport http.RoundTripper
	logger    *slog.Logger
	metrics   *Metrics
}

// NewDelegatedAuthenticator creates a delegated authenticator.
func NewDelegatedAuthenticator(cfg DelegatedConfig) (*DelegatedAuthenticator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("authority base URL is required")
	}
	a := &DelegatedAuthenticator{
		endpoint:  strings.TrimRight(cfg.BaseURL, "/") + "/me/",
		timeout:   cfg.Timeout,
		transport: cfg.Transport,
		logger:    cfg.Logger,
		metrics:   cfg.Metrics,
	}
	if a.timeout <= 0 {
		a.timeout = DefaultAuthorityTimeout
	}
	if a.transport == nil {
		a.transport = http.DefaultTransport
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	a.logger = a.logger.With("component", "delegated-auth")
	return a, nil
}

// Endpoint returns the identity URL the authenticator calls.
func (a *DelegatedAuthenticator) Endpoint() string {
	return a.endpoint
}

// AuthenticateRequest implements Authenticator. Only the Authorization
// header is consulted; a missing or non-Bearer header is absence so another
// authenticator in a chain may try.
func (a *DelegatedAuthenticator) AuthenticateRequest(r *http.Request) (*Identity, bool, error) {
	token, ok := BearerFromRequest(r)
	if !ok {
		return nil, false, nil
	}

	claims, err := a.fetchClaims(r.Context(), token)
	if err != nil {
		return nil, false, &AuthenticationError{Err: err}
	}

	return &Identity{
		Subject: claims.UserID(),
		Source:  SourceDelegated,
		Claims:  claims,
		Token:   token,
	}, true, nil
}

func (a *DelegatedAuthenticator) fetchClaims(ctx context.Context, token string) (claims Claims, err error) {
	start := time.Now()
	result := "ok"
	defer func() {
		a.metrics.ObserveAuthority(result, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.endpoint, nil)
	if err != nil {
		result = "unreachable"
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	req.Header.Set("Accept", "application/json")

	client := &http.Client{
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}),
			Base:   a.transport,
		},
		// oauth2.Transport sets the bearer header on every hop, so a redirect
		// would hand the caller's token to whatever host it names.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	resp, err := client.Do(req)
	if err != nil {
		result = "unreachable"
		return nil, fmt.Errorf("%w: %v", ErrRemoteUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		result = "rejected"
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxAuthorityBody))
		a.logger.DebugContext(ctx, "authority rejected token", "status", resp.StatusCode)
		return nil, fmt.Errorf("%w: status %d", ErrRemoteRejected, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxAuthorityBody)).Decode(&claims); err != nil {
		result = "malformed"
		if ctx.Err() != nil {
			result = "unreachable"
			return nil, fmt.Errorf("%w: %v", ErrRemoteUnreachable, ctx.Err())
		}
		return nil, fmt.Errorf("%w: %v", ErrRemoteMalformed, err)
	}
	if claims == nil {
		result = "malformed"
		return nil, fmt.Errorf("%w: body is not an object", ErrRemoteMalformed)
	}
	return claims, nil
}

// Method implements AuthenticatorDescriptor.
func (a *DelegatedAuthenticator) Method() string {
	return "delegated"
}
