package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

// Rejection describes how a failed authentication is answered and logged.
// It is produced by Decide and carries no side effects.
type Rejection struct {
	Status    int
	Detail    string
	Challenge string
	Level     slog.Level
	Reason    string
	Outcome   string
}

const challenge = `Bearer realm="authgate"`

// Decide maps an authentication error to a Rejection. A nil error or
// ErrNoCredential means no credential was presented.
func Decide(err error) Rejection {
	var authErr *AuthenticationError
	switch {
	case err == nil || errors.Is(err, ErrNoCredential):
		return Rejection{
			Status:    http.StatusUnauthorized,
			Detail:    "Authentication required.",
			Challenge: challenge,
			Level:     slog.LevelWarn,
			Reason:    "authentication required",
			Outcome:   OutcomeMissing,
		}
	case errors.As(err, &authErr):
		return Rejection{
			Status:    http.StatusUnauthorized,
			Detail:    authErr.Detail(),
			Challenge: challenge + `, error="invalid_token"`,
			Level:     slog.LevelWarn,
			Reason:    "delegated authentication failed",
			Outcome:   OutcomeRejected,
		}
	case errors.Is(err, ErrTokenExpired):
		return Rejection{
			Status:    http.StatusUnauthorized,
			Detail:    "Token expired.",
			Challenge: challenge + `, error="invalid_token"`,
			Level:     slog.LevelInfo,
			Reason:    "token expired",
			Outcome:   OutcomeExpired,
		}
	}

	outcome := OutcomeInvalid
	if errors.Is(err, ErrUnsupportedAlgorithm) {
		outcome = OutcomeUnsupported
	}
	return Rejection{
		Status:    http.StatusUnauthorized,
		Detail:    "Invalid token.",
		Challenge: challenge + `, error="invalid_token"`,
		Level:     slog.LevelWarn,
		Reason:    "invalid token",
		Outcome:   outcome,
	}
}

// Middleware enforces an Authenticator in front of an http.Handler.
type Middleware struct {
	authenticator       Authenticator
	exempt              *ExemptionFilter
	requireAuth         bool
	unauthorizedHandler func(w http.ResponseWriter, r *http.Request, err error)
	logger              *slog.Logger
	metrics             *Metrics
	strategy            string
}

// MiddlewareOption configures a Middleware.
type MiddlewareOption func(*Middleware)

// WithRequireAuth controls whether requests without credentials are rejected.
// Defaults to true.
func WithRequireAuth(require bool) MiddlewareOption {
	return func(m *Middleware) {
		m.requireAuth = require
	}
}

// WithExcludedPaths exempts requests whose path starts with any of prefixes.
func WithExcludedPaths(prefixes ...string) MiddlewareOption {
	return func(m *Middleware) {
		m.exempt = NewExemptionFilter(append(m.exempt.Prefixes(), prefixes...)...)
	}
}

// WithExemptionFilter replaces the exemption filter.
func WithExemptionFilter(f *ExemptionFilter) MiddlewareOption {
	return func(m *Middleware) {
		m.exempt = f
	}
}

// WithUnauthorizedHandler overrides the default JSON 401 response.
// The rejection is still logged and counted before the handler runs.
func WithUnauthorizedHandler(h func(w http.ResponseWriter, r *http.Request, err error)) MiddlewareOption {
	return func(m *Middleware) {
		m.unauthorizedHandler = h
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) MiddlewareOption {
	return func(m *Middleware) {
		m.logger = logger
	}
}

// WithMetrics records outcomes to metrics.
func WithMetrics(metrics *Metrics) MiddlewareOption {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

// WithStrategyName overrides the strategy label used in logs and metrics.
func WithStrategyName(name string) MiddlewareOption {
	return func(m *Middleware) {
		m.strategy = name
	}
}

// NewMiddleware creates a middleware that authenticates every non-exempt
// request with authenticator.
func NewMiddleware(authenticator Authenticator, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		authenticator: authenticator,
		requireAuth:   true,
		strategy:      strategyName(authenticator),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	m.logger = m.logger.With("component", "auth", "strategy", m.strategy)
	return m
}

func strategyName(a Authenticator) string {
	switch v := a.(type) {
	case AuthenticatorDescriptor:
		return v.Method()
	case *ChainAuthenticator:
		if methods := v.Methods(); len(methods) > 0 {
			return strings.Join(methods, ",")
		}
	}
	return "custom"
}

// Wrap wraps an http.Handler with authentication.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.exempt.IsExempt(r.URL.Path) {
			m.metrics.RecordAuthentication(m.strategy, OutcomeExempt)
			next.ServeHTTP(w, r.WithContext(ContextWithExempt(r.Context())))
			return
		}

		id, ok, err := m.authenticator.AuthenticateRequest(r)
		if err != nil {
			m.reject(w, r, err)
			return
		}
		if !ok {
			if m.requireAuth {
				m.reject(w, r, ErrNoCredential)
				return
			}
			m.metrics.RecordAuthentication(m.strategy, OutcomeAnonymous)
			next.ServeHTTP(w, r)
			return
		}

		m.logger.DebugContext(r.Context(), "authenticated request",
			"user_id", id.Subject,
			"source", id.Source.String(),
			"path", r.URL.Path,
		)
		m.metrics.RecordAuthentication(m.strategy, OutcomeAuthenticated)
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), id)))
	})
}

func (m *Middleware) reject(w http.ResponseWriter, r *http.Request, err error) {
	rej := Decide(err)

	attrs := []any{"path", r.URL.Path}
	if !errors.Is(err, ErrNoCredential) {
		attrs = append(attrs, "error", err)
	}
	m.logger.Log(r.Context(), rej.Level, rej.Reason, attrs...)
	m.metrics.RecordAuthentication(m.strategy, rej.Outcome)

	if m.unauthorizedHandler != nil {
		m.unauthorizedHandler(w, r, err)
		return
	}
	w.Header().Set("WWW-Authenticate", rej.Challenge)
	WriteDetail(w, rej.Status, rej.Detail)
}

// WriteDetail writes a {"detail": ...} JSON response.
func WriteDetail(w http.ResponseWriter, status int, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": detail})
}
