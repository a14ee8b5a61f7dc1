package auth

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
)

// Predicate decides whether claims grant access. Predicates must be pure.
type Predicate func(Claims) bool

// RequireRole grants access iff the role claim equals role exactly.
func RequireRole(role string) Predicate {
	return func(c Claims) bool {
		got, ok := c.Role()
		return ok && got == role
	}
}

// RequireAnyRole grants access iff the role claim is one of roles.
// Matching is exact and case-sensitive.
func RequireAnyRole(roles ...string) Predicate {
	allowed := slices.Clone(roles)
	return func(c Claims) bool {
		got, ok := c.Role()
		return ok && slices.Contains(allowed, got)
	}
}

// All grants access iff every predicate does. With no predicates it grants.
func All(preds ...Predicate) Predicate {
	preds = slices.Clone(preds)
	return func(c Claims) bool {
		for _, p := range preds {
			if !p(c) {
				return false
			}
		}
		return true
	}
}

// Authorize evaluates p against the identity attached to ctx by either
// strategy. A context without an identity is denied.
func Authorize(ctx context.Context, p Predicate) bool {
	id := IdentityFromContext(ctx)
	if id == nil {
		return false
	}
	return p(id.Claims)
}

// Gate rejects requests whose identity does not satisfy a predicate.
type Gate struct {
	predicate Predicate
	logger    *slog.Logger
	metrics   *Metrics
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithGateLogger sets the logger. Defaults to slog.Default().
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) {
		g.logger = logger
	}
}

// WithGateMetrics records decisions to metrics.
func WithGateMetrics(metrics *Metrics) GateOption {
	return func(g *Gate) {
		g.metrics = metrics
	}
}

// NewGate creates a gate for p.
func NewGate(p Predicate, opts ...GateOption) *Gate {
	g := &Gate{predicate: p}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	g.logger = g.logger.With("component", "authz")
	return g
}

// Wrap answers 403 when the predicate denies. Authentication must already
// have run; requests without an identity are denied too.
func (g *Gate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if IsExemptRequest(r.Context()) {
			next.ServeHTTP(w, r)
			return
		}
		allowed := Authorize(r.Context(), g.predicate)
		g.metrics.RecordAuthorization(allowed)
		if !allowed {
			var userID string
			if id := IdentityFromContext(r.Context()); id != nil {
				userID = id.Subject
			}
			g.logger.WarnContext(r.Context(), "permission denied", "user_id", userID, "path", r.URL.Path)
			WriteDetail(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles returns middleware that enforces p with default options.
func RequireRoles(p Predicate) func(http.Handler) http.Handler {
	return NewGate(p).Wrap
}
