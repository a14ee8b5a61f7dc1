// Package gateway assembles the authentication and authorization layer in
// front of an upstream HTTP application.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NavarchProject/authgate/pkg/auth"
	"github.com/NavarchProject/authgate/pkg/clock"
	"github.com/NavarchProject/authgate/pkg/config"
	"github.com/NavarchProject/authgate/pkg/logctx"
)

// Headers set on proxied requests. Inbound copies are always removed so
// callers cannot spoof them.
const (
	HeaderUserID = "X-Auth-User-Id"
	HeaderRole   = "X-Auth-Role"
	HeaderSource = "X-Auth-Source"
)

type options struct {
	logger             *slog.Logger
	registry           *prometheus.Registry
	keySet             auth.KeySet
	authorityTransport http.RoundTripper
	clock              clock.Clock
}

// Option configures a Gateway.
type Option func(*options)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithRegistry registers metrics on reg and serves it on /metrics.
// Defaults to a fresh registry with Go and process collectors.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *options) { o.registry = reg }
}

// WithKeySet supplies keys for asymmetric algorithms instead of fetching
// auth.jwks_url.
func WithKeySet(ks auth.KeySet) Option {
	return func(o *options) { o.keySet = ks }
}

// WithAuthorityTransport sets the base transport for delegated calls.
func WithAuthorityTransport(rt http.RoundTripper) Option {
	return func(o *options) { o.authorityTransport = rt }
}

// WithClock sets the time source for token expiry.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// route is a compiled config.RouteConfig.
type route struct {
	prefix  string
	handler http.Handler
}

// Gateway authenticates and authorizes requests, then hands them to the
// upstream handler.
type Gateway struct {
	handler http.Handler
	codec   *auth.TokenCodec
	metrics *auth.Metrics
	logger  *slog.Logger
	ready   atomic.Bool
}

// New builds a Gateway from cfg. ctx bounds background work such as JWKS
// refresh.
func New(ctx context.Context, cfg *config.Config, upstream http.Handler, opts ...Option) (*Gateway, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.registry == nil {
		o.registry = prometheus.NewRegistry()
		o.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	g := &Gateway{
		metrics: auth.NewMetrics(),
		logger:  o.logger.With("component", "gateway"),
	}
	if err := o.registry.Register(g.metrics); err != nil {
		return nil, fmt.Errorf("register metrics: %w", err)
	}

	codec, err := NewCodec(ctx, cfg.Auth, o.keySet, o.clock)
	if err != nil {
		return nil, err
	}
	g.codec = codec

	local := auth.NewLocalAuthenticator(auth.CredentialExtractor{CookieName: cfg.Auth.CookieName}, codec)
	localMW := auth.NewMiddleware(local,
		auth.WithExemptionFilter(auth.NewExemptionFilter(cfg.Auth.ExemptPaths...)),
		auth.WithLogger(o.logger),
		auth.WithMetrics(g.metrics),
		auth.WithStrategyName(config.StrategyLocal),
	)

	var delegatedMW *auth.Middleware
	if cfg.HasDelegatedRoutes() {
		delegated, err := auth.NewDelegatedAuthenticator(auth.DelegatedConfig{
			BaseURL:   cfg.Authority.BaseURL,
			Timeout:   cfg.Authority.Timeout,
			Transport: o.authorityTransport,
			Logger:    o.logger,
			Metrics:   g.metrics,
		})
		if err != nil {
			return nil, err
		}
		// A bearer header is checked by the authority; a request with only
		// the cookie falls through to local verification.
		delegatedMW = auth.NewMiddleware(auth.NewChainAuthenticator(delegated, local),
			auth.WithLogger(o.logger),
			auth.WithMetrics(g.metrics),
			auth.WithStrategyName(config.StrategyDelegated),
		)
	}

	forward := forwardHandler(upstream)

	routes := make([]route, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		h := forward
		pred, err := routePredicate(rc)
		if err != nil {
			return nil, err
		}
		if pred != nil {
			h = auth.NewGate(pred, auth.WithGateLogger(o.logger), auth.WithGateMetrics(g.metrics)).Wrap(h)
		}
		if rc.Strategy == config.StrategyDelegated {
			h = delegatedMW.Wrap(h)
		} else {
			h = localMW.Wrap(h)
		}
		routes = append(routes, route{prefix: rc.Prefix, handler: h})
	}
	fallback := localMW.Wrap(forward)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", healthzHandler)
	mux.HandleFunc("/readyz", g.readyzHandler)
	mux.Handle("/metrics", promhttp.HandlerFor(o.registry, promhttp.HandlerOpts{}))
	mux.Handle("/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for _, rt := range routes {
			if strings.HasPrefix(r.URL.Path, rt.prefix) {
				rt.handler.ServeHTTP(w, r)
				return
			}
		}
		fallback.ServeHTTP(w, r)
	}))

	g.handler = logctx.Middleware(mux)
	g.ready.Store(true)

	g.logger.Info("gateway configured",
		slog.String("algorithm", codec.Algorithm()),
		slog.Int("routes", len(routes)),
		slog.Int("exempt_paths", len(cfg.Auth.ExemptPaths)),
		slog.Bool("delegated", delegatedMW != nil),
	)
	return g, nil
}

// NewCodec builds the token codec described by cfg. For asymmetric
// algorithms keys come from ks, or from cfg.JWKSURL when ks is nil.
func NewCodec(ctx context.Context, cfg config.AuthConfig, ks auth.KeySet, clk clock.Clock) (*auth.TokenCodec, error) {
	alg := cfg.Algorithm
	if alg == "" {
		alg = auth.DefaultAlgorithm
	}
	codecCfg := auth.CodecConfig{
		Algorithm:     alg,
		Leeway:        cfg.Leeway,
		RequireExpiry: cfg.RequireExp,
		KeySet:        ks,
		Clock:         clk,
	}
	if _, isHMAC := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC); isHMAC {
		codecCfg.Secret = []byte(cfg.Secret.Value())
	} else if ks == nil && cfg.JWKSURL != "" {
		keys, err := auth.NewJWKSKeySet(ctx, cfg.JWKSURL)
		if err != nil {
			return nil, err
		}
		codecCfg.KeySet = keys
	}

	codec, err := auth.NewTokenCodec(codecCfg)
	if err != nil {
		return nil, fmt.Errorf("token codec: %w", err)
	}
	return codec, nil
}

func routePredicate(rc config.RouteConfig) (auth.Predicate, error) {
	var preds []auth.Predicate
	if len(rc.Roles) > 0 {
		preds = append(preds, auth.RequireAnyRole(rc.Roles...))
	}
	if rc.Policy != "" {
		p, err := auth.CompilePolicy(rc.Policy)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rc.Prefix, err)
		}
		preds = append(preds, p)
	}
	if len(preds) == 0 {
		return nil, nil
	}
	return auth.All(preds...), nil
}

// forwardHandler replaces identity headers with the verified identity and
// calls upstream.
func forwardHandler(upstream http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Header.Del(HeaderUserID)
		r.Header.Del(HeaderRole)
		r.Header.Del(HeaderSource)

		if id := auth.IdentityFromContext(r.Context()); id != nil {
			r.Header.Set(HeaderUserID, id.Subject)
			if role, ok := id.Claims.Role(); ok {
				r.Header.Set(HeaderRole, role)
			}
			r.Header.Set(HeaderSource, id.Source.String())
		}
		upstream.ServeHTTP(w, r)
	})
}

// ServeHTTP implements http.Handler.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	g.handler.ServeHTTP(w, r)
}

// Codec returns the token codec built from configuration.
func (g *Gateway) Codec() *auth.TokenCodec {
	return g.codec
}

// SetReady toggles the /readyz response. Serve clears it when draining.
func (g *Gateway) SetReady(ready bool) {
	g.ready.Store(ready)
}

func healthzHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (g *Gateway) readyzHandler(w http.ResponseWriter, r *http.Request) {
	if !g.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("shutting down"))
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ready"))
}
