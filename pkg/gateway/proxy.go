package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"

	"github.com/NavarchProject/authgate/pkg/auth"
)

// NewReverseProxy returns a handler that forwards requests to target.
// Upstream failures are answered with 502 and a JSON detail body.
func NewReverseProxy(target string, logger *slog.Logger) (http.Handler, error) {
	u, err := url.Parse(target)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("upstream %q must be an absolute URL", target)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "proxy")

	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			pr.SetURL(u)
			pr.SetXForwarded()
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			logger.ErrorContext(r.Context(), "upstream request failed", slog.String("error", err.Error()))
			auth.WriteDetail(w, http.StatusBadGateway, "Upstream unavailable.")
		},
	}, nil
}
