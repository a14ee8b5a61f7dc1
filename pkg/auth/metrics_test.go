package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordAuthentication("local-jwt", OutcomeAuthenticated)
	m.RecordAuthorization(true)
	m.ObserveAuthority("ok", time.Second)
}

func TestMetrics_MiddlewareOutcomes(t *testing.T) {
	metrics := NewMetrics()
	registry := prometheus.NewRegistry()
	registry.MustRegister(metrics)

	middleware := newLocalMiddleware(t, WithMetrics(metrics))
	handler := middleware.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	requests := []*http.Request{
		httptest.NewRequest("GET", "/api/login/", nil),
		httptest.NewRequest("GET", "/api/profile/", nil),
	}
	ok := httptest.NewRequest("GET", "/api/profile/", nil)
	ok.Header.Set("Authorization", "Bearer "+validToken(t, jwt.MapClaims{"user_id": 1}))
	expired := httptest.NewRequest("GET", "/api/profile/", nil)
	expired.Header.Set("Authorization", "Bearer "+validToken(t, jwt.MapClaims{"exp": testNow.Add(-time.Hour).Unix()}))
	requests = append(requests, ok, expired)

	for _, req := range requests {
		handler.ServeHTTP(httptest.NewRecorder(), req)
	}

	for outcome, want := range map[string]float64{
		OutcomeExempt:        1,
		OutcomeMissing:       1,
		OutcomeAuthenticated: 1,
		OutcomeExpired:       1,
	} {
		got := testutil.ToFloat64(metrics.authentications.WithLabelValues("local-jwt", outcome))
		if got != want {
			t.Errorf("%s = %v, want %v", outcome, got, want)
		}
	}

	count, err := testutil.GatherAndCount(registry, "authgate_authentications_total")
	if err != nil {
		t.Fatalf("Failed to gather metrics: %v", err)
	}
	if count != 4 {
		t.Errorf("Expected 4 series, got %d", count)
	}
}
