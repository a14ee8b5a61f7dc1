package gateway

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewReverseProxy_Forwards(t *testing.T) {
	var gotPath, gotUser string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUser = r.Header.Get(HeaderUserID)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer upstream.Close()

	proxy, err := NewReverseProxy(upstream.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/api/profile/", nil)
	req.Header.Set(HeaderUserID, "42")
	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Errorf("status = %d, want 202", rec.Code)
	}
	if gotPath != "/api/profile/" {
		t.Errorf("path = %q", gotPath)
	}
	if gotUser != "42" {
		t.Errorf("%s = %q, want 42", HeaderUserID, gotUser)
	}
}

func TestNewReverseProxy_UpstreamDown(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	url := upstream.URL
	upstream.Close()

	proxy, err := NewReverseProxy(url, nil)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	proxy.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if got := detail(t, rec); got != "Upstream unavailable." {
		t.Errorf("detail = %q", got)
	}
}

func TestNewReverseProxy_InvalidTarget(t *testing.T) {
	for _, target := range []string{"", "app:8000", "/relative", "://bad"} {
		if _, err := NewReverseProxy(target, nil); err == nil {
			t.Errorf("NewReverseProxy(%q): expected error", target)
		}
	}
}
