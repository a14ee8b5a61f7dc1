package config

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NavarchProject/authgate/pkg/auth"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
server:
  upstream: http://app:8000
auth:
  secret: file-secret
routes:
  - prefix: /api/admin/
    roles: [admin]
  - prefix: /api/records/
    strategy: delegated
    policy: 'claims.role == "physician"'
authority:
  base_url: http://auth:8000/api
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("expected default address :8080, got %s", cfg.Server.Address)
	}
	if cfg.Auth.Algorithm != "HS256" {
		t.Errorf("expected default algorithm HS256, got %s", cfg.Auth.Algorithm)
	}
	if cfg.Auth.CookieName != "access_token" {
		t.Errorf("expected default cookie access_token, got %s", cfg.Auth.CookieName)
	}
	if len(cfg.Auth.ExemptPaths) != len(auth.DefaultExemptPaths) {
		t.Errorf("expected default exempt paths, got %v", cfg.Auth.ExemptPaths)
	}
	if cfg.Authority.Timeout != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %s", cfg.Authority.Timeout)
	}
	if len(cfg.Routes) != 2 {
		t.Fatalf("expected 2 routes, got %d", len(cfg.Routes))
	}
	if cfg.Routes[0].Strategy != StrategyLocal {
		t.Errorf("expected default strategy local, got %s", cfg.Routes[0].Strategy)
	}
	if !cfg.HasDelegatedRoutes() {
		t.Error("expected HasDelegatedRoutes() = true")
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
auth:
  secret: file-secret
  algorithm: HS256
authority:
  timeout: 2s
`)
	t.Setenv("JWT_ACCESS_SECRET", "env-secret")
	t.Setenv("JWT_ALGORITHM", "HS512")
	t.Setenv("AUTH_API_URL", "http://authority")
	t.Setenv("AUTHGATE_LEEWAY", "15s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.Secret.Value() != "env-secret" {
		t.Errorf("expected env secret to win")
	}
	if cfg.Auth.Algorithm != "HS512" {
		t.Errorf("expected HS512, got %s", cfg.Auth.Algorithm)
	}
	if cfg.Authority.BaseURL != "http://authority" {
		t.Errorf("expected base URL from env, got %s", cfg.Authority.BaseURL)
	}
	if cfg.Authority.Timeout != 2*time.Second {
		t.Errorf("file timeout should survive when env unset, got %s", cfg.Authority.Timeout)
	}
	if cfg.Auth.Leeway != 15*time.Second {
		t.Errorf("expected leeway 15s, got %s", cfg.Auth.Leeway)
	}
}

func TestLoad_EnvOnly(t *testing.T) {
	t.Setenv("JWT_ACCESS_SECRET", "env-secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Auth.Secret.Value() != "env-secret" {
		t.Error("expected secret from env")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("auth: [unterminated")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "missing secret",
			yaml:    `auth: {algorithm: HS256}`,
			wantErr: "auth.secret is required",
		},
		{
			name:    "none algorithm",
			yaml:    `auth: {secret: s, algorithm: none}`,
			wantErr: "not supported",
		},
		{
			name:    "unknown algorithm",
			yaml:    `auth: {secret: s, algorithm: HS1}`,
			wantErr: "not supported",
		},
		{
			name:    "asymmetric without jwks",
			yaml:    `auth: {algorithm: RS256}`,
			wantErr: "auth.jwks_url is required",
		},
		{
			name: "delegated without authority",
			yaml: `
auth: {secret: s}
routes:
  - prefix: /api/records/
    strategy: delegated
`,
			wantErr: "authority.base_url is required",
		},
		{
			name: "unknown strategy",
			yaml: `
auth: {secret: s}
routes:
  - prefix: /api/
    strategy: oauth
`,
			wantErr: "unknown strategy",
		},
		{
			name: "relative prefix",
			yaml: `
auth: {secret: s}
routes:
  - prefix: api/
`,
			wantErr: "prefix must start with /",
		},
		{
			name: "duplicate prefix",
			yaml: `
auth: {secret: s}
routes:
  - prefix: /api/
  - prefix: /api/
`,
			wantErr: "duplicate prefix",
		},
		{
			name:    "bad log level",
			yaml:    "auth: {secret: s}\nlog: {level: verbose}",
			wantErr: "log.level",
		},
		{
			name:    "negative leeway",
			yaml:    "auth: {secret: s, leeway: -1s}",
			wantErr: "auth.leeway",
		},
		{
			name: "asymmetric with jwks",
			yaml: `auth: {algorithm: RS256, jwks_url: "https://issuer/keys"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error %q does not contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_ExplicitEmptyExemptList(t *testing.T) {
	cfg, err := Parse([]byte("auth: {secret: s, exempt_paths: []}"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Auth.ExemptPaths) != 0 {
		t.Errorf("explicit empty list should disable exemptions, got %v", cfg.Auth.ExemptPaths)
	}
}

func TestSecret_Redacted(t *testing.T) {
	s := Secret("super-secret")

	if got := fmt.Sprintf("%v %s %#v", s, s, s); strings.Contains(got, "super-secret") {
		t.Errorf("formatted secret leaked: %q", got)
	}

	var buf bytes.Buffer
	slog.New(slog.NewJSONHandler(&buf, nil)).Info("cfg", "secret", s)
	if strings.Contains(buf.String(), "super-secret") {
		t.Errorf("logged secret leaked: %q", buf.String())
	}

	out, err := yaml.Marshal(AuthConfig{Secret: s})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(out), "super-secret") {
		t.Errorf("marshalled secret leaked: %q", out)
	}

	if s.Value() != "super-secret" {
		t.Error("Value() should return the raw secret")
	}
	if Secret("").String() != "" {
		t.Error("empty secret should print empty")
	}
}
