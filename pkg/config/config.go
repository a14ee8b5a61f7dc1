// Package config loads the gateway configuration from YAML and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/joeshaw/envdecode"
	"gopkg.in/yaml.v3"

	"github.com/NavarchProject/authgate/pkg/auth"
)

// Route strategies.
const (
	StrategyLocal     = "local"
	StrategyDelegated = "delegated"
)

// Config is the root configuration for authgate.
type Config struct {
	Server    ServerConfig    `yaml:"server,omitempty"`
	Auth      AuthConfig      `yaml:"auth,omitempty"`
	Authority AuthorityConfig `yaml:"authority,omitempty"`
	Routes    []RouteConfig   `yaml:"routes,omitempty"`
	Log       LogConfig       `yaml:"log,omitempty"`
}

// ServerConfig configures the gateway listener.
type ServerConfig struct {
	Address         string        `yaml:"address,omitempty" env:"AUTHGATE_ADDRESS"` // Default: ":8080"
	Upstream        string        `yaml:"upstream,omitempty" env:"AUTHGATE_UPSTREAM"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout,omitempty"` // Default: 30s
}

// AuthConfig configures local token verification.
type AuthConfig struct {
	Secret      Secret        `yaml:"secret,omitempty" env:"JWT_ACCESS_SECRET"`
	Algorithm   string        `yaml:"algorithm,omitempty" env:"JWT_ALGORITHM"` // Default: HS256
	CookieName  string        `yaml:"cookie_name,omitempty" env:"AUTHGATE_COOKIE_NAME"`
	ExemptPaths []string      `yaml:"exempt_paths,omitempty"`
	Leeway      time.Duration `yaml:"leeway,omitempty" env:"AUTHGATE_LEEWAY"`
	RequireExp  bool          `yaml:"require_exp,omitempty"`
	JWKSURL     string        `yaml:"jwks_url,omitempty" env:"AUTHGATE_JWKS_URL"` // Required for asymmetric algorithms
}

// AuthorityConfig configures the remote authority used by delegated routes.
type AuthorityConfig struct {
	BaseURL string        `yaml:"base_url,omitempty" env:"AUTH_API_URL"`
	Timeout time.Duration `yaml:"timeout,omitempty" env:"AUTH_API_TIMEOUT"` // Default: 5s
}

// RouteConfig binds a path prefix to a strategy and an optional role or
// policy requirement.
type RouteConfig struct {
	Prefix   string   `yaml:"prefix"`
	Strategy string   `yaml:"strategy,omitempty"` // local (default) or delegated
	Roles    []string `yaml:"roles,omitempty"`    // any of
	Policy   string   `yaml:"policy,omitempty"`   // CEL expression over claims
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level,omitempty" env:"AUTHGATE_LOG_LEVEL"` // debug, info, warn, error
}

// Load reads configuration from a YAML file, overlays environment variables,
// applies defaults and validates. An empty path loads from the environment
// alone.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	return finish(cfg)
}

// Parse parses configuration from YAML bytes without consulting the
// environment.
func Parse(data []byte) (*Config, error) {
	cfg, err := decode(data)
	if err != nil {
		return nil, err
	}
	return finish(cfg)
}

func decode(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

func finish(cfg *Config) (*Config, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto c. Unset variables leave the
// file values in place.
func (c *Config) ApplyEnv() error {
	if err := envdecode.Decode(c); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("reading environment: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 30 * time.Second
	}
	if c.Auth.Algorithm == "" {
		c.Auth.Algorithm = auth.DefaultAlgorithm
	}
	if c.Auth.CookieName == "" {
		c.Auth.CookieName = auth.DefaultCookieName
	}
	if c.Auth.ExemptPaths == nil {
		c.Auth.ExemptPaths = append([]string(nil), auth.DefaultExemptPaths...)
	}
	if c.Authority.Timeout == 0 {
		c.Authority.Timeout = auth.DefaultAuthorityTimeout
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	for i := range c.Routes {
		if c.Routes[i].Strategy == "" {
			c.Routes[i].Strategy = StrategyLocal
		}
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	method := jwt.GetSigningMethod(c.Auth.Algorithm)
	if method == nil || method == jwt.SigningMethodNone {
		return fmt.Errorf("auth.algorithm %q is not supported", c.Auth.Algorithm)
	}
	if _, isHMAC := method.(*jwt.SigningMethodHMAC); isHMAC {
		if c.Auth.Secret == "" {
			return fmt.Errorf("auth.secret is required for %s", c.Auth.Algorithm)
		}
	} else if c.Auth.JWKSURL == "" {
		return fmt.Errorf("auth.jwks_url is required for %s", c.Auth.Algorithm)
	}
	if c.Auth.Leeway < 0 {
		return fmt.Errorf("auth.leeway must be >= 0")
	}
	if c.Authority.Timeout <= 0 {
		return fmt.Errorf("authority.timeout must be > 0")
	}

	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q must be one of debug, info, warn, error", c.Log.Level)
	}

	seen := make(map[string]bool)
	for i, r := range c.Routes {
		if r.Prefix == "" || !strings.HasPrefix(r.Prefix, "/") {
			return fmt.Errorf("routes[%d]: prefix must start with /", i)
		}
		if seen[r.Prefix] {
			return fmt.Errorf("routes[%d]: duplicate prefix %q", i, r.Prefix)
		}
		seen[r.Prefix] = true

		switch r.Strategy {
		case StrategyLocal:
		case StrategyDelegated:
			if c.Authority.BaseURL == "" {
				return fmt.Errorf("routes[%d]: authority.base_url is required for delegated routes", i)
			}
		default:
			return fmt.Errorf("routes[%d]: unknown strategy %q", i, r.Strategy)
		}
	}

	return nil
}

// HasDelegatedRoutes reports whether any route uses the delegated strategy.
func (c *Config) HasDelegatedRoutes() bool {
	for _, r := range c.Routes {
		if r.Strategy == StrategyDelegated {
			return true
		}
	}
	return false
}
