package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"

	"github.com/NavarchProject/authgate/pkg/clock"
)

// DefaultAlgorithm is used when CodecConfig.Algorithm is empty.
const DefaultAlgorithm = "HS256"

// KeySet resolves verification keys for asymmetric algorithms.
// keyfunc.Keyfunc satisfies it.
type KeySet interface {
	Keyfunc(token *jwt.Token) (any, error)
}

// NewJWKSKeySet returns a KeySet backed by a remote JWKS document. Keys are
// refreshed in the background until ctx is cancelled.
func NewJWKSKeySet(ctx context.Context, url string) (KeySet, error) {
	kf, err := keyfunc.NewDefaultCtx(ctx, []string{url})
	if err != nil {
		return nil, fmt.Errorf("jwks init failed: %w", err)
	}
	return kf, nil
}

// CodecConfig configures a TokenCodec.
type CodecConfig struct {
	// Secret is the shared key for HMAC algorithms. Never logged.
	Secret []byte

	// Algorithm is the single accepted alg header value. Defaults to HS256.
	Algorithm string

	// Leeway tolerates clock skew when checking exp and nbf.
	Leeway time.Duration

	// RequireExpiry rejects tokens without an exp claim.
	RequireExpiry bool

	// KeySet supplies public keys for RSA, ECDSA and EdDSA algorithms.
	KeySet KeySet

	// Clock is the time source for expiry checks. Defaults to clock.Real().
	Clock clock.Clock
}

// TokenCodec verifies signed tokens. It is immutable after construction and
// safe for concurrent use.
type TokenCodec struct {
	alg    string
	secret []byte
	keys   KeySet
	parser *jwt.Parser
}

// NewTokenCodec validates cfg and builds a codec.
func NewTokenCodec(cfg CodecConfig) (*TokenCodec, error) {
	alg := cfg.Algorithm
	if alg == "" {
		alg = DefaultAlgorithm
	}
	method := jwt.GetSigningMethod(alg)
	if method == nil || method == jwt.SigningMethodNone {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, alg)
	}

	c := &TokenCodec{alg: alg, keys: cfg.KeySet}
	if _, isHMAC := method.(*jwt.SigningMethodHMAC); isHMAC {
		if len(cfg.Secret) == 0 {
			return nil, errors.New("secret is required for HMAC algorithms")
		}
		c.secret = make([]byte, len(cfg.Secret))
		copy(c.secret, cfg.Secret)
	} else if cfg.KeySet == nil {
		return nil, fmt.Errorf("key set is required for algorithm %s", alg)
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	opts := []jwt.ParserOption{
		jwt.WithTimeFunc(clk.Now),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.RequireExpiry {
		opts = append(opts, jwt.WithExpirationRequired())
	}
	c.parser = jwt.NewParser(opts...)
	return c, nil
}

// Algorithm returns the accepted algorithm.
func (c *TokenCodec) Algorithm() string {
	return c.alg
}

// Verify decodes token, checks its signature and expiry, and returns its
// claims. Every failure is a *VerificationError.
func (c *TokenCodec) Verify(token string) (Claims, error) {
	if token == "" {
		return nil, &VerificationError{Kind: KindInvalid, Err: errors.New("empty token")}
	}

	claims := jwt.MapClaims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, c.keyfunc)
	if err != nil {
		return nil, c.classify(parsed, err)
	}
	if !parsed.Valid {
		return nil, &VerificationError{Kind: KindInvalid}
	}
	return Claims(claims), nil
}

func (c *TokenCodec) keyfunc(t *jwt.Token) (any, error) {
	if alg := t.Method.Alg(); alg != c.alg {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
	if c.secret != nil {
		return c.secret, nil
	}
	return c.keys.Keyfunc(t)
}

func (c *TokenCodec) classify(parsed *jwt.Token, err error) *VerificationError {
	switch {
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return &VerificationError{Kind: KindUnsupported, Err: err}
	case errors.Is(err, jwt.ErrTokenExpired):
		return &VerificationError{Kind: KindExpired, Err: err}
	case errors.Is(err, jwt.ErrTokenUnverifiable) && parsed != nil:
		// The library has no implementation for the header's alg.
		if alg, _ := parsed.Header["alg"].(string); alg != "" && alg != c.alg {
			return &VerificationError{Kind: KindUnsupported, Err: err}
		}
	}
	return &VerificationError{Kind: KindInvalid, Err: err}
}
