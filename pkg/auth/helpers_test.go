package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/NavarchProject/authgate/pkg/clock"
)

var (
	testSecret = []byte("test-secret-key")
	testNow    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func signHS(t *testing.T, method jwt.SigningMethod, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func validToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	if _, ok := claims["exp"]; !ok {
		claims["exp"] = testNow.Add(time.Hour).Unix()
	}
	return signHS(t, jwt.SigningMethodHS256, testSecret, claims)
}

func newTestCodec(t *testing.T) *TokenCodec {
	t.Helper()
	codec, err := NewTokenCodec(CodecConfig{
		Secret: testSecret,
		Clock:  clock.NewFakeClock(testNow),
	})
	if err != nil {
		t.Fatalf("NewTokenCodec: %v", err)
	}
	return codec
}
