package auth

import (
	"context"
	"net/http"
	"testing"
)

func TestIdentityFromContext_NoIdentity(t *testing.T) {
	ctx := context.Background()
	id := IdentityFromContext(ctx)
	if id != nil {
		t.Errorf("Expected nil identity, got %+v", id)
	}
}

func TestIdentityFromContext_WithIdentity(t *testing.T) {
	ctx := context.Background()
	expected := &Identity{
		Subject: "7",
		Source:  SourceLocal,
		Claims:  Claims{"user_id": float64(7), "role": "admin"},
	}

	ctx = ContextWithIdentity(ctx, expected)
	got := IdentityFromContext(ctx)

	if got == nil {
		t.Fatal("Expected identity, got nil")
	}
	if got.Subject != expected.Subject {
		t.Errorf("Subject: expected %q, got %q", expected.Subject, got.Subject)
	}
	if LocalIdentityFromContext(ctx) != expected {
		t.Error("Expected identity under the local attribute")
	}
	if DelegatedIdentityFromContext(ctx) != nil {
		t.Error("Delegated attribute should be empty")
	}
}

func TestContextWithIdentity_DistinctAttributes(t *testing.T) {
	local := &Identity{Subject: "local", Source: SourceLocal}
	delegated := &Identity{Subject: "remote", Source: SourceDelegated}

	ctx := ContextWithIdentity(context.Background(), delegated)
	if got := IdentityFromContext(ctx); got != delegated {
		t.Errorf("IdentityFromContext = %+v, want delegated", got)
	}

	ctx = ContextWithIdentity(ctx, local)
	if got := IdentityFromContext(ctx); got != local {
		t.Errorf("IdentityFromContext = %+v, want local preferred", got)
	}
	if got := DelegatedIdentityFromContext(ctx); got != delegated {
		t.Errorf("DelegatedIdentityFromContext = %+v, want delegated", got)
	}
}

func TestContextWithIdentity_Nil(t *testing.T) {
	ctx := context.Background()
	if ContextWithIdentity(ctx, nil) != ctx {
		t.Error("attaching a nil identity should return ctx unchanged")
	}
}

func TestClaims_UserID(t *testing.T) {
	tests := []struct {
		name   string
		claims Claims
		want   string
	}{
		{"float user_id", Claims{"user_id": float64(7)}, "7"},
		{"string user_id", Claims{"user_id": "u-1"}, "u-1"},
		{"int user_id", Claims{"user_id": 12}, "12"},
		{"sub fallback", Claims{"sub": "user-123"}, "user-123"},
		{"user_id wins over sub", Claims{"user_id": float64(1), "sub": "x"}, "1"},
		{"empty string falls back", Claims{"user_id": "", "sub": "x"}, "x"},
		{"absent", Claims{"role": "admin"}, ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.claims.UserID(); got != tt.want {
				t.Errorf("UserID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestClaims_Role(t *testing.T) {
	if role, ok := (Claims{"role": "admin"}).Role(); !ok || role != "admin" {
		t.Errorf("Role() = (%q, %v)", role, ok)
	}
	if _, ok := (Claims{"role": 3}).Role(); ok {
		t.Error("non-string role should report ok=false")
	}
	if _, ok := Claims(nil).Role(); ok {
		t.Error("nil claims should report ok=false")
	}
}

func TestSource_String(t *testing.T) {
	if SourceLocal.String() != "local" || SourceDelegated.String() != "delegated" || Source(0).String() != "unknown" {
		t.Error("unexpected Source strings")
	}
}

func TestAuthenticatorFunc(t *testing.T) {
	expectedIdentity := &Identity{Subject: "test"}

	fn := AuthenticatorFunc(func(r *http.Request) (*Identity, bool, error) {
		return expectedIdentity, true, nil
	})

	req, _ := http.NewRequest("GET", "/", nil)
	id, ok, err := fn.AuthenticateRequest(req)

	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !ok {
		t.Error("Expected authentication to succeed")
	}
	if id != expectedIdentity {
		t.Errorf("Expected %+v, got %+v", expectedIdentity, id)
	}
}
