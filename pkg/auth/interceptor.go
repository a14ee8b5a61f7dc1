package auth

import (
	"context"

	"connectrpc.com/connect"
)

// TokenInterceptor adds an Authorization header to outgoing connect calls.
// The caller's verified token, when an identity is attached to the context,
// takes precedence over the static service token.
type TokenInterceptor struct {
	token string
}

// NewTokenInterceptor creates a new token interceptor.
// If token is empty and the context carries no identity, no header is added.
func NewTokenInterceptor(token string) *TokenInterceptor {
	return &TokenInterceptor{token: token}
}

func (i *TokenInterceptor) tokenFor(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil && id.Token != "" {
		return id.Token
	}
	return i.token
}

// WrapUnary implements connect.Interceptor.
func (i *TokenInterceptor) WrapUnary(next connect.UnaryFunc) connect.UnaryFunc {
	return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		if token := i.tokenFor(ctx); token != "" {
			req.Header().Set("Authorization", bearerPrefix+token)
		}
		return next(ctx, req)
	}
}

// WrapStreamingClient implements connect.Interceptor.
func (i *TokenInterceptor) WrapStreamingClient(next connect.StreamingClientFunc) connect.StreamingClientFunc {
	return func(ctx context.Context, spec connect.Spec) connect.StreamingClientConn {
		conn := next(ctx, spec)
		if token := i.tokenFor(ctx); token != "" {
			conn.RequestHeader().Set("Authorization", bearerPrefix+token)
		}
		return conn
	}
}

// WrapStreamingHandler implements connect.Interceptor.
func (i *TokenInterceptor) WrapStreamingHandler(next connect.StreamingHandlerFunc) connect.StreamingHandlerFunc {
	return next
}
