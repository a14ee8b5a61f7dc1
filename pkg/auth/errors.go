package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrNoCredential reports that a request carried no usable credential.
	// Authenticators signal absence with (nil, false, nil); this sentinel is
	// what Middleware hands to the unauthorized handler in that case.
	ErrNoCredential = errors.New("no credential presented")

	// ErrTokenExpired is returned when a token's signature is valid but its
	// expiry has elapsed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid is returned for structural or signature failures.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrUnsupportedAlgorithm is returned when the token's alg header does not
	// match the configured algorithm.
	ErrUnsupportedAlgorithm = errors.New("unsupported token algorithm")

	// ErrRemoteRejected is returned when the authority answers with a
	// non-success status.
	ErrRemoteRejected = errors.New("authority rejected token")

	// ErrRemoteUnreachable is returned on network failure, timeout or
	// cancellation of the authority call.
	ErrRemoteUnreachable = errors.New("authority unreachable")

	// ErrRemoteMalformed is returned when the authority's success response is
	// not a JSON object.
	ErrRemoteMalformed = errors.New("authority response malformed")
)

// Kind classifies a token verification failure.
type Kind int

const (
	KindInvalid Kind = iota
	KindExpired
	KindUnsupported
)

func (k Kind) String() string {
	switch k {
	case KindExpired:
		return "expired"
	case KindUnsupported:
		return "unsupported"
	default:
		return "invalid"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindExpired:
		return ErrTokenExpired
	case KindUnsupported:
		return ErrUnsupportedAlgorithm
	default:
		return ErrTokenInvalid
	}
}

// VerificationError is returned by TokenCodec.Verify.
type VerificationError struct {
	Kind Kind
	Err  error
}

func (e *VerificationError) Error() string {
	if e.Err == nil {
		return e.Kind.sentinel().Error()
	}
	return fmt.Sprintf("%s: %v", e.Kind.sentinel(), e.Err)
}

// Unwrap exposes both the kind sentinel and the underlying cause, so
// errors.Is works for ErrTokenExpired as well as jwt library errors.
func (e *VerificationError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind.sentinel()}
	}
	return []error{e.Kind.sentinel(), e.Err}
}

// Message returns the caller-facing message for this kind.
func (e *VerificationError) Message() string {
	switch e.Kind {
	case KindExpired:
		return "Token expired."
	case KindUnsupported:
		return "Unsupported token algorithm."
	default:
		return "Invalid token."
	}
}

// AuthenticationError is returned by DelegatedAuthenticator when the
// authority does not vouch for the token. Err says why; callers see only
// Detail.
type AuthenticationError struct {
	Err error
}

// delegatedDetail is the caller-facing message for every delegated failure.
const delegatedDetail = "Invalid or expired token."

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed"
	}
	return "authentication failed: " + e.Err.Error()
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// Detail returns the caller-facing message.
func (e *AuthenticationError) Detail() string {
	return delegatedDetail
}
