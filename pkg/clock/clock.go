// Package clock provides a time source that can be swapped out in tests.
//
// Token expiry is checked against a Clock rather than time.Now directly so
// expired and not-yet-expired tokens can be verified deterministically.
package clock

import "time"

// Clock provides the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the time elapsed since t.
	Since(t time.Time) time.Duration
}
