package auth

import "strings"

// DefaultExemptPaths are the prefixes that skip authentication when no list
// is configured.
var DefaultExemptPaths = []string{
	"/admin/",
	"/api/login/",
	"/api/register/",
	"/api/forgot-password/",
	"/api/reset-password/",
	"/api/token-refresh/",
}

// ExemptionFilter decides whether a path bypasses authentication.
// It is immutable after construction.
type ExemptionFilter struct {
	prefixes []string
}

// NewExemptionFilter builds a filter over prefixes, in order. Empty entries
// are dropped since they would exempt every path.
func NewExemptionFilter(prefixes ...string) *ExemptionFilter {
	f := &ExemptionFilter{prefixes: make([]string, 0, len(prefixes))}
	for _, p := range prefixes {
		if p != "" {
			f.prefixes = append(f.prefixes, p)
		}
	}
	return f
}

// IsExempt reports whether path starts with any configured prefix.
// A nil filter exempts nothing.
func (f *ExemptionFilter) IsExempt(path string) bool {
	if f == nil {
		return false
	}
	for _, p := range f.prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

// Prefixes returns a copy of the configured prefixes.
func (f *ExemptionFilter) Prefixes() []string {
	if f == nil {
		return nil
	}
	out := make([]string, len(f.prefixes))
	copy(out, f.prefixes)
	return out
}
