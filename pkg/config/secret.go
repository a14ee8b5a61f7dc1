package config

import "log/slog"

// Secret is a string that redacts itself when printed, logged or serialized.
// Use Value to reach the raw secret.
type Secret string

const secretRedacted = "[REDACTED]"

func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return secretRedacted
}

func (s Secret) GoString() string { return s.String() }

// Value returns the raw secret.
func (s Secret) Value() string { return string(s) }

// MarshalText keeps the secret out of YAML and JSON output.
func (s Secret) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// LogValue implements slog.LogValuer.
func (s Secret) LogValue() slog.Value { return slog.StringValue(s.String()) }
