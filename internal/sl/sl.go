// Package sl carries small helpers for structured slog fields.
package sl

import "log/slog"

// Err returns a slog.Attr with key "error" so error output stays uniform
// across the codebase.
func Err(err error) slog.Attr {
	return slog.Attr{
		Key:   "error",
		Value: slog.StringValue(err.Error()),
	}
}
