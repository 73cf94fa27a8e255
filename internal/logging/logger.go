// Package logging defines the structured-logging interface used across the
// project, with adapters for zerolog (JSON, the default) and log/slog (text).
package logging

import (
	"context"
	"io"
)

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "starting server", "addr", addr, "mode", mode)
type Logger interface {
	// Debug logs diagnostic detail.
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs an informational message.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs a warning message for unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs an error message for failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Output formats accepted by New.
const (
	FormatJSON = "json"
	FormatText = "text"
)

// New returns a Logger writing to w. FormatText selects the slog text
// handler; anything else yields zerolog JSON.
func New(format string, w io.Writer) Logger {
	if format == FormatText {
		return NewTextSlogLogger(w)
	}
	return NewJSONZerologLogger(w)
}
