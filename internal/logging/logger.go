// Package logging defines the structured-logging surface the rest of the
// project codes against, plus the slog-backed implementation used in
// production.
package logging

import "context"

// Logger is a leveled, context-aware logger. Variadic args are key-value
// pairs, e.g.:
//
//	log.Info(ctx, "http server starting", "addr", addr)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value
	// pairs.
	With(args ...any) Logger
}
