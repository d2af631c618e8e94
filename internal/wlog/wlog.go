// Package wlog provides the daemon's structured logger: a thin wrapper over
// log/slog configured the way the teacher's own ad-hoc logging call sites
// expect (a text handler to stderr, a leveled default, per-session name
// attached once so call sites don't repeat it).
package wlog

import (
	"context"
	"log/slog"
	"os"
)

// New returns a logger writing structured text lines to the file w (such as
// os.Stderr) at the given level.
func New(w *os.File, level slog.Level) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}

// Default is the daemon-wide logger, replaced by cmd/wshd once flags are
// parsed (e.g. -v raising the level). Packages that can't take a logger by
// injection (deep library code) fall back to this.
var Default = New(os.Stderr, slog.LevelInfo)

// Session returns a logger with the session name attached to every record,
// matching the teacher's per-session-tagged log lines.
func Session(base *slog.Logger, name string) *slog.Logger {
	return base.With(slog.String("session", name))
}

// WithContext threads a logger through a context, for call sites several
// layers removed from the actor that owns the logger (e.g. vtparser
// callbacks invoked from deep in the screen engine).
type ctxKey struct{}

func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stashed by WithContext, or Default.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok {
		return l
	}
	return Default
}
