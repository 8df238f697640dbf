package logger

import (
	"context"
	"log/slog"
)

// Multi returns a logger that hands every record to each of loggers. A record
// reaches a logger only if that logger's level enables it, so a debug-level
// --log-file can sit next to an info-level console.
func Multi(loggers ...*slog.Logger) *slog.Logger {
	fan := make(fanout, 0, len(loggers))
	for _, l := range loggers {
		if l != nil {
			fan = append(fan, l.Handler())
		}
	}
	return slog.New(fan)
}

// fanout is a slog.Handler over several handlers.
type fanout []slog.Handler

func (f fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle stops at the first handler error.
func (f fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range f {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (f fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithAttrs(attrs) })
}

func (f fanout) WithGroup(name string) slog.Handler {
	return f.each(func(h slog.Handler) slog.Handler { return h.WithGroup(name) })
}

func (f fanout) each(fn func(slog.Handler) slog.Handler) fanout {
	out := make(fanout, len(f))
	for i, h := range f {
		out[i] = fn(h)
	}
	return out
}
