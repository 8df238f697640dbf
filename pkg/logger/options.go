package logger

import (
	"io"
	"log/slog"
)

// Option configures a logger built by New.
type Option func(*config)

// WithDebug logs Debug records too. This is what the --debug flag turns on.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.level = slog.LevelInfo
		if debug {
			c.level = slog.LevelDebug
		}
	}
}

// WithPretty uses the charmbracelet/log handler, for a person watching stderr.
func WithPretty(pretty bool) Option {
	return func(c *config) {
		c.pretty = pretty
	}
}

// WithJSON emits one JSON object per record. Used for log.json and --log-file.
func WithJSON(json bool) Option {
	return func(c *config) {
		c.json = json
	}
}

// WithWriter sets where records go. Commands pass their stderr.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.out = w
		}
	}
}
