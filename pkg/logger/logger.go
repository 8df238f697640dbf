// Package logger builds the slog loggers langchat commands write to.
package logger

import (
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
)

type config struct {
	level  slog.Level
	pretty bool
	json   bool
	out    io.Writer
}

// New builds a *slog.Logger from the given options. Without options it writes
// Info and above as slog text to os.Stderr.
//
// Pretty output takes precedence over JSON when both are requested.
func New(opts ...Option) *slog.Logger {
	c := &config{
		level: slog.LevelInfo,
		out:   os.Stderr,
	}
	for _, opt := range opts {
		opt(c)
	}

	handlerOpts := &slog.HandlerOptions{Level: c.level}

	switch {
	case c.pretty:
		return slog.New(charmlog.NewWithOptions(c.out, charmlog.Options{
			Level:           charmlog.Level(c.level),
			ReportTimestamp: true,
		}))
	case c.json:
		return slog.New(slog.NewJSONHandler(c.out, handlerOpts))
	default:
		return slog.New(slog.NewTextHandler(c.out, handlerOpts))
	}
}

// Nop returns a logger that discards everything.
func Nop() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
