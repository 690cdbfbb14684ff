// Package logging configures the zerolog logger shared by every command.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// New returns a console logger writing to w at the named level. Unknown
// levels fall back to warn.
func New(w io.Writer, level string) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.WarnLevel
	}
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	return zerolog.New(output).Level(lvl).With().Timestamp().Logger()
}

// NewJSON is New without console formatting, for the HTTP server.
func NewJSON(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// Setup installs logger as the package-level zerolog logger and returns it.
func Setup(logger zerolog.Logger) zerolog.Logger {
	log.Logger = logger
	zerolog.DefaultContextLogger = &logger
	return logger
}
