// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog loggers used by the CLI and carries
// them through context.Context into library code.
package logging

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config selects log level and output format.
type Config struct {
	// Level is a zerolog level name ("debug", "info", "warn", "error").
	// Empty means info.
	Level string

	// Format is "console" for human-readable output or "json". Empty picks
	// console when the writer is a terminal and json otherwise.
	Format string

	// NoColor disables ANSI colors in console output.
	NoColor bool
}

// New creates a logger writing to w.
func New(w io.Writer, cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	if useConsole(w, cfg.Format) {
		w = zerolog.ConsoleWriter{
			Out:        w,
			TimeFormat: time.Kitchen,
			NoColor:    cfg.NoColor,
		}
	}

	logger := zerolog.New(w).Level(level).With().Timestamp().Logger()
	if level <= zerolog.DebugLevel {
		logger = logger.With().Caller().Logger()
	}
	return logger
}

func useConsole(w io.Writer, format string) bool {
	switch format {
	case "console":
		return true
	case "json":
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	return err == nil && info.Mode()&os.ModeCharDevice != 0
}

type contextKey int

const loggerKey contextKey = iota

// WithLogger returns a copy of ctx carrying logger.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// nop is returned when no logger has been attached.
var nop = zerolog.Nop()

// FromContext returns the logger attached to ctx, or a disabled logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return &nop
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return &nop
}
