// Package logging builds the zerolog logger shared by the CLI and library
// packages.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Config selects level and output format
type Config struct {
	Level   string
	Console bool
}

// Build returns a logger writing to out. Console formatting is only used when
// requested and out is a terminal; redirected output stays JSON.
func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.Console && IsTerminal(out) {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	return zerolog.New(out).Level(ParseLevel(cfg.Level)).With().Timestamp().Logger()
}

// ParseLevel maps a config string to a zerolog level, defaulting to info
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// IsTerminal reports whether w is a terminal, Cygwin and MSYS ptys included
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
