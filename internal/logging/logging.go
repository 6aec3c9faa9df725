// Package logging builds the zerolog logger used by every ratewatch command.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

// Options selects level, encoding and destination.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	Output string // "stderr", "stdout", "discard", or a file path
}

// New returns a logger and a close func for the underlying file, if any.
func New(opts Options) (zerolog.Logger, func() error, error) {
	noop := func() error { return nil }

	level := zerolog.InfoLevel
	if opts.Level != "" {
		l, err := zerolog.ParseLevel(opts.Level)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("invalid log level: %w", err)
		}
		level = l
	}

	var (
		out     io.Writer
		closeFn = noop
	)
	switch opts.Output {
	case "", "stderr":
		out = os.Stderr
	case "stdout":
		out = os.Stdout
	case "discard":
		out = io.Discard
	default:
		if err := os.MkdirAll(filepath.Dir(opts.Output), 0o750); err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("creating log dir: %w", err)
		}
		//nolint:gosec // log path is configured by the local user
		f, err := os.OpenFile(opts.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return zerolog.Nop(), noop, fmt.Errorf("could not open log file: %w", err)
		}
		out = f
		closeFn = f.Close
	}

	if opts.Format != "json" {
		out = zerolog.ConsoleWriter{
			Out:        out,
			TimeFormat: time.RFC3339,
			NoColor:    opts.Output != "" && opts.Output != "stderr" && opts.Output != "stdout",
		}
	}

	logger := zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Logger()

	return logger, closeFn, nil
}
