// Package kirklog provides the zerolog logger Kirk's components take
// as a constructor argument, never as a package global, so a library
// consumer can redirect or silence it (spec.md §A.1).
package kirklog

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New returns a console-writer logger at the given level, the default
// for CLI binaries (cmd/kirk-validate, cmd/kirk-play).
func New(level zerolog.Level) zerolog.Logger {
	return NewWithWriter(os.Stderr, level)
}

// NewWithWriter lets callers (tests, daemons) redirect output.
func NewWithWriter(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// Nop returns a logger that discards everything, the default when a
// component is constructed without an explicit logger in tests.
func Nop() zerolog.Logger {
	return zerolog.Nop()
}
