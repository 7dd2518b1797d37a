// Package logging builds the process logger.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New returns a JSON logger on stdout, or a human-readable one in development.
func New(level zerolog.Level, development bool) zerolog.Logger {
	return newWithWriter(os.Stdout, level, development)
}

func newWithWriter(w io.Writer, level zerolog.Level, development bool) zerolog.Logger {
	if development {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}
