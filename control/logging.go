// control/logging.go
// Author: momentics <momentics@gmail.com>
//
// zerolog construction shared by the CLI and library defaults.

package control

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ParseLevel maps a level name onto zerolog, defaulting to info.
func ParseLevel(l string) zerolog.Level {
	switch strings.ToLower(l) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewLogger returns a logger writing to w at the given level. Output is
// human readable when w is a terminal and JSON otherwise.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(ParseLevel(level)).With().Timestamp().Logger()
}
