package logx

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Log is the shared logger used by the relay.
var Log = New(os.Stderr, "info")

// New builds a human-readable console logger writing to out at the given level.
// Unknown levels fall back to info.
func New(out io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: out}).Level(lvl).With().Timestamp().Logger()
}

// Configure replaces the shared logger.
func Configure(level string) {
	Log = New(os.Stderr, level)
}
