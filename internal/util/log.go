// Package util holds small helpers shared across the binary.
package util

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// NewLogger builds the process logger at the requested level. Unknown or empty
// levels fall back to info. Setting COINWISE_LOG_PRETTY enables the
// human-readable console writer for interactive runs.
func NewLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	var out = zerolog.New(os.Stdout)
	if os.Getenv("COINWISE_LOG_PRETTY") != "" {
		out = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	}
	return out.With().Timestamp().Logger().Level(lvl)
}
