// Package logger builds the process-wide zerolog logger.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns a configured logger. An unparseable level falls back to
// info. Set LOG_PRETTY=1 for human-readable console output during
// development; the default is JSON lines for log shipping.
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	if os.Getenv("LOG_PRETTY") == "1" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}
