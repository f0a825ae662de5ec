package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// New returns the root structured logger. Components derive their own
// sub-loggers via log.With().Str("component", ...).
func New(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stdout).Level(lvl).With().Timestamp().Logger()
}
