// Package logging configures the zerolog loggers used across the assistant
// core. Components get child loggers tagged with a component field so log
// lines from concurrent pipeline stages stay attributable.
package logging

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var root = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the global log level and output format. When pretty is
// true, output goes through a console writer for local development;
// otherwise structured JSON is written to stderr.
func Init(level string, pretty bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	lvl := parseLevel(level)
	if pretty {
		writer := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
		root = zerolog.New(writer).Level(lvl).With().Timestamp().Logger()
	} else {
		root = zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
	}
}

// Component returns a child logger tagged with the component name.
func Component(name string) zerolog.Logger {
	return root.With().Str("component", name).Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
