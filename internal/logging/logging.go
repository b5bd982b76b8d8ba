// Package logging configures zerolog for the whole binary. Warnings are
// the interesting output here: vimdoc keeps compiling through dubious
// documentation (mismatched argument lists, malformed metadata) and
// reports what it glossed over.
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup initializes the global logger. Verbosity maps to levels:
// 0 warn, 1 info, 2 debug, 3+ trace. Output goes to stderr so that
// stdout stays clean for anything the tool prints deliberately.
func Setup(verbosity int) {
	SetupWriter(verbosity, os.Stderr)
}

// SetupWriter is Setup with an explicit destination, for tests.
func SetupWriter(verbosity int, w io.Writer) {
	var level zerolog.Level
	switch {
	case verbosity <= 0:
		level = zerolog.WarnLevel
	case verbosity == 1:
		level = zerolog.InfoLevel
	case verbosity == 2:
		level = zerolog.DebugLevel
	default:
		level = zerolog.TraceLevel
	}
	zerolog.SetGlobalLevel(level)

	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.Kitchen,
	}
	log.Logger = zerolog.New(console).With().Timestamp().Logger()
}

// GetLogger returns a logger tagged with the given component name.
func GetLogger(component string) zerolog.Logger {
	return log.Logger.With().Str("component", component).Logger()
}
