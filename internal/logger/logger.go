package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the application logger instance
var Logger zerolog.Logger

// Init initializes the stdout logger with the given configuration and
// installs it as the global logger
func Init(level, format string) {
	Logger = New(os.Stdout, level, format)
	log.Logger = Logger
}

// New builds a logger writing to w. format is "json" or "console".
func New(w io.Writer, level, format string) zerolog.Logger {
	// Set log level
	zerolog.SetGlobalLevel(ParseLevel(level))

	// Configure output format
	if strings.ToLower(format) == "json" {
		return zerolog.New(w).With().
			Timestamp().
			Caller().
			Logger()
	}

	// Console format with colors
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    false,
	}
	return zerolog.New(output).With().
		Timestamp().
		Logger()
}

// ParseLevel parses string log level to zerolog level
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	default:
		return zerolog.InfoLevel
	}
}

// GetLogger returns the configured logger instance
func GetLogger() zerolog.Logger {
	return Logger
}
