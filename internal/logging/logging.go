// Package logging provides structured logging setup using log/slog.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

const (
	// EnvDebug enables debug logging when set to "1".
	EnvDebug = "TRAFFICMETER_DEBUG"
	// EnvFormat selects the handler: "text" (default) or "json".
	EnvFormat = "TRAFFICMETER_LOG_FORMAT"
)

// Level represents the logging verbosity level.
type Level int

const (
	// LevelInfo is the default logging level for normal operation.
	LevelInfo Level = iota
	// LevelDebug enables verbose debug output.
	LevelDebug
)

// Format selects the slog handler used for output.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// Setup initializes the global slog logger writing text to stderr.
// Call this once at application startup.
func Setup(level Level) {
	slog.SetDefault(New(os.Stderr, level, FormatText))
}

// New builds a logger for w. Unknown formats fall back to text.
func New(w io.Writer, level Level, format Format) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slogLevel(level)}

	var handler slog.Handler
	if format == FormatJSON {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func slogLevel(level Level) slog.Level {
	if level == LevelDebug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

// SetupFromEnv initializes the logger based on environment variables.
// Set TRAFFICMETER_DEBUG=1 for debug output and TRAFFICMETER_LOG_FORMAT=json
// for machine-readable lines.
func SetupFromEnv() {
	SetupWriter(os.Stderr)
}

// SetupWriter is SetupFromEnv with an explicit destination. The TUI uses it to
// keep log lines off the terminal it draws on.
func SetupWriter(w io.Writer) {
	level := LevelInfo
	if os.Getenv(EnvDebug) == "1" {
		level = LevelDebug
	}
	format := Format(strings.ToLower(os.Getenv(EnvFormat)))
	slog.SetDefault(New(w, level, format))
}
