// Package log configures the process-wide slog default. The plain text
// handler suits log collectors; the pretty format goes through tint for
// readable local development.
package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// Format selects the handler wired into the default logger.
type Format string

const (
	FormatText   Format = "text"
	FormatPretty Format = "pretty"
)

// Setup installs the default logger. Unknown formats fall back to text. The
// level comes from LOG_LEVEL (debug, info, warn, error; default info).
func Setup(format Format) {
	SetupWithWriter(format, os.Stderr)
}

// SetupWithWriter is Setup with an explicit destination, used by tests.
func SetupWithWriter(format Format, w io.Writer) {
	level := levelFromEnv()

	var handler slog.Handler
	switch format {
	case FormatPretty:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	}

	slog.SetDefault(slog.New(handler))
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
