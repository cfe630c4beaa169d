// Package logging configures the process-wide slog logger.
package logging

import (
	"io"
	"log/slog"
	"os"
)

// New builds a logger for env writing to w.
//
// Production -> JSON (structured logging)
// Others     -> Text (readable)
func New(env string, w io.Writer) *slog.Logger {
	var handler slog.Handler

	switch env {
	case "production", "prod":
		handler = slog.NewJSONHandler(w, nil)
	default:
		handler = slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.New(handler)
}

// Setup builds the logger for env on stdout and makes it the default.
func Setup(env string) *slog.Logger {
	logger := New(env, os.Stdout)
	slog.SetDefault(logger)
	return logger
}
