package util

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Development gets human-readable text
// at debug level; everything else gets JSON at info level for log shipping.
func NewLogger(env string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}

	var handler slog.Handler
	switch env {
	case "development", "test":
		opts.Level = slog.LevelDebug
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler).With("service", "revtrack")
}
