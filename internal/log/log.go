package log

import (
	"log/slog"
	"os"
)

// NewLogger returns a JSON slog logger writing to stdout.
func NewLogger() *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return slog.New(handler)
}
