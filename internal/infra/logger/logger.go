// Package logger builds the fishfarm service's JSON slog logger.
package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide logger. Debug level is only enabled for
// app.env "dev"; everything else logs at info.
func New(env string) *slog.Logger {
	level := slog.LevelInfo
	if env == "dev" {
		level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h)
}
