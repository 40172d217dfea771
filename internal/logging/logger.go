package logging

import (
	"log/slog"
	"os"
)

// Setup initializes the global slog logger with JSON output to stdout. Any
// sinks passed in receive the same records alongside stdout.
func Setup(sinks ...slog.Handler) {
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	if len(sinks) > 0 {
		handler = NewFanOut(append([]slog.Handler{handler}, sinks...)...)
	}
	slog.SetDefault(slog.New(handler))
}
