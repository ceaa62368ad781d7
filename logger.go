package utymap

import (
	"log/slog"
	"os"

	"github.com/Jgoga/utymap/geo"
)

// Logger wraps slog.Logger with store-specific context helpers.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a Logger with the given handler. If handler is nil, a
// text handler to stderr at info level is used.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{Logger: slog.New(handler)}
}

// WithQuadKey tags the logger with a tile's quad key.
func (l *Logger) WithQuadKey(key geo.QuadKey) *Logger {
	return &Logger{Logger: l.Logger.With("quadkey", key.String(), "lod", key.LevelOfDetail)}
}
