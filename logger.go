package vecdb

import (
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with collection-specific helpers so operations
// log consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses a default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{Logger: slog.New(handler)}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	return &Logger{Logger: slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // unreachable level
	}))}
}

// LogUpsert logs an upsert operation.
func (l *Logger) LogUpsert(id string, slot int, err error) {
	if err != nil {
		l.Error("upsert failed", "id", id, "error", err)
	} else {
		l.Debug("upsert completed", "id", id, "slot", slot)
	}
}

// LogRemove logs a remove operation.
func (l *Logger) LogRemove(id string, removed bool) {
	l.Debug("remove completed", "id", id, "removed", removed)
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(k, found int, filtered bool, err error) {
	if err != nil {
		l.Error("search failed", "k", k, "filtered", filtered, "error", err)
	} else {
		l.Debug("search completed", "k", k, "results", found, "filtered", filtered)
	}
}

// LogBuild logs an index build.
func (l *Logger) LogBuild(alive int, duration time.Duration) {
	l.Info("index built", "alive", alive, "duration", duration)
}

// LogSave logs a save operation.
func (l *Logger) LogSave(dir string, withGraph bool, err error) {
	if err != nil {
		l.Error("save failed", "dir", dir, "error", err)
	} else {
		l.Info("collection saved", "dir", dir, "graph", withGraph)
	}
}

// LogOpen logs an open operation.
func (l *Logger) LogOpen(dir string, slots int, withGraph bool) {
	l.Info("collection opened", "dir", dir, "slots", slots, "graph", withGraph)
}
