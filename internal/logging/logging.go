// Package logging holds the process-wide logger. The TUI owns the terminal,
// so logs go to a file when configured and nowhere otherwise.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
)

// Log is the process-wide logger. It discards until Init points it at a file.
var Log = slog.New(slog.DiscardHandler)

// Init routes Log to an append-only text log at path.
func Init(path, level string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	Log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: parseLevel(level)}))
	return nil
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debug logs with slog-style key/value pairs.
func Debug(msg string, args ...any) { Log.Debug(msg, args...) }

// Info logs with slog-style key/value pairs.
func Info(msg string, args ...any) { Log.Info(msg, args...) }

// Warn logs with slog-style key/value pairs.
func Warn(msg string, args ...any) { Log.Warn(msg, args...) }

// Error logs with slog-style key/value pairs.
func Error(msg string, args ...any) { Log.Error(msg, args...) }
