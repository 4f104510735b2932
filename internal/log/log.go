package log

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
)

// ParseLevel maps debug|info|warn|error to a slog level. Unknown values fall back to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
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

// Setup installs a tint handler writing to w as the process-wide default logger.
func Setup(w io.Writer, level string) *slog.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := slog.New(tint.NewHandler(w, &tint.Options{
		Level:      ParseLevel(level),
		TimeFormat: time.Kitchen,
	}))
	slog.SetDefault(l)
	return l
}

// Discard silences logging (the TUI owns the terminal).
func Discard() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func Debug(msg string, kv ...any) { slog.Debug(msg, kv...) }

func Info(msg string, kv ...any) { slog.Info(msg, kv...) }

func Warn(msg string, kv ...any) { slog.Warn(msg, kv...) }

func Error(msg string, err error, kv ...any) {
	slog.Error(msg, append([]any{"error", err}, kv...)...)
}
