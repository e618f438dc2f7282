package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Log is the process-wide logger. It discards everything until Init runs,
// so packages can log unconditionally.
var Log = slog.New(slog.NewTextHandler(io.Discard, nil))

var sinkFile *os.File

// ParseLevel maps "debug", "info", "warn" and "error" to a slog level.
// Anything else, including "", is info.
func ParseLevel(level string) slog.Level {
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

// Init configures Log. sink is "stderr", "stdout", "file:/path" or a bare
// path. An empty level falls back to BLEDIAL_LOG_LEVEL. The terminal UI
// owns the screen, so the dial app always logs to a file.
func Init(level, sink string) error {
	if strings.TrimSpace(level) == "" {
		level = os.Getenv("BLEDIAL_LOG_LEVEL")
	}

	w, err := openSink(sink)
	if err != nil {
		return err
	}
	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
	return nil
}

// InitWriter points Log at w. Used by tests and the CLI subcommands.
func InitWriter(w io.Writer, level string) {
	Log = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}))
}

// Sync closes the file sink, if any.
func Sync() {
	if sinkFile != nil {
		_ = sinkFile.Sync()
		_ = sinkFile.Close()
		sinkFile = nil
	}
}

func openSink(sink string) (io.Writer, error) {
	switch sink {
	case "", "discard":
		return io.Discard, nil
	case "stderr":
		return os.Stderr, nil
	case "stdout":
		return os.Stdout, nil
	}

	path := strings.TrimPrefix(sink, "file:")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}
	Sync()
	sinkFile = f
	return f, nil
}

func Debug(msg string, args ...any) { Log.Debug(msg, args...) }
func Info(msg string, args ...any)  { Log.Info(msg, args...) }
func Warn(msg string, args ...any)  { Log.Warn(msg, args...) }
func Error(msg string, args ...any) { Log.Error(msg, args...) }
