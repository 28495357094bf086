package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

// Level names accepted in configuration, matched case-insensitively.
const (
	LevelDebug = "DEBUG"
	LevelInfo  = "INFO"
	LevelWarn  = "WARN"
	LevelError = "ERROR"
)

// LogFileName is the file created inside the log directory.
const LogFileName = "conductor.log"

// Logger writes JSON log lines. Loggers derived with With or WithComponent
// share the parent's output and its file. It is safe for concurrent use.
type Logger struct {
	sl   *slog.Logger
	file *ownedFile
}

// ownedFile closes the log file once no matter how many derived loggers
// call Close.
type ownedFile struct {
	once sync.Once
	c    io.Closer
	err  error
}

func (f *ownedFile) close() error {
	if f == nil {
		return nil
	}
	f.once.Do(func() { f.err = f.c.Close() })
	return f.err
}

// NewLogger logs to {logDir}/conductor.log without rotation, or to stderr
// when logDir is empty. Stdout is never used: it carries simulator output.
func NewLogger(logDir string, level string) (*Logger, error) {
	return NewLoggerWithRotation(logDir, level, RotationConfig{})
}

// NewLoggerWithRotation is NewLogger with size-based rotation of the log
// file. A zero cfg.MaxSizeMB never rotates.
func NewLoggerWithRotation(logDir string, level string, cfg RotationConfig) (*Logger, error) {
	if logDir == "" {
		return NewWriterLogger(os.Stderr, level), nil
	}

	rw, err := NewRotatingWriter(filepath.Join(logDir, LogFileName), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &Logger{sl: newJSON(rw, level), file: &ownedFile{c: rw}}, nil
}

// NewWriterLogger logs to w. Closing the logger leaves w open.
func NewWriterLogger(w io.Writer, level string) *Logger {
	return &Logger{sl: newJSON(w, level)}
}

// NopLogger discards everything.
func NopLogger() *Logger {
	return NewWriterLogger(io.Discard, LevelError)
}

func newJSON(w io.Writer, level string) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slogLevel(level)}))
}

// slogLevel maps a level name to slog; unknown names mean INFO.
func slogLevel(level string) slog.Level {
	switch ParseLevel(level) {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every entry with component=name.
func (l *Logger) WithComponent(name string) *Logger {
	return l.With("component", name)
}

// With returns a logger that adds the given key-value pairs to every entry.
// Pairs whose key is not a string are dropped, as is a trailing lone key.
func (l *Logger) With(args ...any) *Logger {
	kv := pairs(args)
	if len(kv) == 0 {
		return l
	}
	return &Logger{sl: l.sl.With(kv...), file: l.file}
}

func pairs(args []any) []any {
	kv := make([]any, 0, len(args))
	for i := 0; i+1 < len(args); i += 2 {
		if key, ok := args[i].(string); ok {
			kv = append(kv, key, args[i+1])
		}
	}
	return kv
}

// Debug logs at DEBUG.
func (l *Logger) Debug(msg string, args ...any) { l.log(slog.LevelDebug, msg, args) }

// Info logs at INFO.
func (l *Logger) Info(msg string, args ...any) { l.log(slog.LevelInfo, msg, args) }

// Warn logs at WARN.
func (l *Logger) Warn(msg string, args ...any) { l.log(slog.LevelWarn, msg, args) }

// Error logs at ERROR.
func (l *Logger) Error(msg string, args ...any) { l.log(slog.LevelError, msg, args) }

func (l *Logger) log(level slog.Level, msg string, args []any) {
	l.sl.Log(context.Background(), level, msg, pairs(args)...)
}

// Close closes the log file, if the logger owns one. Calling it again, or on
// any derived logger, returns the first result.
func (l *Logger) Close() error {
	return l.file.close()
}

// ParseLevel normalizes a level name, falling back to LevelInfo.
func ParseLevel(level string) string {
	name := strings.ToUpper(strings.TrimSpace(level))
	if slices.Contains(ValidLevels(), name) {
		return name
	}
	return LevelInfo
}

// ValidLevels lists the accepted level names from most to least verbose.
func ValidLevels() []string {
	return []string{LevelDebug, LevelInfo, LevelWarn, LevelError}
}
