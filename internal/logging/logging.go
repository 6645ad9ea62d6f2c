// Package logging provides the structured logger used by the filesystem.
package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/jmgilman/go/inodefs/internal/errs"
)

// LogLevel represents different logging levels
type LogLevel int

// Logging levels, lowest first.
const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger provides structured logging for filesystem operations.
// A nil *Logger discards everything.
type Logger struct {
	logger *slog.Logger
}

// LogConfig holds configuration for the logger.
type LogConfig struct {
	// Level sets the minimum log level.
	Level LogLevel
	// Output receives log records. Defaults to stderr.
	Output io.Writer
	// EnableCallerInfo includes file and line number in logs.
	EnableCallerInfo bool
}

// DefaultLogConfig returns a default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  LogLevelWarn,
		Output: os.Stderr,
	}
}

// NewSlog creates a text slog logger with the given configuration.
func NewSlog(config LogConfig) *slog.Logger {
	out := config.Output
	if out == nil {
		out = os.Stderr
	}
	handler := slog.NewTextHandler(out, &slog.HandlerOptions{
		Level:     config.Level.slogLevel(),
		AddSource: config.EnableCallerInfo,
	})
	return slog.New(handler)
}

// NewNopLogger creates a logger that discards all messages.
func NewNopLogger() *Logger {
	return &Logger{}
}

// FromSlog wraps an existing slog logger.
func FromSlog(l *slog.Logger) *Logger {
	return &Logger{logger: l}
}

func (l *Logger) enabled() bool {
	return l != nil && l.logger != nil
}

// Debug logs debug-level messages
func (l *Logger) Debug(msg string, args ...any) {
	if l.enabled() {
		l.logger.Debug(msg, args...)
	}
}

// Info logs info-level messages
func (l *Logger) Info(msg string, args ...any) {
	if l.enabled() {
		l.logger.Info(msg, args...)
	}
}

// Warn logs warning-level messages
func (l *Logger) Warn(msg string, args ...any) {
	if l.enabled() {
		l.logger.Warn(msg, args...)
	}
}

// Error logs error-level messages
func (l *Logger) Error(msg string, args ...any) {
	if l.enabled() {
		l.logger.Error(msg, args...)
	}
}

// With returns a logger with additional context fields
func (l *Logger) With(args ...any) *Logger {
	if !l.enabled() {
		return l
	}
	return &Logger{logger: l.logger.With(args...)}
}

// WithOperation returns a logger with operation context
func (l *Logger) WithOperation(operation Operation) *Logger {
	return l.With("operation", string(operation))
}

// Operation names a filesystem operation for logging.
type Operation string

// Operation constants
const (
	OpFormat          Operation = "format"
	OpLoad            Operation = "load"
	OpSave            Operation = "save"
	OpMakeFile        Operation = "make_file"
	OpMakeDirectory   Operation = "make_directory"
	OpDeleteFile      Operation = "delete_file"
	OpDeleteDirectory Operation = "delete_directory"
	OpCopyFile        Operation = "copy_file"
	OpCopyShallow     Operation = "copy_file_shallow"
	OpMoveFile        Operation = "move_file"
	OpEditFile        Operation = "edit_file"
	OpChangeDirectory Operation = "change_directory"
)

// LogOperation records the outcome of an operation. Snapshot operations
// that succeed are logged at info level, other successes at debug level.
// Failures are logged with the error code, at error level for internal
// errors and corrupt snapshots and at warn level otherwise.
func LogOperation(logger *Logger, operation Operation, err error, fields ...any) {
	if !logger.enabled() {
		return
	}

	l := logger.WithOperation(operation)
	if err == nil {
		switch operation {
		case OpFormat, OpLoad, OpSave:
			l.Info("operation completed", fields...)
		default:
			l.Debug("operation completed", fields...)
		}
		return
	}

	code := platformerrors.GetCode(err)
	args := append(append([]any{}, fields...), "code", string(code), "error", err.Error())
	switch code {
	case errs.CodeInternal, errs.CodeCorruptSnapshot:
		l.Error("operation failed", args...)
	default:
		l.Warn("operation failed", args...)
	}
}

// ParseLogLevel parses a string log level into a LogLevel.
func ParseLogLevel(level string) (LogLevel, error) {
	switch strings.ToLower(level) {
	case "debug":
		return LogLevelDebug, nil
	case "info":
		return LogLevelInfo, nil
	case "warn", "warning":
		return LogLevelWarn, nil
	case "error":
		return LogLevelError, nil
	default:
		return LogLevelInfo, errs.Newf(errs.CodeInvalidInput, "invalid log level: %s", level)
	}
}
