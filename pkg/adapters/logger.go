// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-s3console.
//
// go-s3console is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

// Package adapters provides pluggable logging and listener TLS configuration.
package adapters

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel represents the severity level of a log message.
type LogLevel int

const (
	// DebugLevel for detailed debugging information.
	DebugLevel LogLevel = iota
	// InfoLevel for general informational messages.
	InfoLevel
	// WarnLevel for warning messages.
	WarnLevel
	// ErrorLevel for error messages.
	ErrorLevel
)

// String returns the string representation of the log level.
func (l LogLevel) String() string {
	switch l {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarnLevel:
		return "WARN"
	case ErrorLevel:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) toSlog() slog.Level {
	switch l {
	case DebugLevel:
		return slog.LevelDebug
	case WarnLevel:
		return slog.LevelWarn
	case ErrorLevel:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func fromSlog(l slog.Level) LogLevel {
	switch {
	case l < slog.LevelInfo:
		return DebugLevel
	case l < slog.LevelWarn:
		return InfoLevel
	case l < slog.LevelError:
		return WarnLevel
	default:
		return ErrorLevel
	}
}

// ParseLevel converts a level name such as "debug" or "WARN" to a LogLevel.
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Field represents a structured logging field (key-value pair).
type Field struct {
	Key   string
	Value any
}

// Err is shorthand for an "error" field.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}

// Logger defines the interface for pluggable logging implementations.
// Applications embedding the console can implement it to route entries
// into their own logging framework (e.g., zap, zerolog, logrus).
type Logger interface {
	// Debug logs a debug-level message with optional fields.
	Debug(ctx context.Context, msg string, fields ...Field)

	// Info logs an info-level message with optional fields.
	Info(ctx context.Context, msg string, fields ...Field)

	// Warn logs a warning-level message with optional fields.
	Warn(ctx context.Context, msg string, fields ...Field)

	// Error logs an error-level message with optional fields.
	Error(ctx context.Context, msg string, fields ...Field)

	// WithFields returns a new Logger with the given fields added to all log entries.
	WithFields(fields ...Field) Logger

	// SetLevel sets the minimum log level that will be output.
	SetLevel(level LogLevel)

	// GetLevel returns the current log level.
	GetLevel() LogLevel
}

// LoggerConfig selects the output format and destination of a DefaultLogger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level LogLevel

	// Format is "json" (default) or "text".
	Format string

	// Output defaults to os.Stdout.
	Output io.Writer
}

// DefaultLogger writes through log/slog. Every entry logged with a request
// context carries that request's ID. Loggers derived with WithFields share
// the level of their parent, so a level change made on reload applies
// everywhere.
type DefaultLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewDefaultLogger creates an info-level JSON logger on stdout.
func NewDefaultLogger() Logger {
	return NewLogger(LoggerConfig{Level: InfoLevel})
}

// NewLogger creates a slog-backed logger from cfg.
func NewLogger(cfg LoggerConfig) Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stdout
	}

	level := &slog.LevelVar{}
	level.Set(cfg.Level.toSlog())
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(out, opts)
	} else {
		handler = slog.NewJSONHandler(out, opts)
	}
	return &DefaultLogger{logger: slog.New(handler), level: level}
}

// Debug logs a debug-level message.
func (l *DefaultLogger) Debug(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelDebug, msg, fields)
}

// Info logs an info-level message.
func (l *DefaultLogger) Info(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelInfo, msg, fields)
}

// Warn logs a warning-level message.
func (l *DefaultLogger) Warn(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelWarn, msg, fields)
}

// Error logs an error-level message.
func (l *DefaultLogger) Error(ctx context.Context, msg string, fields ...Field) {
	l.log(ctx, slog.LevelError, msg, fields)
}

// WithFields returns a logger that adds fields to every entry.
func (l *DefaultLogger) WithFields(fields ...Field) Logger {
	return &DefaultLogger{
		logger: l.logger.With(attrsToArgs(fields)...),
		level:  l.level,
	}
}

// SetLevel sets the minimum log level. Safe for concurrent use.
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level.Set(level.toSlog())
}

// GetLevel returns the current log level.
func (l *DefaultLogger) GetLevel() LogLevel {
	return fromSlog(l.level.Level())
}

func (l *DefaultLogger) log(ctx context.Context, level slog.Level, msg string, fields []Field) {
	if ctx == nil {
		ctx = context.Background()
	}
	if !l.logger.Enabled(ctx, level) {
		return
	}

	attrs := make([]slog.Attr, 0, len(fields)+1)
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, slog.String("request_id", id))
	}
	for _, f := range fields {
		attrs = append(attrs, toAttr(f))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// toAttr renders errors as their message; slog would otherwise emit an
// empty object for most error types in JSON.
func toAttr(f Field) slog.Attr {
	if err, ok := f.Value.(error); ok {
		return slog.String(f.Key, err.Error())
	}
	return slog.Any(f.Key, f.Value)
}

func attrsToArgs(fields []Field) []any {
	args := make([]any, len(fields))
	for i, f := range fields {
		args[i] = toAttr(f)
	}
	return args
}

type requestIDKey struct{}

// ContextWithRequestID returns a copy of ctx carrying the request ID.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request ID stored in ctx, or "".
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// NoOpLogger is a logger that discards all log messages.
// Useful for testing or when logging is not desired.
type NoOpLogger struct {
	level LogLevel
}

// NewNoOpLogger creates a new no-op logger.
func NewNoOpLogger() Logger {
	return &NoOpLogger{level: ErrorLevel}
}

func (l *NoOpLogger) Debug(ctx context.Context, msg string, fields ...Field) {}
func (l *NoOpLogger) Info(ctx context.Context, msg string, fields ...Field)  {}
func (l *NoOpLogger) Warn(ctx context.Context, msg string, fields ...Field)  {}
func (l *NoOpLogger) Error(ctx context.Context, msg string, fields ...Field) {}
func (l *NoOpLogger) WithFields(fields ...Field) Logger                      { return l }
func (l *NoOpLogger) SetLevel(level LogLevel)                                { l.level = level }
func (l *NoOpLogger) GetLevel() LogLevel                                     { return l.level }
