// Package logger provides structured logging utilities for the application.
// It wraps log/slog with JSON formatting and supports context-based logging
// with request IDs and session IDs, plus optional remote log shipping to
// Better Stack.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	slogbetterstack "github.com/samber/slog-betterstack"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger

	async *AsyncHandler
}

// RemoteOptions configures Better Stack log shipping.
// An empty Token disables the remote pipeline entirely.
type RemoteOptions struct {
	Token    string
	Endpoint string
}

// New creates a new logger instance with JSON formatting
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a new logger instance with JSON formatting writing to the provided writer
func NewWithWriter(level string, w io.Writer) *Logger {
	handler := slog.NewJSONHandler(w, jsonHandlerOptions(parseLevel(level)))
	return &Logger{Logger: slog.New(NewContextHandler(handler))}
}

// NewWithRemote creates a logger that writes JSON to stdout and additionally
// ships records to Better Stack through an async pipeline, so remote delivery
// never blocks the request path. Call Shutdown before process exit to flush.
func NewWithRemote(level string, remote RemoteOptions) *Logger {
	logLevel := parseLevel(level)
	local := slog.NewJSONHandler(os.Stdout, jsonHandlerOptions(logLevel))

	if remote.Token == "" {
		return &Logger{Logger: slog.New(NewContextHandler(local))}
	}

	opt := slogbetterstack.Option{
		Level: logLevel,
		Token: remote.Token,
	}
	if remote.Endpoint != "" {
		opt.Endpoint = remote.Endpoint
	}
	async := NewAsyncHandler(opt.NewBetterstackHandler(), AsyncOptions{})

	multi := NewMultiHandler(local, async)
	return &Logger{
		Logger: slog.New(NewContextHandler(multi)),
		async:  async,
	}
}

// Shutdown flushes any pending remote log records. It is a no-op for loggers
// without a remote pipeline.
func (l *Logger) Shutdown(timeout time.Duration) {
	if l == nil || l.async == nil {
		return
	}
	l.async.Shutdown(timeout)
}

func parseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func jsonHandlerOptions(logLevel slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "timestamp"
			}
			if a.Key == slog.LevelKey {
				a.Key = "level"
				level := a.Value.String()
				if level == "WARN" {
					level = "warning"
				} else {
					level = strings.ToLower(level)
				}
				a.Value = slog.StringValue(level)
			}
			if a.Key == slog.MessageKey {
				a.Key = "message"
			}
			return a
		},
	}
}

// WithModule creates a new entry with module field
func (l *Logger) WithModule(module string) *Logger {
	return &Logger{Logger: l.With("module", module), async: l.async}
}

// WithSessionID creates a new entry with session ID field
func (l *Logger) WithSessionID(sessionID string) *Logger {
	return &Logger{Logger: l.With("session_id", sessionID), async: l.async}
}

// WithError creates a new entry with error field
func (l *Logger) WithError(err error) *Logger {
	return &Logger{Logger: l.With("error", err), async: l.async}
}

// WithField creates a new entry with a single field
func (l *Logger) WithField(key string, value any) *Logger {
	return &Logger{Logger: l.With(key, value), async: l.async}
}

// WithFields creates a new entry with multiple fields
func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...), async: l.async}
}

// Compatibility methods for logrus-style formatting

// Infof logs a formatted message at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.Info(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted message at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.Warn(fmt.Sprintf(format, args...))
}

// Errorf logs a formatted message at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.Error(fmt.Sprintf(format, args...))
}

// Debugf logs a formatted message at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.Debug(fmt.Sprintf(format, args...))
}
