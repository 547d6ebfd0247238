// Package logger wraps log/slog with a JSON handler and a few field helpers
// used across the matching pipeline and the HTTP server.
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the application logger
type Logger struct {
	*slog.Logger
	level slog.Level
}

// New creates a JSON logger writing to stdout
func New(level string) *Logger {
	return NewWithWriter(level, os.Stdout)
}

// NewWithWriter creates a JSON logger writing to w
func NewWithWriter(level string, w io.Writer) *Logger {
	logLevel := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level: logLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			switch a.Key {
			case slog.TimeKey:
				a.Key = "timestamp"
			case slog.LevelKey:
				lvl := a.Value.String()
				if lvl == "WARN" {
					lvl = "warning"
				}
				a.Key = "level"
				a.Value = slog.StringValue(strings.ToLower(lvl))
			case slog.MessageKey:
				a.Key = "message"
			}
			return a
		},
	}
	return &Logger{Logger: slog.New(slog.NewJSONHandler(w, opts)), level: logLevel}
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewWithWriter("error", io.Discard)
}

func (l *Logger) Level() slog.Level { return l.level }

func (l *Logger) WithModule(module string) *Logger {
	return l.with("module", module)
}

func (l *Logger) WithRequestID(requestID string) *Logger {
	return l.with("request_id", requestID)
}

func (l *Logger) WithError(err error) *Logger {
	return l.with("error", err)
}

func (l *Logger) WithField(key string, value any) *Logger {
	return l.with(key, value)
}

func (l *Logger) WithFields(fields map[string]any) *Logger {
	args := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{Logger: l.With(args...), level: l.level}
}

func (l *Logger) with(key string, value any) *Logger {
	return &Logger{Logger: l.With(key, value), level: l.level}
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
