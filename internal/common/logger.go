// Package common holds the logging setup shared by every component.
package common

import (
	"io"
	"log/slog"
	"strings"
)

// LoggerMixin is embedded by components that log. Every record carries the
// component name so one stream can mix ledger, controller and journal output.
type LoggerMixin struct {
	component string
	logger    *slog.Logger
}

func NewLoggerMixin(component string) LoggerMixin {
	l := LoggerMixin{component: component}
	l.SetLogger(slog.Default())
	return l
}

// SetLogger replaces the base logger. nil is ignored.
func (l *LoggerMixin) SetLogger(logger *slog.Logger) {
	if logger == nil {
		return
	}
	if l.component != "" {
		logger = logger.With("component", l.component)
	}
	l.logger = logger
}

// GetLogger returns the component logger. A zero LoggerMixin falls back to
// slog.Default.
func (l *LoggerMixin) GetLogger() *slog.Logger {
	if l.logger == nil {
		return slog.Default()
	}
	return l.logger
}

// ParseLevel maps a config level name to a slog level. Unknown names are info.
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

// NewLogger builds a logger writing to w in "text" or "json" format.
func NewLogger(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
