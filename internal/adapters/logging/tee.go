package logging

import (
	"context"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// TeeLogger forwards every entry to each of its loggers, letting the
// console and the session log file each apply their own minimum level.
type TeeLogger struct {
	loggers []ports.Logger
}

// NewTeeLogger creates a logger that mirrors to all given loggers.
// Nil loggers are ignored.
func NewTeeLogger(loggers ...ports.Logger) *TeeLogger {
	t := &TeeLogger{}
	for _, l := range loggers {
		if l != nil {
			t.loggers = append(t.loggers, l)
		}
	}
	return t
}

// Debug logs a debug message.
func (t *TeeLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Debug(ctx, msg, fields...)
	}
}

// Info logs an informational message.
func (t *TeeLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Info(ctx, msg, fields...)
	}
}

// Success logs a completed unit of work.
func (t *TeeLogger) Success(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Success(ctx, msg, fields...)
	}
}

// Warn logs a warning message.
func (t *TeeLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Warn(ctx, msg, fields...)
	}
}

// Error logs an error message.
func (t *TeeLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Error(ctx, msg, fields...)
	}
}

// Header logs a section heading.
func (t *TeeLogger) Header(ctx context.Context, msg string, fields ...ports.Field) {
	for _, l := range t.loggers {
		l.Header(ctx, msg, fields...)
	}
}

// With returns a tee whose loggers all carry the extra fields.
func (t *TeeLogger) With(fields ...ports.Field) ports.Logger {
	children := make([]ports.Logger, 0, len(t.loggers))
	for _, l := range t.loggers {
		children = append(children, l.With(fields...))
	}
	return &TeeLogger{loggers: children}
}

// Level returns the lowest minimum level among the loggers.
func (t *TeeLogger) Level() ports.Level {
	if len(t.loggers) == 0 {
		return ports.LevelInfo
	}
	level := t.loggers[0].Level()
	for _, l := range t.loggers[1:] {
		if l.Level() < level {
			level = l.Level()
		}
	}
	return level
}

// SetLevel sets the minimum level on every logger.
func (t *TeeLogger) SetLevel(level ports.Level) {
	for _, l := range t.loggers {
		l.SetLevel(level)
	}
}

// Ensure TeeLogger implements Logger.
var _ ports.Logger = (*TeeLogger)(nil)
