package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/felixgeelhaar/provision/internal/ports"
)

// FileTimestampFormat is the timestamp layout of session log lines.
const FileTimestampFormat = "2006-01-02 15:04:05"

// fileSink is the append-only file shared by a FileLogger and its children.
type fileSink struct {
	mu   sync.Mutex
	w    io.WriteCloser
	path string
}

// FileLogger appends one line per entry to the session log file:
//
//	<timestamp>: [<LEVEL>] <message> key=value...
type FileLogger struct {
	sink   *fileSink
	level  *levelVar
	fields []ports.Field
	now    func() time.Time
}

// levelVar is a minimum level shared between a logger and its children.
type levelVar struct {
	mu    sync.RWMutex
	level ports.Level
}

func (v *levelVar) get() ports.Level {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.level
}

func (v *levelVar) set(level ports.Level) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.level = level
}

// FileLoggerOption configures the file logger.
type FileLoggerOption func(*FileLogger)

// WithFileLevel sets the minimum level written to the file (default: Info).
func WithFileLevel(level ports.Level) FileLoggerOption {
	return func(l *FileLogger) {
		l.level.set(level)
	}
}

// WithFileClock overrides the time source used for timestamps.
func WithFileClock(now func() time.Time) FileLoggerOption {
	return func(l *FileLogger) {
		l.now = now
	}
}

// NewFileLogger opens (or creates) path for appending, creating parent
// directories as needed.
func NewFileLogger(path string, opts ...FileLoggerOption) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	return newFileLogger(f, path, opts...), nil
}

// NewWriterLogger writes session log lines to w. Used in tests and when
// the log must go to an already open stream.
func NewWriterLogger(w io.Writer, opts ...FileLoggerOption) *FileLogger {
	return newFileLogger(nopCloser{w}, "", opts...)
}

func newFileLogger(w io.WriteCloser, path string, opts ...FileLoggerOption) *FileLogger {
	l := &FileLogger{
		sink:  &fileSink{w: w, path: path},
		level: &levelVar{level: ports.LevelInfo},
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Path returns the log file location, or "" for writer-backed loggers.
func (l *FileLogger) Path() string {
	return l.sink.path
}

// Close closes the underlying file. Later writes are dropped.
func (l *FileLogger) Close() error {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.w == nil {
		return nil
	}
	err := l.sink.w.Close()
	l.sink.w = nil
	return err
}

// Debug logs a debug message.
func (l *FileLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *FileLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Success logs a completed unit of work.
func (l *FileLogger) Success(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelSuccess, msg, fields)
}

// Warn logs a warning message.
func (l *FileLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *FileLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// Header logs a section heading.
func (l *FileLogger) Header(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelHeader, msg, fields)
}

// With returns a logger writing to the same file with extra fields.
func (l *FileLogger) With(fields ...ports.Field) ports.Logger {
	return &FileLogger{
		sink:   l.sink,
		level:  l.level,
		fields: mergeFields(l.fields, fields),
		now:    l.now,
	}
}

// Level returns the minimum log level.
func (l *FileLogger) Level() ports.Level {
	return l.level.get()
}

// SetLevel sets the minimum log level.
func (l *FileLogger) SetLevel(level ports.Level) {
	l.level.set(level)
}

func (l *FileLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	if !ports.Enabled(l.level.get(), level) {
		return
	}

	line := fmt.Sprintf("%s: [%s] %s%s\n",
		l.now().Format(FileTimestampFormat),
		level.String(),
		singleLine(msg),
		formatFields(mergeFields(l.fields, fields)),
	)

	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	if l.sink.w == nil {
		return
	}
	_, _ = io.WriteString(l.sink.w, line)
}

// singleLine keeps one entry per line so the log stays grep-friendly.
func singleLine(s string) string {
	return strings.ReplaceAll(strings.TrimRight(s, "\n"), "\n", " | ")
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }

// Ensure FileLogger implements Logger.
var _ ports.Logger = (*FileLogger)(nil)
