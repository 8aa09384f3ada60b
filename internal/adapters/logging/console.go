package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/ui"
)

// ConsoleLogger logs leveled, colored messages to the terminal.
type ConsoleLogger struct {
	mu           *sync.Mutex
	out          io.Writer
	level        ports.Level
	fields       []ports.Field
	styles       ui.Styles
	now          func() time.Time
	jsonFormat   bool
	includeTime  bool
	includeLevel bool
}

// ConsoleLoggerOption configures the console logger.
type ConsoleLoggerOption func(*ConsoleLogger)

// WithOutput sets the output writer (default: os.Stderr).
func WithOutput(w io.Writer) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.out = w
	}
}

// WithLevel sets the minimum log level (default: Info).
func WithLevel(level ports.Level) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.level = level
	}
}

// WithJSONFormat enables JSON output format.
func WithJSONFormat(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.jsonFormat = enabled
	}
}

// WithTimestamp includes timestamp in log entries.
func WithTimestamp(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.includeTime = enabled
	}
}

// WithLevelLabel includes level label in log entries.
func WithLevelLabel(enabled bool) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.includeLevel = enabled
	}
}

// WithStyles sets the styles used to color each level.
func WithStyles(styles ui.Styles) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.styles = styles
	}
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) ConsoleLoggerOption {
	return func(l *ConsoleLogger) {
		l.now = now
	}
}

// NewConsoleLogger creates a new console logger.
func NewConsoleLogger(opts ...ConsoleLoggerOption) *ConsoleLogger {
	l := &ConsoleLogger{
		mu:           &sync.Mutex{},
		out:          os.Stderr,
		level:        ports.LevelInfo,
		styles:       ui.DefaultStyles(),
		now:          time.Now,
		includeTime:  true,
		includeLevel: true,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Debug logs a debug message.
func (l *ConsoleLogger) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelDebug, msg, fields)
}

// Info logs an informational message.
func (l *ConsoleLogger) Info(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelInfo, msg, fields)
}

// Success logs a completed unit of work.
func (l *ConsoleLogger) Success(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelSuccess, msg, fields)
}

// Warn logs a warning message.
func (l *ConsoleLogger) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelWarn, msg, fields)
}

// Error logs an error message.
func (l *ConsoleLogger) Error(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelError, msg, fields)
}

// Header logs a section heading.
func (l *ConsoleLogger) Header(ctx context.Context, msg string, fields ...ports.Field) {
	l.log(ctx, ports.LevelHeader, msg, fields)
}

// With returns a new logger with additional fields.
// The returned logger shares the output and its lock with l.
func (l *ConsoleLogger) With(fields ...ports.Field) ports.Logger {
	child := *l
	child.fields = mergeFields(l.fields, fields)
	return &child
}

// Level returns the minimum log level.
func (l *ConsoleLogger) Level() ports.Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// SetLevel sets the minimum log level.
func (l *ConsoleLogger) SetLevel(level ports.Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// log writes a log entry if the level is enabled.
func (l *ConsoleLogger) log(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !ports.Enabled(l.level, level) {
		return
	}

	allFields := mergeFields(l.fields, fields)

	if l.jsonFormat {
		l.writeJSON(level, msg, allFields)
	} else {
		l.writeText(level, msg, allFields)
	}
}

// writeJSON writes a JSON-formatted log entry.
func (l *ConsoleLogger) writeJSON(level ports.Level, msg string, fields []ports.Field) {
	entry := make(map[string]interface{})

	if l.includeTime {
		entry["time"] = l.now().UTC().Format(time.RFC3339)
	}
	if l.includeLevel {
		entry["level"] = level.String()
	}
	entry["msg"] = msg

	for _, f := range fields {
		entry[f.Key] = jsonValue(f.Value)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return
	}

	_, _ = fmt.Fprintln(l.out, string(data))
}

// writeText writes a human-readable log entry.
func (l *ConsoleLogger) writeText(level ports.Level, msg string, fields []ports.Field) {
	var b strings.Builder

	if level == ports.LevelHeader {
		b.WriteString("\n")
		b.WriteString(l.styles.Header.Render("==> " + msg))
		b.WriteString(formatFields(fields))
		_, _ = fmt.Fprintln(l.out, b.String())
		return
	}

	if l.includeTime {
		b.WriteString(l.styles.Muted.Render(l.now().Format("15:04:05")))
		b.WriteString(" ")
	}
	if l.includeLevel {
		b.WriteString(l.levelStyle(level).Render(fmt.Sprintf("[%s]", level.String())))
		b.WriteString(" ")
	}

	b.WriteString(msg)
	if extra := formatFields(fields); extra != "" {
		b.WriteString(l.styles.Muted.Render(extra))
	}

	_, _ = fmt.Fprintln(l.out, b.String())
}

func (l *ConsoleLogger) levelStyle(level ports.Level) lipgloss.Style {
	switch level {
	case ports.LevelSuccess:
		return l.styles.Success
	case ports.LevelWarn:
		return l.styles.Warning
	case ports.LevelError:
		return l.styles.Error
	case ports.LevelDebug:
		return l.styles.Muted
	default:
		return l.styles.Info
	}
}

// mergeFields combines base fields with call-specific fields.
func mergeFields(base, extra []ports.Field) []ports.Field {
	all := make([]ports.Field, len(base)+len(extra))
	copy(all, base)
	copy(all[len(base):], extra)
	return all
}

// formatFields renders fields as " key=value key=value".
func formatFields(fields []ports.Field) string {
	if len(fields) == 0 {
		return ""
	}
	var b strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	return b.String()
}

// jsonValue makes error values readable after marshaling.
func jsonValue(v interface{}) interface{} {
	if err, ok := v.(error); ok {
		return err.Error()
	}
	if d, ok := v.(time.Duration); ok {
		return d.String()
	}
	return v
}

// Ensure ConsoleLogger implements Logger.
var _ ports.Logger = (*ConsoleLogger)(nil)
