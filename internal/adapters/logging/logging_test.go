package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/felixgeelhaar/provision/internal/ports"
	"github.com/felixgeelhaar/provision/internal/ui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = func() time.Time {
	return time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
}

func TestNopLogger_Methods(t *testing.T) {
	logger := NewNopLogger()
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Success(ctx, "success message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")
	logger.Header(ctx, "header message")

	assert.Same(t, logger, logger.With(ports.F("key", "value")))
	assert.Equal(t, ports.LevelInfo, logger.Level())

	logger.SetLevel(ports.LevelDebug)
	assert.Equal(t, ports.LevelDebug, logger.Level())
}

func newPlainConsole(buf *bytes.Buffer, opts ...ConsoleLoggerOption) *ConsoleLogger {
	base := []ConsoleLoggerOption{
		WithOutput(buf),
		WithStyles(ui.PlainStyles()),
		WithClock(fixedNow),
	}
	return NewConsoleLogger(append(base, opts...)...)
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newPlainConsole(&buf, WithTimestamp(false))

	logger.Success(context.Background(), "ripgrep installed", ports.F("manager", "apt"))

	assert.Equal(t, "[SUCCESS] ripgrep installed manager=apt\n", buf.String())
}

func TestConsoleLogger_Timestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := newPlainConsole(&buf)

	logger.Warn(context.Background(), "careful")

	assert.Equal(t, "09:26:53 [WARNING] careful\n", buf.String())
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newPlainConsole(&buf, WithLevel(ports.LevelWarn), WithTimestamp(false))
	ctx := context.Background()

	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Success(ctx, "success")
	logger.Error(ctx, "error")
	logger.Header(ctx, "Section")

	out := buf.String()
	assert.NotContains(t, out, "debug")
	assert.NotContains(t, out, "info")
	assert.NotContains(t, out, "success")
	assert.Contains(t, out, "[ERROR] error")
	assert.Contains(t, out, "==> Section", "headers ignore the minimum level")
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := newPlainConsole(&buf, WithJSONFormat(true))

	logger.Error(context.Background(), "install failed", ports.F("error", errors.New("exit 100")))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "install failed", entry["msg"])
	assert.Equal(t, "exit 100", entry["error"])
	assert.Equal(t, "2026-03-14T", entry["time"].(string)[:11])
}

func TestConsoleLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := newPlainConsole(&buf, WithTimestamp(false))

	child := logger.With(ports.F("step", "cli-tools"))
	child.Info(context.Background(), "probing", ports.F("unit", "fd"))
	logger.Info(context.Background(), "plain")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[INFO] probing step=cli-tools unit=fd", lines[0])
	assert.Equal(t, "[INFO] plain", lines[1])
}

func TestFileLogger_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, WithFileClock(fixedNow))
	ctx := context.Background()

	logger.Header(ctx, "Installing CLI tools")
	logger.Info(ctx, "fd already installed, skipping")
	logger.Error(ctx, "bat failed\nsecond line", ports.F("manager", "apt"))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "2026-03-14 09:26:53: [HEADER] Installing CLI tools", lines[0])
	assert.Equal(t, "2026-03-14 09:26:53: [INFO] fd already installed, skipping", lines[1])
	assert.Equal(t, "2026-03-14 09:26:53: [ERROR] bat failed | second line manager=apt", lines[2])
}

func TestFileLogger_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, WithFileClock(fixedNow))
	ctx := context.Background()

	logger.Debug(ctx, "Running manifest")
	logger.Success(ctx, "git installed")

	assert.Equal(t, ports.LevelInfo, logger.Level())
	assert.Equal(t, "2026-03-14 09:26:53: [SUCCESS] git installed\n", buf.String())
}

func TestFileLogger_AppendsToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "provision-20260314-092653.log")

	logger, err := NewFileLogger(path, WithFileClock(fixedNow))
	require.NoError(t, err)
	assert.Equal(t, path, logger.Path())

	logger.Info(context.Background(), "first")
	require.NoError(t, logger.Close())

	logger, err = NewFileLogger(path, WithFileClock(fixedNow))
	require.NoError(t, err)
	logger.With(ports.F("step", 2)).Success(context.Background(), "second")
	require.NoError(t, logger.Close())

	// Writes after Close are dropped rather than failing.
	logger.Info(context.Background(), "dropped")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t,
		"2026-03-14 09:26:53: [INFO] first\n2026-03-14 09:26:53: [SUCCESS] second step=2\n",
		string(data))
}

func TestFileLogger_SharedLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWriterLogger(&buf, WithFileLevel(ports.LevelInfo))
	child := logger.With(ports.F("k", "v"))

	logger.SetLevel(ports.LevelError)
	child.Info(context.Background(), "hidden")

	assert.Empty(t, buf.String())
	assert.Equal(t, ports.LevelError, child.Level())
}

func TestTeeLogger_Mirrors(t *testing.T) {
	var console, file bytes.Buffer
	tee := NewTeeLogger(
		newPlainConsole(&console, WithTimestamp(false)),
		NewWriterLogger(&file, WithFileClock(fixedNow), WithFileLevel(ports.LevelDebug)),
		nil,
	)
	ctx := context.Background()

	tee.Debug(ctx, "only in file")
	tee.With(ports.F("unit", "jq")).Success(ctx, "installed")

	assert.Equal(t, "[SUCCESS] installed unit=jq\n", console.String())
	assert.Contains(t, file.String(), "[DEBUG] only in file")
	assert.Contains(t, file.String(), "[SUCCESS] installed unit=jq")
	assert.Equal(t, ports.LevelDebug, tee.Level())

	tee.SetLevel(ports.LevelError)
	assert.Equal(t, ports.LevelError, tee.Level())
}

func TestTeeLogger_Empty(t *testing.T) {
	tee := NewTeeLogger()
	tee.Info(context.Background(), "nowhere")
	assert.Equal(t, ports.LevelInfo, tee.Level())
}
