package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(level Level) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(&Config{
		Level:       level,
		ServiceName: "test",
		JSONFormat:  true,
		Output:      buf,
	})
	return l, buf
}

func parseLine(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(line), &m))
	return m
}

func TestLoggerEmitsJSON(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Info("resolved player", F("source", "gsis"), F("confidence", 0.95))

	entry := parseLine(t, buf.String())
	assert.Equal(t, "resolved player", entry["message"])
	assert.Equal(t, "gsis", entry["source"])
	assert.Equal(t, 0.95, entry["confidence"])
	assert.Equal(t, "test", entry["service_name"])
}

func TestLoggerLevelFiltering(t *testing.T) {
	l, buf := newTestLogger(LevelWarn)

	l.Debug("debug message")
	l.Info("info message")
	l.Warn("warn message")

	out := buf.String()
	assert.NotContains(t, out, "debug message")
	assert.NotContains(t, out, "info message")
	assert.Contains(t, out, "warn message")
}

func TestLoggerWithFields(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	child := l.With(F("session_id", "sess_abc123"))
	child.Info("first")
	child.Info("second")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		entry := parseLine(t, line)
		assert.Equal(t, "sess_abc123", entry["session_id"])
	}
}

func TestLoggerWithContext(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	ctx := context.WithValue(context.Background(), SessionIDKey, "sess_xyz")
	ctx = context.WithValue(ctx, BatchIDKey, "batch_7")

	l.WithContext(ctx).Info("from context")

	entry := parseLine(t, buf.String())
	assert.Equal(t, "sess_xyz", entry["session_id"])
	assert.Equal(t, "batch_7", entry["batch_id"])
}

func TestLoggerErrField(t *testing.T) {
	l, buf := newTestLogger(LevelDebug)

	l.Error("store failed", Err(errors.New("connection refused")))

	entry := parseLine(t, buf.String())
	assert.Equal(t, "connection refused", entry["error"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()

	// Must not panic, and chained loggers stay nop.
	l.Info("ignored")
	l.With(F("k", "v")).Error("ignored")
	l.WithContext(context.Background()).Debug("ignored")
}

func TestNilConfigUsesDefaults(t *testing.T) {
	assert.NotPanics(t, func() {
		l := NewLogger(nil)
		_ = l
	})
}
