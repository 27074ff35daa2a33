package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew_DefaultConfig(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, New(nil))
}

func TestNew_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Level: slog.LevelInfo})
	logger.Info("test message", "key", "value")

	entry := decode(t, &buf)
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "time")
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "test message", entry["msg"])
	assert.Equal(t, "value", entry["key"])
}

func TestNew_Levels(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	New(&Config{Output: &buf, Level: slog.LevelInfo}).Debug("hidden")
	assert.Empty(t, buf.String())

	New(&Config{Output: &buf, Debug: true}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv("SIFT_DEBUG", "1")
	assert.True(t, NewFromEnv().Enabled(t.Context(), slog.LevelDebug))

	t.Setenv("SIFT_DEBUG", "")
	assert.False(t, NewFromEnv().Enabled(t.Context(), slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestOpenFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "logs", "sift.log")
	for _, msg := range []string{"first", "second"} {
		f, err := OpenFile(path)
		require.NoError(t, err)
		New(&Config{Output: f}).Info(msg)
		require.NoError(t, f.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2, "file is appended to")
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestWithSession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger, id := WithSession(New(&Config{Output: &buf}))
	_, err := uuid.Parse(id)
	require.NoError(t, err)

	logger.Info("tagged")
	assert.Equal(t, id, decode(t, &buf)["session"])
}

func TestLogSession(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(&Config{Output: &buf})

	LogSessionStart(logger, SessionInfo{Source: "walk .", Threshold: 10, PID: 42})
	entry := decode(t, &buf)
	assert.Equal(t, "session started", entry["msg"])
	assert.Equal(t, "walk .", entry["source"])
	assert.EqualValues(t, 10, entry["threshold"])

	buf.Reset()
	LogSessionEnd(logger, "accepted", time.Now().Add(-time.Second))
	entry = decode(t, &buf)
	assert.Equal(t, "accepted", entry["outcome"])
	assert.GreaterOrEqual(t, entry["duration_ms"], float64(1000))
}
