package history

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scan(t *testing.T, shell, content string) []Entry {
	t.Helper()
	var entries []Entry
	for e, err := range Scan(context.Background(), strings.NewReader(content), shell) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	return entries
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "history")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// --- Bash ---

func TestScanBash_Basic(t *testing.T) {
	entries := scan(t, ShellBash, "ls -la\ngit status\necho hello\n")

	require.Len(t, entries, 3)
	assert.Equal(t, "ls -la", entries[0].Command)
	assert.Equal(t, "git status", entries[1].Command)
	assert.Equal(t, "echo hello", entries[2].Command)
	assert.True(t, entries[0].Timestamp.IsZero())
}

func TestScanBash_WithTimestamps(t *testing.T) {
	// Bash stores timestamps as #<unix_ts> on the line before command
	content := `#1706000001
ls -la
#1706000002
git status
echo hello
`
	entries := scan(t, ShellBash, content)

	require.Len(t, entries, 3)
	assert.Equal(t, time.Unix(1706000001, 0), entries[0].Timestamp)
	assert.Equal(t, time.Unix(1706000002, 0), entries[1].Timestamp)
	assert.True(t, entries[2].Timestamp.IsZero())
}

func TestScanBash_CommentNotTimestamp(t *testing.T) {
	entries := scan(t, ShellBash, "#not-a-timestamp\nls\n\n")

	require.Len(t, entries, 2)
	assert.Equal(t, "#not-a-timestamp", entries[0].Command)
}

// --- Zsh ---

func TestScanZsh_Extended(t *testing.T) {
	content := `: 1706000001:0;ls -la
: 1706000002:5;git status
: 1706000003:10;echo hello
`
	entries := scan(t, ShellZsh, content)

	require.Len(t, entries, 3)
	assert.Equal(t, "ls -la", entries[0].Command)
	assert.Equal(t, time.Unix(1706000001, 0), entries[0].Timestamp)
	assert.Equal(t, "echo hello", entries[2].Command)
	assert.Equal(t, time.Unix(1706000003, 0), entries[2].Timestamp)
}

func TestScanZsh_Multiline(t *testing.T) {
	content := `: 1706000001:0;docker run \
--name test \
alpine
: 1706000002:0;ls -la
`
	entries := scan(t, ShellZsh, content)

	require.Len(t, entries, 2)
	assert.Equal(t, "docker run \n--name test \nalpine", entries[0].Command)
	assert.Equal(t, time.Unix(1706000001, 0), entries[0].Timestamp)
	assert.Equal(t, "ls -la", entries[1].Command)
}

func TestScanZsh_UnterminatedMultiline(t *testing.T) {
	entries := scan(t, ShellZsh, ": 1706000001:0;echo a \\\n")

	require.Len(t, entries, 1)
	assert.Equal(t, "echo a ", entries[0].Command)
}

func TestScanZsh_EscapedBackslash(t *testing.T) {
	content := `: 1706000001:0;echo path\\
: 1706000002:0;ls -la
`
	entries := scan(t, ShellZsh, content)

	require.Len(t, entries, 2)
	assert.Equal(t, `echo path\\`, entries[0].Command)
}

// --- Fish ---

func TestScanFish_Basic(t *testing.T) {
	content := `- cmd: ls -la
  when: 1706000001
- cmd: git status
  when: 1706000002
  paths:
    - /tmp
- cmd: echo a\nb \\ c
`
	entries := scan(t, ShellFish, content)

	require.Len(t, entries, 3)
	assert.Equal(t, "ls -la", entries[0].Command)
	assert.Equal(t, time.Unix(1706000001, 0), entries[0].Timestamp)
	assert.Equal(t, "git status", entries[1].Command)
	assert.Equal(t, "echo a\nb \\ c", entries[2].Command)
	assert.True(t, entries[2].Timestamp.IsZero())
}

func TestDecodeFishEscapes(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`hello`, "hello"},
		{`a\\b`, `a\b`},
		{`a\nb`, "a\nb"},
		{`trailing\`, `trailing\`},
		{`a\tb`, `a\tb`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeFishEscapes(tt.input))
		})
	}
}

func TestHasUnescapedTrailingBackslash(t *testing.T) {
	assert.True(t, hasUnescapedTrailingBackslash(`a\`))
	assert.False(t, hasUnescapedTrailingBackslash(`a\\`))
	assert.True(t, hasUnescapedTrailingBackslash(`a\\\`))
	assert.False(t, hasUnescapedTrailingBackslash(`a`))
	assert.False(t, hasUnescapedTrailingBackslash(""))
}

// --- Reading ---

func TestScan_UnsupportedShell(t *testing.T) {
	for _, err := range Scan(context.Background(), strings.NewReader("x"), "tcsh") {
		assert.Error(t, err)
	}
}

func TestScan_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var gotErr error
	for _, err := range Scan(ctx, strings.NewReader("a\nb\n"), ShellBash) {
		gotErr = err
	}
	assert.True(t, errors.Is(gotErr, context.Canceled))
}

func TestScan_EarlyBreak(t *testing.T) {
	n := 0
	for range Scan(context.Background(), strings.NewReader("a\nb\nc\n"), ShellBash) {
		n++
		if n == 2 {
			break
		}
	}
	assert.Equal(t, 2, n)
}

func TestRead_File(t *testing.T) {
	path := writeTempFile(t, ": 1706000001:0;make test\n")

	var entries []Entry
	for e, err := range Read(context.Background(), ShellZsh, path) {
		require.NoError(t, err)
		entries = append(entries, e)
	}
	require.Len(t, entries, 1)
	assert.Equal(t, "make test", entries[0].Command)
}

func TestRead_NonExistent(t *testing.T) {
	n := 0
	for _, err := range Read(context.Background(), ShellBash, "/nonexistent/path/to/history") {
		require.NoError(t, err)
		n++
	}
	assert.Zero(t, n)
}

func TestPath(t *testing.T) {
	t.Setenv("HISTFILE", "/tmp/custom_history")
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")

	assert.Equal(t, "/tmp/custom_history", Path(ShellZsh))
	assert.Equal(t, "/tmp/custom_history", Path(ShellBash))
	assert.Equal(t, "/tmp/xdg/fish/fish_history", Path(ShellFish))
	assert.Empty(t, Path("tcsh"))
}

func TestDetectShell(t *testing.T) {
	tests := []struct {
		shell    string
		expected string
	}{
		{"/bin/zsh", ShellZsh},
		{"/usr/local/bin/fish", ShellFish},
		{"/bin/bash", ShellBash},
		{"/bin/tcsh", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.shell, func(t *testing.T) {
			t.Setenv("SHELL", tt.shell)
			assert.Equal(t, tt.expected, DetectShell())
		})
	}
}
