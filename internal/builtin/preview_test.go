package builtin

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

type fakeSurface struct {
	lines    []string
	filetype string
	title    string
	line     int
	column   int
}

func (s *fakeSurface) Size() (int, int) { return 80, 20 }

func (s *fakeSurface) Replace(lines []string, filetype string) {
	s.lines = lines
	s.filetype = filetype
}

func (s *fakeSurface) SetTitle(title string)         { s.title = title }
func (s *fakeSurface) MoveCursorTo(line, column int) { s.line, s.column = line, column }
func (s *fakeSurface) MoveCursor(offset int)         { s.line += offset }
func (s *fakeSurface) Clear()                        { *s = fakeSurface{} }

func preview(t *testing.T, p extension.Previewer, it item.Item) (*fakeSurface, bool, error) {
	t.Helper()
	s := &fakeSurface{}
	skip, err := p.Preview(context.Background(), extension.PreviewParams{Item: it, Surface: s})
	return s, skip, err
}

func withDetail(value string, detail map[string]any) item.Item {
	return item.Promote(0, item.SourceItem{Value: value, Detail: detail})
}

func TestFilePreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.go")
	require.NoError(t, os.WriteFile(path, []byte("package main\n\nfunc main() {}\n"), 0o600))

	s, skip, err := preview(t, FilePreview{}, withDetail("main.go", map[string]any{"path": path, "line": 3, "column": float64(6)}))
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, []string{"package main", "", "func main() {}"}, s.lines)
	assert.Equal(t, "go", s.filetype)
	assert.Equal(t, path, s.title)
	assert.Equal(t, 3, s.line)
	assert.Equal(t, 6, s.column)
}

func TestFilePreview_DefaultsCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	s, _, err := preview(t, FilePreview{}, withDetail("n", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.Equal(t, 1, s.line)
	assert.Equal(t, 1, s.column)
	assert.Empty(t, s.filetype)
}

func TestFilePreview_SkipsWithoutPath(t *testing.T) {
	_, skip, err := preview(t, FilePreview{}, withDetail("x", nil))
	require.NoError(t, err)
	assert.True(t, skip)
}

func TestFilePreview_CustomAttributes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("1\n2\n"), 0o600))

	p := FilePreview{PathAttr: "bufname", LineAttr: "lnum"}
	s, skip, err := preview(t, p, withDetail("a", map[string]any{"bufname": path, "lnum": 2}))
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, 2, s.line)
}

func TestFilePreview_Binary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte{'a', 0, 'b'}, 0o600))

	s, _, err := preview(t, FilePreview{}, withDetail("b", map[string]any{"path": path}))
	require.NoError(t, err)
	assert.Equal(t, []string{"(binary file, 3 bytes)"}, s.lines)
}

func TestFilePreview_Directory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "f"), nil, 0o600))

	s, _, err := preview(t, FilePreview{}, withDetail("d", map[string]any{"path": dir}))
	require.NoError(t, err)
	assert.Equal(t, []string{"f", "sub" + string(os.PathSeparator)}, s.lines)
	assert.Equal(t, "directory", s.filetype)
}

func TestFilePreview_Missing(t *testing.T) {
	_, skip, err := preview(t, FilePreview{}, withDetail("m", map[string]any{"path": "/nonexistent/file"}))
	assert.Error(t, err)
	assert.False(t, skip)
}

func TestDetailPreview(t *testing.T) {
	s, skip, err := preview(t, DetailPreview{}, withDetail("v", map[string]any{"path": "/a"}))
	require.NoError(t, err)
	assert.False(t, skip)
	assert.Equal(t, "yaml", s.filetype)
	assert.Equal(t, "item 0", s.title)
	assert.Equal(t, []string{`id: "0"`, "value: v", "detail:", "    path: /a"}, s.lines)
}

func TestDetailPreview_RedactedHidesValue(t *testing.T) {
	it := withDetail("curl -u bob:hunter2 https://x", map[string]any{"redacted": true}).WithLabel("curl -u bob:[REDACTED] https://x")
	s, _, err := preview(t, DetailPreview{}, it)
	require.NoError(t, err)
	for _, l := range s.lines {
		assert.NotContains(t, l, "hunter2")
	}
}
