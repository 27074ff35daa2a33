package builtin

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runger/sift/internal/extension"
)

// Preview limits.
const (
	maxPreviewBytes = 1024 * 1024
	sniffBytes      = 8000
)

// FilePreview shows the file named by a detail attribute and puts the cursor
// on the line and column named by two more. Items without the path
// attribute are left to the next previewer.
type FilePreview struct {
	PathAttr   string // "path" when empty
	LineAttr   string // "line" when empty
	ColumnAttr string // "column" when empty
}

func (FilePreview) Description() string { return "file" }

func (p FilePreview) Preview(ctx context.Context, params extension.PreviewParams) (bool, error) {
	it := params.Item
	path, ok := it.DetailString(orDefault(p.PathAttr, "path"))
	if !ok || path == "" {
		return true, nil
	}
	line, ok := it.DetailInt(orDefault(p.LineAttr, "line"))
	if !ok || line < 1 {
		line = 1
	}
	column, ok := it.DetailInt(orDefault(p.ColumnAttr, "column"))
	if !ok || column < 1 {
		column = 1
	}

	lines, filetype, err := readPreview(path)
	if err != nil {
		return false, err
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s := params.Surface
	s.SetTitle(path)
	s.Replace(lines, filetype)
	s.MoveCursorTo(line, column)
	return false, nil
}

// readPreview loads the head of a file as display lines. Directories are
// listed and binary files are summarized.
func readPreview(path string) ([]string, string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", fmt.Errorf("preview %s: %w", path, err)
	}
	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, "", fmt.Errorf("preview %s: %w", path, err)
		}
		lines := make([]string, len(entries))
		for i, e := range entries {
			lines[i] = e.Name()
			if e.IsDir() {
				lines[i] += string(os.PathSeparator)
			}
		}
		return lines, "directory", nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("preview %s: %w", path, err)
	}
	defer f.Close()

	buf := make([]byte, min(info.Size(), maxPreviewBytes))
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, "", fmt.Errorf("preview %s: %w", path, err)
	}
	buf = buf[:n]
	if bytes.IndexByte(buf[:min(len(buf), sniffBytes)], 0) >= 0 {
		return []string{fmt.Sprintf("(binary file, %d bytes)", info.Size())}, "", nil
	}

	lines := strings.Split(strings.TrimSuffix(string(buf), "\n"), "\n")
	for i, l := range lines {
		lines[i] = CleanLine(strings.TrimSuffix(l, "\r"))
	}
	return lines, strings.TrimPrefix(filepath.Ext(path), "."), nil
}

// DetailPreview dumps the item as YAML. It applies to every item, so it
// belongs at the end of the chain. Redacted items show their masked label
// in place of the value.
type DetailPreview struct{}

func (DetailPreview) Description() string { return "detail" }

func (DetailPreview) Preview(ctx context.Context, params extension.PreviewParams) (bool, error) {
	it := params.Item
	value := it.Value
	if redacted, _ := it.Detail["redacted"].(bool); redacted {
		value = it.Label
	}
	doc := struct {
		ID     string         `yaml:"id"`
		Value  string         `yaml:"value"`
		Label  string         `yaml:"label,omitempty"`
		Detail map[string]any `yaml:"detail,omitempty"`
	}{it.ID, value, it.Label, it.Detail}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return false, fmt.Errorf("marshal item %s: %w", it.ID, err)
	}
	lines := strings.Split(strings.TrimSuffix(string(out), "\n"), "\n")
	for i, l := range lines {
		lines[i] = CleanLine(l)
	}
	s := params.Surface
	s.SetTitle("item " + it.ID)
	s.Replace(lines, "yaml")
	return false, nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// Compile-time checks.
var (
	_ extension.Previewer = FilePreview{}
	_ extension.Previewer = DetailPreview{}
)
