package builtin

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

func render(t *testing.T, r extension.Renderer, width int, items []item.Item) []item.Item {
	t.Helper()
	out, err := r.Render(context.Background(), extension.RenderParams{Items: items, Width: width})
	require.NoError(t, err)
	require.Len(t, out, len(items))
	return out
}

func TestSmartPath(t *testing.T) {
	items := promote("a/bc/file.go", "plain")
	got := render(t, SmartPath{Separator: "/"}, 80, items)

	assert.Equal(t, "file.go a/bc", got[0].Label)
	assert.Equal(t, "a/bc/file.go", got[0].Value)
	assert.Equal(t, []item.Decoration{{Column: 8, Length: 5, Highlight: HighlightDim}}, got[0].Decorations)
	assert.Equal(t, items[1], got[1], "labels without a separator are untouched")
}

func TestSmartPath_ProjectsDecorations(t *testing.T) {
	it := promote("ab/cd.go")[0].WithDecorations([]item.Decoration{
		{Column: 4, Length: 2, Highlight: HighlightMatch}, // "cd"
		{Column: 1, Length: 1, Highlight: HighlightMatch}, // "a"
		{Column: 2, Length: 3, Highlight: HighlightMatch}, // "b/c"
	})
	got := render(t, SmartPath{Separator: "/"}, 80, []item.Item{it})[0]

	// "cd.go ab"
	require.Equal(t, "cd.go ab", got.Label)
	assert.Equal(t, []item.Decoration{
		{Column: 1, Length: 2, Highlight: HighlightMatch},
		{Column: 7, Length: 1, Highlight: HighlightMatch},
		{Column: 8, Length: 1, Highlight: HighlightMatch},
		{Column: 1, Length: 1, Highlight: HighlightMatch},
		{Column: 6, Length: 3, Highlight: HighlightDim},
	}, got.Decorations)
}

func TestTruncate(t *testing.T) {
	it := promote("abcdefghij")[0].WithDecorations([]item.Decoration{
		{Column: 1, Length: 2, Highlight: HighlightMatch}, // "ab"
		{Column: 5, Length: 2, Highlight: HighlightMatch}, // "ef", elided
		{Column: 9, Length: 2, Highlight: HighlightMatch}, // "ij"
	})
	got := render(t, Truncate{Reserve: 2}, 9, []item.Item{it})[0]

	require.Equal(t, "abc…hij", got.Label)
	assert.Equal(t, []item.Decoration{
		{Column: 1, Length: 2, Highlight: HighlightMatch},
		{Column: 8, Length: 2, Highlight: HighlightMatch},
	}, got.Decorations)
	assert.Equal(t, "ij", got.Label[got.Decorations[1].Column-1:])
}

func TestTruncate_FitsUnchanged(t *testing.T) {
	items := promote("short")
	got := render(t, Truncate{}, 10, items)
	assert.Equal(t, items, got)

	got = render(t, Truncate{Reserve: 20}, 10, items)
	assert.Equal(t, items, got)
}
