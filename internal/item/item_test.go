package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPromote_Defaults(t *testing.T) {
	it := Promote(7, SourceItem{Value: "a"})

	assert.Equal(t, "7", it.ID)
	assert.Equal(t, "a", it.Value)
	assert.Equal(t, "", it.Label)
	assert.NotNil(t, it.Detail)
	assert.Empty(t, it.Detail)
	assert.NotNil(t, it.Decorations)
	assert.Empty(t, it.Decorations)
}

func TestPromote_KeepsDetail(t *testing.T) {
	it := Promote(0, SourceItem{Value: "a", Label: "A", Detail: map[string]any{"path": "/tmp/a"}})

	assert.Equal(t, "A", it.Display())
	path, ok := it.DetailString("path")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/a", path)
}

func TestDisplay_FallsBackToValue(t *testing.T) {
	assert.Equal(t, "v", Item{Value: "v"}.Display())
}

func TestWithDecorations_DoesNotTouchOriginal(t *testing.T) {
	orig := Promote(0, SourceItem{Value: "abc"})
	dec := orig.WithDecorations([]Decoration{{Column: 1, Length: 1, Highlight: "Match"}})

	assert.Empty(t, orig.Decorations)
	assert.Len(t, dec.Decorations, 1)
	assert.Equal(t, orig.ID, dec.ID)
}

func TestDetailInt(t *testing.T) {
	it := Item{Detail: map[string]any{"a": 3, "b": float64(4), "c": "x"}}

	n, ok := it.DetailInt("a")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	n, ok = it.DetailInt("b")
	assert.True(t, ok)
	assert.Equal(t, 4, n)

	_, ok = it.DetailInt("c")
	assert.False(t, ok)
}
