package builtin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

func promote(values ...string) []item.Item {
	out := make([]item.Item, len(values))
	for i, v := range values {
		out[i] = item.Promote(i, item.SourceItem{Value: v})
	}
	return out
}

func transform(t *testing.T, tr extension.Transformer, items []item.Item) ([]item.Item, error) {
	t.Helper()
	ctx := context.Background()
	stream := tr.Transform(ctx, extension.TransformParams{Items: extension.SliceStream(ctx, items)})
	return extension.Collect(ctx, stream, len(items))
}

func TestSanitize(t *testing.T) {
	items := promote("plain", "\x1b[31mred\x1b[0m")
	got, err := transform(t, Sanitize{}, items)
	require.NoError(t, err)

	assert.Empty(t, got[0].Label)
	assert.Equal(t, "red", got[1].Label)
	assert.Equal(t, "\x1b[31mred\x1b[0m", got[1].Value, "value is kept verbatim")
}

func TestSanitize_PropagatesError(t *testing.T) {
	boom := errors.New("boom")
	stream := func(yield func(item.Item, error) bool) {
		if !yield(promote("a")[0], nil) {
			return
		}
		yield(item.Item{}, boom)
	}
	ctx := context.Background()
	_, err := extension.Collect(ctx, Sanitize{}.Transform(ctx, extension.TransformParams{Items: stream}), 0)
	assert.ErrorIs(t, err, boom)
}

func TestUnique(t *testing.T) {
	got, err := transform(t, Unique{Attr: ParseAttr("value")}, promote("a", "b", "a", "c", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, item.Values(got))
	assert.Equal(t, []string{"0", "1", "3"}, item.IDs(got))
}

func TestUnique_MissingAttributeIsKept(t *testing.T) {
	items := promote("a", "b")
	items[0].Detail["path"] = "/x"
	got, err := transform(t, Unique{Attr: ParseAttr("detail.path")}, items)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestLua_FilterAndMap(t *testing.T) {
	tr, err := NewLua(`
function transform(item)
  if string.find(item.value, "^#") then
    return nil
  end
  if item.value == "keep" then
    return true
  end
  if item.value == "label" then
    return { label = "LABEL" }
  end
  return string.upper(item.value)
end
`)
	require.NoError(t, err)
	defer tr.Close()

	got, err := transform(t, tr, promote("#comment", "keep", "label", "shout"))
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "keep", got[0].Value)
	assert.Equal(t, "label", got[1].Value)
	assert.Equal(t, "LABEL", got[1].Label)
	assert.Equal(t, "SHOUT", got[2].Value)
	assert.Equal(t, "3", got[2].ID)
}

func TestLua_RuntimeError(t *testing.T) {
	tr, err := NewLua(`function transform(item) error("bad item") end`)
	require.NoError(t, err)
	defer tr.Close()

	_, err = transform(t, tr, promote("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad item")
}

func TestLua_InvalidScripts(t *testing.T) {
	_, err := NewLua(`this is not lua`)
	assert.Error(t, err)

	_, err = NewLua(`x = 1`)
	assert.ErrorIs(t, err, ErrNoTransformFunc)
}

func TestLua_NoFileAccess(t *testing.T) {
	tr, err := NewLua(`function transform(item) return type(dofile) == "nil" and type(io) == "nil" end`)
	require.NoError(t, err)
	defer tr.Close()

	got, err := transform(t, tr, promote("a"))
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestLua_Closed(t *testing.T) {
	tr, err := NewLua(`function transform(item) return true end`)
	require.NoError(t, err)
	require.NoError(t, tr.Close())
	require.NoError(t, tr.Close())

	_, err = transform(t, tr, promote("a"))
	assert.Error(t, err)
}

func TestRedact(t *testing.T) {
	items := promote("ls -la", "mysql -u root password=hunter2", "rm -rf build")
	got, err := transform(t, Redact{}, items)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, items[0], got[0], "clean items pass through")

	assert.Equal(t, "mysql -u root password=hunter2", got[1].Value, "value is kept for the action")
	assert.NotContains(t, got[1].Label, "hunter2")
	assert.Equal(t, true, got[1].Detail["redacted"])
	assert.NotContains(t, items[1].Detail, "redacted", "input detail is not mutated")

	assert.Empty(t, got[2].Label)
	assert.Equal(t, "rm -rf", got[2].Detail["risk"])
}
