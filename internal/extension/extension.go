// Package extension defines the contracts that pluggable picker extensions
// implement. A session holds an ordered list of each kind and calls them
// without knowing the concrete type.
package extension

import (
	"context"
	"iter"

	"github.com/runger/sift/internal/item"
)

// Stream is a lazy sequence of items. A non-nil error ends the stream.
type Stream = iter.Seq2[item.Item, error]

// Source produces the candidate items for one session. The returned sequence
// is pulled exactly once and must stop promptly when ctx is cancelled.
type Source interface {
	Stream(ctx context.Context) iter.Seq2[item.SourceItem, error]
}

// TransformParams is the input of a Transformer.
type TransformParams struct {
	Items Stream // Output of the previous transformer (or the collected items)
}

// Transformer is a stream-level stage for cheap per-item filtering or mapping.
type Transformer interface {
	Transform(ctx context.Context, params TransformParams) Stream
}

// ProjectParams is the input of a Projector.
type ProjectParams struct {
	Query string      // Current user query
	Items []item.Item // Full output of the previous stage
}

// Projector is a whole-collection stage (sort, dedupe, query filter).
type Projector interface {
	Project(ctx context.Context, params ProjectParams) ([]item.Item, error)
}

// RenderParams is the input of a Renderer.
type RenderParams struct {
	Items []item.Item // Visible window only
	Width int         // Selector display width in cells
}

// Renderer rewrites labels and decorations of the visible items.
type Renderer interface {
	Render(ctx context.Context, params RenderParams) ([]item.Item, error)
}

// PreviewSurface is the drawing target handed to previewers.
type PreviewSurface interface {
	// Size returns the surface width and height in cells.
	Size() (width, height int)
	// Replace sets the content lines and a syntax hint (may be empty).
	Replace(lines []string, filetype string)
	// SetTitle sets the label shown on the preview border.
	SetTitle(title string)
	// MoveCursorTo positions the cursor at a 1-based line and column.
	MoveCursorTo(line, column int)
	// MoveCursor moves the cursor by offset lines.
	MoveCursor(offset int)
	// Clear empties the surface.
	Clear()
}

// PreviewParams is the input of a Previewer.
type PreviewParams struct {
	Item    item.Item
	Surface PreviewSurface
}

// Previewer draws a preview of the cursor item. Returning skip=true means the
// previewer does not apply to the item and the next one should be tried.
type Previewer interface {
	Preview(ctx context.Context, params PreviewParams) (skip bool, err error)
}

// ActionParams is the input of an Action.
type ActionParams struct {
	CursorItem    *item.Item  // nil when the processed view is empty
	SelectedItems []item.Item // Selected items present in the processed view
}

// Targets returns the selected items, or the cursor item when nothing is
// selected.
func (p ActionParams) Targets() []item.Item {
	if len(p.SelectedItems) > 0 {
		return p.SelectedItems
	}
	if p.CursorItem != nil {
		return []item.Item{*p.CursorItem}
	}
	return nil
}

// Action is invoked on the accepted items. Returning stay=true keeps the
// picker open.
type Action interface {
	Invoke(ctx context.Context, params ActionParams) (stay bool, err error)
}

// Describer is implemented by extensions that carry a description.
type Describer interface {
	Description() string
}

// Describe returns the description of v, or "" when it has none.
func Describe(v any) string {
	if d, ok := v.(Describer); ok {
		return d.Description()
	}
	return ""
}
