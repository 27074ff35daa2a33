package picker

import (
	"context"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// Highlight groups used in query decorations.
const (
	HighlightQueryHead    = "query.head"
	HighlightQueryCursor  = "query.cursor"
	HighlightQueryCounter = "query.counter"
)

// QueryLine is the rendered query panel content.
type QueryLine struct {
	Text        string
	Decorations []item.Decoration
}

// QuerySurface is the single-line query panel.
type QuerySurface interface {
	Width() int
	SetQuery(line QueryLine) error
}

// Row is one visible selector line.
type Row struct {
	Item     item.Item // After the renderer chain
	Selected bool
}

// SelectorView is the visible window of the processed items.
type SelectorView struct {
	Rows   []Row
	Cursor int // Index into Rows; -1 when empty
	Offset int // Index of Rows[0] in the processed items
	Total  int
}

// SelectorSurface is the item list panel.
type SelectorSurface interface {
	Size() (width, height int)
	SetSelector(view SelectorView) error
}

// Screen holds the surfaces of an opened picker.
type Screen interface {
	Query() QuerySurface
	Selector() SelectorSurface
	Preview() extension.PreviewSurface
	// Redraw flushes pending surface changes to the display.
	Redraw(ctx context.Context) error
	Close() error
}

// Opener acquires the picker surfaces.
type Opener interface {
	Open(ctx context.Context, layout LayoutParams) (Screen, error)
}

// Input runs the interactive loop. It publishes query and cursor events on
// bus and returns when the user accepts (true) or cancels (false).
type Input interface {
	Run(ctx context.Context, bus *event.Bus, query string) (accepted bool, err error)
}
