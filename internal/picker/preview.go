package picker

import (
	"context"
	"fmt"
	"sync"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// PreviewComponent runs the previewer chain for the cursor item. The first
// previewer that does not skip wins; the result is kept until the cursor
// moves to another item.
type PreviewComponent struct {
	surface    extension.PreviewSurface
	previewers []extension.Previewer

	mu      sync.Mutex
	shownID string
	shown   bool
}

// NewPreviewComponent binds a preview component to surface.
func NewPreviewComponent(surface extension.PreviewSurface, previewers []extension.Previewer) *PreviewComponent {
	return &PreviewComponent{surface: surface, previewers: previewers}
}

// Render previews cursor, or clears the surface when cursor is nil.
func (p *PreviewComponent) Render(ctx context.Context, cursor *item.Item) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cursor == nil {
		if p.shown || p.shownID != "" {
			p.surface.Clear()
			p.surface.SetTitle("")
		}
		p.shown, p.shownID = false, ""
		return nil
	}
	if p.shown && p.shownID == cursor.ID {
		return nil
	}

	for i, pv := range p.previewers {
		skip, err := pv.Preview(ctx, extension.PreviewParams{Item: *cursor, Surface: p.surface})
		if err != nil {
			return fmt.Errorf("previewer #%d: %w", i, err)
		}
		if !skip {
			p.shown, p.shownID = true, cursor.ID
			return nil
		}
	}

	// No previewer applies.
	p.surface.Clear()
	p.surface.SetTitle("")
	p.shown, p.shownID = true, cursor.ID
	return nil
}

// MoveCursor scrolls the preview by offset lines.
func (p *PreviewComponent) MoveCursor(offset int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface.MoveCursor(offset)
}

// MoveCursorTo moves the preview cursor to a 1-based line.
func (p *PreviewComponent) MoveCursorTo(line int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.surface.MoveCursorTo(line, 1)
}
