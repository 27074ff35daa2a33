package picker

import (
	"context"
	"fmt"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// SelectorState is what the selector panel shows.
type SelectorState struct {
	Items    []item.Item
	Index    int
	Selected map[string]struct{}
}

// SelectorComponent renders the visible window of the processed items.
// Renderers only ever see that window.
type SelectorComponent struct {
	surface   SelectorSurface
	renderers []extension.Renderer
	scrolloff int

	offset int
}

// NewSelectorComponent binds a selector component to surface.
func NewSelectorComponent(surface SelectorSurface, renderers []extension.Renderer, scrolloff int) *SelectorComponent {
	return &SelectorComponent{
		surface:   surface,
		renderers: renderers,
		scrolloff: max(0, scrolloff),
	}
}

// Render draws st on the surface.
func (s *SelectorComponent) Render(ctx context.Context, st SelectorState) error {
	width, height := s.surface.Size()
	n := len(st.Items)
	index := clampInt(st.Index, 0, max(0, n-1))
	s.offset = scrollWindow(s.offset, index, n, height, s.scrolloff)

	end := min(n, s.offset+max(0, height))
	visible := make([]item.Item, end-s.offset)
	copy(visible, st.Items[s.offset:end])

	for i, r := range s.renderers {
		out, err := r.Render(ctx, extension.RenderParams{Items: visible, Width: width})
		if err != nil {
			return fmt.Errorf("renderer #%d: %w", i, err)
		}
		if len(out) != len(visible) {
			return fmt.Errorf("renderer #%d: returned %d items for %d", i, len(out), len(visible))
		}
		visible = out
	}

	view := SelectorView{
		Rows:   make([]Row, len(visible)),
		Cursor: -1,
		Offset: s.offset,
		Total:  n,
	}
	for i, it := range visible {
		_, sel := st.Selected[it.ID]
		view.Rows[i] = Row{Item: it, Selected: sel}
	}
	if len(visible) > 0 {
		view.Cursor = index - s.offset
	}
	if err := s.surface.SetSelector(view); err != nil {
		return fmt.Errorf("set selector: %w", err)
	}
	return nil
}

// scrollWindow returns the first visible index for a window of height rows
// so that cursor stays at least scrolloff rows away from either edge while
// the window remains inside [0, n).
func scrollWindow(offset, cursor, n, height, scrolloff int) int {
	if height <= 0 || n <= height {
		return 0
	}
	so := min(scrolloff, (height-1)/2)
	if cursor-so < offset {
		offset = cursor - so
	}
	if cursor+so >= offset+height {
		offset = cursor + so - height + 1
	}
	return clampInt(offset, 0, n-height)
}
