package builtin

import (
	"context"
	"os"
	"strings"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// HighlightDim marks secondary text such as the directory part of a path.
const HighlightDim = "dim"

// SmartPath shows "filename dirname" in place of "dirname/filename" and dims
// the directory. Existing decorations follow the moved text.
type SmartPath struct {
	Separator string // os.PathSeparator when empty
}

func (SmartPath) Description() string { return "smart-path" }

func (r SmartPath) Render(ctx context.Context, params extension.RenderParams) ([]item.Item, error) {
	sep := r.Separator
	if sep == "" {
		sep = string(os.PathSeparator)
	}
	out := make([]item.Item, len(params.Items))
	for i, it := range params.Items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = smartPath(it, sep)
	}
	return out, nil
}

func smartPath(it item.Item, sep string) item.Item {
	label := it.Display()
	idx := strings.LastIndex(label, sep)
	if idx < 0 {
		return it
	}
	dirname := label[:idx]
	filename := label[idx+len(sep):]
	fileStart := idx + len(sep)

	// Byte offset p in the old label maps to p' in "filename dirname".
	project := func(p int) int {
		if p >= fileStart {
			return p - fileStart
		}
		return p + len(filename) + 1
	}

	decs := make([]item.Decoration, 0, len(it.Decorations)+1)
	for _, d := range it.Decorations {
		start, end := d.Column-1, d.Column-1+d.Length
		// A span crossing the separator is split into its dir and file parts.
		if start < idx && end > idx {
			decs = append(decs, item.Decoration{Column: project(start) + 1, Length: idx - start, Highlight: d.Highlight})
			if end > fileStart {
				decs = append(decs, item.Decoration{Column: 1, Length: end - fileStart, Highlight: d.Highlight})
			}
			continue
		}
		if start >= idx && start < fileStart {
			// Starts on the separator itself.
			if end > fileStart {
				decs = append(decs, item.Decoration{Column: 1, Length: end - fileStart, Highlight: d.Highlight})
			}
			continue
		}
		decs = append(decs, item.Decoration{Column: project(start) + 1, Length: d.Length, Highlight: d.Highlight})
	}
	decs = append(decs, item.Decoration{
		Column:    len(filename) + 1,
		Length:    len(dirname) + 1,
		Highlight: HighlightDim,
	})
	return it.WithLabel(filename + " " + dirname).WithDecorations(decs)
}

// Truncate shortens labels wider than the selector by eliding their middle.
// Decorations that no longer point at their text are dropped.
type Truncate struct {
	Reserve int // Cells kept free for selection marks
}

func (Truncate) Description() string { return "truncate" }

func (r Truncate) Render(ctx context.Context, params extension.RenderParams) ([]item.Item, error) {
	width := params.Width - r.Reserve
	if width <= 0 {
		return params.Items, nil
	}
	out := make([]item.Item, len(params.Items))
	for i, it := range params.Items {
		label := it.Display()
		short, head := middleTruncate(label, width)
		if short == label {
			out[i] = it
			continue
		}
		tailStart := len(label) - (len(short) - head - len(ellipsis))
		shift := tailStart - head - len(ellipsis)
		decs := make([]item.Decoration, 0, len(it.Decorations))
		for _, d := range it.Decorations {
			start, end := d.Column-1, d.Column-1+d.Length
			switch {
			case end <= head:
				decs = append(decs, d)
			case start >= tailStart && head+len(ellipsis) < len(short):
				d.Column -= shift
				decs = append(decs, d)
			}
		}
		out[i] = it.WithLabel(short).WithDecorations(decs)
	}
	return out, nil
}
