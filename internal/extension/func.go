package extension

import (
	"context"
	"iter"

	"github.com/runger/sift/internal/item"
)

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context) iter.Seq2[item.SourceItem, error]

// Stream calls f(ctx).
func (f SourceFunc) Stream(ctx context.Context) iter.Seq2[item.SourceItem, error] {
	return f(ctx)
}

// TransformerFunc adapts a function to a Transformer.
type TransformerFunc func(ctx context.Context, params TransformParams) Stream

// Transform calls f(ctx, params).
func (f TransformerFunc) Transform(ctx context.Context, params TransformParams) Stream {
	return f(ctx, params)
}

// ProjectorFunc adapts a function to a Projector.
type ProjectorFunc func(ctx context.Context, params ProjectParams) ([]item.Item, error)

// Project calls f(ctx, params).
func (f ProjectorFunc) Project(ctx context.Context, params ProjectParams) ([]item.Item, error) {
	return f(ctx, params)
}

// RendererFunc adapts a function to a Renderer.
type RendererFunc func(ctx context.Context, params RenderParams) ([]item.Item, error)

// Render calls f(ctx, params).
func (f RendererFunc) Render(ctx context.Context, params RenderParams) ([]item.Item, error) {
	return f(ctx, params)
}

// PreviewerFunc adapts a function to a Previewer.
type PreviewerFunc func(ctx context.Context, params PreviewParams) (bool, error)

// Preview calls f(ctx, params).
func (f PreviewerFunc) Preview(ctx context.Context, params PreviewParams) (bool, error) {
	return f(ctx, params)
}

// ActionFunc adapts a function to an Action.
type ActionFunc func(ctx context.Context, params ActionParams) (bool, error)

// Invoke calls f(ctx, params).
func (f ActionFunc) Invoke(ctx context.Context, params ActionParams) (bool, error) {
	return f(ctx, params)
}

// SliceStream returns a Stream over items that stops early when ctx is done.
func SliceStream(ctx context.Context, items []item.Item) Stream {
	return func(yield func(item.Item, error) bool) {
		for _, it := range items {
			if err := ctx.Err(); err != nil {
				yield(item.Item{}, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// Collect materializes a Stream, returning the first error it yields.
func Collect(ctx context.Context, s Stream, sizeHint int) ([]item.Item, error) {
	out := make([]item.Item, 0, sizeHint)
	for it, err := range s {
		if err != nil {
			return nil, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}
