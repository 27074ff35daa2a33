// Package processor computes the displayed item view from the collected items
// and the current query by running transform and project stages.
//
// Every Start supersedes the run in flight: the previous run's context is
// cancelled and only the most recently started run may commit its result.
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
)

// Status is the state of the latest run.
type Status int

const (
	StatusIdle      Status = iota // No run started yet
	StatusActive                  // A run is in flight
	StatusSucceeded               // The latest committed run succeeded
	StatusFailed                  // The latest finished run failed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusActive:
		return "active"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Params are the per-run inputs besides the items.
type Params struct {
	Query string
}

// StageError reports a failing transformer or projector.
type StageError struct {
	Stage       string // "transform" or "project"
	Index       int    // Position in the configured chain
	Description string // Extension description, if any
	Err         error
}

func (e *StageError) Error() string {
	name := e.Description
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("%s stage %s: %v", e.Stage, name, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Options configures a Processor.
type Options struct {
	Logger *slog.Logger
}

// Processor owns the processed view of one session.
type Processor struct {
	transformers []extension.Transformer
	projectors   []extension.Projector
	bus          *event.Bus
	logger       *slog.Logger

	mu     sync.Mutex
	items  []item.Item
	status Status
	err    error
	gen    uint64
	cancel context.CancelFunc
	closed bool

	wg sync.WaitGroup
}

// New creates a Processor with the given stage chains.
func New(transformers []extension.Transformer, projectors []extension.Projector, bus *event.Bus, opts Options) *Processor {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		transformers: transformers,
		projectors:   projectors,
		bus:          bus,
		logger:       logger,
	}
}

// Start cancels the run in flight and starts a new one over items.
// It returns immediately; the run proceeds on its own goroutine.
func (p *Processor) Start(ctx context.Context, items []item.Item, params Params) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if p.cancel != nil {
		p.cancel()
	}
	p.gen++
	gen := p.gen
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.status = StatusActive
	p.wg.Add(1)
	p.mu.Unlock()

	go func() {
		defer p.wg.Done()
		defer cancel()
		p.run(runCtx, gen, items, params)
	}()
}

// Close cancels the current run and waits for every run to exit.
// It is safe to call Close multiple times.
func (p *Processor) Close() error {
	p.mu.Lock()
	p.closed = true
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

// Wait blocks until no run is in flight.
func (p *Processor) Wait() {
	p.wg.Wait()
}

// Items returns the latest committed view. The slice is replaced on each
// commit and never modified in place.
func (p *Processor) Items() []item.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.items
}

// Status returns the state of the latest run.
func (p *Processor) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Err returns the stage error of the latest failed run.
func (p *Processor) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

func (p *Processor) run(ctx context.Context, gen uint64, items []item.Item, params Params) {
	result, err := p.execute(ctx, items, params)

	p.mu.Lock()
	if gen != p.gen || ctx.Err() != nil {
		// Superseded or cancelled: keep whatever is committed.
		p.mu.Unlock()
		return
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			p.mu.Unlock()
			return
		}
		p.status = StatusFailed
		p.err = err
		p.mu.Unlock()

		p.logger.Warn("processor failed", "query", params.Query, "error", err)
		p.bus.Publish(event.ProcessorFailed, nil)
		return
	}
	p.items = result
	p.status = StatusSucceeded
	p.err = nil
	p.mu.Unlock()

	p.bus.Publish(event.ProcessorSucceeded, nil)
}

func (p *Processor) execute(ctx context.Context, items []item.Item, params Params) (result []item.Item, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &StageError{Stage: "pipeline", Index: -1, Err: fmt.Errorf("panic: %v", r)}
		}
	}()

	stream := extension.SliceStream(ctx, items)
	for i, t := range p.transformers {
		stream = guardStream(stream)
		stream = t.Transform(ctx, extension.TransformParams{Items: stream})
		stream = tagStream(stream, i, t)
	}

	result, err = extension.Collect(ctx, stream, len(items))
	if err != nil {
		return nil, err
	}

	for i, pr := range p.projectors {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out, err := pr.Project(ctx, extension.ProjectParams{Query: params.Query, Items: result})
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, &StageError{Stage: "project", Index: i, Description: extension.Describe(pr), Err: err}
		}
		result = out
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// upstreamError marks an error that a transformer merely forwarded from its
// input, so that it is attributed to the stage that raised it.
type upstreamError struct{ err error }

func (e upstreamError) Error() string { return e.err.Error() }
func (e upstreamError) Unwrap() error { return e.err }

// guardStream marks errors entering a transformer as upstream errors.
func guardStream(s extension.Stream) extension.Stream {
	return func(yield func(item.Item, error) bool) {
		for it, err := range s {
			if err != nil {
				var up upstreamError
				if !errors.As(err, &up) {
					err = upstreamError{err: err}
				}
				yield(item.Item{}, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}

// tagStream wraps errors raised by transformer i in a StageError and
// unwraps errors that passed through it untouched.
func tagStream(s extension.Stream, i int, t extension.Transformer) extension.Stream {
	return func(yield func(item.Item, error) bool) {
		for it, err := range s {
			if err != nil {
				var up upstreamError
				var stage *StageError
				switch {
				case errors.As(err, &up):
					err = up.err
				case errors.As(err, &stage), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
				default:
					err = &StageError{Stage: "transform", Index: i, Description: extension.Describe(t), Err: err}
				}
				yield(item.Item{}, err)
				return
			}
			if !yield(it, nil) {
				return
			}
		}
	}
}
