// Package picker orchestrates one interactive picking session: it wires the
// collector, the processor and the render scheduler together over a session
// event bus and drives the query, selector and preview panels.
package picker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/runger/sift/internal/collector"
	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
	"github.com/runger/sift/internal/processor"
	"github.com/runger/sift/internal/scheduler"
	"github.com/runger/sift/internal/scope"
)

// DefaultRedrawInterval is the render scheduler interval of DefaultOptions.
const DefaultRedrawInterval = 16 * time.Millisecond

// Lifecycle errors.
var (
	ErrAlreadyOpened  = errors.New("picker: already opened")
	ErrNotOpened      = errors.New("picker: not opened")
	ErrAlreadyRunning = errors.New("picker: already running")
	ErrClosed         = errors.New("picker: closed")
)

// Context is the user-visible state of a session. It can be saved and
// handed back through Options.RestoreContext.
type Context struct {
	Query    string   `msgpack:"query"`
	Index    int      `msgpack:"index"`
	Selected []string `msgpack:"selected"` // Item IDs, sorted
}

// QueryOptions configures the query panel.
type QueryOptions struct {
	Spinner    []string
	HeadSymbol string
	FailSymbol string
}

// Options configures a Picker.
type Options struct {
	Title          string
	Selectable     bool
	RestoreContext *Context
	Layout         LayoutParams
	RedrawInterval time.Duration // 0 renders as fast as the scheduler allows
	Threshold      int           // Collector threshold (0 = unbounded)
	Scrolloff      int
	Query          QueryOptions
	Logger         *slog.Logger
}

// DefaultOptions returns the default session options.
func DefaultOptions() Options {
	return Options{
		Layout:         DefaultLayout(),
		RedrawInterval: DefaultRedrawInterval,
		Query: QueryOptions{
			Spinner:    DefaultSpinner(),
			HeadSymbol: DefaultHeadSymbol,
			FailSymbol: DefaultFailSymbol,
		},
	}
}

type state int

const (
	stateUnopened state = iota
	stateOpened
	stateRunning
	stateClosed
)

// dirty marks the panels that need rendering on the next tick.
type dirty struct {
	query, selector, preview bool
}

func (d dirty) any() bool { return d.query || d.selector || d.preview }

// panelSizes is the geometry the query and selector panels were last
// rendered for.
type panelSizes struct {
	queryWidth                    int
	selectorWidth, selectorHeight int
}

// Picker is one picking session.
type Picker struct {
	renderers  []extension.Renderer
	previewers []extension.Previewer
	opts       Options
	logger     *slog.Logger

	bus       *event.Bus
	collector *collector.Collector
	processor *processor.Processor

	life context.Context
	kill context.CancelFunc

	stack scope.Stack

	mu       sync.Mutex
	state    state
	screen   Screen
	runCtx   context.Context
	query    string
	cursor   int
	index    int
	selected map[string]struct{}
	dirty    dirty
	sizes    panelSizes

	queryPanel    *QueryComponent
	selectorPanel *SelectorComponent
	previewPanel  *PreviewComponent
}

// New creates a session over src with the given extension chains.
func New(
	src extension.Source,
	transformers []extension.Transformer,
	projectors []extension.Projector,
	renderers []extension.Renderer,
	previewers []extension.Previewer,
	opts Options,
) *Picker {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	bus := event.NewBus(logger)

	p := &Picker{
		renderers:  renderers,
		previewers: previewers,
		opts:       opts,
		logger:     logger,
		bus:        bus,
		selected:   make(map[string]struct{}),
	}
	p.life, p.kill = context.WithCancel(context.Background())
	p.stack.DeferFunc(p.kill)

	p.collector = scope.Use(&p.stack, collector.New(src, bus, collector.Options{
		Threshold: opts.Threshold,
		Logger:    logger,
	}))
	p.processor = scope.Use(&p.stack, processor.New(transformers, projectors, bus, processor.Options{
		Logger: logger,
	}))

	if rc := opts.RestoreContext; rc != nil {
		p.query = rc.Query
		p.cursor = len([]rune(rc.Query))
		p.index = rc.Index
		for _, id := range rc.Selected {
			p.selected[id] = struct{}{}
		}
	}
	return p
}

// Bus returns the session event bus.
func (p *Picker) Bus() *event.Bus { return p.bus }

// Context returns a copy of the session state.
func (p *Picker) Context() Context {
	p.mu.Lock()
	defer p.mu.Unlock()
	sel := make([]string, 0, len(p.selected))
	for id := range p.selected {
		sel = append(sel, id)
	}
	slices.Sort(sel)
	return Context{Query: p.query, Index: p.index, Selected: sel}
}

// CollectedItems returns the collector's items.
func (p *Picker) CollectedItems() []item.Item { return p.collector.Items() }

// ProcessedItems returns the processor's latest committed view.
func (p *Picker) ProcessedItems() []item.Item { return p.processor.Items() }

// SelectedItems returns the selected items present in the processed view,
// in view order.
func (p *Picker) SelectedItems() []item.Item {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedItemsLocked()
}

func (p *Picker) selectedItemsLocked() []item.Item {
	if len(p.selected) == 0 {
		return nil
	}
	var out []item.Item
	for _, it := range p.processor.Items() {
		if _, ok := p.selected[it.ID]; ok {
			out = append(out, it)
		}
	}
	return out
}

// CursorItem returns the item under the cursor. It reports false when the
// processed view has no item at the cursor index.
func (p *Picker) CursorItem() (item.Item, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursorItemLocked()
}

func (p *Picker) cursorItemLocked() (item.Item, bool) {
	items := p.processor.Items()
	if p.index < 0 || p.index >= len(items) {
		return item.Item{}, false
	}
	return items[p.index], true
}

// clamp bounds i to the processed view: max(0, min(len-1, i)).
func (p *Picker) clamp(i int) int {
	return max(0, min(len(p.processor.Items())-1, i))
}

// Open acquires the surfaces through opener.
func (p *Picker) Open(ctx context.Context, opener Opener) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch p.state {
	case stateClosed:
		return ErrClosed
	case stateUnopened:
	default:
		return ErrAlreadyOpened
	}

	layout := p.opts.Layout
	if p.opts.Title != "" {
		layout.Title = p.opts.Title
	}
	screen, err := opener.Open(ctx, layout)
	if err != nil {
		return fmt.Errorf("open picker: %w", err)
	}
	p.screen = scope.Use(&p.stack, screen)
	p.state = stateOpened
	return nil
}

// Start runs the session: it wires the pipeline, starts collecting and
// rendering, and runs input. When input is accepted, action is invoked on
// the cursor and selected items; if the action asks to stay, input runs
// again. Start reports whether the session ended by acceptance.
func (p *Picker) Start(ctx context.Context, input Input, action extension.Action) (bool, error) {
	p.mu.Lock()
	switch p.state {
	case stateUnopened:
		p.mu.Unlock()
		return false, ErrNotOpened
	case stateRunning:
		p.mu.Unlock()
		return false, ErrAlreadyRunning
	case stateClosed:
		p.mu.Unlock()
		return false, ErrClosed
	}
	p.state = stateRunning
	screen := p.screen

	ctx, cancel := joinContext(ctx, p.life)
	p.runCtx = ctx
	p.queryPanel = NewQueryComponent(screen.Query(), p.opts.Query)
	p.selectorPanel = NewSelectorComponent(screen.Selector(), p.renderers, p.opts.Scrolloff)
	p.previewPanel = NewPreviewComponent(screen.Preview(), p.previewers)
	p.dirty = dirty{query: true, selector: true, preview: true}
	p.mu.Unlock()

	var stack scope.Stack
	defer stack.Close()
	stack.DeferFunc(func() {
		p.mu.Lock()
		if p.state == stateRunning {
			p.state = stateOpened
		}
		p.mu.Unlock()
	})
	stack.DeferFunc(cancel)

	p.subscribe(&stack)
	p.collector.Start(ctx)
	scope.Use(&stack, scheduler.Start(ctx, p.opts.RedrawInterval, p.render, p.logger))

	for {
		accepted, err := input.Run(ctx, p.bus, p.Context().Query)
		if err != nil {
			if ctx.Err() != nil {
				return false, nil
			}
			return false, fmt.Errorf("input: %w", err)
		}
		if !accepted {
			return false, nil
		}
		if action == nil {
			return true, nil
		}

		params := p.actionParams()
		stay, err := action.Invoke(ctx, params)
		if err != nil {
			return true, fmt.Errorf("action %s: %w", extension.Describe(action), err)
		}
		if !stay {
			return true, nil
		}
		p.logger.Debug("action kept picker open", "targets", len(params.Targets()))
	}
}

// Close releases the screen, the processor and the collector in reverse
// acquisition order. It is safe to call Close multiple times.
func (p *Picker) Close() error {
	p.mu.Lock()
	p.state = stateClosed
	p.mu.Unlock()
	p.kill()
	return p.stack.Close()
}

func (p *Picker) actionParams() extension.ActionParams {
	p.mu.Lock()
	defer p.mu.Unlock()
	var params extension.ActionParams
	if it, ok := p.cursorItemLocked(); ok {
		params.CursorItem = &it
	}
	params.SelectedItems = p.selectedItemsLocked()
	return params
}

// startProcessorLocked reruns the processor over the collected items with
// the current query. The caller holds p.mu, so a run for a stale query can
// never supersede a run for a newer one.
func (p *Picker) startProcessorLocked() {
	if p.runCtx == nil {
		return
	}
	p.processor.Start(p.runCtx, p.collector.Items(), processor.Params{Query: p.query})
}

func (p *Picker) subscribe(stack *scope.Stack) {
	b := p.bus
	use := func(s *event.Subscription) { scope.Use(stack, s) }

	use(event.On(b, event.QueryTextChanged, p.onQueryText))
	use(event.On(b, event.QueryCursorChanged, p.onQueryCursor))
	use(event.OnSignal(b, event.CollectorChanged, p.onCollectorGrowth))
	use(event.OnSignal(b, event.CollectorSucceeded, p.onCollectorGrowth))
	use(event.OnSignal(b, event.CollectorFailed, p.markQuery))
	use(event.OnSignal(b, event.CollectorCompleted, p.markQuery))
	use(event.OnSignal(b, event.ProcessorSucceeded, p.onProcessorSucceeded))
	use(event.OnSignal(b, event.ProcessorFailed, p.markQuery))
	use(event.On(b, event.SelectorCursorMove, p.onCursorMove))
	use(event.On(b, event.SelectorCursorMoveTo, p.onCursorMoveTo))
	use(event.On(b, event.PreviewCursorMove, p.onPreviewMove))
	use(event.On(b, event.PreviewCursorMoveTo, p.onPreviewMoveTo))
	if p.opts.Selectable {
		use(event.OnSignal(b, event.SelectorToggleSelect, p.onToggleSelect))
		use(event.OnSignal(b, event.SelectorToggleSelectAll, p.onToggleSelectAll))
	}
}

func (p *Picker) onQueryText(text string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.query == text {
		return
	}
	p.query = text
	p.dirty.query = true
	p.startProcessorLocked()
}

func (p *Picker) onQueryCursor(pos int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cursor == pos {
		return
	}
	p.cursor = pos
	p.dirty.query = true
}

func (p *Picker) onCollectorGrowth() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty.query = true
	p.startProcessorLocked()
}

func (p *Picker) markQuery() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.dirty.query = true
}

func (p *Picker) onProcessorSucceeded() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.index = p.clamp(p.index)
	p.dirty = dirty{query: true, selector: true, preview: true}
}

func (p *Picker) onCursorMove(offset int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moveCursorLocked(p.clamp(p.index + offset))
}

func (p *Picker) onCursorMoveTo(line event.Line) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.moveCursorLocked(p.clamp(line.Index(len(p.processor.Items()))))
}

func (p *Picker) moveCursorLocked(index int) {
	if p.index == index {
		return
	}
	p.index = index
	p.dirty.selector = true
	p.dirty.preview = true
}

func (p *Picker) onPreviewMove(offset int) {
	p.previewPanel.MoveCursor(offset)
	p.mu.Lock()
	p.dirty.preview = true
	p.mu.Unlock()
}

func (p *Picker) onPreviewMoveTo(line int) {
	p.previewPanel.MoveCursorTo(line)
	p.mu.Lock()
	p.dirty.preview = true
	p.mu.Unlock()
}

func (p *Picker) onToggleSelect() {
	p.mu.Lock()
	defer p.mu.Unlock()
	it, ok := p.cursorItemLocked()
	if !ok {
		return
	}
	if _, sel := p.selected[it.ID]; sel {
		delete(p.selected, it.ID)
	} else {
		p.selected[it.ID] = struct{}{}
	}
	p.dirty.selector = true
}

func (p *Picker) onToggleSelectAll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	items := p.processor.Items()
	if len(p.selected) == len(items) {
		clear(p.selected)
	} else {
		p.selected = make(map[string]struct{}, len(items))
		for _, it := range items {
			p.selected[it.ID] = struct{}{}
		}
	}
	p.dirty.selector = true
}

// render is the scheduler callback. It renders the dirty panels and
// redraws the screen once.
func (p *Picker) render(ctx context.Context) error {
	collecting := collectorActivity(p.collector.Status())
	processing := processorActivity(p.processor.Status())
	sizes := p.panelSizes()

	p.mu.Lock()
	if collecting == ActivityBusy || processing == ActivityBusy {
		// Keeps the spinner moving.
		p.dirty.query = true
	}
	if sizes != p.sizes {
		p.sizes = sizes
		p.dirty.query = true
		p.dirty.selector = true
	}
	d := p.dirty
	p.dirty = dirty{}
	if !d.any() {
		p.mu.Unlock()
		return nil
	}
	processed := p.processor.Items()
	qs := QueryState{
		Text:       p.query,
		Cursor:     p.cursor,
		Collecting: collecting,
		Processing: processing,
		Processed:  len(processed),
		Collected:  p.collector.Len(),
		Truncated:  p.collector.Truncated(),
	}
	ss := SelectorState{Items: processed, Index: p.index, Selected: maps.Clone(p.selected)}
	var cursor *item.Item
	if it, ok := p.cursorItemLocked(); ok {
		cursor = &it
	}
	p.mu.Unlock()

	var errs []error
	if d.query {
		if err := p.queryPanel.Render(qs); err != nil {
			errs = append(errs, fmt.Errorf("query: %w", err))
		}
	}
	if d.selector {
		if err := p.selectorPanel.Render(ctx, ss); err != nil {
			errs = append(errs, fmt.Errorf("selector: %w", err))
		}
	}
	if d.preview {
		if err := p.previewPanel.Render(ctx, cursor); err != nil {
			errs = append(errs, fmt.Errorf("preview: %w", err))
		}
	}
	if err := p.screen.Redraw(ctx); err != nil {
		errs = append(errs, fmt.Errorf("redraw: %w", err))
	}
	return errors.Join(errs...)
}

func (p *Picker) panelSizes() panelSizes {
	w, h := p.screen.Selector().Size()
	return panelSizes{
		queryWidth:     p.screen.Query().Width(),
		selectorWidth:  w,
		selectorHeight: h,
	}
}

func collectorActivity(s collector.Status) Activity {
	switch s {
	case collector.StatusActive:
		return ActivityBusy
	case collector.StatusFailed:
		return ActivityFailed
	default:
		return ActivityIdle
	}
}

func processorActivity(s processor.Status) Activity {
	switch s {
	case processor.StatusActive:
		return ActivityBusy
	case processor.StatusFailed:
		return ActivityFailed
	default:
		return ActivityIdle
	}
}
