// Package tui draws picker sessions in a terminal with bubbletea and turns
// key presses into picker events.
package tui

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/picker"
)

// maxQueryLen is the maximum length of a query in runes.
const maxQueryLen = 4096

// ErrScreenClosed is returned by Run when the terminal program has exited.
var ErrScreenClosed = errors.New("tui: screen closed")

// Options configures the terminal program.
type Options struct {
	Input     io.Reader // Key input; the program's default when nil
	Output    io.Writer // Drawing target; the program's default when nil
	AltScreen bool
	Keys      *KeyMap // DefaultKeyMap when nil
	Logger    *slog.Logger
	// ProgramOptions are appended to the options derived above.
	ProgramOptions []tea.ProgramOption
}

// Opener starts a terminal program per opened session. It is also the
// session's picker.Input, delegating to the screen it opened last.
type Opener struct {
	opts Options

	mu     sync.Mutex
	screen *Screen
}

func NewOpener(opts Options) *Opener {
	return &Opener{opts: opts}
}

// Open starts the program and returns once the terminal is set up.
func (o *Opener) Open(ctx context.Context, layout picker.LayoutParams) (picker.Screen, error) {
	s := newScreen(layout, o.opts)

	popts := []tea.ProgramOption{tea.WithoutSignalHandler()}
	if o.opts.Input != nil {
		popts = append(popts, tea.WithInput(o.opts.Input))
	}
	if o.opts.Output != nil {
		popts = append(popts, tea.WithOutput(o.opts.Output))
	}
	if o.opts.AltScreen {
		popts = append(popts, tea.WithAltScreen())
	}
	popts = append(popts, o.opts.ProgramOptions...)
	s.prog = tea.NewProgram(newModel(s), popts...)

	go s.run()
	go s.pump()

	select {
	case <-s.ready:
		o.mu.Lock()
		o.screen = s
		o.mu.Unlock()
		return s, nil
	case <-s.done:
		return nil, s.runErr
	case <-ctx.Done():
		_ = s.Close()
		return nil, ctx.Err()
	}
}

// Run runs input on the last opened screen.
func (o *Opener) Run(ctx context.Context, bus *event.Bus, query string) (bool, error) {
	o.mu.Lock()
	s := o.screen
	o.mu.Unlock()
	if s == nil {
		return false, ErrScreenClosed
	}
	return s.Run(ctx, bus, query)
}

// Screen is one open terminal program. It implements picker.Screen and
// picker.Input.
type Screen struct {
	layout picker.LayoutParams
	keys   KeyMap
	logger *slog.Logger

	prog *tea.Program

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	runErr    error
	redraw    chan struct{}
	closeOnce sync.Once

	mu       sync.Mutex
	width    int
	height   int
	query    picker.QueryLine
	selector picker.SelectorView
	preview  previewState
	session  *session
}

// session is one Run call: the bus key events go to and the outcome.
type session struct {
	bus    *event.Bus
	result chan bool
	once   sync.Once
}

func (s *session) finish(accepted bool) {
	s.once.Do(func() { s.result <- accepted })
}

func newScreen(layout picker.LayoutParams, opts Options) *Screen {
	keys := DefaultKeyMap()
	if opts.Keys != nil {
		keys = *opts.Keys
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Screen{
		layout: layout,
		keys:   keys,
		logger: logger,
		ready:  make(chan struct{}),
		done:   make(chan struct{}),
		redraw: make(chan struct{}, 1),
	}
}

func (s *Screen) run() {
	defer close(s.done)
	if _, err := s.prog.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		s.runErr = err
		s.logger.Warn("terminal program failed", "error", err)
	}
}

// pump forwards redraw requests to the program so that Redraw never blocks.
func (s *Screen) pump() {
	for {
		select {
		case <-s.done:
			return
		case <-s.redraw:
			s.prog.Send(redrawMsg{})
		}
	}
}

func (s *Screen) markReady() {
	s.readyOnce.Do(func() { close(s.ready) })
}

func (s *Screen) Query() picker.QuerySurface       { return querySurface{s} }
func (s *Screen) Selector() picker.SelectorSurface { return selectorSurface{s} }
func (s *Screen) Preview() extension.PreviewSurface {
	return previewSurface{s}
}

// Redraw requests a repaint. Requests made while one is pending coalesce.
func (s *Screen) Redraw(ctx context.Context) error {
	select {
	case <-s.done:
		return ErrScreenClosed
	default:
	}
	select {
	case s.redraw <- struct{}{}:
	default:
	}
	return nil
}

// Close stops the program and restores the terminal.
func (s *Screen) Close() error {
	s.closeOnce.Do(func() {
		if s.prog != nil {
			s.prog.Quit()
		}
	})
	if s.prog != nil {
		<-s.done
	}
	return nil
}

// Run edits query until the user accepts or cancels. Key presses are
// published on bus for the duration of the call.
func (s *Screen) Run(ctx context.Context, bus *event.Bus, query string) (bool, error) {
	sess := &session{bus: bus, result: make(chan bool, 1)}
	s.mu.Lock()
	if s.session != nil {
		s.mu.Unlock()
		return false, errors.New("tui: input already running")
	}
	s.session = sess
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		if s.session == sess {
			s.session = nil
		}
		s.mu.Unlock()
	}()

	go s.prog.Send(sessionMsg{query: query})

	select {
	case accepted := <-sess.result:
		return accepted, nil
	case <-ctx.Done():
		return false, ctx.Err()
	case <-s.done:
		return false, ErrScreenClosed
	}
}

func (s *Screen) activeSession() *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.session
}

func (s *Screen) resize(width, height int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.width, s.height = width, height
	s.preview.clampTop(s.panelsLocked().previewHeight)
}

// panels is the inner geometry of the drawn panels.
type panels struct {
	picker.Geometry
	border         bool
	mainWidth      int // Inner widths
	previewWidth   int
	bodyHeight     int // Inner height
	selectorHeight int
	previewHeight  int
}

func (s *Screen) panelsLocked() panels {
	g := s.layout.Compute(s.width, s.height)
	p := panels{Geometry: g, border: s.layout.Border != "none"}
	frame := 0
	if p.border {
		frame = 2
	}
	p.mainWidth = max(0, g.MainWidth-frame)
	p.bodyHeight = max(0, g.Height-frame)
	p.selectorHeight = max(0, p.bodyHeight-2) // Query line and rule
	if g.PreviewWidth > 0 {
		p.previewWidth = max(0, g.PreviewWidth-frame)
		p.previewHeight = p.bodyHeight
	}
	return p
}

type querySurface struct{ s *Screen }

func (q querySurface) Width() int {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	return q.s.panelsLocked().mainWidth
}

func (q querySurface) SetQuery(line picker.QueryLine) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.query = line
	return nil
}

type selectorSurface struct{ s *Screen }

func (v selectorSurface) Size() (int, int) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p := v.s.panelsLocked()
	return p.mainWidth, p.selectorHeight
}

func (v selectorSurface) SetSelector(view picker.SelectorView) error {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.selector = view
	return nil
}

type previewSurface struct{ s *Screen }

func (v previewSurface) Size() (int, int) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	p := v.s.panelsLocked()
	return p.previewWidth, p.previewHeight
}

func (v previewSurface) Replace(lines []string, filetype string) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.preview.replace(lines, filetype)
}

func (v previewSurface) SetTitle(title string) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.preview.title = title
}

func (v previewSurface) MoveCursorTo(line, column int) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.preview.moveTo(line, column, v.s.panelsLocked().previewHeight)
}

func (v previewSurface) MoveCursor(offset int) {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.preview.move(offset, v.s.panelsLocked().previewHeight)
}

func (v previewSurface) Clear() {
	v.s.mu.Lock()
	defer v.s.mu.Unlock()
	v.s.preview = previewState{}
}

// previewState is the preview buffer and its viewport. Lines and the cursor
// are 1-based; top is the 0-based first visible line.
type previewState struct {
	title    string
	filetype string
	lines    []string
	line     int
	column   int
	top      int
}

func (p *previewState) replace(lines []string, filetype string) {
	p.lines = lines
	p.filetype = filetype
	p.line, p.column, p.top = 1, 1, 0
}

// moveTo puts the cursor on line and centers it in a viewport of height.
func (p *previewState) moveTo(line, column, height int) {
	p.line = clamp(line, 1, max(1, len(p.lines)))
	p.column = max(1, column)
	p.top = max(0, p.line-1-height/2)
	p.clampTop(height)
}

// move shifts the cursor by offset lines, scrolling only as needed.
func (p *previewState) move(offset, height int) {
	p.line = clamp(p.line+offset, 1, max(1, len(p.lines)))
	if p.line-1 < p.top {
		p.top = p.line - 1
	}
	if height > 0 && p.line-1 >= p.top+height {
		p.top = p.line - height
	}
	p.clampTop(height)
}

func (p *previewState) clampTop(height int) {
	p.top = clamp(p.top, 0, max(0, len(p.lines)-height))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
