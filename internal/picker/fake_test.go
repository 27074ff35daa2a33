package picker

import (
	"context"
	"errors"
	"sync"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/extension"
)

// fakeScreen records what the picker draws.
type fakeScreen struct {
	mu        sync.Mutex
	width     int
	height    int
	query     QueryLine
	selector  SelectorView
	preview   []string
	title     string
	previewAt int
	redraws   int
	closed    int
	layout    LayoutParams
	onClose   func()
}

func newFakeScreen() *fakeScreen {
	return &fakeScreen{width: 40, height: 5, previewAt: 1}
}

func (s *fakeScreen) Query() QuerySurface                { return fakeQuery{s} }
func (s *fakeScreen) Selector() SelectorSurface          { return fakeSelector{s} }
func (s *fakeScreen) Preview() extension.PreviewSurface { return fakePreview{s} }

func (s *fakeScreen) Redraw(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.redraws++
	return nil
}

func (s *fakeScreen) Open(ctx context.Context, l LayoutParams) (Screen, error) {
	s.layout = l
	return s, nil
}

func (s *fakeScreen) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	if s.onClose != nil {
		s.onClose()
	}
	return nil
}

func (s *fakeScreen) queryText() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query.Text
}

func (s *fakeScreen) selectorView() SelectorView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selector
}

func (s *fakeScreen) previewLines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.preview...)
}

type fakeQuery struct{ s *fakeScreen }

func (q fakeQuery) Width() int { return q.s.width }
func (q fakeQuery) SetQuery(line QueryLine) error {
	q.s.mu.Lock()
	defer q.s.mu.Unlock()
	q.s.query = line
	return nil
}

type fakeSelector struct{ s *fakeScreen }

func (f fakeSelector) Size() (int, int) { return f.s.width, f.s.height }
func (f fakeSelector) SetSelector(v SelectorView) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.selector = v
	return nil
}

type fakePreview struct{ s *fakeScreen }

func (f fakePreview) Size() (int, int) { return f.s.width, f.s.height }
func (f fakePreview) Replace(lines []string, filetype string) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.preview = append([]string(nil), lines...)
}
func (f fakePreview) SetTitle(title string) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.title = title
}
func (f fakePreview) MoveCursorTo(line, column int) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.previewAt = line
}
func (f fakePreview) MoveCursor(offset int) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.previewAt += offset
}
func (f fakePreview) Clear() {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.preview = nil
}

// inputFunc adapts a function to Input.
type inputFunc func(ctx context.Context, bus *event.Bus, query string) (bool, error)

func (f inputFunc) Run(ctx context.Context, bus *event.Bus, query string) (bool, error) {
	return f(ctx, bus, query)
}

// waitCancel blocks until ctx is cancelled.
var waitCancel = inputFunc(func(ctx context.Context, _ *event.Bus, _ string) (bool, error) {
	<-ctx.Done()
	return false, ctx.Err()
})

var errFakeOpen = errors.New("no terminal")

type failingOpener struct{}

func (failingOpener) Open(context.Context, LayoutParams) (Screen, error) { return nil, errFakeOpen }
