package tui

import (
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runger/sift/internal/event"
	"github.com/runger/sift/internal/picker"
)

// --- Helpers ---

type published struct {
	topic   event.Topic
	payload any
}

// recorder collects every event published on the input topics.
type recorder struct {
	mu     sync.Mutex
	events []published
}

func record(bus *event.Bus) *recorder {
	r := &recorder{}
	for _, topic := range []event.Topic{
		event.QueryTextChanged,
		event.QueryCursorChanged,
		event.SelectorCursorMove,
		event.SelectorCursorMoveTo,
		event.SelectorToggleSelect,
		event.SelectorToggleSelectAll,
		event.PreviewCursorMove,
		event.PreviewCursorMoveTo,
	} {
		bus.Subscribe(topic, func(payload any) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.events = append(r.events, published{topic, payload})
		})
	}
	return r
}

func (r *recorder) take() []published {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.events
	r.events = nil
	return out
}

func newTestScreen() *Screen {
	s := newScreen(picker.DefaultLayout(), Options{})
	s.resize(100, 30)
	return s
}

// withSession attaches an input session to s as Run would.
func withSession(s *Screen) (*session, *recorder) {
	bus := event.NewBus(nil)
	sess := &session{bus: bus, result: make(chan bool, 1)}
	s.session = sess
	return sess, record(bus)
}

func press(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		result, _ := m.Update(msg)
		m = result.(Model)
	}
	return m
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func alt(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}, Alt: true}
}

// --- Key handling ---

func TestModel_NavigationKeys(t *testing.T) {
	s := newTestScreen()
	_, rec := withSession(s)
	m := newModel(s)
	page := s.Selector()
	_, height := page.Size()

	press(m,
		tea.KeyMsg{Type: tea.KeyDown},
		tea.KeyMsg{Type: tea.KeyUp},
		tea.KeyMsg{Type: tea.KeyCtrlN},
		tea.KeyMsg{Type: tea.KeyPgDown},
		alt('<'),
		alt('>'),
	)

	assert.Equal(t, []published{
		{event.SelectorCursorMove, 1},
		{event.SelectorCursorMove, -1},
		{event.SelectorCursorMove, 1},
		{event.SelectorCursorMove, height},
		{event.SelectorCursorMoveTo, event.Line{N: 1}},
		{event.SelectorCursorMoveTo, event.LastLine},
	}, rec.take())
}

func TestModel_SelectionKeys(t *testing.T) {
	s := newTestScreen()
	_, rec := withSession(s)
	m := newModel(s)

	press(m, tea.KeyMsg{Type: tea.KeyTab}, alt('a'))

	assert.Equal(t, []published{
		{event.SelectorToggleSelect, nil},
		{event.SelectorCursorMove, 1},
		{event.SelectorToggleSelectAll, nil},
	}, rec.take())
}

func TestModel_PreviewKeys(t *testing.T) {
	s := newTestScreen()
	_, rec := withSession(s)
	m := newModel(s)
	_, height := s.Preview().Size()

	press(m, alt('j'), alt('k'), alt('d'))

	assert.Equal(t, []published{
		{event.PreviewCursorMove, 1},
		{event.PreviewCursorMove, -1},
		{event.PreviewCursorMove, height / 2},
	}, rec.take())
}

func TestModel_QueryEditing(t *testing.T) {
	s := newTestScreen()
	_, rec := withSession(s)
	m := newModel(s)

	m = press(m, runes("ab"))
	assert.Equal(t, []published{
		{event.QueryTextChanged, "ab"},
		{event.QueryCursorChanged, 2},
	}, rec.take())

	m = press(m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, []published{{event.QueryCursorChanged, 1}}, rec.take())

	m = press(m, tea.KeyMsg{Type: tea.KeyBackspace})
	assert.Equal(t, []published{
		{event.QueryTextChanged, "b"},
		{event.QueryCursorChanged, 0},
	}, rec.take())
	assert.Equal(t, "b", m.input.Value())
}

func TestModel_SessionMsgResetsQuery(t *testing.T) {
	s := newTestScreen()
	_, rec := withSession(s)
	m := newModel(s)

	m = press(m, sessionMsg{query: "日本"})
	assert.Equal(t, "日本", m.input.Value())
	assert.Equal(t, 2, m.input.Position())
	assert.Empty(t, rec.take(), "restoring the query publishes nothing")
}

func TestModel_AcceptAndCancel(t *testing.T) {
	s := newTestScreen()
	sess, _ := withSession(s)
	press(newModel(s), tea.KeyMsg{Type: tea.KeyEnter})
	assert.True(t, <-sess.result)

	sess, _ = withSession(s)
	press(newModel(s), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, <-sess.result)

	sess, _ = withSession(s)
	press(newModel(s), tea.KeyMsg{Type: tea.KeyCtrlC}, tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, <-sess.result, "only the first outcome counts")
}

func TestModel_KeysWithoutSessionAreDropped(t *testing.T) {
	s := newTestScreen()
	m := press(newModel(s), runes("x"), tea.KeyMsg{Type: tea.KeyEnter})
	assert.Empty(t, m.input.Value())
}

func TestModel_InitMarksReady(t *testing.T) {
	s := newTestScreen()
	m := newModel(s)
	msg := m.Init()()
	press(m, msg)

	select {
	case <-s.ready:
	default:
		t.Fatal("screen not ready after init")
	}
}

func TestModel_WindowSize(t *testing.T) {
	s := newTestScreen()
	press(newModel(s), tea.WindowSizeMsg{Width: 200, Height: 50})

	require.Equal(t, 200, s.width)
	w, h := s.Selector().Size()
	g := picker.DefaultLayout().Compute(200, 50)
	assert.Equal(t, g.MainWidth-2, w)
	assert.Equal(t, g.Height-4, h)
}
