package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/runger/sift/internal/event"
)

// redrawMsg asks the program to repaint from the screen state.
type redrawMsg struct{}

// sessionMsg starts a new input session with the given query.
type sessionMsg struct {
	query string
}

// initMsg is sent by Init so that startup runs through Update.
type initMsg struct{}

// Model is the bubbletea model behind a Screen. The panels are painted from
// the screen state; the model only owns the query editor.
type Model struct {
	screen *Screen
	input  textinput.Model
}

func newModel(s *Screen) Model {
	in := textinput.New()
	in.Prompt = ""
	in.CharLimit = maxQueryLen
	in.Focus()
	return Model{screen: s, input: in}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return func() tea.Msg { return initMsg{} }
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case initMsg:
		m.screen.markReady()
		return m, nil

	case tea.WindowSizeMsg:
		m.screen.resize(msg.Width, msg.Height)
		return m, nil

	case sessionMsg:
		m.input.SetValue(msg.query)
		m.input.CursorEnd()
		return m, nil

	case redrawMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

// handleKey turns a key press into picker events. Without an input session
// keys are dropped.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	sess := m.screen.activeSession()
	if sess == nil {
		return m, nil
	}
	bus := sess.bus
	keys := m.screen.keys

	switch {
	case key.Matches(msg, keys.Cancel):
		sess.finish(false)
	case key.Matches(msg, keys.Accept):
		sess.finish(true)
	case key.Matches(msg, keys.Up):
		bus.Publish(event.SelectorCursorMove, -1)
	case key.Matches(msg, keys.Down):
		bus.Publish(event.SelectorCursorMove, 1)
	case key.Matches(msg, keys.PageUp):
		bus.Publish(event.SelectorCursorMove, -m.pageSize())
	case key.Matches(msg, keys.PageDown):
		bus.Publish(event.SelectorCursorMove, m.pageSize())
	case key.Matches(msg, keys.First):
		bus.Publish(event.SelectorCursorMoveTo, event.Line{N: 1})
	case key.Matches(msg, keys.Last):
		bus.Publish(event.SelectorCursorMoveTo, event.LastLine)
	case key.Matches(msg, keys.Toggle):
		bus.Publish(event.SelectorToggleSelect, nil)
		bus.Publish(event.SelectorCursorMove, 1)
	case key.Matches(msg, keys.ToggleAll):
		bus.Publish(event.SelectorToggleSelectAll, nil)
	case key.Matches(msg, keys.PreviewUp):
		bus.Publish(event.PreviewCursorMove, -1)
	case key.Matches(msg, keys.PreviewDown):
		bus.Publish(event.PreviewCursorMove, 1)
	case key.Matches(msg, keys.PreviewPageUp):
		bus.Publish(event.PreviewCursorMove, -m.previewPageSize())
	case key.Matches(msg, keys.PreviewPageDown):
		bus.Publish(event.PreviewCursorMove, m.previewPageSize())
	default:
		return m.editQuery(msg, bus)
	}
	return m, nil
}

// editQuery feeds the key to the query editor and publishes what changed.
func (m Model) editQuery(msg tea.KeyMsg, bus *event.Bus) (tea.Model, tea.Cmd) {
	value, pos := m.input.Value(), m.input.Position()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if v := m.input.Value(); v != value {
		bus.Publish(event.QueryTextChanged, v)
	}
	if p := m.input.Position(); p != pos {
		bus.Publish(event.QueryCursorChanged, p)
	}
	return m, cmd
}

func (m Model) pageSize() int {
	m.screen.mu.Lock()
	defer m.screen.mu.Unlock()
	return max(1, m.screen.panelsLocked().selectorHeight)
}

func (m Model) previewPageSize() int {
	m.screen.mu.Lock()
	defer m.screen.mu.Unlock()
	return max(1, m.screen.panelsLocked().previewHeight/2)
}

// View implements tea.Model.
func (m Model) View() string {
	return m.screen.view()
}
