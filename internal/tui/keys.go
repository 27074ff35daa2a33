package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap binds keys to picker events. Keys not bound here edit the query.
type KeyMap struct {
	Accept          key.Binding
	Cancel          key.Binding
	Up              key.Binding
	Down            key.Binding
	PageUp          key.Binding
	PageDown        key.Binding
	First           key.Binding
	Last            key.Binding
	Toggle          key.Binding
	ToggleAll       key.Binding
	PreviewUp       key.Binding
	PreviewDown     key.Binding
	PreviewPageUp   key.Binding
	PreviewPageDown key.Binding
}

// DefaultKeyMap returns the default bindings. They avoid the emacs-style
// keys the query editor uses.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Accept:          key.NewBinding(key.WithKeys("enter")),
		Cancel:          key.NewBinding(key.WithKeys("esc", "ctrl+c")),
		Up:              key.NewBinding(key.WithKeys("up", "ctrl+p")),
		Down:            key.NewBinding(key.WithKeys("down", "ctrl+n")),
		PageUp:          key.NewBinding(key.WithKeys("pgup")),
		PageDown:        key.NewBinding(key.WithKeys("pgdown")),
		First:           key.NewBinding(key.WithKeys("alt+<")),
		Last:            key.NewBinding(key.WithKeys("alt+>")),
		Toggle:          key.NewBinding(key.WithKeys("tab")),
		ToggleAll:       key.NewBinding(key.WithKeys("alt+a")),
		PreviewUp:       key.NewBinding(key.WithKeys("alt+k", "shift+up")),
		PreviewDown:     key.NewBinding(key.WithKeys("alt+j", "shift+down")),
		PreviewPageUp:   key.NewBinding(key.WithKeys("alt+u")),
		PreviewPageDown: key.NewBinding(key.WithKeys("alt+d")),
	}
}
