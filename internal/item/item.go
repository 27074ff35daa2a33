// Package item defines the units that flow through the picker pipeline.
package item

import "strconv"

// Decoration highlights a span of an item's display label.
// Column is a 1-based byte column; Length is in bytes.
type Decoration struct {
	Column    int    `json:"column" yaml:"column"`
	Length    int    `json:"length" yaml:"length"`
	Highlight string `json:"highlight" yaml:"highlight"`
}

// SourceItem is a raw record supplied by a Source before it is collected.
type SourceItem struct {
	Value  string
	Label  string         // Optional; empty means "display Value"
	Detail map[string]any // Optional extension payload
}

// Item is a collected SourceItem with a session-stable ID.
//
// Items are passed by value. Only Decorations may be replaced, and only
// wholesale via WithDecorations.
type Item struct {
	ID          string
	Value       string
	Label       string
	Detail      map[string]any
	Decorations []Decoration
}

// Promote turns the n-th collected SourceItem into an Item.
func Promote(n int, s SourceItem) Item {
	detail := s.Detail
	if detail == nil {
		detail = map[string]any{}
	}
	return Item{
		ID:          strconv.Itoa(n),
		Value:       s.Value,
		Label:       s.Label,
		Detail:      detail,
		Decorations: []Decoration{},
	}
}

// Display returns the label, falling back to the value.
func (i Item) Display() string {
	if i.Label != "" {
		return i.Label
	}
	return i.Value
}

// WithDecorations returns a copy of i whose decorations are replaced by d.
func (i Item) WithDecorations(d []Decoration) Item {
	if d == nil {
		d = []Decoration{}
	}
	i.Decorations = d
	return i
}

// WithLabel returns a copy of i with a new display label.
func (i Item) WithLabel(label string) Item {
	i.Label = label
	return i
}

// DetailString returns Detail[key] when it holds a string.
func (i Item) DetailString(key string) (string, bool) {
	v, ok := i.Detail[key].(string)
	return v, ok
}

// DetailInt returns Detail[key] when it holds an integer-like number.
func (i Item) DetailInt(key string) (int, bool) {
	switch v := i.Detail[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

// IDs returns the IDs of items, in order.
func IDs(items []Item) []string {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

// Values returns the values of items, in order.
func Values(items []Item) []string {
	values := make([]string, len(items))
	for i, it := range items {
		values[i] = it.Value
	}
	return values
}
