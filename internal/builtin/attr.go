// Package builtin provides the stock extensions: sources, transformers,
// projectors, renderers, previewers and actions.
package builtin

import (
	"fmt"
	"strings"

	"github.com/runger/sift/internal/item"
)

// Attr is a path to an item attribute: "value", "label", "id", "display", or
// a nested detail key such as "detail.path".
type Attr []string

// ParseAttr splits a dotted attribute path. An empty string is "value".
func ParseAttr(s string) Attr {
	if s == "" {
		return Attr{"value"}
	}
	return strings.Split(s, ".")
}

func (a Attr) String() string { return strings.Join(a, ".") }

// Lookup returns the attribute of it as a string. Non-string detail values
// are formatted with fmt; a missing attribute yields "", false.
func (a Attr) Lookup(it item.Item) (string, bool) {
	if len(a) == 0 {
		return it.Value, true
	}
	switch a[0] {
	case "value":
		return it.Value, len(a) == 1
	case "label":
		return it.Label, len(a) == 1 && it.Label != ""
	case "display":
		return it.Display(), len(a) == 1
	case "id":
		return it.ID, len(a) == 1
	case "detail":
		return lookupDetail(it.Detail, a[1:])
	default:
		return "", false
	}
}

func lookupDetail(m map[string]any, path []string) (string, bool) {
	if len(path) == 0 {
		return "", false
	}
	var v any = m
	for _, key := range path {
		mm, ok := v.(map[string]any)
		if !ok {
			return "", false
		}
		if v, ok = mm[key]; !ok {
			return "", false
		}
	}
	switch v := v.(type) {
	case string:
		return v, true
	case nil:
		return "", false
	case map[string]any, []any:
		return "", false
	default:
		return fmt.Sprint(v), true
	}
}
