package builtin

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/runger/sift/internal/extension"
	"github.com/runger/sift/internal/item"
	"github.com/runger/sift/internal/redact"
)

// Sanitize rewrites labels that would corrupt a terminal row (escape
// sequences, invalid UTF-8, control characters). Values are untouched.
type Sanitize struct{}

func (Sanitize) Description() string { return "sanitize" }

func (Sanitize) Transform(ctx context.Context, params extension.TransformParams) extension.Stream {
	return func(yield func(item.Item, error) bool) {
		for it, err := range params.Items {
			if err == nil {
				display := it.Display()
				if clean := CleanLine(display); clean != display {
					it = it.WithLabel(clean)
				}
			}
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// Unique drops items whose attribute was already seen. Items lacking the
// attribute are kept.
type Unique struct {
	Attr Attr
}

func (u Unique) Description() string { return "unique " + u.Attr.String() }

func (u Unique) Transform(ctx context.Context, params extension.TransformParams) extension.Stream {
	return func(yield func(item.Item, error) bool) {
		seen := make(map[string]struct{})
		for it, err := range params.Items {
			if err == nil {
				key, ok := u.Attr.Lookup(it)
				if ok {
					if _, dup := seen[key]; dup {
						continue
					}
					seen[key] = struct{}{}
				}
			}
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

// Redact masks credentials in labels and records destructive commands as
// the "risk" detail. Values are untouched, so accepting an item still yields
// the original text; redacted items carry a true "redacted" detail.
type Redact struct {
	Redactor *redact.Redactor // redact.New() when nil
}

func (Redact) Description() string { return "redact" }

func (r Redact) Transform(ctx context.Context, params extension.TransformParams) extension.Stream {
	redactor := r.Redactor
	if redactor == nil {
		redactor = redact.New()
	}
	return func(yield func(item.Item, error) bool) {
		for it, err := range params.Items {
			if err == nil {
				it = redactItem(redactor, it)
			}
			if !yield(it, err) || err != nil {
				return
			}
		}
	}
}

func redactItem(r *redact.Redactor, it item.Item) item.Item {
	masked, changed := r.Redact(it.Display())
	risk, risky := redact.Destructive(it.Value)
	if !changed && !risky {
		return it
	}
	detail := maps.Clone(it.Detail)
	if detail == nil {
		detail = map[string]any{}
	}
	if changed {
		it = it.WithLabel(masked)
		detail["redacted"] = true
	}
	if risky {
		detail["risk"] = risk
	}
	it.Detail = detail
	return it
}

// ErrNoTransformFunc is returned by NewLua when the script does not define a
// global transform function.
var ErrNoTransformFunc = errors.New("lua script does not define transform(item)")

// Lua runs a user script over every item. The script defines
//
//	function transform(item) ... end
//
// where item is a table with id, value and label fields. Returning nil or
// false drops the item, true keeps it, a string replaces the value and a
// table may set value and label.
//
// The Lua state is not goroutine-safe; concurrent runs are serialized.
type Lua struct {
	mu     sync.Mutex
	L      *lua.LState
	fn     *lua.LFunction
	closed bool
}

// NewLua compiles script in a state with only the base, table, string and
// math libraries.
func NewLua(script string) (*Lua, error) {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)
	// Base opens dofile/loadfile; the script has no business with files.
	for _, name := range []string{"dofile", "loadfile", "require"} {
		L.SetGlobal(name, lua.LNil)
	}

	if err := L.DoString(script); err != nil {
		L.Close()
		return nil, fmt.Errorf("load lua script: %w", err)
	}
	fn, ok := L.GetGlobal("transform").(*lua.LFunction)
	if !ok {
		L.Close()
		return nil, ErrNoTransformFunc
	}
	return &Lua{L: L, fn: fn}, nil
}

func (t *Lua) Description() string { return "lua" }

// Close releases the Lua state.
func (t *Lua) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		t.L.Close()
	}
	return nil
}

func (t *Lua) Transform(ctx context.Context, params extension.TransformParams) extension.Stream {
	return func(yield func(item.Item, error) bool) {
		t.mu.Lock()
		defer t.mu.Unlock()
		if t.closed {
			yield(item.Item{}, errors.New("lua transformer closed"))
			return
		}
		t.L.SetContext(ctx)
		defer t.L.RemoveContext()

		for it, err := range params.Items {
			if err != nil {
				yield(it, err)
				return
			}
			out, keep, err := t.call(it)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					err = ctxErr
				}
				yield(item.Item{}, err)
				return
			}
			if keep && !yield(out, nil) {
				return
			}
		}
	}
}

func (t *Lua) call(it item.Item) (item.Item, bool, error) {
	L := t.L
	arg := L.NewTable()
	arg.RawSetString("id", lua.LString(it.ID))
	arg.RawSetString("value", lua.LString(it.Value))
	arg.RawSetString("label", lua.LString(it.Label))

	if err := L.CallByParam(lua.P{Fn: t.fn, NRet: 1, Protect: true}, arg); err != nil {
		return it, false, fmt.Errorf("item %s: %w", it.ID, err)
	}
	ret := L.Get(-1)
	L.Pop(1)

	switch ret := ret.(type) {
	case *lua.LNilType:
		return it, false, nil
	case lua.LBool:
		return it, bool(ret), nil
	case lua.LString:
		it.Value = string(ret)
		return it, true, nil
	case *lua.LTable:
		if v, ok := ret.RawGetString("value").(lua.LString); ok {
			it.Value = string(v)
		}
		if v, ok := ret.RawGetString("label").(lua.LString); ok {
			it.Label = string(v)
		}
		return it, true, nil
	default:
		return it, false, fmt.Errorf("item %s: transform returned %s", it.ID, ret.Type())
	}
}
