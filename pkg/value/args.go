package value

import (
	"strings"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// Args is the argument pack of one call: positional and named items in
// source order. Consumers eat items as they bind parameters; whatever
// is left when Finish runs becomes one batched argument error.
type Args struct {
	Span  syntax.Span
	items []ArgItem
}

// ArgItem is one argument. Name is empty for positional items.
type ArgItem struct {
	Name  string
	Span  syntax.Span
	Value Value
}

func (*Args) Kind() Kind { return KindArgs }
func (a *Args) Repr() string {
	parts := make([]string, len(a.items))
	for i, it := range a.items {
		if it.Name != "" {
			parts[i] = it.Name + ": " + it.Value.Repr()
		} else {
			parts[i] = it.Value.Repr()
		}
	}
	return "arguments(" + strings.Join(parts, ", ") + ")"
}
func (*Args) sealed() {}

// NewArgs creates an empty pack for a call at the given span.
func NewArgs(span syntax.Span) *Args {
	return &Args{Span: span}
}

// Push appends a positional argument.
func (a *Args) Push(span syntax.Span, v Value) {
	a.items = append(a.items, ArgItem{Span: span, Value: v})
}

// PushNamed appends a named argument.
func (a *Args) PushNamed(span syntax.Span, name string, v Value) {
	a.items = append(a.items, ArgItem{Name: name, Span: span, Value: v})
}

// Spread splices a value into the pack: arrays contribute positional
// items, dicts named items, argument packs both, and none nothing.
func (a *Args) Spread(span syntax.Span, v Value) error {
	switch v := v.(type) {
	case None:
		return nil
	case *Array:
		for _, item := range v.Items {
			a.Push(span, item)
		}
		return nil
	case *Dict:
		for _, key := range v.Keys() {
			item, _ := v.Get(key)
			a.PushNamed(span, key, item)
		}
		return nil
	case *Args:
		a.items = append(a.items, v.items...)
		return nil
	default:
		return diag.New(diag.RuntimeError, span,
			"cannot spread %s into arguments", v.Kind())
	}
}

// Len returns the number of remaining items.
func (a *Args) Len() int { return len(a.items) }

// Items returns the remaining items without consuming them.
func (a *Args) Items() []ArgItem { return a.items }

// EatPos consumes the first remaining positional argument.
func (a *Args) EatPos() (Value, syntax.Span, bool) {
	for i, it := range a.items {
		if it.Name == "" {
			a.items = append(a.items[:i], a.items[i+1:]...)
			return it.Value, it.Span, true
		}
	}
	return nil, syntax.Span{}, false
}

// ExpectPos consumes the first positional argument or fails with what
// was expected.
func (a *Args) ExpectPos(what string) (Value, error) {
	v, _, ok := a.EatPos()
	if !ok {
		return nil, diag.New(diag.ArgumentError, a.Span,
			"missing argument: %s", what)
	}
	return v, nil
}

// Named consumes the named argument with the given name. The last
// occurrence wins when a name is passed twice.
func (a *Args) Named(name string) (Value, bool) {
	var out Value
	found := false
	for i := 0; i < len(a.items); {
		if a.items[i].Name == name {
			out = a.items[i].Value
			found = true
			a.items = append(a.items[:i], a.items[i+1:]...)
		} else {
			i++
		}
	}
	return out, found
}

// RemainingPos consumes and returns every remaining positional
// argument, for sink parameters.
func (a *Args) RemainingPos() []Value {
	var out []Value
	for i := 0; i < len(a.items); {
		if a.items[i].Name == "" {
			out = append(out, a.items[i].Value)
			a.items = append(a.items[:i], a.items[i+1:]...)
		} else {
			i++
		}
	}
	return out
}

// Take consumes the whole pack and returns it as a fresh Args value,
// for sink parameters that keep named leftovers too.
func (a *Args) Take() *Args {
	out := &Args{Span: a.Span, items: a.items}
	a.items = nil
	return out
}

// Finish fails if any argument was left unconsumed. Every leftover
// produces its own diagnostic so the caller sees all of them at once.
func (a *Args) Finish() error {
	if len(a.items) == 0 {
		return nil
	}
	var errs diag.List
	for _, it := range a.items {
		if it.Name != "" {
			errs = append(errs, diag.New(diag.ArgumentError, it.Span,
				"unexpected argument: %s", it.Name))
		} else {
			errs = append(errs, diag.New(diag.ArgumentError, it.Span,
				"unexpected argument"))
		}
	}
	return errs.Err()
}
