package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// PatternKind discriminates compiled destructuring templates.
type PatternKind uint8

const (
	// PatSingle binds the whole value to one register.
	PatSingle PatternKind = iota

	// PatDiscard matches anything and binds nothing.
	PatDiscard

	// PatTuple destructures an array.
	PatTuple

	// PatDict destructures a dictionary.
	PatDict
)

// Pattern is a compiled destructuring template. Registers are bound
// in the frame executing the destructure.
type Pattern struct {
	Kind  PatternKind
	Span  syntax.Span
	Reg   Register // PatSingle binding
	Items []PatternSlot

	// name is the bound identifier for PatSingle, kept for dict
	// shorthand destructuring and diagnostics.
	name string
}

// Name returns the bound identifier for PatSingle patterns.
func (p *Pattern) Name() string {
	return p.name
}

// PatternSlotKind discriminates tuple and dict pattern entries.
type PatternSlotKind uint8

const (
	SlotPos PatternSlotKind = iota
	SlotNamed
	SlotSpread
)

// PatternSlot is one entry of a tuple or dict pattern. A spread slot
// with a discard sub-pattern swallows values without binding them.
type PatternSlot struct {
	Kind PatternSlotKind
	Name string // dict key for SlotNamed
	Span syntax.Span
	Sub  *Pattern
}

// destructure matches a value against the pattern, binding registers.
func (m *machine) destructure(p *Pattern, v value.Value) error {
	switch p.Kind {
	case PatSingle:
		m.registers[p.Reg] = v
		return nil
	case PatDiscard:
		return nil
	case PatTuple:
		arr, ok := v.(*value.Array)
		if !ok {
			return diag.New(diag.RuntimeError, p.Span,
				"cannot destructure %s as an array", v.Kind())
		}
		return m.destructureTuple(p, arr)
	case PatDict:
		dict, ok := v.(*value.Dict)
		if !ok {
			return diag.New(diag.RuntimeError, p.Span,
				"cannot destructure %s as a dictionary", v.Kind())
		}
		return m.destructureDict(p, dict)
	}
	return diag.New(diag.RuntimeError, p.Span, "malformed pattern")
}

func (m *machine) destructureTuple(p *Pattern, arr *value.Array) error {
	spread := -1
	for i, slot := range p.Items {
		if slot.Kind == SlotSpread {
			spread = i
			break
		}
	}

	fixed := len(p.Items)
	if spread >= 0 {
		fixed--
	}
	if len(arr.Items) < fixed || (spread < 0 && len(arr.Items) > fixed) {
		return diag.New(diag.RuntimeError, p.Span,
			"cannot destructure array of length %d with this pattern",
			len(arr.Items))
	}

	// Leading slots, then the spread takes the middle, then trailing
	// slots from the end.
	before := p.Items
	var after []PatternSlot
	if spread >= 0 {
		before = p.Items[:spread]
		after = p.Items[spread+1:]
	}
	for i, slot := range before {
		if err := m.destructure(slot.Sub, arr.Items[i]); err != nil {
			return err
		}
	}
	if spread >= 0 {
		mid := arr.Items[len(before) : len(arr.Items)-len(after)]
		rest := make([]value.Value, len(mid))
		copy(rest, mid)
		if err := m.destructure(p.Items[spread].Sub, &value.Array{Items: rest}); err != nil {
			return err
		}
		for i, slot := range after {
			item := arr.Items[len(arr.Items)-len(after)+i]
			if err := m.destructure(slot.Sub, item); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *machine) destructureDict(p *Pattern, dict *value.Dict) error {
	taken := map[string]bool{}
	var spread *PatternSlot
	for i := range p.Items {
		slot := &p.Items[i]
		switch slot.Kind {
		case SlotSpread:
			spread = slot
		case SlotNamed:
			v, ok := dict.Get(slot.Name)
			if !ok {
				return diag.New(diag.RuntimeError, slot.Span,
					"dictionary does not contain key %q", slot.Name)
			}
			taken[slot.Name] = true
			if err := m.destructure(slot.Sub, v); err != nil {
				return err
			}
		case SlotPos:
			// A bare identifier in a dict pattern binds the key of
			// the same name.
			if slot.Sub == nil || slot.Sub.Kind != PatSingle || slot.Sub.Name() == "" {
				return diag.New(diag.RuntimeError, slot.Span,
					"cannot destructure unnamed pattern from dictionary")
			}
			name := slot.Sub.Name()
			v, ok := dict.Get(name)
			if !ok {
				return diag.New(diag.RuntimeError, slot.Span,
					"dictionary does not contain key %q", name)
			}
			taken[name] = true
			if err := m.destructure(slot.Sub, v); err != nil {
				return err
			}
		}
	}
	if spread != nil {
		rest := value.NewDict()
		for _, k := range dict.Keys() {
			if !taken[k] {
				v, _ := dict.Get(k)
				rest.Insert(k, v)
			}
		}
		return m.destructure(spread.Sub, rest)
	}
	return nil
}
