// Package value defines the runtime values of the language: the closed
// sum of value kinds, their operators, call arguments, functions,
// modules, document content, and styles. Dispatch over values is
// exhaustive switching on the kind; there is no open extension point.
package value

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies a value's type.
type Kind int

const (
	KindNone Kind = iota
	KindAuto
	KindBool
	KindInt
	KindFloat
	KindStr
	KindLabel
	KindArray
	KindDict
	KindArgs
	KindFunc
	KindModule
	KindContent
	KindStyles
)

// String returns the language-level type name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindAuto:
		return "auto"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindLabel:
		return "label"
	case KindArray:
		return "array"
	case KindDict:
		return "dict"
	case KindArgs:
		return "arguments"
	case KindFunc:
		return "function"
	case KindModule:
		return "module"
	case KindContent:
		return "content"
	case KindStyles:
		return "styles"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is one runtime value. The set of implementations is closed.
type Value interface {
	Kind() Kind

	// Repr returns the value as the language would print it.
	Repr() string

	sealed()
}

// None is the absent value.
type None struct{}

func (None) Kind() Kind   { return KindNone }
func (None) Repr() string { return "none" }
func (None) sealed()      {}

// Auto defers a choice to the consumer of the value.
type Auto struct{}

func (Auto) Kind() Kind   { return KindAuto }
func (Auto) Repr() string { return "auto" }
func (Auto) sealed()      {}

// Bool is a boolean.
type Bool bool

func (Bool) Kind() Kind { return KindBool }
func (b Bool) Repr() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) sealed() {}

// Int is a 64-bit integer.
type Int int64

func (Int) Kind() Kind     { return KindInt }
func (i Int) Repr() string { return strconv.FormatInt(int64(i), 10) }
func (Int) sealed()        {}

// Float is a 64-bit float.
type Float float64

func (Float) Kind() Kind { return KindFloat }
func (f Float) Repr() string {
	s := strconv.FormatFloat(float64(f), 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
func (Float) sealed() {}

// Str is a string.
type Str string

func (Str) Kind() Kind     { return KindStr }
func (s Str) Repr() string { return strconv.Quote(string(s)) }
func (Str) sealed()        {}

// Label names a content element for references and show rules.
type Label string

func (Label) Kind() Kind     { return KindLabel }
func (l Label) Repr() string { return "<" + string(l) + ">" }
func (Label) sealed()        {}

// Array is an ordered sequence of values.
type Array struct {
	Items []Value
}

// NewArray creates an array from items.
func NewArray(items ...Value) *Array {
	return &Array{Items: items}
}

func (*Array) Kind() Kind { return KindArray }
func (a *Array) Repr() string {
	parts := make([]string, len(a.Items))
	for i, v := range a.Items {
		parts[i] = v.Repr()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (*Array) sealed() {}

// Push appends an item.
func (a *Array) Push(v Value) {
	a.Items = append(a.Items, v)
}

// Dict maps string keys to values, preserving insertion order.
type Dict struct {
	keys  []string
	items map[string]Value
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{items: make(map[string]Value)}
}

func (*Dict) Kind() Kind { return KindDict }
func (d *Dict) Repr() string {
	if len(d.keys) == 0 {
		return "(:)"
	}
	parts := make([]string, len(d.keys))
	for i, k := range d.keys {
		parts[i] = k + ": " + d.items[k].Repr()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}
func (*Dict) sealed() {}

// Insert sets a key, keeping first-insertion order on overwrite.
func (d *Dict) Insert(key string, v Value) {
	if _, ok := d.items[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.items[key] = v
}

// Get returns the value for a key.
func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.items[key]
	return v, ok
}

// Remove deletes a key and returns its value.
func (d *Dict) Remove(key string) (Value, bool) {
	v, ok := d.items[key]
	if !ok {
		return nil, false
	}
	delete(d.items, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return v, true
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Len returns the number of entries.
func (d *Dict) Len() int { return len(d.keys) }

// Module is a named scope of public definitions plus the content the
// module's top level produced.
type Module struct {
	Name    string
	Scope   *Scope
	Content *Content
}

func (*Module) Kind() Kind { return KindModule }
func (m *Module) Repr() string {
	return "<module " + m.Name + ">"
}
func (*Module) sealed() {}

// Field returns a public definition of the module.
func (m *Module) Field(name string) (Value, bool) {
	if m.Scope == nil {
		return nil, false
	}
	return m.Scope.Get(name)
}

// Scope is an ordered name-to-value table. Entries are addressable by
// index, which is how compiled instructions reference globals.
type Scope struct {
	names []string
	index map[string]int
	vals  []Value
}

// NewScope creates an empty scope.
func NewScope() *Scope {
	return &Scope{index: make(map[string]int)}
}

// Define binds a name and returns its index. Redefining overwrites in
// place and keeps the original index.
func (s *Scope) Define(name string, v Value) int {
	if i, ok := s.index[name]; ok {
		s.vals[i] = v
		return i
	}
	i := len(s.vals)
	s.names = append(s.names, name)
	s.index[name] = i
	s.vals = append(s.vals, v)
	return i
}

// Get returns the value bound to a name.
func (s *Scope) Get(name string) (Value, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.vals[i], true
}

// IndexOf returns the index of a name.
func (s *Scope) IndexOf(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// ByIndex returns the value at an index. Panics if out of range; the
// compiler only emits indices it obtained from IndexOf.
func (s *Scope) ByIndex(i int) Value {
	return s.vals[i]
}

// Names returns the bound names in definition order.
func (s *Scope) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// Len returns the number of bindings.
func (s *Scope) Len() int { return len(s.vals) }

// SortedNames returns the bound names sorted, for stable diagnostics.
func (s *Scope) SortedNames() []string {
	out := s.Names()
	sort.Strings(out)
	return out
}
