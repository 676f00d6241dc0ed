package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// AccessKind discriminates access paths.
type AccessKind uint8

const (
	// AccessReadable reads a plain readable: the head of every chain.
	AccessReadable AccessKind = iota

	// AccessChained reads a field of a parent access.
	AccessChained
)

// Access is a resolved chain of field steps, used for call targets
// and assignment destinations. Chains whose head resolved to a
// constant at compile time carry the propagated value and skip the
// dynamic walk.
type Access struct {
	Kind   AccessKind
	Span   syntax.Span
	Root   Readable // AccessReadable
	Parent int      // AccessChained: parent access index
	Field  string   // AccessChained

	// Const is the compile-time resolved value, when the whole chain
	// was constant-propagated. The VM reads it directly.
	Const value.Value
}

// get reads the accessed value.
func (m *machine) access(id int) (value.Value, error) {
	a := m.code.Accesses[id]
	if a.Const != nil {
		return a.Const, nil
	}
	switch a.Kind {
	case AccessReadable:
		return m.read(a.Root)
	case AccessChained:
		parent, err := m.access(a.Parent)
		if err != nil {
			return nil, err
		}
		return value.Field(a.Span, parent, a.Field)
	}
	return nil, diag.New(diag.RuntimeError, a.Span, "malformed access path")
}

// accessWrite writes a value through the access. Only register-rooted
// chains are mutable; the chain is walked to the last container and
// the final field is replaced in place.
func (m *machine) accessWrite(id int, v value.Value) error {
	a := m.code.Accesses[id]
	switch a.Kind {
	case AccessReadable:
		if a.Root.ReadableKind() != ReadReg {
			return diag.New(diag.RuntimeError, a.Span,
				"cannot assign to this expression").
				WithHint("only variables and their fields are assignable")
		}
		m.registers[a.Root.Reg()] = v
		return nil
	case AccessChained:
		parent, err := m.access(a.Parent)
		if err != nil {
			return err
		}
		dict, ok := parent.(*value.Dict)
		if !ok {
			return diag.New(diag.RuntimeError, a.Span,
				"cannot assign to field %q of %s", a.Field, parent.Kind())
		}
		dict.Insert(a.Field, v)
		return nil
	}
	return diag.New(diag.RuntimeError, a.Span, "malformed access path")
}
