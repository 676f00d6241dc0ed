package value

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// NativeFunc is the implementation of a built-in function.
type NativeFunc func(e *engine.Engine, args *Args) (Value, error)

// Callee is implemented by compiled closures. The indirection keeps
// this package free of the bytecode machinery.
type Callee interface {
	Call(e *engine.Engine, args *Args) (Value, error)
}

// Func is a callable value: either a native built-in or an
// instantiated closure. Element constructor functions additionally
// carry the element kind they construct, which is what set and show
// rules select on.
type Func struct {
	Name string

	// Elem is non-empty for element constructors like text or
	// heading.
	Elem ElemKind

	// PosProps names the properties bound by positional arguments in
	// a set rule, in order.
	PosProps []string

	Native NativeFunc
	Callee Callee

	Span syntax.Span
}

func (*Func) Kind() Kind { return KindFunc }
func (f *Func) Repr() string {
	if f.Name != "" {
		return "<function " + f.Name + ">"
	}
	return "<function>"
}
func (*Func) sealed() {}

// NewNative creates a built-in function.
func NewNative(name string, impl NativeFunc) *Func {
	return &Func{Name: name, Native: impl}
}

// Call invokes the function.
func (f *Func) Call(e *engine.Engine, args *Args) (Value, error) {
	switch {
	case f.Native != nil:
		return f.Native(e, args)
	case f.Callee != nil:
		return f.Callee.Call(e, args)
	default:
		return nil, diag.New(diag.RuntimeError, f.Span,
			"function %s has no body", f.Name)
	}
}

// SetRule builds the style map a set rule with these arguments
// produces. Positional arguments bind the function's positional
// properties in order; named arguments bind properties directly.
// Fails unless the function is an element constructor.
func (f *Func) SetRule(span syntax.Span, args *Args) (*StyleMap, error) {
	if f.Elem == "" {
		return nil, diag.New(diag.CompileError, span,
			"only element functions can be used in set rules").
			WithHint("%s does not construct an element", f.Repr())
	}
	m := NewStyleMap()
	for i := 0; ; i++ {
		v, vspan, ok := args.EatPos()
		if !ok {
			break
		}
		if i >= len(f.PosProps) {
			return nil, diag.New(diag.ArgumentError, vspan,
				"unexpected argument")
		}
		m.Set(&Property{Elem: f.Elem, Name: f.PosProps[i], Value: v, Span: vspan})
	}
	for _, it := range args.Take().items {
		m.Set(&Property{Elem: f.Elem, Name: it.Name, Value: it.Value, Span: it.Span})
	}
	return m, nil
}
