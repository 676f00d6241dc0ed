package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// Closure is an instantiated closure template: the compiled body plus
// the default and capture values resolved in the defining frame.
// Captures are snapshots; mutating the original variable after the
// closure literal does not change what the closure sees.
type Closure struct {
	tmpl     *CompiledClosure
	lib      *library.Library
	defaults []value.Value
	captures []value.Value
	self     *value.Func
}

// instantiate resolves a closure template against the current frame.
func (m *machine) instantiate(tmpl *CompiledClosure, span syntax.Span) (*value.Func, error) {
	c := &Closure{tmpl: tmpl, lib: m.lib}
	for _, p := range tmpl.Params {
		if p.Kind != ParamNamed {
			continue
		}
		v, err := m.read(p.Default)
		if err != nil {
			return nil, err
		}
		c.defaults = append(c.defaults, v)
	}
	for _, cap := range tmpl.Captures {
		v, err := m.read(cap.Outer)
		if err != nil {
			return nil, err
		}
		c.captures = append(c.captures, v)
	}
	f := &value.Func{Name: tmpl.Name, Callee: c, Span: span}
	c.self = f
	return f, nil
}

// Call binds the arguments and runs the body on a fresh machine.
// Argument errors are batched so a call with several bad arguments
// reports all of them.
func (c *Closure) Call(e *engine.Engine, args *value.Args) (value.Value, error) {
	if err := e.EnterCall(c.tmpl.Span); err != nil {
		return nil, err
	}
	defer e.ExitCall()

	m := newMachine(e, c.lib, c.tmpl.Code)
	for i, cap := range c.tmpl.Captures {
		m.registers[cap.Reg] = c.captures[i]
	}
	if c.tmpl.HasSelf {
		m.registers[c.tmpl.SelfReg] = c.self
	}

	var errs diag.List
	di := 0
	for _, p := range c.tmpl.Params {
		switch p.Kind {
		case ParamPos:
			v, err := args.ExpectPos(p.Name)
			if err != nil {
				errs = appendErr(errs, err)
				continue
			}
			m.registers[p.Reg] = v
		case ParamNamed:
			if v, ok := args.Named(p.Name); ok {
				m.registers[p.Reg] = v
			} else {
				m.registers[p.Reg] = c.defaults[di]
			}
			di++
		case ParamSink:
			m.registers[p.Reg] = args.Take()
		}
	}
	if err := args.Finish(); err != nil {
		errs = appendErr(errs, err)
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	res, err := m.runRoot()
	if err != nil {
		return nil, err
	}
	return res.value, nil
}

func appendErr(errs diag.List, err error) diag.List {
	switch e := err.(type) {
	case diag.List:
		return append(errs, e...)
	case *diag.Diagnostic:
		return append(errs, e)
	default:
		return append(errs, diag.New(diag.RuntimeError, syntax.Span{}, "%s", err.Error()))
	}
}
