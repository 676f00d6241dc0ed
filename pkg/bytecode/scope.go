package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// binding is one name visible while compiling: either a register
// variable or a compile-time constant (from constant-folded imports).
type binding struct {
	readable Readable
	reg      Register
	isReg    bool
	span     syntax.Span
}

// scopeFrame is one lexical scope within the compiling function.
// Popping a frame frees its register bindings for reuse.
type scopeFrame struct {
	parent *scopeFrame
	vars   map[string]binding
	order  []string
}

func newScopeFrame(parent *scopeFrame) *scopeFrame {
	return &scopeFrame{parent: parent, vars: make(map[string]binding)}
}

// pushScope opens a nested lexical scope.
func (c *compiler) pushScope() {
	c.scope = newScopeFrame(c.scope)
}

// popScope closes the innermost scope, freeing its registers.
func (c *compiler) popScope() {
	for _, name := range c.scope.order {
		b := c.scope.vars[name]
		if b.isReg {
			c.registers.free(b.reg)
		}
	}
	c.scope = c.scope.parent
}

// declare binds a name to a fresh register in the innermost scope.
func (c *compiler) declare(span syntax.Span, name string) (Register, error) {
	reg, err := c.registers.allocatePristine(span)
	if err != nil {
		return 0, err
	}
	c.scope.vars[name] = binding{readable: RegRead(reg), reg: reg, isReg: true, span: span}
	c.scope.order = append(c.scope.order, name)
	return reg, nil
}

// declareConst binds a name to a readable without a register, used by
// constant-folded imports.
func (c *compiler) declareConst(span syntax.Span, name string, r Readable) {
	c.scope.vars[name] = binding{readable: r, span: span}
	c.scope.order = append(c.scope.order, name)
}

// resolveLocal resolves a name against this function's scopes, its
// self-reference, and its already-collected captures. It does not
// consult the library or enclosing functions.
func (c *compiler) resolveLocal(name string) (Readable, bool) {
	for frame := c.scope; frame != nil; frame = frame.parent {
		if b, ok := frame.vars[name]; ok {
			return b.readable, true
		}
	}
	if c.hasSelf && name == c.selfName {
		return RegRead(c.selfReg), true
	}
	if i, ok := c.capturedIdx[name]; ok {
		return RegRead(c.captures[i].Reg), true
	}
	return NoReadable, false
}

// resolveVar resolves an identifier to a readable. Names found in an
// enclosing function become captures: a pristine register in this
// function, snapshotted from the enclosing frame when the closure
// literal is evaluated.
func (c *compiler) resolveVar(span syntax.Span, name string) (Readable, error) {
	if r, ok := c.resolveLocal(name); ok {
		return r, nil
	}

	if c.parent != nil {
		if outer, ok := c.parent.resolveOuter(span, name); ok {
			reg, err := c.registers.allocatePristine(span)
			if err != nil {
				return NoReadable, err
			}
			c.capturedIdx[name] = len(c.captures)
			c.captures = append(c.captures, CompiledCapture{
				Name:  name,
				Span:  span,
				Outer: outer,
				Reg:   reg,
			})
			return RegRead(reg), nil
		}
	}

	if c.inMath {
		if i, ok := c.lib.Math.IndexOf(name); ok {
			return MathRead(i), nil
		}
	}
	if i, ok := c.lib.Global.IndexOf(name); ok {
		return GlobalRead(i), nil
	}

	return NoReadable, diag.New(diag.CompileError, span,
		"unknown variable: %s", name)
}

// resolveOuter resolves a name on behalf of a nested closure,
// chaining captures through intermediate functions.
func (c *compiler) resolveOuter(span syntax.Span, name string) (Readable, bool) {
	if r, ok := c.resolveLocal(name); ok {
		return r, true
	}
	if c.parent == nil {
		return NoReadable, false
	}
	outer, ok := c.parent.resolveOuter(span, name)
	if !ok {
		return NoReadable, false
	}
	reg, err := c.registers.allocatePristine(span)
	if err != nil {
		return NoReadable, false
	}
	c.capturedIdx[name] = len(c.captures)
	c.captures = append(c.captures, CompiledCapture{
		Name:  name,
		Span:  span,
		Outer: outer,
		Reg:   reg,
	})
	return RegRead(reg), true
}
