package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// compileClosure lowers a closure literal. The body compiles in its
// own compiler with a fresh register file; parameter defaults compile
// in the defining scope and are resolved when the closure literal is
// evaluated, not when the closure is called. A named closure reserves
// a register for itself so it can recurse without capturing.
func (c *compiler) compileClosure(expr *syntax.Expr, name string, out Writable) error {
	sub := newClosureCompiler(c, name)
	clos := &CompiledClosure{Name: name, Span: expr.Span}

	if name != "" {
		reg, err := sub.registers.allocatePristine(expr.Span)
		if err != nil {
			return err
		}
		sub.hasSelf = true
		sub.selfName = name
		sub.selfReg = reg
		clos.HasSelf = true
		clos.SelfReg = reg
	}

	// Defaults are temporaries in the defining frame; they stay live
	// until the Instantiate below reads them.
	var defaults []Readable
	freeDefaults := func() {
		for i := len(defaults) - 1; i >= 0; i-- {
			c.free(defaults[i])
		}
	}

	seen := make(map[string]bool)
	sawSink := false
	for _, p := range expr.Params {
		if seen[p.Name] {
			freeDefaults()
			return diag.New(diag.CompileError, p.Span,
				"duplicate parameter: %s", p.Name)
		}
		seen[p.Name] = true

		reg, err := sub.declare(p.Span, p.Name)
		if err != nil {
			freeDefaults()
			return err
		}
		param := CompiledParam{Kind: ParamPos, Name: p.Name, Span: p.Span, Reg: reg}
		switch {
		case p.Sink:
			if sawSink {
				freeDefaults()
				return diag.New(diag.CompileError, p.Span,
					"only one argument sink is allowed")
			}
			sawSink = true
			param.Kind = ParamSink
		case p.Default != nil:
			def, err := c.compileExpr(p.Default)
			if err != nil {
				freeDefaults()
				return err
			}
			defaults = append(defaults, def)
			param.Kind = ParamNamed
			param.Default = def
		}
		clos.Params = append(clos.Params, param)
	}

	if err := sub.compileFunctionBody(expr.Body); err != nil {
		freeDefaults()
		return err
	}

	clos.Code = sub.finish(expr.Span)
	clos.Code.Joins = sub.bodyJoins
	clos.Code.Display = sub.bodyDisplay
	clos.Captures = sub.captures

	c.emit(expr.Span, Instruction{
		Op: OpInstantiate, A: uint32(c.addClosure(clos)), Out: out,
	})
	freeDefaults()
	return nil
}

// compileFunctionBody compiles a closure body into the root buffer.
// Block bodies join their statements like module top levels; a bare
// expression body returns its value directly.
func (c *compiler) compileFunctionBody(body *syntax.Expr) error {
	if body.Kind == syntax.KindContent {
		body = body.Body
	}
	switch body.Kind {
	case syntax.KindCode, syntax.KindMarkup:
		c.bodyJoins = true
		c.bodyDisplay = body.Kind == syntax.KindMarkup
		c.joinDepth++
		for _, child := range body.Exprs {
			if err := c.compileStmt(child); err != nil {
				c.joinDepth--
				return err
			}
		}
		c.joinDepth--
		return nil
	default:
		r, err := c.compileExpr(body)
		if err != nil {
			return err
		}
		c.emit(body.Span, Instruction{Op: OpReturnVal, A: uint32(r)})
		c.free(r)
		return nil
	}
}
