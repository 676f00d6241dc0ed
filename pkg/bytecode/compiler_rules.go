package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// compileSet lowers a set rule. Set rules style the rest of the
// enclosing block, so they are only meaningful where a joiner is
// accumulating.
func (c *compiler) compileSet(expr *syntax.Expr) error {
	if c.joinDepth == 0 {
		return diag.New(diag.CompileError, expr.Span,
			"set is only allowed directly in code and content blocks")
	}
	if err := c.checkElemFunc(expr.Callee); err != nil {
		return err
	}
	target, err := c.compileExpr(expr.Callee)
	if err != nil {
		return err
	}
	args, err := c.compileArgs(expr.Span, expr.Args)
	if err != nil {
		c.free(target)
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpSet, A: uint32(target), B: uint32(args)})
	c.free(args)
	c.free(target)
	return nil
}

// compileShow lowers a show rule. A show rule whose transform is a set
// rule becomes a scoped set: the properties apply inside the matched
// elements only.
func (c *compiler) compileShow(expr *syntax.Expr) error {
	if c.joinDepth == 0 {
		return diag.New(diag.CompileError, expr.Span,
			"show is only allowed directly in code and content blocks")
	}
	selector := NoReadable
	if expr.Lhs != nil {
		var err error
		selector, err = c.compileExpr(expr.Lhs)
		if err != nil {
			return err
		}
	}

	if expr.Body.Kind == syntax.KindSet {
		if err := c.checkElemFunc(expr.Body.Callee); err != nil {
			c.free(selector)
			return err
		}
		target, err := c.compileExpr(expr.Body.Callee)
		if err != nil {
			c.free(selector)
			return err
		}
		args, err := c.compileArgs(expr.Body.Span, expr.Body.Args)
		if err != nil {
			c.free(target)
			c.free(selector)
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpShowSet, A: uint32(selector), B: uint32(target), C: uint32(args),
		})
		c.free(args)
		c.free(target)
		c.free(selector)
		return nil
	}

	transform, err := c.compileExpr(expr.Body)
	if err != nil {
		c.free(selector)
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpShow, A: uint32(selector), B: uint32(transform)})
	c.free(transform)
	c.free(selector)
	return nil
}

// checkElemFunc rejects set targets that are known at compile time not
// to construct elements.
func (c *compiler) checkElemFunc(callee *syntax.Expr) error {
	v, err := c.constEval(callee)
	if err != nil || v == nil {
		return err
	}
	f, ok := v.(*value.Func)
	if !ok || f.Elem == "" {
		return diag.New(diag.CompileError, callee.Span,
			"only element functions can be used in set rules").
			WithHint("%s does not construct an element", v.Repr())
	}
	return nil
}
