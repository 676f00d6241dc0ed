package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// compileMarkup lowers markup nodes. Plain text and breaks become
// content constants; structural nodes compile their bodies and emit
// the matching element instruction.
func (c *compiler) compileMarkup(expr *syntax.Expr, out Writable) error {
	switch expr.Kind {
	case syntax.KindText:
		elem := value.TextElem(expr.Str)
		elem.Span = expr.Span
		c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(c.addConst(elem)), Out: out})
		return nil
	case syntax.KindSpace:
		return c.emitElemConst(expr, value.ElemSpace, out)
	case syntax.KindLinebreak:
		return c.emitElemConst(expr, value.ElemLinebreak, out)
	case syntax.KindParbreak:
		return c.emitElemConst(expr, value.ElemParbreak, out)
	case syntax.KindSmartQuote:
		elem := &value.Content{
			Elem: value.ElemSmartQuote, Span: expr.Span, Block: expr.Bool,
		}
		c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(c.addConst(elem)), Out: out})
		return nil

	case syntax.KindStrong:
		return c.compileWrapper(expr, OpStrong, out)
	case syntax.KindEmph:
		return c.compileWrapper(expr, OpEmph, out)
	case syntax.KindListItem:
		return c.compileWrapper(expr, OpListItem, out)

	case syntax.KindHeading:
		body, err := c.compileExpr(expr.Body)
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpHeading, A: uint32(body), B: uint32(expr.Level), Out: out,
		})
		c.free(body)
		return nil

	case syntax.KindEnumItem:
		body, err := c.compileExpr(expr.Body)
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpEnumItem, A: uint32(body), B: uint32(expr.Level), Out: out,
		})
		c.free(body)
		return nil

	case syntax.KindTermItem:
		term, err := c.compileExpr(expr.Lhs)
		if err != nil {
			return err
		}
		desc, err := c.compileExpr(expr.Body)
		if err != nil {
			c.free(term)
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpTermItem, A: uint32(term), B: uint32(desc), Out: out,
		})
		c.free(desc)
		c.free(term)
		return nil

	case syntax.KindRef:
		supplement := NoReadable
		if expr.Body != nil {
			var err error
			supplement, err = c.compileExpr(expr.Body)
			if err != nil {
				return err
			}
		}
		c.emit(expr.Span, Instruction{
			Op: OpRef, A: uint32(c.addLabel(expr.Str)), B: uint32(supplement), Out: out,
		})
		c.free(supplement)
		return nil

	case syntax.KindEquation:
		body, err := c.compileMathExpr(expr.Body)
		if err != nil {
			return err
		}
		block := uint32(0)
		if expr.Bool {
			block = 1
		}
		c.emit(expr.Span, Instruction{
			Op: OpEquation, A: uint32(body), B: block, Out: out,
		})
		c.free(body)
		return nil
	}
	return diag.New(diag.CompileError, expr.Span,
		"unexpected markup kind %q", expr.Kind)
}

func (c *compiler) emitElemConst(expr *syntax.Expr, kind value.ElemKind, out Writable) error {
	elem := &value.Content{Elem: kind, Span: expr.Span}
	c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(c.addConst(elem)), Out: out})
	return nil
}

func (c *compiler) compileWrapper(expr *syntax.Expr, op Opcode, out Writable) error {
	body, err := c.compileExpr(expr.Body)
	if err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{Op: op, A: uint32(body), Out: out})
	c.free(body)
	return nil
}

// compileMathExpr compiles an expression with math identifier
// resolution active, returning its readable.
func (c *compiler) compileMathExpr(expr *syntax.Expr) (Readable, error) {
	saved := c.inMath
	c.inMath = true
	r, err := c.compileExpr(expr)
	c.inMath = saved
	return r, err
}

// compileMath lowers math nodes. A math sequence is a joining display
// scope whose identifiers resolve through the math scope first.
func (c *compiler) compileMath(expr *syntax.Expr, out Writable) error {
	switch expr.Kind {
	case syntax.KindMath:
		body, spans, err := c.section(func() error {
			c.pushScope()
			saved := c.inMath
			c.inMath = true
			c.joinDepth++
			var err error
			for _, child := range expr.Exprs {
				if err = c.compileStmt(child); err != nil {
					break
				}
			}
			c.joinDepth--
			c.inMath = saved
			c.popScope()
			return err
		})
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpEnter, A: uint32(len(body)), B: EnterJoining | EnterDisplay, Out: out,
		})
		c.splice(body, spans)
		c.emit(expr.Span, Instruction{Op: OpFlow})
		return nil

	case syntax.KindMathFrac:
		num, err := c.compileMathExpr(expr.Lhs)
		if err != nil {
			return err
		}
		den, err := c.compileMathExpr(expr.Rhs)
		if err != nil {
			c.free(num)
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpFrac, A: uint32(num), B: uint32(den), Out: out,
		})
		c.free(den)
		c.free(num)
		return nil

	case syntax.KindMathRoot:
		degree := NoReadable
		if expr.Lhs != nil {
			var err error
			degree, err = c.compileMathExpr(expr.Lhs)
			if err != nil {
				return err
			}
		}
		radicand, err := c.compileMathExpr(expr.Rhs)
		if err != nil {
			c.free(degree)
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpRoot, A: uint32(degree), B: uint32(radicand), Out: out,
		})
		c.free(radicand)
		c.free(degree)
		return nil

	case syntax.KindMathAttach:
		base, err := c.compileMathExpr(expr.Body)
		if err != nil {
			return err
		}
		top := NoReadable
		if expr.Lhs != nil {
			top, err = c.compileMathExpr(expr.Lhs)
			if err != nil {
				c.free(base)
				return err
			}
		}
		bottom := NoReadable
		if expr.Rhs != nil {
			bottom, err = c.compileMathExpr(expr.Rhs)
			if err != nil {
				c.free(top)
				c.free(base)
				return err
			}
		}
		c.emit(expr.Span, Instruction{
			Op: OpAttach, A: uint32(base), B: uint32(top), C: uint32(bottom), Out: out,
		})
		c.free(bottom)
		c.free(top)
		c.free(base)
		return nil

	case syntax.KindMathDelimited:
		open, err := c.compileMathExpr(expr.Lhs)
		if err != nil {
			return err
		}
		body, err := c.compileMathExpr(expr.Body)
		if err != nil {
			c.free(open)
			return err
		}
		closing, err := c.compileMathExpr(expr.Rhs)
		if err != nil {
			c.free(body)
			c.free(open)
			return err
		}
		c.emit(expr.Span, Instruction{
			Op: OpDelimited, A: uint32(open), B: uint32(body), C: uint32(closing), Out: out,
		})
		c.free(closing)
		c.free(body)
		c.free(open)
		return nil
	}
	return diag.New(diag.CompileError, expr.Span,
		"unexpected math kind %q", expr.Kind)
}
