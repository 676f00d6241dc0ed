package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// compileStmt compiles one statement of a joining block. Definitions
// and style rules produce no value; everything else joins its result
// into the block's accumulator.
func (c *compiler) compileStmt(expr *syntax.Expr) error {
	switch expr.Kind {
	case syntax.KindLet:
		return c.compileLet(expr)
	case syntax.KindSet:
		return c.compileSet(expr)
	case syntax.KindShow:
		return c.compileShow(expr)
	case syntax.KindImport:
		return c.compileImport(expr)
	default:
		return c.compileInto(expr, JoinedWrite())
	}
}

// compileInto compiles an expression, writing its result to out.
func (c *compiler) compileInto(expr *syntax.Expr, out Writable) error {
	switch expr.Kind {
	case syntax.KindNone, syntax.KindAuto, syntax.KindBool, syntax.KindInt,
		syntax.KindFloat, syntax.KindStr, syntax.KindLabel, syntax.KindIdent:
		r, err := c.trivial(expr)
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(r), Out: out})
		return nil

	case syntax.KindParens:
		return c.compileInto(expr.Body, out)

	case syntax.KindCode:
		return c.compileBlock(expr, false, out)
	case syntax.KindContent:
		return c.compileInto(expr.Body, out)
	case syntax.KindMarkup:
		return c.compileBlock(expr, true, out)

	case syntax.KindArray:
		return c.compileArray(expr, out)
	case syntax.KindDict:
		return c.compileDict(expr, out)

	case syntax.KindUnary:
		return c.compileUnary(expr, out)
	case syntax.KindBinary:
		return c.compileBinary(expr, out)

	case syntax.KindFieldAccess:
		return c.compileFieldRead(expr, out)
	case syntax.KindFuncCall:
		return c.compileCall(expr, out)
	case syntax.KindClosure:
		return c.compileClosure(expr, expr.Str, out)

	case syntax.KindConditional:
		return c.compileConditional(expr, out)
	case syntax.KindWhile:
		return c.compileWhile(expr, out)
	case syntax.KindFor:
		return c.compileFor(expr, out)

	case syntax.KindBreak:
		return c.compileLoopSignal(expr, OpBreak, "break")
	case syntax.KindContinue:
		return c.compileLoopSignal(expr, OpContinue, "continue")
	case syntax.KindReturn:
		return c.compileReturn(expr)

	case syntax.KindImport:
		return diag.New(diag.CompileError, expr.Span,
			"import is not allowed here")
	case syntax.KindInclude:
		return c.compileInclude(expr, out)

	case syntax.KindLet:
		return diag.New(diag.CompileError, expr.Span,
			"let is not allowed here")
	case syntax.KindSet:
		return diag.New(diag.CompileError, expr.Span,
			"set is only allowed directly in code and content blocks")
	case syntax.KindShow:
		return diag.New(diag.CompileError, expr.Span,
			"show is only allowed directly in code and content blocks")

	case syntax.KindText, syntax.KindSpace, syntax.KindLinebreak,
		syntax.KindParbreak, syntax.KindSmartQuote, syntax.KindStrong,
		syntax.KindEmph, syntax.KindHeading, syntax.KindListItem,
		syntax.KindEnumItem, syntax.KindTermItem, syntax.KindRef,
		syntax.KindEquation:
		return c.compileMarkup(expr, out)

	case syntax.KindMath, syntax.KindMathFrac, syntax.KindMathRoot,
		syntax.KindMathAttach, syntax.KindMathDelimited:
		return c.compileMath(expr, out)
	}
	return diag.New(diag.CompileError, expr.Span,
		"unexpected expression kind %q", expr.Kind)
}

// compileExpr compiles an expression to a readable. Literals and
// identifiers compile to direct operands without instructions; other
// expressions land in a temporary register the caller must free.
func (c *compiler) compileExpr(expr *syntax.Expr) (Readable, error) {
	if r, err := c.trivial(expr); err != nil {
		return NoReadable, err
	} else if !r.IsNone() {
		return r, nil
	}
	reg, err := c.registers.allocate(expr.Span)
	if err != nil {
		return NoReadable, err
	}
	if err := c.compileInto(expr, RegWrite(reg)); err != nil {
		c.registers.free(reg)
		return NoReadable, err
	}
	return RegRead(reg), nil
}

// trivial returns a direct operand for literals and identifiers, or
// the absent operand when the expression needs instructions.
func (c *compiler) trivial(expr *syntax.Expr) (Readable, error) {
	switch expr.Kind {
	case syntax.KindNone:
		return NoneRead(), nil
	case syntax.KindAuto:
		return AutoRead(), nil
	case syntax.KindBool:
		return BoolRead(expr.Bool), nil
	case syntax.KindInt:
		return c.addConst(value.Int(expr.Int)), nil
	case syntax.KindFloat:
		return c.addConst(value.Float(expr.Float)), nil
	case syntax.KindStr:
		return c.addConst(value.Str(expr.Str)), nil
	case syntax.KindLabel:
		return LabelRead(c.addLabel(expr.Str)), nil
	case syntax.KindIdent:
		return c.resolveVar(expr.Span, expr.Str)
	case syntax.KindParens:
		return c.trivial(expr.Body)
	}
	return NoReadable, nil
}

// ==== Blocks ============================================================

// compileBlock compiles a code or markup block into a nested joining
// scope. The scope gets its own joiner, so set and show rules inside
// the block end at its closing brace.
func (c *compiler) compileBlock(expr *syntax.Expr, display bool, out Writable) error {
	body, spans, err := c.section(func() error {
		c.pushScope()
		c.joinDepth++
		var err error
		for _, child := range expr.Exprs {
			if err = c.compileStmt(child); err != nil {
				break
			}
		}
		c.joinDepth--
		c.popScope()
		return err
	})
	if err != nil {
		return err
	}

	flags := EnterJoining
	if display {
		flags |= EnterDisplay
	}
	c.emit(expr.Span, Instruction{
		Op: OpEnter, A: uint32(len(body)), B: flags, Out: out,
	})
	c.splice(body, spans)
	c.emit(expr.Span, Instruction{Op: OpFlow})
	return nil
}

// ==== Operators =========================================================

func (c *compiler) compileUnary(expr *syntax.Expr, out Writable) error {
	var op Opcode
	switch expr.Op {
	case syntax.OpPos:
		op = OpPos
	case syntax.OpNeg:
		op = OpNeg
	case syntax.OpNot:
		op = OpNot
	default:
		return diag.New(diag.CompileError, expr.Span,
			"unknown unary operator %q", expr.Op)
	}
	r, err := c.compileExpr(expr.Rhs)
	if err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{Op: op, A: uint32(r), Out: out})
	c.free(r)
	return nil
}

var binaryOpcodes = map[string]Opcode{
	syntax.OpAdd:   OpAdd,
	syntax.OpSub:   OpSub,
	syntax.OpMul:   OpMul,
	syntax.OpDiv:   OpDiv,
	syntax.OpAnd:   OpAnd,
	syntax.OpOr:    OpOr,
	syntax.OpEq:    OpEq,
	syntax.OpNeq:   OpNeq,
	syntax.OpLt:    OpLt,
	syntax.OpLeq:   OpLeq,
	syntax.OpGt:    OpGt,
	syntax.OpGeq:   OpGeq,
	syntax.OpIn:    OpIn,
	syntax.OpNotIn: OpNotIn,
}

var assignOpcodes = map[string]Opcode{
	syntax.OpAssign:    OpAssign,
	syntax.OpAddAssign: OpAddAssign,
	syntax.OpSubAssign: OpSubAssign,
	syntax.OpMulAssign: OpMulAssign,
	syntax.OpDivAssign: OpDivAssign,
}

func (c *compiler) compileBinary(expr *syntax.Expr, out Writable) error {
	if _, ok := assignOpcodes[expr.Op]; ok {
		return c.compileAssign(expr, out)
	}
	if expr.Op == syntax.OpAnd || expr.Op == syntax.OpOr {
		return c.compileShortCircuit(expr, out)
	}
	op, ok := binaryOpcodes[expr.Op]
	if !ok {
		return diag.New(diag.CompileError, expr.Span,
			"unknown binary operator %q", expr.Op)
	}
	lhs, err := c.compileExpr(expr.Lhs)
	if err != nil {
		return err
	}
	rhs, err := c.compileExpr(expr.Rhs)
	if err != nil {
		c.free(lhs)
		return err
	}
	c.emit(expr.Span, Instruction{Op: op, A: uint32(lhs), B: uint32(rhs), Out: out})
	c.free(rhs)
	c.free(lhs)
	return nil
}

// compileShortCircuit lowers and/or. The rhs only runs when the lhs
// leaves the result open: a conditional jump skips it and copies the
// deciding lhs instead.
func (c *compiler) compileShortCircuit(expr *syntax.Expr, out Writable) error {
	op, jump := OpAnd, OpJumpIfNot
	if expr.Op == syntax.OpOr {
		op, jump = OpOr, OpJumpIf
	}
	lhs, err := c.compileExpr(expr.Lhs)
	if err != nil {
		return err
	}
	shortLabel := c.jumpLabel()
	endLabel := c.jumpLabel()
	c.emit(expr.Span, Instruction{Op: jump, A: uint32(lhs), B: uint32(shortLabel)})

	rhs, err := c.compileExpr(expr.Rhs)
	if err != nil {
		c.free(lhs)
		return err
	}
	c.emit(expr.Span, Instruction{Op: op, A: uint32(lhs), B: uint32(rhs), Out: out})
	c.free(rhs)
	c.emit(expr.Span, Instruction{Op: OpJump, A: uint32(endLabel)})

	c.mark(shortLabel)
	c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(lhs), Out: out})
	c.mark(endLabel)
	c.free(lhs)
	return nil
}

// compileAssign compiles assignment and compound assignment. The
// result of an assignment is none.
func (c *compiler) compileAssign(expr *syntax.Expr, out Writable) error {
	if expr.Pattern != nil && expr.Op == syntax.OpAssign {
		r, err := c.compileExpr(expr.Rhs)
		if err != nil {
			return err
		}
		pid, err := c.compilePattern(expr.Pattern, false)
		if err != nil {
			c.free(r)
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpDestructure, A: uint32(r), B: uint32(pid)})
		c.free(r)
		return c.writeNone(expr.Span, out)
	}

	id, head, err := c.compileAccess(expr.Lhs)
	if err != nil {
		return err
	}
	if a := c.accesses[id]; a.Kind == AccessReadable && a.Root.ReadableKind() != ReadReg {
		return diag.New(diag.CompileError, expr.Span,
			"cannot assign to this expression").
			WithHint("only variables and their fields are assignable")
	}
	r, err := c.compileExpr(expr.Rhs)
	if err != nil {
		c.free(head)
		return err
	}
	c.emit(expr.Span, Instruction{Op: assignOpcodes[expr.Op], A: uint32(r), B: uint32(id)})
	c.free(r)
	c.free(head)
	return c.writeNone(expr.Span, out)
}

// writeNone satisfies a register destination after a valueless
// statement. Joined and discard destinations need nothing.
func (c *compiler) writeNone(span syntax.Span, out Writable) error {
	if out.WritableKind() == WriteReg {
		c.emit(span, Instruction{Op: OpNone, Out: out})
	}
	return nil
}

// ==== Accesses ==========================================================

// compileAccess lowers a call target or assignment destination to an
// access chain. It returns the access index plus the temporary holding
// the chain head, which the caller frees after the consuming
// instruction. Chains rooted in compile-time constants are resolved
// here; a missing field on a module is a compile error.
func (c *compiler) compileAccess(expr *syntax.Expr) (int, Readable, error) {
	switch expr.Kind {
	case syntax.KindIdent:
		r, err := c.resolveVar(expr.Span, expr.Str)
		if err != nil {
			return 0, NoReadable, err
		}
		a := &Access{Kind: AccessReadable, Span: expr.Span, Root: r}
		a.Const = c.constOf(r)
		return c.addAccess(a), NoReadable, nil

	case syntax.KindFieldAccess:
		parentID, head, err := c.compileAccess(expr.Lhs)
		if err != nil {
			return 0, NoReadable, err
		}
		parent := c.accesses[parentID]
		if parent.Const != nil {
			v, err := value.Field(expr.Span, parent.Const, expr.Str)
			if err != nil {
				if _, ok := parent.Const.(*value.Module); ok {
					return 0, NoReadable, diag.New(diag.CompileError,
						expr.Span, "%s", err.Error())
				}
			} else {
				a := &Access{Kind: AccessReadable, Span: expr.Span, Const: v}
				return c.addAccess(a), head, nil
			}
		}
		a := &Access{
			Kind:   AccessChained,
			Span:   expr.Span,
			Parent: parentID,
			Field:  expr.Str,
		}
		return c.addAccess(a), head, nil

	case syntax.KindParens:
		return c.compileAccess(expr.Body)

	default:
		r, err := c.compileExpr(expr)
		if err != nil {
			return 0, NoReadable, err
		}
		a := &Access{Kind: AccessReadable, Span: expr.Span, Root: r}
		return c.addAccess(a), r, nil
	}
}

// constOf resolves a readable to its compile-time value, when it has
// one. The library is immutable, so globals are constants.
func (c *compiler) constOf(r Readable) value.Value {
	switch r.ReadableKind() {
	case ReadConst:
		return c.constants[r.Index()]
	case ReadGlobal:
		return c.lib.Global.ByIndex(r.Index())
	case ReadMath:
		return c.lib.Math.ByIndex(r.Index())
	}
	return nil
}

func (c *compiler) compileFieldRead(expr *syntax.Expr, out Writable) error {
	v, err := c.constEval(expr)
	if err != nil {
		return err
	}
	if v != nil {
		c.emit(expr.Span, Instruction{
			Op: OpCopy, A: uint32(c.addConst(v)), Out: out,
		})
		return nil
	}
	r, err := c.compileExpr(expr.Lhs)
	if err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{
		Op: OpField, A: uint32(r), B: uint32(c.addString(expr.Str)), Out: out,
	})
	c.free(r)
	return nil
}

// constEval resolves an expression to its compile-time value, when it
// has one: a const binding, a library definition, or a field chain
// rooted in either. A missing field on a known module is reported at
// compile time.
func (c *compiler) constEval(expr *syntax.Expr) (value.Value, error) {
	switch expr.Kind {
	case syntax.KindIdent:
		if r, ok := c.resolveLocal(expr.Str); ok {
			return c.constOf(r), nil
		}
		if c.inMath {
			if v, ok := c.lib.Math.Get(expr.Str); ok {
				return v, nil
			}
		}
		if v, ok := c.lib.Global.Get(expr.Str); ok {
			return v, nil
		}
	case syntax.KindFieldAccess:
		parent, err := c.constEval(expr.Lhs)
		if err != nil || parent == nil {
			return nil, err
		}
		v, err := value.Field(expr.Span, parent, expr.Str)
		if err != nil {
			if _, ok := parent.(*value.Module); ok {
				return nil, diag.New(diag.CompileError, expr.Span,
					"%s", err.Error())
			}
			return nil, nil
		}
		return v, nil
	case syntax.KindParens:
		return c.constEval(expr.Body)
	}
	return nil, nil
}

// ==== Calls =============================================================

func (c *compiler) compileCall(expr *syntax.Expr, out Writable) error {
	id, head, err := c.compileAccess(expr.Callee)
	if err != nil {
		return err
	}
	args, err := c.compileArgs(expr.Span, expr.Args)
	if err != nil {
		c.free(head)
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpCall, A: uint32(id), B: uint32(args), Out: out})
	c.free(args)
	c.free(head)
	return nil
}

// compileArgs builds an argument pack in a temporary register and
// returns it as a readable. An empty argument list compiles to the
// absent operand.
func (c *compiler) compileArgs(span syntax.Span, args []syntax.Arg) (Readable, error) {
	if len(args) == 0 {
		return NoReadable, nil
	}
	reg, err := c.registers.allocate(span)
	if err != nil {
		return NoReadable, err
	}
	c.emit(span, Instruction{Op: OpArgs, A: uint32(len(args)), Out: RegWrite(reg)})
	for _, arg := range args {
		r, err := c.compileExpr(arg.Value)
		if err != nil {
			c.registers.free(reg)
			return NoReadable, err
		}
		switch {
		case arg.Spread:
			c.emit(arg.Span, Instruction{Op: OpSpreadArg, A: uint32(r), B: uint32(reg)})
		case arg.Name != "":
			c.emit(arg.Span, Instruction{
				Op: OpInsertArg, A: uint32(r),
				B: uint32(c.addString(arg.Name)), C: uint32(reg),
			})
		default:
			c.emit(arg.Span, Instruction{Op: OpPushArg, A: uint32(r), B: uint32(reg)})
		}
		c.free(r)
	}
	return RegRead(reg), nil
}

// ==== Collections =======================================================

func (c *compiler) compileArray(expr *syntax.Expr, out Writable) error {
	reg, err := c.registers.allocate(expr.Span)
	if err != nil {
		return err
	}
	count := len(expr.Exprs) + len(expr.Args)
	c.emit(expr.Span, Instruction{Op: OpArray, A: uint32(count), Out: RegWrite(reg)})

	for _, item := range expr.Exprs {
		r, err := c.compileExpr(item)
		if err != nil {
			c.registers.free(reg)
			return err
		}
		c.emit(item.Span, Instruction{Op: OpPush, A: uint32(r), B: uint32(reg)})
		c.free(r)
	}
	for _, item := range expr.Args {
		if item.Name != "" {
			c.registers.free(reg)
			return diag.New(diag.CompileError, item.Span,
				"expected expression, found named pair")
		}
		r, err := c.compileExpr(item.Value)
		if err != nil {
			c.registers.free(reg)
			return err
		}
		op := OpPush
		if item.Spread {
			op = OpSpread
		}
		c.emit(item.Span, Instruction{Op: op, A: uint32(r), B: uint32(reg)})
		c.free(r)
	}

	c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(RegRead(reg)), Out: out})
	c.registers.free(reg)
	return nil
}

func (c *compiler) compileDict(expr *syntax.Expr, out Writable) error {
	reg, err := c.registers.allocate(expr.Span)
	if err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpDict, Out: RegWrite(reg)})

	for _, item := range expr.Args {
		r, err := c.compileExpr(item.Value)
		if err != nil {
			c.registers.free(reg)
			return err
		}
		switch {
		case item.Spread:
			c.emit(item.Span, Instruction{Op: OpSpread, A: uint32(r), B: uint32(reg)})
		case item.Name != "":
			key := StrRead(c.addString(item.Name))
			c.emit(item.Span, Instruction{
				Op: OpInsert, A: uint32(r), B: uint32(key), C: uint32(reg),
			})
		default:
			c.registers.free(reg)
			c.free(r)
			return diag.New(diag.CompileError, item.Span,
				"expected named pair, found expression")
		}
		c.free(r)
	}

	c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(RegRead(reg)), Out: out})
	c.registers.free(reg)
	return nil
}

// ==== Conditionals ======================================================

// compileConditional lowers an if expression. When both branches are
// direct operands the whole conditional becomes a single select;
// otherwise it compiles to conditional jumps.
func (c *compiler) compileConditional(expr *syntax.Expr, out Writable) error {
	cond, err := c.compileExpr(expr.Cond)
	if err != nil {
		return err
	}

	thenR, err := c.trivial(expr.Then)
	if err != nil {
		c.free(cond)
		return err
	}
	if !thenR.IsNone() {
		elseR := NoneRead()
		if expr.Else != nil {
			elseR, err = c.trivial(expr.Else)
			if err != nil {
				c.free(cond)
				return err
			}
		}
		if !elseR.IsNone() || expr.Else == nil || expr.Else.Kind == syntax.KindNone {
			if expr.Else == nil {
				elseR = NoneRead()
			}
			arms := []SelectArm{
				{Cond: cond, Value: thenR},
				{Cond: NoReadable, Value: elseR},
			}
			c.emit(expr.Span, Instruction{
				Op: OpSelect, A: uint32(c.addSelect(arms)), Out: out,
			})
			c.free(cond)
			return nil
		}
	}

	elseLabel := c.jumpLabel()
	endLabel := c.jumpLabel()
	c.emit(expr.Span, Instruction{
		Op: OpJumpIfNot, A: uint32(cond), B: uint32(elseLabel),
	})
	c.free(cond)

	if err := c.compileInto(expr.Then, out); err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpJump, A: uint32(endLabel)})
	c.mark(elseLabel)
	if expr.Else != nil {
		if err := c.compileInto(expr.Else, out); err != nil {
			return err
		}
	} else if err := c.writeNone(expr.Span, out); err != nil {
		return err
	}
	c.mark(endLabel)
	return nil
}

// ==== Loops =============================================================

func (c *compiler) compileWhile(expr *syntax.Expr, out Writable) error {
	display := expr.Body.Kind == syntax.KindContent ||
		expr.Body.Kind == syntax.KindMarkup

	body, spans, err := c.section(func() error {
		cond, err := c.compileExpr(expr.Cond)
		if err != nil {
			return err
		}
		endLabel := c.jumpLabel()
		c.emit(expr.Cond.Span, Instruction{
			Op: OpJumpIfNot, A: uint32(cond), B: uint32(endLabel),
		})
		c.free(cond)

		c.loopDepth++
		err = c.compileInto(expr.Body, JoinedWrite())
		c.loopDepth--
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpJumpTop})
		c.mark(endLabel)
		return nil
	})
	if err != nil {
		return err
	}

	flags := EnterJoining
	if display {
		flags |= EnterDisplay
	}
	c.emit(expr.Span, Instruction{
		Op: OpWhile, A: uint32(len(body)), B: flags, Out: out,
	})
	c.splice(body, spans)
	c.emit(expr.Span, Instruction{Op: OpFlow})
	return nil
}

func (c *compiler) compileFor(expr *syntax.Expr, out Writable) error {
	iter, err := c.compileExpr(expr.Iter)
	if err != nil {
		return err
	}
	display := expr.Body.Kind == syntax.KindContent ||
		expr.Body.Kind == syntax.KindMarkup

	body, spans, err := c.section(func() error {
		c.pushScope()
		defer c.popScope()

		pat := expr.Pattern
		if pat.Kind == syntax.PatIdent {
			reg, err := c.declare(pat.Span, pat.Name)
			if err != nil {
				return err
			}
			c.emit(pat.Span, Instruction{Op: OpNext, Out: RegWrite(reg)})
			c.emit(pat.Span, Instruction{Op: OpFlow})
		} else {
			tmp, err := c.registers.allocate(pat.Span)
			if err != nil {
				return err
			}
			c.emit(pat.Span, Instruction{Op: OpNext, Out: RegWrite(tmp)})
			c.emit(pat.Span, Instruction{Op: OpFlow})
			pid, err := c.compilePattern(pat, true)
			if err != nil {
				c.registers.free(tmp)
				return err
			}
			c.emit(pat.Span, Instruction{
				Op: OpDestructure, A: uint32(RegRead(tmp)), B: uint32(pid),
			})
			c.registers.free(tmp)
		}

		c.loopDepth++
		err := c.compileInto(expr.Body, JoinedWrite())
		c.loopDepth--
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpJumpTop})
		return nil
	})
	if err != nil {
		c.free(iter)
		return err
	}

	flags := EnterJoining
	if display {
		flags |= EnterDisplay
	}
	c.emit(expr.Span, Instruction{
		Op: OpIter, A: uint32(len(body)), B: uint32(iter), C: flags, Out: out,
	})
	c.splice(body, spans)
	c.emit(expr.Span, Instruction{Op: OpFlow})
	c.free(iter)
	return nil
}

func (c *compiler) compileLoopSignal(expr *syntax.Expr, op Opcode, what string) error {
	if c.loopDepth == 0 {
		return diag.New(diag.CompileError, expr.Span,
			"%s is only allowed inside loops", what)
	}
	c.emit(expr.Span, Instruction{Op: op})
	c.emit(expr.Span, Instruction{Op: OpFlow})
	return nil
}

func (c *compiler) compileReturn(expr *syntax.Expr) error {
	if c.parent == nil {
		return diag.New(diag.CompileError, expr.Span,
			"return is only allowed inside functions")
	}
	if expr.Body != nil {
		r, err := c.compileExpr(expr.Body)
		if err != nil {
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpReturnVal, A: uint32(r), B: 1})
		c.free(r)
	} else {
		c.emit(expr.Span, Instruction{Op: OpReturn})
	}
	c.emit(expr.Span, Instruction{Op: OpFlow})
	return nil
}

// ==== Bindings ==========================================================

func (c *compiler) compileLet(expr *syntax.Expr) error {
	pat := expr.Pattern
	if pat == nil {
		return diag.New(diag.CompileError, expr.Span, "let needs a binding")
	}

	if pat.Kind == syntax.PatIdent {
		// Named closures bind their register before the body compiles;
		// everything else compiles the initializer first so the new
		// binding does not shadow an outer variable it reads.
		if expr.Init != nil && expr.Init.Kind == syntax.KindClosure {
			reg, err := c.declare(pat.Span, pat.Name)
			if err != nil {
				return err
			}
			name := expr.Init.Str
			if name == "" {
				name = pat.Name
			}
			if err := c.compileClosure(expr.Init, name, RegWrite(reg)); err != nil {
				return err
			}
			c.export(pat.Name, reg)
			return nil
		}

		var r Readable
		if expr.Init != nil {
			var err error
			r, err = c.compileExpr(expr.Init)
			if err != nil {
				return err
			}
		} else {
			r = NoneRead()
		}
		reg, err := c.declare(pat.Span, pat.Name)
		if err != nil {
			c.free(r)
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpCopy, A: uint32(r), Out: RegWrite(reg)})
		c.free(r)
		c.export(pat.Name, reg)
		return nil
	}

	if expr.Init == nil {
		return diag.New(diag.CompileError, expr.Span,
			"destructuring let needs an initializer")
	}
	r, err := c.compileExpr(expr.Init)
	if err != nil {
		return err
	}
	pid, err := c.compilePattern(pat, true)
	if err != nil {
		c.free(r)
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpDestructure, A: uint32(r), B: uint32(pid)})
	c.free(r)
	for _, name := range pat.Names() {
		if b, ok := c.scope.vars[name]; ok && b.isReg {
			c.export(name, b.reg)
		}
	}
	return nil
}

// export records a top-level module binding.
func (c *compiler) export(name string, reg Register) {
	if c.isModule && c.scope.parent == nil {
		c.exports = append(c.exports, Export{Name: name, Reg: reg})
	}
}

// compilePattern lowers a destructuring pattern. With declare set the
// pattern introduces new bindings; otherwise its identifiers must
// resolve to existing register variables.
func (c *compiler) compilePattern(pat *syntax.Pattern, declare bool) (int, error) {
	conv, err := c.convertPattern(pat, declare)
	if err != nil {
		return 0, err
	}
	return c.addPattern(conv), nil
}

func (c *compiler) convertPattern(pat *syntax.Pattern, declare bool) (*Pattern, error) {
	switch pat.Kind {
	case syntax.PatIdent:
		var reg Register
		if declare {
			var err error
			reg, err = c.declare(pat.Span, pat.Name)
			if err != nil {
				return nil, err
			}
		} else {
			r, ok := c.resolveLocal(pat.Name)
			if !ok || r.ReadableKind() != ReadReg {
				return nil, diag.New(diag.CompileError, pat.Span,
					"cannot assign to %s", pat.Name)
			}
			reg = r.Reg()
		}
		return &Pattern{Kind: PatSingle, Span: pat.Span, Reg: reg, name: pat.Name}, nil

	case syntax.PatPlaceholder:
		return &Pattern{Kind: PatDiscard, Span: pat.Span}, nil

	case syntax.PatTuple, syntax.PatDict:
		kind := PatTuple
		if pat.Kind == syntax.PatDict {
			kind = PatDict
		}
		conv := &Pattern{Kind: kind, Span: pat.Span}
		for _, item := range pat.Items {
			sub := item.Pattern
			var subConv *Pattern
			if sub == nil {
				subConv = &Pattern{Kind: PatDiscard, Span: item.Span}
			} else {
				var err error
				subConv, err = c.convertPattern(sub, declare)
				if err != nil {
					return nil, err
				}
			}
			var slotKind PatternSlotKind
			switch item.Kind {
			case syntax.PatItemPos:
				slotKind = SlotPos
			case syntax.PatItemNamed:
				slotKind = SlotNamed
			case syntax.PatItemSpread:
				slotKind = SlotSpread
			}
			conv.Items = append(conv.Items, PatternSlot{
				Kind: slotKind,
				Name: item.Name,
				Span: item.Span,
				Sub:  subConv,
			})
		}
		return conv, nil
	}
	return nil, diag.New(diag.CompileError, pat.Span,
		"unknown pattern kind %q", pat.Kind)
}
