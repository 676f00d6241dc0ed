package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// machine executes one compiled code body. Nested scopes run as
// nested frames on the Go call stack over the same register file;
// only closure calls get a fresh machine.
type machine struct {
	eng       *engine.Engine
	lib       *library.Library
	code      *CompiledCode
	registers []value.Value
}

// iterator drives one for loop.
type iterator struct {
	items []value.Value
	next  int
}

// frame is the per-scope control state: the flag set, the joiner
// accumulating the scope's value, the loop iterator, and the explicit
// output set by return.
type frame struct {
	flags     state
	joiner    *joiner
	ownJoiner bool
	iter      *iterator
	output    value.Value
	hasOutput bool
}

func newMachine(e *engine.Engine, lib *library.Library, code *CompiledCode) *machine {
	return &machine{
		eng:       e,
		lib:       lib,
		code:      code,
		registers: make([]value.Value, code.Registers),
	}
}

// runRoot executes the whole code body and classifies how it finished.
func (m *machine) runRoot() (flow, error) {
	fr := &frame{}
	if m.code.Joins {
		fr.flags.set(stJoining)
		if m.code.Display {
			fr.flags.set(stDisplay)
		}
		fr.joiner = newJoiner(m.code.Display)
		fr.ownJoiner = true
	}
	if err := m.run(m.code.Instructions, m.code.Spans, fr); err != nil {
		return flow{}, err
	}
	return m.classify(fr, m.code.Span)
}

// scope runs a nested instruction window as a child frame and
// classifies its result. Non-joining scopes write through to the
// parent's joiner.
func (m *machine) scope(instrs []Instruction, spans []syntax.Span, flagBits uint32, looping bool, iter *iterator, parent *frame, span syntax.Span) (flow, error) {
	child := &frame{iter: iter}
	if looping {
		child.flags.set(stLooping)
	}
	if flagBits&EnterJoining != 0 {
		display := flagBits&EnterDisplay != 0
		child.flags.set(stJoining)
		if display {
			child.flags.set(stDisplay)
		}
		child.joiner = newJoiner(display)
		child.ownJoiner = true
	} else {
		child.joiner = parent.joiner
	}
	if err := m.run(instrs, spans, child); err != nil {
		return flow{}, err
	}
	return m.classify(child, span)
}

// classify turns a finished frame into a flow result.
func (m *machine) classify(fr *frame, span syntax.Span) (flow, error) {
	v, err := m.frameResult(fr, span)
	if err != nil {
		return flow{}, err
	}
	switch {
	case fr.flags.has(stReturning):
		return flow{kind: flowReturn, value: v, forced: fr.flags.has(stForceReturning)}, nil
	case fr.flags.has(stBreaking):
		return flow{kind: flowBreak, value: v}, nil
	case fr.flags.has(stContinuing):
		return flow{kind: flowContinue, value: v}, nil
	default:
		return flow{kind: flowDone, value: v}, nil
	}
}

// frameResult is the value a frame produced: a forced return wins,
// then the frame's own joined accumulator, then the output register.
func (m *machine) frameResult(fr *frame, span syntax.Span) (value.Value, error) {
	if fr.flags.has(stForceReturning) && fr.hasOutput {
		return fr.output, nil
	}
	if fr.ownJoiner {
		return fr.joiner.collect(m.eng, span)
	}
	if fr.hasOutput {
		return fr.output, nil
	}
	return value.None{}, nil
}

// absorb folds a child scope's partial value into the parent when the
// child was interrupted before finishing.
func (m *machine) absorb(fr *frame, span syntax.Span, v value.Value) error {
	if _, ok := v.(value.None); ok {
		return nil
	}
	if fr.joiner != nil {
		return fr.joiner.join(span, v)
	}
	fr.output = v
	fr.hasOutput = true
	return nil
}

// propagate maps a child scope's flow onto the parent frame's flags.
func (m *machine) propagate(fr *frame, span syntax.Span, res flow, out Writable) error {
	switch res.kind {
	case flowDone:
		return m.write(fr, out, res.value, span)
	case flowBreak:
		fr.flags.set(stBreaking)
		return m.absorb(fr, span, res.value)
	case flowContinue:
		fr.flags.set(stContinuing)
		return m.absorb(fr, span, res.value)
	case flowReturn:
		fr.flags.set(stReturning)
		if res.forced {
			fr.flags.set(stForceReturning)
			fr.output = res.value
			fr.hasOutput = true
			return nil
		}
		return m.absorb(fr, span, res.value)
	}
	return diag.New(diag.RuntimeError, span, "impossible flow state")
}

// read resolves a readable operand to a value.
func (m *machine) read(r Readable) (value.Value, error) {
	switch r.ReadableKind() {
	case ReadInvalid:
		return value.None{}, nil
	case ReadReg:
		if v := m.registers[r.Reg()]; v != nil {
			return v, nil
		}
		return value.None{}, nil
	case ReadConst:
		return m.code.Constants[r.Index()], nil
	case ReadStr:
		return value.Str(m.code.Strings[r.Index()]), nil
	case ReadLabel:
		return value.Label(m.code.Labels[r.Index()]), nil
	case ReadGlobal:
		return m.lib.Global.ByIndex(r.Index()), nil
	case ReadMath:
		return m.lib.Math.ByIndex(r.Index()), nil
	case ReadBool:
		return value.Bool(r.Index() == 1), nil
	case ReadNone:
		return value.None{}, nil
	case ReadAuto:
		return value.Auto{}, nil
	}
	return nil, diag.New(diag.RuntimeError, syntax.Span{},
		"malformed operand %v", r)
}

// write resolves a writable destination.
func (m *machine) write(fr *frame, out Writable, v value.Value, span syntax.Span) error {
	switch out.WritableKind() {
	case WriteDiscard:
		return nil
	case WriteReg:
		m.registers[out.Reg()] = v
		return nil
	case WriteJoined:
		if fr.joiner == nil {
			if _, ok := v.(value.None); ok {
				return nil
			}
			return diag.New(diag.RuntimeError, span,
				"cannot join a value in this scope")
		}
		return fr.joiner.join(span, v)
	}
	return diag.New(diag.RuntimeError, span, "malformed destination %v", out)
}

// readArgs resolves an argument-pack operand, absent meaning empty.
func (m *machine) readArgs(r Readable, span syntax.Span) (*value.Args, error) {
	if r.IsNone() {
		return value.NewArgs(span), nil
	}
	v, err := m.read(r)
	if err != nil {
		return nil, err
	}
	if args, ok := v.(*value.Args); ok {
		return args, nil
	}
	if _, ok := v.(value.None); ok {
		return value.NewArgs(span), nil
	}
	return nil, diag.New(diag.RuntimeError, span,
		"expected arguments, found %s", v.Kind())
}

var compareOps = map[Opcode]string{
	OpGt: ">", OpGeq: ">=", OpLt: "<", OpLeq: "<=",
}

// run executes one instruction window over the frame. It returns when
// the window ends or the frame is interrupted at a Flow check.
func (m *machine) run(instrs []Instruction, spans []syntax.Span, fr *frame) error {
	ip := 0
	for ip < len(instrs) {
		inst := instrs[ip]
		span := spans[ip]

		if m.eng.Trace {
			m.eng.Log.Debugf("%.8s %04d %s",
				m.eng.ID.String(), ip, formatInstruction(m.code, inst))
		}

		switch inst.Op {
		case OpFlow:
			if fr.flags.has(stLooping) && fr.flags.has(stContinuing) &&
				!fr.flags.has(stBreaking|stReturning|stDone) {
				if !m.eng.TickIteration() {
					return diag.New(diag.RuntimeError, span,
						"loop seems to be infinite")
				}
				fr.flags.clear(stContinuing)
				ip = 0
				continue
			}
			if fr.flags.interrupted() {
				return nil
			}

		case OpCopy:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, v, span); err != nil {
				return err
			}

		case OpNone:
			if err := m.write(fr, inst.Out, value.None{}, span); err != nil {
				return err
			}
		case OpAuto:
			if err := m.write(fr, inst.Out, value.Auto{}, span); err != nil {
				return err
			}

		case OpAdd, OpSub, OpMul, OpDiv, OpAnd, OpOr, OpIn, OpNotIn,
			OpGt, OpGeq, OpLt, OpLeq, OpEq, OpNeq:
			if err := m.binary(fr, inst, span); err != nil {
				return err
			}

		case OpNeg, OpPos, OpNot:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			var res value.Value
			switch inst.Op {
			case OpNeg:
				res, err = value.Neg(span, v)
			case OpPos:
				res, err = value.Pos(span, v)
			case OpNot:
				res, err = value.Not(span, v)
			}
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, res, span); err != nil {
				return err
			}

		case OpAssign, OpAddAssign, OpSubAssign, OpMulAssign, OpDivAssign:
			if err := m.assign(inst, span); err != nil {
				return err
			}

		case OpDestructure:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			if err := m.destructure(m.code.Patterns[inst.B], v); err != nil {
				return err
			}

		case OpSet:
			if err := m.setRule(fr, inst, span); err != nil {
				return err
			}
		case OpShow:
			if err := m.showRule(fr, inst, span); err != nil {
				return err
			}
		case OpShowSet:
			if err := m.showSetRule(fr, inst, span); err != nil {
				return err
			}

		case OpInstantiate:
			f, err := m.instantiate(m.code.Closures[inst.A], span)
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, f, span); err != nil {
				return err
			}

		case OpCall:
			target, err := m.access(int(inst.A))
			if err != nil {
				return err
			}
			f, ok := target.(*value.Func)
			if !ok {
				return diag.New(diag.RuntimeError, span,
					"type %s is not callable", target.Kind())
			}
			args, err := m.readArgs(Readable(inst.B), span)
			if err != nil {
				return err
			}
			res, err := f.Call(m.eng, args)
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, res, span); err != nil {
				return err
			}

		case OpField:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			res, err := value.Field(span, v, m.code.Strings[inst.B])
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, res, span); err != nil {
				return err
			}

		case OpEnter:
			length := int(inst.A)
			res, err := m.scope(instrs[ip+1:ip+1+length], spans[ip+1:ip+1+length],
				inst.B, false, nil, fr, span)
			if err != nil {
				return err
			}
			if err := m.propagate(fr, span, res, inst.Out); err != nil {
				return err
			}
			ip += 1 + length
			continue

		case OpWhile:
			length := int(inst.A)
			res, err := m.scope(instrs[ip+1:ip+1+length], spans[ip+1:ip+1+length],
				inst.B, true, nil, fr, span)
			if err != nil {
				return err
			}
			if err := m.loopResult(fr, span, res, inst.Out); err != nil {
				return err
			}
			ip += 1 + length
			continue

		case OpIter:
			iterable, err := m.read(Readable(inst.B))
			if err != nil {
				return err
			}
			items, err := value.Iterate(span, iterable)
			if err != nil {
				return err
			}
			length := int(inst.A)
			res, err := m.scope(instrs[ip+1:ip+1+length], spans[ip+1:ip+1+length],
				inst.C, true, &iterator{items: items}, fr, span)
			if err != nil {
				return err
			}
			if err := m.loopResult(fr, span, res, inst.Out); err != nil {
				return err
			}
			ip += 1 + length
			continue

		case OpNext:
			if fr.iter == nil {
				return diag.New(diag.RuntimeError, span, "not in an iteration")
			}
			if fr.iter.next >= len(fr.iter.items) {
				fr.flags.set(stDone)
			} else {
				item := fr.iter.items[fr.iter.next]
				fr.iter.next++
				if err := m.write(fr, inst.Out, item, span); err != nil {
					return err
				}
			}

		case OpContinue:
			fr.flags.set(stContinuing)
		case OpBreak:
			fr.flags.set(stBreaking)
		case OpReturn:
			fr.flags.set(stReturning)
		case OpReturnVal:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			fr.output = v
			fr.hasOutput = true
			fr.flags.set(stReturning)
			if inst.B == 1 {
				fr.flags.set(stForceReturning)
			}

		case OpJump:
			ip = m.code.Jumps[inst.A]
			continue

		case OpJumpTop:
			if !m.eng.TickIteration() {
				return diag.New(diag.RuntimeError, span,
					"loop seems to be infinite")
			}
			ip = 0
			continue

		case OpJumpIf, OpJumpIfNot:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			b, err := value.Truthy(span, v)
			if err != nil {
				return err
			}
			if b == (inst.Op == OpJumpIf) {
				ip = m.code.Jumps[inst.B]
				continue
			}

		case OpSelect:
			res, err := m.selectArm(m.code.Selects[inst.A], span)
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, res, span); err != nil {
				return err
			}

		case OpArray:
			arr := &value.Array{Items: make([]value.Value, 0, inst.A)}
			if err := m.write(fr, inst.Out, arr, span); err != nil {
				return err
			}
		case OpPush:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			arr, ok := m.registers[inst.B].(*value.Array)
			if !ok {
				return diag.New(diag.RuntimeError, span, "expected array")
			}
			arr.Push(v)
		case OpDict:
			if err := m.write(fr, inst.Out, value.NewDict(), span); err != nil {
				return err
			}
		case OpInsert:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			key, err := m.read(Readable(inst.B))
			if err != nil {
				return err
			}
			keyStr, ok := key.(value.Str)
			if !ok {
				return diag.New(diag.RuntimeError, span,
					"expected string key, found %s", key.Kind())
			}
			dict, ok := m.registers[inst.C].(*value.Dict)
			if !ok {
				return diag.New(diag.RuntimeError, span, "expected dictionary")
			}
			dict.Insert(string(keyStr), v)
		case OpSpread:
			if err := m.spread(inst, span); err != nil {
				return err
			}

		case OpArgs:
			if err := m.write(fr, inst.Out, value.NewArgs(span), span); err != nil {
				return err
			}
		case OpPushArg, OpInsertArg, OpSpreadArg:
			if err := m.pushArg(inst, span); err != nil {
				return err
			}

		case OpRef, OpStrong, OpEmph, OpHeading, OpListItem, OpEnumItem,
			OpTermItem, OpEquation, OpDelimited, OpAttach, OpFrac, OpRoot:
			c, err := m.element(inst, span)
			if err != nil {
				return err
			}
			if err := m.write(fr, inst.Out, c, span); err != nil {
				return err
			}

		case OpImport, OpInclude:
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return err
			}
			mod, err := m.resolveModule(v, span)
			if err != nil {
				return err
			}
			var res value.Value = mod
			if inst.Op == OpInclude {
				res = mod.Content
			}
			if err := m.write(fr, inst.Out, res, span); err != nil {
				return err
			}

		default:
			return diag.New(diag.RuntimeError, span,
				"unknown instruction %s", inst.Op)
		}
		ip++
	}
	return nil
}

// loopResult handles a loop scope's flow: break ends the loop with the
// joined value so far, return propagates.
func (m *machine) loopResult(fr *frame, span syntax.Span, res flow, out Writable) error {
	switch res.kind {
	case flowDone, flowBreak, flowContinue:
		return m.write(fr, out, res.value, span)
	default:
		return m.propagate(fr, span, res, out)
	}
}

func (m *machine) binary(fr *frame, inst Instruction, span syntax.Span) error {
	lhs, err := m.read(Readable(inst.A))
	if err != nil {
		return err
	}
	rhs, err := m.read(Readable(inst.B))
	if err != nil {
		return err
	}
	var res value.Value
	switch inst.Op {
	case OpAdd:
		res, err = value.Add(span, lhs, rhs)
	case OpSub:
		res, err = value.Sub(span, lhs, rhs)
	case OpMul:
		res, err = value.Mul(span, lhs, rhs)
	case OpDiv:
		res, err = value.Div(span, lhs, rhs)
	case OpAnd:
		res, err = value.And(span, lhs, rhs)
	case OpOr:
		res, err = value.Or(span, lhs, rhs)
	case OpEq:
		res = value.Bool(value.Equal(lhs, rhs))
	case OpNeq:
		res = value.Bool(!value.Equal(lhs, rhs))
	case OpIn, OpNotIn:
		res, err = value.In(span, lhs, rhs)
		if err == nil && inst.Op == OpNotIn {
			res = value.Bool(!res.(value.Bool))
		}
	default:
		res, err = value.Compare(span, compareOps[inst.Op], lhs, rhs)
	}
	if err != nil {
		return err
	}
	return m.write(fr, inst.Out, res, span)
}

func (m *machine) assign(inst Instruction, span syntax.Span) error {
	v, err := m.read(Readable(inst.A))
	if err != nil {
		return err
	}
	if inst.Op != OpAssign {
		current, err := m.access(int(inst.B))
		if err != nil {
			return err
		}
		switch inst.Op {
		case OpAddAssign:
			v, err = value.Add(span, current, v)
		case OpSubAssign:
			v, err = value.Sub(span, current, v)
		case OpMulAssign:
			v, err = value.Mul(span, current, v)
		case OpDivAssign:
			v, err = value.Div(span, current, v)
		}
		if err != nil {
			return err
		}
	}
	return m.accessWrite(int(inst.B), v)
}

func (m *machine) setRule(fr *frame, inst Instruction, span syntax.Span) error {
	if fr.joiner == nil {
		return diag.New(diag.RuntimeError, span,
			"set is only allowed directly in code and content blocks")
	}
	target, err := m.read(Readable(inst.A))
	if err != nil {
		return err
	}
	f, ok := target.(*value.Func)
	if !ok {
		return diag.New(diag.RuntimeError, span,
			"only element functions can be used in set rules")
	}
	args, err := m.readArgs(Readable(inst.B), span)
	if err != nil {
		return err
	}
	styles, err := f.SetRule(span, args)
	if err != nil {
		return err
	}
	fr.joiner.styled(styles)
	return nil
}

func (m *machine) showRule(fr *frame, inst Instruction, span syntax.Span) error {
	if fr.joiner == nil {
		return diag.New(diag.RuntimeError, span,
			"show is only allowed directly in code and content blocks")
	}
	recipe, err := m.buildRecipe(Readable(inst.A), span)
	if err != nil {
		return err
	}
	transform, err := m.read(Readable(inst.B))
	if err != nil {
		return err
	}
	switch transform.(type) {
	case *value.Content, *value.StyleMap, *value.Func:
		recipe.Transform = transform
	default:
		return diag.New(diag.RuntimeError, span,
			"cannot transform content with %s", transform.Kind()).
			WithHint("show transforms take content, styles, or a function")
	}
	fr.joiner.recipe(recipe)
	return nil
}

func (m *machine) showSetRule(fr *frame, inst Instruction, span syntax.Span) error {
	if fr.joiner == nil {
		return diag.New(diag.RuntimeError, span,
			"show is only allowed directly in code and content blocks")
	}
	recipe, err := m.buildRecipe(Readable(inst.A), span)
	if err != nil {
		return err
	}
	target, err := m.read(Readable(inst.B))
	if err != nil {
		return err
	}
	f, ok := target.(*value.Func)
	if !ok {
		return diag.New(diag.RuntimeError, span,
			"only element functions can be used in set rules")
	}
	args, err := m.readArgs(Readable(inst.C), span)
	if err != nil {
		return err
	}
	styles, err := f.SetRule(span, args)
	if err != nil {
		return err
	}
	recipe.Transform = styles.Scoped()
	fr.joiner.recipe(recipe)
	return nil
}

// buildRecipe resolves a selector operand. An absent selector matches
// everything.
func (m *machine) buildRecipe(selector Readable, span syntax.Span) (*value.Recipe, error) {
	recipe := &value.Recipe{Span: span}
	if selector.IsNone() {
		return recipe, nil
	}
	sel, err := m.read(selector)
	if err != nil {
		return nil, err
	}
	switch s := sel.(type) {
	case value.None:
	case value.Label:
		recipe.SelLabel = s
	case *value.Func:
		if s.Elem == "" {
			return nil, diag.New(diag.RuntimeError, span,
				"%s cannot be used as a selector", s.Repr())
		}
		recipe.Elem = s.Elem
	case value.Str:
		recipe.Elem = value.ElemKind(s)
	default:
		return nil, diag.New(diag.RuntimeError, span,
			"cannot use %s as a selector", sel.Kind())
	}
	return recipe, nil
}

func (m *machine) selectArm(arms []SelectArm, span syntax.Span) (value.Value, error) {
	for _, arm := range arms {
		if arm.Cond.IsNone() {
			return m.read(arm.Value)
		}
		cond, err := m.read(arm.Cond)
		if err != nil {
			return nil, err
		}
		b, err := value.Truthy(span, cond)
		if err != nil {
			return nil, err
		}
		if b {
			return m.read(arm.Value)
		}
	}
	return value.None{}, nil
}

func (m *machine) spread(inst Instruction, span syntax.Span) error {
	v, err := m.read(Readable(inst.A))
	if err != nil {
		return err
	}
	switch target := m.registers[inst.B].(type) {
	case *value.Array:
		switch src := v.(type) {
		case value.None:
		case *value.Array:
			target.Items = append(target.Items, src.Items...)
		default:
			return diag.New(diag.RuntimeError, span,
				"cannot spread %s into an array", v.Kind())
		}
	case *value.Dict:
		switch src := v.(type) {
		case value.None:
		case *value.Dict:
			for _, k := range src.Keys() {
				item, _ := src.Get(k)
				target.Insert(k, item)
			}
		default:
			return diag.New(diag.RuntimeError, span,
				"cannot spread %s into a dictionary", v.Kind())
		}
	default:
		return diag.New(diag.RuntimeError, span, "expected array or dictionary")
	}
	return nil
}

func (m *machine) pushArg(inst Instruction, span syntax.Span) error {
	v, err := m.read(Readable(inst.A))
	if err != nil {
		return err
	}
	switch inst.Op {
	case OpPushArg:
		args, ok := m.registers[inst.B].(*value.Args)
		if !ok {
			return diag.New(diag.RuntimeError, span, "expected arguments")
		}
		args.Push(span, v)
	case OpInsertArg:
		args, ok := m.registers[inst.C].(*value.Args)
		if !ok {
			return diag.New(diag.RuntimeError, span, "expected arguments")
		}
		args.PushNamed(span, m.code.Strings[inst.B], v)
	case OpSpreadArg:
		args, ok := m.registers[inst.B].(*value.Args)
		if !ok {
			return diag.New(diag.RuntimeError, span, "expected arguments")
		}
		return args.Spread(span, v)
	}
	return nil
}

// element builds one content node from its operands.
func (m *machine) element(inst Instruction, span syntax.Span) (*value.Content, error) {
	content := func(r Readable) (*value.Content, error) {
		if r.IsNone() {
			return nil, nil
		}
		v, err := m.read(r)
		if err != nil {
			return nil, err
		}
		if _, ok := v.(value.None); ok {
			return nil, nil
		}
		return value.ToContent(v), nil
	}

	switch inst.Op {
	case OpRef:
		supplement, err := content(Readable(inst.B))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemRef, Span: span,
			Text: m.code.Labels[inst.A], Body: supplement,
		}, nil

	case OpStrong, OpEmph, OpListItem:
		body, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		elem := value.ElemStrong
		switch inst.Op {
		case OpEmph:
			elem = value.ElemEmph
		case OpListItem:
			elem = value.ElemListItem
		}
		return &value.Content{Elem: elem, Span: span, Body: body}, nil

	case OpHeading:
		body, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemHeading, Span: span, Body: body, Level: int(inst.B),
		}, nil

	case OpEnumItem:
		body, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemEnumItem, Span: span, Body: body, Level: int(inst.B),
		}, nil

	case OpTermItem:
		term, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		desc, err := content(Readable(inst.B))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemTermItem, Span: span, Body: term, Tail: desc,
		}, nil

	case OpEquation:
		body, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemEquation, Span: span, Body: body, Block: inst.B == 1,
		}, nil

	case OpFrac:
		num, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		den, err := content(Readable(inst.B))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemFrac, Span: span, Body: num, Tail: den,
		}, nil

	case OpRoot:
		degree := 0
		if !Readable(inst.A).IsNone() {
			v, err := m.read(Readable(inst.A))
			if err != nil {
				return nil, err
			}
			if n, ok := v.(value.Int); ok {
				degree = int(n)
			} else if _, ok := v.(value.None); !ok {
				return nil, diag.New(diag.RuntimeError, span,
					"root degree must be an integer, found %s", v.Kind())
			}
		}
		radicand, err := content(Readable(inst.B))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemRoot, Span: span, Body: radicand, Level: degree,
		}, nil

	case OpAttach:
		base, err := content(Readable(inst.A))
		if err != nil {
			return nil, err
		}
		top, err := content(Readable(inst.B))
		if err != nil {
			return nil, err
		}
		bottom, err := content(Readable(inst.C))
		if err != nil {
			return nil, err
		}
		return &value.Content{
			Elem: value.ElemAttach, Span: span, Body: base, Top: top, Bottom: bottom,
		}, nil

	case OpDelimited:
		var children []*value.Content
		for _, r := range []Readable{Readable(inst.A), Readable(inst.B), Readable(inst.C)} {
			part, err := content(r)
			if err != nil {
				return nil, err
			}
			if part != nil {
				children = append(children, part)
			}
		}
		return &value.Content{
			Elem: value.ElemDelimited, Span: span, Children: children,
		}, nil
	}
	return nil, diag.New(diag.RuntimeError, span, "unknown element instruction")
}

// resolveModule turns an import operand into a module, evaluating a
// path through the world.
func (m *machine) resolveModule(v value.Value, span syntax.Span) (*value.Module, error) {
	switch src := v.(type) {
	case *value.Module:
		return src, nil
	case value.Str:
		return evalImport(m.eng, m.lib, span, string(src))
	default:
		return nil, diag.New(diag.RuntimeError, span,
			"expected path or module, found %s", v.Kind())
	}
}
