package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// compiler lowers one function body (or module top level) to
// instructions. Nested closures get their own compiler linked through
// parent, which is how free variables become captures.
type compiler struct {
	eng    *engine.Engine
	lib    *library.Library
	parent *compiler

	name     string
	isModule bool

	instructions []Instruction
	spans        []syntax.Span

	constants  []value.Value
	constIndex map[string]int
	strings    []string
	strIndex   map[string]int
	labels     []string
	labelIndex map[string]int
	closures   []*CompiledClosure
	accesses   []*Access
	patterns   []*Pattern
	selects    [][]SelectArm
	jumps      []int

	registers registerAllocator
	scope     *scopeFrame

	// loopDepth and joinDepth gate break/continue and set/show
	// placement. inMath routes identifier lookup through the math
	// scope first.
	loopDepth int
	joinDepth int
	inMath    bool

	hasSelf  bool
	selfName string
	selfReg  Register

	// bodyJoins and bodyDisplay record how a closure body's root
	// frame accumulates, set while compiling the body.
	bodyJoins   bool
	bodyDisplay bool

	captures    []CompiledCapture
	capturedIdx map[string]int

	exports []Export

	// imported tracks compile-time import sources for duplicate
	// import warnings. Only the module compiler carries it.
	imported map[string]syntax.Span
}

// newCompiler creates the compiler for a module top level.
func newCompiler(e *engine.Engine, lib *library.Library, name string) *compiler {
	return &compiler{
		eng:         e,
		lib:         lib,
		name:        name,
		isModule:    true,
		constIndex:  make(map[string]int),
		strIndex:    make(map[string]int),
		labelIndex:  make(map[string]int),
		capturedIdx: make(map[string]int),
		imported:    make(map[string]syntax.Span),
		scope:       newScopeFrame(nil),
	}
}

// newClosureCompiler creates a compiler for a closure body nested in c.
func newClosureCompiler(c *compiler, name string) *compiler {
	return &compiler{
		eng:         c.eng,
		lib:         c.lib,
		parent:      c,
		name:        name,
		constIndex:  make(map[string]int),
		strIndex:    make(map[string]int),
		labelIndex:  make(map[string]int),
		capturedIdx: make(map[string]int),
		scope:       newScopeFrame(nil),
	}
}

// Compile lowers a source file to a compiled module.
func Compile(e *engine.Engine, lib *library.Library, src *syntax.Source) (*CompiledModule, error) {
	c := newCompiler(e, lib, moduleName(src.Path))
	code, err := c.compileModule(src.Root)
	if err != nil {
		return nil, err
	}
	return &CompiledModule{Code: code, Fingerprint: src.Fingerprint()}, nil
}

// compileModule compiles the root expression. Markup and code roots
// run as joining top levels with their statements laid out directly in
// the root buffer; any other root evaluates to the module's content.
func (c *compiler) compileModule(root *syntax.Expr) (*CompiledCode, error) {
	display := root.Kind == syntax.KindMarkup
	joins := display || root.Kind == syntax.KindCode

	if joins {
		c.joinDepth++
		for _, child := range root.Exprs {
			if err := c.compileStmt(child); err != nil {
				return nil, err
			}
		}
		c.joinDepth--
	} else {
		if err := c.compileInto(root, JoinedWrite()); err != nil {
			return nil, err
		}
		joins = true
	}

	code := c.finish(root.Span)
	code.Joins = joins
	code.Display = display
	code.Exports = c.exports
	return code, nil
}

// finish seals the instruction buffer and tables into CompiledCode.
func (c *compiler) finish(span syntax.Span) *CompiledCode {
	return &CompiledCode{
		Name:         c.name,
		Span:         span,
		Instructions: c.instructions,
		Spans:        c.spans,
		Constants:    c.constants,
		Strings:      c.strings,
		Labels:       c.labels,
		Closures:     c.closures,
		Accesses:     c.accesses,
		Patterns:     c.patterns,
		Selects:      c.selects,
		Jumps:        c.jumps,
		Registers:    c.registers.highWater(),
	}
}

// ==== Emission ==========================================================

func (c *compiler) emit(span syntax.Span, inst Instruction) int {
	c.instructions = append(c.instructions, inst)
	c.spans = append(c.spans, span)
	return len(c.instructions) - 1
}

// section compiles body instructions into a fresh buffer and returns
// them, for splicing after a scope header. Jump labels marked inside a
// section are relative to its start.
func (c *compiler) section(f func() error) ([]Instruction, []syntax.Span, error) {
	savedInstrs, savedSpans := c.instructions, c.spans
	c.instructions, c.spans = nil, nil
	err := f()
	body, bodySpans := c.instructions, c.spans
	c.instructions, c.spans = savedInstrs, savedSpans
	if err != nil {
		return nil, nil, err
	}
	return body, bodySpans, nil
}

// splice appends a compiled section after its scope header.
func (c *compiler) splice(body []Instruction, spans []syntax.Span) {
	c.instructions = append(c.instructions, body...)
	c.spans = append(c.spans, spans...)
}

// free releases a readable's register unless it backs a binding.
func (c *compiler) free(r Readable) {
	if r.ReadableKind() == ReadReg && !c.registers.isPinned(r.Reg()) {
		c.registers.free(r.Reg())
	}
}

// ==== Tables ============================================================

func (c *compiler) addConst(v value.Value) Readable {
	key := v.Kind().String() + "\x00" + v.Repr()
	switch v.(type) {
	case value.Int, value.Float, value.Str, value.Bool, value.Label:
		if i, ok := c.constIndex[key]; ok {
			return ConstRead(i)
		}
	default:
		key = ""
	}
	i := len(c.constants)
	c.constants = append(c.constants, v)
	if key != "" {
		c.constIndex[key] = i
	}
	return ConstRead(i)
}

func (c *compiler) addString(s string) int {
	if i, ok := c.strIndex[s]; ok {
		return i
	}
	i := len(c.strings)
	c.strings = append(c.strings, s)
	c.strIndex[s] = i
	return i
}

func (c *compiler) addLabel(name string) int {
	if i, ok := c.labelIndex[name]; ok {
		return i
	}
	i := len(c.labels)
	c.labels = append(c.labels, name)
	c.labelIndex[name] = i
	return i
}

func (c *compiler) addAccess(a *Access) int {
	c.accesses = append(c.accesses, a)
	return len(c.accesses) - 1
}

func (c *compiler) addPattern(p *Pattern) int {
	c.patterns = append(c.patterns, p)
	return len(c.patterns) - 1
}

func (c *compiler) addSelect(arms []SelectArm) int {
	c.selects = append(c.selects, arms)
	return len(c.selects) - 1
}

func (c *compiler) addClosure(cl *CompiledClosure) int {
	c.closures = append(c.closures, cl)
	return len(c.closures) - 1
}

// jumpLabel allocates a jump label; mark later fixes its target to the
// current position in the enclosing section.
func (c *compiler) jumpLabel() int {
	c.jumps = append(c.jumps, -1)
	return len(c.jumps) - 1
}

func (c *compiler) mark(label int) {
	c.jumps[label] = len(c.instructions)
}

func moduleName(path string) string {
	name := path
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			name = path[i+1:]
			break
		}
	}
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[:i]
		}
	}
	return name
}
