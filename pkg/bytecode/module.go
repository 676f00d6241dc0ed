package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// CompiledCode is one compiled function body or module top level: the
// instruction buffer plus the parallel tables its operands index. All
// of it is produced once by the compiler and read-only afterwards;
// every frame of one evaluation shares it by reference.
type CompiledCode struct {
	Name string
	Span syntax.Span

	Instructions []Instruction
	Spans        []syntax.Span

	Constants []value.Value
	Strings   []string
	Labels    []string
	Closures  []*CompiledClosure
	Accesses  []*Access
	Patterns  []*Pattern
	Selects   [][]SelectArm

	// Jumps maps jump label indices to instruction indices relative
	// to the scope the jump appears in.
	Jumps []int

	// Registers is the frame size this code needs.
	Registers int

	// Joins and Display configure the root frame: module top levels
	// join, and markup-rooted ones join for display.
	Joins   bool
	Display bool

	// Exports lists the top-level bindings that become module fields,
	// read out of the final register file. Only set on module code.
	Exports []Export
}

// Export is one public module definition.
type Export struct {
	Name string
	Reg  Register
}

// SelectArm is one arm of a select: the first arm whose condition is
// true produces the value. An absent condition always matches.
type SelectArm struct {
	Cond  Readable
	Value Readable
}

// CompiledModule is the unit handed from the compiler to the VM and,
// serialized, to the module cache.
type CompiledModule struct {
	Code *CompiledCode

	// Fingerprint identifies the source AST the module was compiled
	// from, for cache keying.
	Fingerprint string
}

// ParamKind discriminates closure parameters.
type ParamKind uint8

const (
	ParamPos ParamKind = iota
	ParamNamed
	ParamSink
)

// CompiledParam is one parameter of a closure template. Default is a
// readable into the defining frame, resolved when the closure literal
// is evaluated; Reg is where the bound argument lands in the closure's
// own frame.
type CompiledParam struct {
	Kind    ParamKind
	Name    string
	Span    syntax.Span
	Default Readable
	Reg     Register
}

// CompiledCapture is one captured variable of a closure template:
// where to read it in the defining frame and where it lives in the
// closure's frame. Captures are snapshotted by value at instantiation.
type CompiledCapture struct {
	Name  string
	Span  syntax.Span
	Outer Readable
	Reg   Register
}

// CompiledClosure is a closure template. Instantiating it resolves
// the parameter defaults and capture values in the defining frame and
// yields a callable runtime closure.
type CompiledClosure struct {
	Name     string
	Span     syntax.Span
	Params   []CompiledParam
	Captures []CompiledCapture
	Code     *CompiledCode

	// SelfReg holds the closure itself in its own frame, enabling
	// recursion by name.
	SelfReg  Register
	HasSelf  bool
}
