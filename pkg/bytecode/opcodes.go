package bytecode

import "fmt"

// Opcode identifies one instruction. Opcodes are grouped into ranges
// by category.
type Opcode uint8

const (
	// ========================================================================
	// Control sentinel (0x00)
	// ========================================================================

	// OpFlow marks a point where the VM must check the frame's
	// break/continue/return state before proceeding.
	OpFlow Opcode = 0x00

	// ========================================================================
	// Moves and sentinels (0x01-0x0F)
	// ========================================================================

	OpCopy Opcode = 0x01 // Copy A to Out
	OpNone Opcode = 0x02 // Write none to Out
	OpAuto Opcode = 0x03 // Write auto to Out

	// ========================================================================
	// Arithmetic and logic (0x10-0x2F)
	// ========================================================================

	OpAdd Opcode = 0x10 // Out = A + B
	OpSub Opcode = 0x11 // Out = A - B
	OpMul Opcode = 0x12 // Out = A * B
	OpDiv Opcode = 0x13 // Out = A / B
	OpNeg Opcode = 0x14 // Out = -A
	OpPos Opcode = 0x15 // Out = +A
	OpNot Opcode = 0x16 // Out = not A

	OpGt    Opcode = 0x20 // Out = A > B
	OpGeq   Opcode = 0x21 // Out = A >= B
	OpLt    Opcode = 0x22 // Out = A < B
	OpLeq   Opcode = 0x23 // Out = A <= B
	OpEq    Opcode = 0x24 // Out = A == B
	OpNeq   Opcode = 0x25 // Out = A != B
	OpIn    Opcode = 0x26 // Out = A in B
	OpNotIn Opcode = 0x27 // Out = A not in B
	OpAnd   Opcode = 0x28 // Out = A and B
	OpOr    Opcode = 0x29 // Out = A or B

	// ========================================================================
	// Assignment and destructuring (0x30-0x3F)
	// ========================================================================

	OpAssign    Opcode = 0x30 // Write A through access B
	OpAddAssign Opcode = 0x31 // Access B += A
	OpSubAssign Opcode = 0x32 // Access B -= A
	OpMulAssign Opcode = 0x33 // Access B *= A
	OpDivAssign Opcode = 0x34 // Access B /= A

	// OpDestructure matches value A against pattern B, binding the
	// pattern's registers.
	OpDestructure Opcode = 0x35

	// ========================================================================
	// Styling (0x40-0x4F)
	// ========================================================================

	OpSet     Opcode = 0x40 // Style joiner with element func A called with args B
	OpShow    Opcode = 0x41 // Recipe joiner: selector A (optional), transform B
	OpShowSet Opcode = 0x42 // Scoped set: selector A, element func B, args C

	// ========================================================================
	// Functions and calls (0x50-0x5F)
	// ========================================================================

	OpInstantiate Opcode = 0x50 // Out = instantiate closure A
	OpCall        Opcode = 0x51 // Out = call access A with args B
	OpField       Opcode = 0x52 // Out = field B (string) of A

	// ========================================================================
	// Scopes and loops (0x60-0x6F)
	// ========================================================================

	// OpEnter runs the next A instructions as a nested scope with
	// flag bits B, writing the scope's result to Out.
	OpEnter Opcode = 0x60

	// OpWhile runs the next A instructions as a looping scope with
	// flag bits B; the body jumps to its own top to iterate.
	OpWhile Opcode = 0x61

	// OpIter runs the next A instructions as a looping scope driven
	// by an iterator over value B, with flag bits C.
	OpIter Opcode = 0x62

	// OpNext writes the iterator's next item to Out, or marks the
	// frame done when the iterator is exhausted.
	OpNext Opcode = 0x63

	OpContinue  Opcode = 0x64 // Signal continue
	OpBreak     Opcode = 0x65 // Signal break
	OpReturn    Opcode = 0x66 // Signal return with no value
	OpReturnVal Opcode = 0x67 // Signal return with value A; B=1 forces

	// ========================================================================
	// Jumps (0x70-0x7F)
	// ========================================================================

	OpJump      Opcode = 0x70 // Jump to label A
	OpJumpTop   Opcode = 0x71 // Jump to the top of the current scope
	OpJumpIf    Opcode = 0x72 // Jump to label B if A is true
	OpJumpIfNot Opcode = 0x73 // Jump to label B if A is false
	OpSelect    Opcode = 0x74 // Out = first matching arm of select A

	// ========================================================================
	// Value construction (0x80-0x8F)
	// ========================================================================

	OpArray     Opcode = 0x80 // Out = new array with capacity A
	OpPush      Opcode = 0x81 // Append A to array in register B
	OpDict      Opcode = 0x82 // Out = new dictionary
	OpInsert    Opcode = 0x83 // Insert A under key B into dict in register C
	OpSpread    Opcode = 0x84 // Spread A into array/dict in register B
	OpArgs      Opcode = 0x85 // Out = new argument pack with capacity A
	OpPushArg   Opcode = 0x86 // Append positional A to args in register B
	OpInsertArg Opcode = 0x87 // Append A named by string B to args in register C
	OpSpreadArg Opcode = 0x88 // Spread A into args in register B

	// ========================================================================
	// Content elements (0x90-0x9F)
	// ========================================================================

	OpRef      Opcode = 0x90 // Out = reference to label A with supplement B
	OpStrong   Opcode = 0x91 // Out = strong content with body A
	OpEmph     Opcode = 0x92 // Out = emphasized content with body A
	OpHeading  Opcode = 0x93 // Out = heading with body A and level B
	OpListItem Opcode = 0x94 // Out = list item with body A
	OpEnumItem Opcode = 0x95 // Out = enum item with body A and number B (0 = auto)
	OpTermItem Opcode = 0x96 // Out = term item with term A and description B
	OpEquation Opcode = 0x97 // Out = equation with body A; B=1 is block display

	// ========================================================================
	// Math (0xA0-0xAF)
	// ========================================================================

	OpDelimited Opcode = 0xA0 // Out = delimited math: open A, body B, close C
	OpAttach    Opcode = 0xA1 // Out = attach top B and bottom C to base A
	OpFrac      Opcode = 0xA2 // Out = fraction A / B
	OpRoot      Opcode = 0xA3 // Out = root of B with degree A (absent = square)

	// ========================================================================
	// Modules (0xB0-0xBF)
	// ========================================================================

	OpImport  Opcode = 0xB0 // Out = module from source A
	OpInclude Opcode = 0xB1 // Out = content of module from source A
)

// Enter flag bits for OpEnter, OpWhile, and OpIter.
const (
	// EnterJoining gives the scope its own joiner.
	EnterJoining uint32 = 1 << 0

	// EnterDisplay wraps joined values for document display.
	EnterDisplay uint32 = 1 << 1
)

// Instruction is one fixed-size instruction record. The meaning of
// A, B, and C depends on the opcode; operands reference per-module
// tables by index rather than embedding values inline.
type Instruction struct {
	Op      Opcode
	A, B, C uint32
	Out     Writable
}

// operandKind describes how the disassembler should render an operand.
type operandKind uint8

const (
	operandUnused  operandKind = iota
	operandRead                // a Readable
	operandLen                 // an instruction count
	operandFlags               // enter flag bits
	operandLabel               // a jump label index
	operandReg                 // a register index
	operandString              // a strings-table index
	operandClosure             // a closures-table index
	operandAccess              // an accesses-table index
	operandPattern             // a patterns-table index
	operandSelect              // a selects-table index
	operandCount               // a plain number
)

// opcodeInfo provides metadata for disassembly and validation.
type opcodeInfo struct {
	Name    string
	A, B, C operandKind
	HasOut  bool
}

var opcodeInfoTable = map[Opcode]opcodeInfo{
	OpFlow: {Name: "FLOW"},

	OpCopy: {Name: "COPY", A: operandRead, HasOut: true},
	OpNone: {Name: "NONE", HasOut: true},
	OpAuto: {Name: "AUTO", HasOut: true},

	OpAdd: {Name: "ADD", A: operandRead, B: operandRead, HasOut: true},
	OpSub: {Name: "SUB", A: operandRead, B: operandRead, HasOut: true},
	OpMul: {Name: "MUL", A: operandRead, B: operandRead, HasOut: true},
	OpDiv: {Name: "DIV", A: operandRead, B: operandRead, HasOut: true},
	OpNeg: {Name: "NEG", A: operandRead, HasOut: true},
	OpPos: {Name: "POS", A: operandRead, HasOut: true},
	OpNot: {Name: "NOT", A: operandRead, HasOut: true},

	OpGt:    {Name: "GT", A: operandRead, B: operandRead, HasOut: true},
	OpGeq:   {Name: "GEQ", A: operandRead, B: operandRead, HasOut: true},
	OpLt:    {Name: "LT", A: operandRead, B: operandRead, HasOut: true},
	OpLeq:   {Name: "LEQ", A: operandRead, B: operandRead, HasOut: true},
	OpEq:    {Name: "EQ", A: operandRead, B: operandRead, HasOut: true},
	OpNeq:   {Name: "NEQ", A: operandRead, B: operandRead, HasOut: true},
	OpIn:    {Name: "IN", A: operandRead, B: operandRead, HasOut: true},
	OpNotIn: {Name: "NOT_IN", A: operandRead, B: operandRead, HasOut: true},
	OpAnd:   {Name: "AND", A: operandRead, B: operandRead, HasOut: true},
	OpOr:    {Name: "OR", A: operandRead, B: operandRead, HasOut: true},

	OpAssign:      {Name: "ASSIGN", A: operandRead, B: operandAccess},
	OpAddAssign:   {Name: "ADD_ASSIGN", A: operandRead, B: operandAccess},
	OpSubAssign:   {Name: "SUB_ASSIGN", A: operandRead, B: operandAccess},
	OpMulAssign:   {Name: "MUL_ASSIGN", A: operandRead, B: operandAccess},
	OpDivAssign:   {Name: "DIV_ASSIGN", A: operandRead, B: operandAccess},
	OpDestructure: {Name: "DESTRUCTURE", A: operandRead, B: operandPattern},

	OpSet:     {Name: "SET", A: operandRead, B: operandRead},
	OpShow:    {Name: "SHOW", A: operandRead, B: operandRead},
	OpShowSet: {Name: "SHOW_SET", A: operandRead, B: operandRead, C: operandRead},

	OpInstantiate: {Name: "INSTANTIATE", A: operandClosure, HasOut: true},
	OpCall:        {Name: "CALL", A: operandAccess, B: operandRead, HasOut: true},
	OpField:       {Name: "FIELD", A: operandRead, B: operandString, HasOut: true},

	OpEnter: {Name: "ENTER", A: operandLen, B: operandFlags, HasOut: true},
	OpWhile: {Name: "WHILE", A: operandLen, B: operandFlags, HasOut: true},
	OpIter:  {Name: "ITER", A: operandLen, B: operandRead, C: operandFlags, HasOut: true},
	OpNext:  {Name: "NEXT", HasOut: true},

	OpContinue:  {Name: "CONTINUE"},
	OpBreak:     {Name: "BREAK"},
	OpReturn:    {Name: "RETURN"},
	OpReturnVal: {Name: "RETURN_VAL", A: operandRead, B: operandCount},

	OpJump:      {Name: "JUMP", A: operandLabel},
	OpJumpTop:   {Name: "JUMP_TOP"},
	OpJumpIf:    {Name: "JUMP_IF", A: operandRead, B: operandLabel},
	OpJumpIfNot: {Name: "JUMP_IF_NOT", A: operandRead, B: operandLabel},
	OpSelect:    {Name: "SELECT", A: operandSelect, HasOut: true},

	OpArray:     {Name: "ARRAY", A: operandCount, HasOut: true},
	OpPush:      {Name: "PUSH", A: operandRead, B: operandReg},
	OpDict:      {Name: "DICT", HasOut: true},
	OpInsert:    {Name: "INSERT", A: operandRead, B: operandRead, C: operandReg},
	OpSpread:    {Name: "SPREAD", A: operandRead, B: operandReg},
	OpArgs:      {Name: "ARGS", A: operandCount, HasOut: true},
	OpPushArg:   {Name: "PUSH_ARG", A: operandRead, B: operandReg},
	OpInsertArg: {Name: "INSERT_ARG", A: operandRead, B: operandString, C: operandReg},
	OpSpreadArg: {Name: "SPREAD_ARG", A: operandRead, B: operandReg},

	OpRef:      {Name: "REF", A: operandLabel, B: operandRead, HasOut: true},
	OpStrong:   {Name: "STRONG", A: operandRead, HasOut: true},
	OpEmph:     {Name: "EMPH", A: operandRead, HasOut: true},
	OpHeading:  {Name: "HEADING", A: operandRead, B: operandCount, HasOut: true},
	OpListItem: {Name: "LIST_ITEM", A: operandRead, HasOut: true},
	OpEnumItem: {Name: "ENUM_ITEM", A: operandRead, B: operandCount, HasOut: true},
	OpTermItem: {Name: "TERM_ITEM", A: operandRead, B: operandRead, HasOut: true},
	OpEquation: {Name: "EQUATION", A: operandRead, B: operandCount, HasOut: true},

	OpDelimited: {Name: "DELIMITED", A: operandRead, B: operandRead, C: operandRead, HasOut: true},
	OpAttach:    {Name: "ATTACH", A: operandRead, B: operandRead, C: operandRead, HasOut: true},
	OpFrac:      {Name: "FRAC", A: operandRead, B: operandRead, HasOut: true},
	OpRoot:      {Name: "ROOT", A: operandRead, B: operandRead, HasOut: true},

	OpImport:  {Name: "IMPORT", A: operandRead, HasOut: true},
	OpInclude: {Name: "INCLUDE", A: operandRead, HasOut: true},
}

// info returns the opcode's metadata.
func (op Opcode) info() opcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return opcodeInfo{Name: fmt.Sprintf("UNKNOWN(0x%02X)", uint8(op))}
}

// String returns the opcode's name.
func (op Opcode) String() string {
	return op.info().Name
}

// IsScope reports whether the opcode opens a nested scope whose body
// is the following A instructions.
func (op Opcode) IsScope() bool {
	return op == OpEnter || op == OpWhile || op == OpIter
}

// AllOpcodes returns every defined opcode, for metadata tests.
func AllOpcodes() []Opcode {
	out := make([]Opcode, 0, len(opcodeInfoTable))
	for op := range opcodeInfoTable {
		out = append(out, op)
	}
	return out
}
