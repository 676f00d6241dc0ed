package bytecode

import "fmt"

// Register indexes one slot of a frame's register file.
type Register = uint8

// ReadKind discriminates packed readable operands.
type ReadKind uint8

const (
	// ReadInvalid marks an absent operand. Reading it yields none.
	ReadInvalid ReadKind = iota

	ReadReg    // a frame register
	ReadConst  // the constants table
	ReadStr    // the strings table
	ReadLabel  // the labels table
	ReadGlobal // the global library scope, by index
	ReadMath   // the math library scope, by index
	ReadBool   // an inline bool (index 0 or 1)
	ReadNone   // the none literal
	ReadAuto   // the auto literal
)

// Readable is a packed read operand: the kind in the top byte, the
// index in the low 24 bits. The zero value is the absent operand.
type Readable uint32

// NoReadable is the absent read operand.
const NoReadable Readable = 0

const packIndexMax = 1<<24 - 1

func packRead(kind ReadKind, index int) Readable {
	if index < 0 || index > packIndexMax {
		panic(fmt.Sprintf("operand index %d out of range", index))
	}
	return Readable(uint32(kind)<<24 | uint32(index))
}

// RegRead reads a frame register.
func RegRead(reg Register) Readable { return packRead(ReadReg, int(reg)) }

// ConstRead reads the constants table.
func ConstRead(i int) Readable { return packRead(ReadConst, i) }

// StrRead reads the strings table.
func StrRead(i int) Readable { return packRead(ReadStr, i) }

// LabelRead reads the labels table.
func LabelRead(i int) Readable { return packRead(ReadLabel, i) }

// GlobalRead reads the global library scope.
func GlobalRead(i int) Readable { return packRead(ReadGlobal, i) }

// MathRead reads the math library scope.
func MathRead(i int) Readable { return packRead(ReadMath, i) }

// BoolRead reads an inline bool.
func BoolRead(b bool) Readable {
	if b {
		return packRead(ReadBool, 1)
	}
	return packRead(ReadBool, 0)
}

// NoneRead reads the none literal.
func NoneRead() Readable { return packRead(ReadNone, 0) }

// AutoRead reads the auto literal.
func AutoRead() Readable { return packRead(ReadAuto, 0) }

// ReadableKind unpacks the operand kind.
func (r Readable) ReadableKind() ReadKind { return ReadKind(r >> 24) }

// Index unpacks the table index.
func (r Readable) Index() int { return int(r & packIndexMax) }

// Reg unpacks the register index.
func (r Readable) Reg() Register { return Register(r & packIndexMax) }

// IsNone reports whether the operand is absent.
func (r Readable) IsNone() bool { return r == NoReadable }

func (r Readable) String() string {
	switch r.ReadableKind() {
	case ReadInvalid:
		return "_"
	case ReadReg:
		return fmt.Sprintf("r%d", r.Reg())
	case ReadConst:
		return fmt.Sprintf("c%d", r.Index())
	case ReadStr:
		return fmt.Sprintf("s%d", r.Index())
	case ReadLabel:
		return fmt.Sprintf("l%d", r.Index())
	case ReadGlobal:
		return fmt.Sprintf("g%d", r.Index())
	case ReadMath:
		return fmt.Sprintf("m%d", r.Index())
	case ReadBool:
		if r.Index() == 1 {
			return "true"
		}
		return "false"
	case ReadNone:
		return "none"
	case ReadAuto:
		return "auto"
	}
	return fmt.Sprintf("?%d", uint32(r))
}

// WriteKind discriminates packed writable operands.
type WriteKind uint8

const (
	// WriteDiscard drops the value. The zero operand discards.
	WriteDiscard WriteKind = iota

	// WriteReg stores into a frame register.
	WriteReg

	// WriteJoined joins the value into the frame's joiner.
	WriteJoined
)

// Writable is a packed write operand, mirroring Readable's layout.
type Writable uint32

// NoWritable discards the written value.
const NoWritable Writable = 0

// RegWrite stores into a frame register.
func RegWrite(reg Register) Writable {
	return Writable(uint32(WriteReg)<<24 | uint32(reg))
}

// JoinedWrite joins into the frame's joiner.
func JoinedWrite() Writable {
	return Writable(uint32(WriteJoined) << 24)
}

// WritableKind unpacks the operand kind.
func (w Writable) WritableKind() WriteKind { return WriteKind(w >> 24) }

// Reg unpacks the register index.
func (w Writable) Reg() Register { return Register(w & packIndexMax) }

func (w Writable) String() string {
	switch w.WritableKind() {
	case WriteDiscard:
		return "_"
	case WriteReg:
		return fmt.Sprintf("r%d", w.Reg())
	case WriteJoined:
		return "join"
	}
	return fmt.Sprintf("?%d", uint32(w))
}
