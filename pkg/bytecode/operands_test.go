package bytecode

import "testing"

func TestReadablePacking(t *testing.T) {
	cases := []struct {
		r    Readable
		kind ReadKind
		idx  int
		str  string
	}{
		{RegRead(7), ReadReg, 7, "r7"},
		{ConstRead(300), ReadConst, 300, "c300"},
		{StrRead(0), ReadStr, 0, "s0"},
		{LabelRead(2), ReadLabel, 2, "l2"},
		{GlobalRead(41), ReadGlobal, 41, "g41"},
		{MathRead(5), ReadMath, 5, "m5"},
		{BoolRead(true), ReadBool, 1, "true"},
		{BoolRead(false), ReadBool, 0, "false"},
		{NoneRead(), ReadNone, 0, "none"},
		{AutoRead(), ReadAuto, 0, "auto"},
	}
	for _, c := range cases {
		if c.r.ReadableKind() != c.kind {
			t.Errorf("%s: kind %d, want %d", c.str, c.r.ReadableKind(), c.kind)
		}
		if c.r.Index() != c.idx {
			t.Errorf("%s: index %d, want %d", c.str, c.r.Index(), c.idx)
		}
		if c.r.String() != c.str {
			t.Errorf("String() = %q, want %q", c.r.String(), c.str)
		}
		if c.r.IsNone() {
			t.Errorf("%s: IsNone on a present operand", c.str)
		}
	}
	if !NoReadable.IsNone() {
		t.Error("zero operand should be absent")
	}
}

func TestWritablePacking(t *testing.T) {
	w := RegWrite(42)
	if w.WritableKind() != WriteReg || w.Reg() != 42 {
		t.Fatalf("RegWrite(42) unpacked to %d/r%d", w.WritableKind(), w.Reg())
	}
	if JoinedWrite().WritableKind() != WriteJoined {
		t.Fatal("JoinedWrite kind mismatch")
	}
	if NoWritable.WritableKind() != WriteDiscard {
		t.Fatal("zero writable should discard")
	}
}

func TestPackIndexOverflowPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("oversized index did not panic")
		}
	}()
	packRead(ReadConst, packIndexMax+1)
}

func TestOpcodeMetadataComplete(t *testing.T) {
	ops := AllOpcodes()
	if len(ops) == 0 {
		t.Fatal("no opcodes defined")
	}
	seen := make(map[string]Opcode, len(ops))
	for _, op := range ops {
		name := op.String()
		if name == "" {
			t.Errorf("opcode 0x%02x has no name", uint16(op))
			continue
		}
		if prev, dup := seen[name]; dup {
			t.Errorf("opcodes 0x%02x and 0x%02x share the name %q",
				uint16(prev), uint16(op), name)
		}
		seen[name] = op
	}
}

func TestScopeOpcodes(t *testing.T) {
	for _, op := range AllOpcodes() {
		want := op == OpEnter || op == OpWhile || op == OpIter
		if op.IsScope() != want {
			t.Errorf("%s: IsScope() = %v, want %v", op, op.IsScope(), want)
		}
	}
}
