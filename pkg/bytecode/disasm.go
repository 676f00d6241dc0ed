package bytecode

import (
	"fmt"
	"strings"
)

// Disassemble renders a compiled module as a readable listing, with
// nested scopes indented under their header instruction and every
// closure body appended after the top level.
func Disassemble(cm *CompiledModule) string {
	var b strings.Builder
	writeCode(&b, cm.Code, "")
	return b.String()
}

func writeCode(b *strings.Builder, code *CompiledCode, prefix string) {
	name := code.Name
	if name == "" {
		name = "<anonymous>"
	}
	fmt.Fprintf(b, "%s%s (%d registers):\n", prefix, name, code.Registers)
	writeListing(b, code, code.Instructions, prefix+"  ")
	for _, clos := range code.Closures {
		b.WriteString("\n")
		writeCode(b, clos.Code, prefix)
	}
}

func writeListing(b *strings.Builder, code *CompiledCode, instrs []Instruction, prefix string) {
	i := 0
	for i < len(instrs) {
		inst := instrs[i]
		fmt.Fprintf(b, "%s%04d  %s\n", prefix, i, formatInstruction(code, inst))
		if inst.Op.IsScope() {
			n := int(inst.A)
			writeListing(b, code, instrs[i+1:i+1+n], prefix+"  ")
			i += 1 + n
		} else {
			i++
		}
	}
}

// formatInstruction renders one instruction with its operands decoded
// against the module's tables.
func formatInstruction(code *CompiledCode, inst Instruction) string {
	info := inst.Op.info()
	var b strings.Builder
	b.WriteString(info.Name)

	operands := [3]struct {
		kind operandKind
		v    uint32
	}{
		{info.A, inst.A}, {info.B, inst.B}, {info.C, inst.C},
	}
	for _, op := range operands {
		s := formatOperand(code, op.kind, op.v)
		if s != "" {
			b.WriteString(" ")
			b.WriteString(s)
		}
	}
	if info.HasOut {
		b.WriteString(" -> ")
		b.WriteString(inst.Out.String())
	}
	return b.String()
}

func formatOperand(code *CompiledCode, kind operandKind, v uint32) string {
	switch kind {
	case operandUnused:
		return ""
	case operandRead:
		r := Readable(v)
		if r.ReadableKind() == ReadConst && int(r.Index()) < len(code.Constants) {
			return fmt.Sprintf("%s=%s", r, code.Constants[r.Index()].Repr())
		}
		if r.ReadableKind() == ReadStr && int(r.Index()) < len(code.Strings) {
			return fmt.Sprintf("%s=%q", r, code.Strings[r.Index()])
		}
		return r.String()
	case operandLen:
		return fmt.Sprintf("len=%d", v)
	case operandFlags:
		var parts []string
		if v&EnterJoining != 0 {
			parts = append(parts, "joining")
		}
		if v&EnterDisplay != 0 {
			parts = append(parts, "display")
		}
		if len(parts) == 0 {
			return "plain"
		}
		return strings.Join(parts, "|")
	case operandLabel:
		if int(v) < len(code.Jumps) {
			return fmt.Sprintf("L%d(%d)", v, code.Jumps[v])
		}
		return fmt.Sprintf("L%d", v)
	case operandReg:
		return fmt.Sprintf("r%d", v)
	case operandString:
		if int(v) < len(code.Strings) {
			return fmt.Sprintf("%q", code.Strings[v])
		}
		return fmt.Sprintf("s%d", v)
	case operandClosure:
		if int(v) < len(code.Closures) {
			name := code.Closures[v].Name
			if name == "" {
				name = "<anonymous>"
			}
			return name
		}
		return fmt.Sprintf("closure%d", v)
	case operandAccess:
		return fmt.Sprintf("access%d", v)
	case operandPattern:
		return fmt.Sprintf("pattern%d", v)
	case operandSelect:
		return fmt.Sprintf("select%d", v)
	case operandCount:
		return fmt.Sprintf("%d", v)
	}
	return fmt.Sprintf("?%d", v)
}
