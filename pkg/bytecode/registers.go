package bytecode

import (
	"fmt"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// RegisterCount is the register file size of one frame.
const RegisterCount = 128

// registerAllocator tracks compile-time register use for one function.
// Temporaries are allocated at the lowest free index and freed as soon
// as the consuming instruction is emitted; pristine registers back
// named bindings, parameters, and captures and stay live until their
// scope pops.
type registerAllocator struct {
	used    [RegisterCount]bool
	pinned  [RegisterCount]bool
	high    int
}

// allocate claims the lowest free register as a temporary.
func (a *registerAllocator) allocate(span syntax.Span) (Register, error) {
	return a.claim(span, false)
}

// allocatePristine claims the lowest free register as a pinned
// binding register.
func (a *registerAllocator) allocatePristine(span syntax.Span) (Register, error) {
	return a.claim(span, true)
}

func (a *registerAllocator) claim(span syntax.Span, pinned bool) (Register, error) {
	for i := 0; i < RegisterCount; i++ {
		if !a.used[i] {
			a.used[i] = true
			a.pinned[i] = pinned
			if i+1 > a.high {
				a.high = i + 1
			}
			return Register(i), nil
		}
	}
	return 0, diag.New(diag.CompileError, span, "expression is too complex").
		WithHint("break the expression into simpler subexpressions with let bindings")
}

// free releases a register. Freeing a free register is a compiler bug.
func (a *registerAllocator) free(reg Register) {
	if !a.used[reg] {
		panic(fmt.Sprintf("register r%d freed twice", reg))
	}
	a.used[reg] = false
	a.pinned[reg] = false
}

// isPinned reports whether the register backs a named binding.
func (a *registerAllocator) isPinned(reg Register) bool {
	return a.pinned[reg]
}

// inUse reports whether the register is currently claimed.
func (a *registerAllocator) inUse(reg Register) bool {
	return a.used[reg]
}

// highWater is the frame size the compiled code needs.
func (a *registerAllocator) highWater() int {
	return a.high
}
