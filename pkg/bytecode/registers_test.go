package bytecode

import (
	"testing"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

func TestAllocateLowestFree(t *testing.T) {
	var a registerAllocator
	r0, _ := a.allocate(syntax.Span{})
	r1, _ := a.allocate(syntax.Span{})
	r2, _ := a.allocate(syntax.Span{})
	if r0 != 0 || r1 != 1 || r2 != 2 {
		t.Fatalf("got r%d r%d r%d, want r0 r1 r2", r0, r1, r2)
	}

	a.free(r1)
	again, _ := a.allocate(syntax.Span{})
	if again != 1 {
		t.Fatalf("freed slot not reused: got r%d, want r1", again)
	}
	if a.highWater() != 3 {
		t.Fatalf("high water %d, want 3", a.highWater())
	}
}

func TestAllocatePristinePins(t *testing.T) {
	var a registerAllocator
	r, _ := a.allocatePristine(syntax.Span{})
	if !a.isPinned(r) {
		t.Fatal("pristine register not pinned")
	}
	tmp, _ := a.allocate(syntax.Span{})
	if a.isPinned(tmp) {
		t.Fatal("temporary register reported pinned")
	}
	a.free(r)
	if a.isPinned(r) {
		t.Fatal("pin survives free")
	}
}

func TestAllocateExhaustion(t *testing.T) {
	var a registerAllocator
	for i := 0; i < RegisterCount; i++ {
		if _, err := a.allocate(syntax.Span{}); err != nil {
			t.Fatalf("allocation %d failed early: %v", i, err)
		}
	}
	_, err := a.allocate(syntax.Span{})
	if err == nil {
		t.Fatal("expected exhaustion error")
	}
	if diag.KindOf(err) != diag.CompileError {
		t.Fatalf("got kind %v, want compile error", diag.KindOf(err))
	}
}

func TestDoubleFreePanics(t *testing.T) {
	var a registerAllocator
	r, _ := a.allocate(syntax.Span{})
	a.free(r)
	defer func() {
		if recover() == nil {
			t.Fatal("double free did not panic")
		}
	}()
	a.free(r)
}
