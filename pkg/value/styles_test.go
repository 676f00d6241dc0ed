package value

import "testing"

func prop(elem ElemKind, name string, v Value) *Property {
	return &Property{Elem: elem, Name: name, Value: v}
}

func scopedProp(elem ElemKind, name string, v Value) *Property {
	return &Property{Elem: elem, Name: name, Value: v, Scoped: true}
}

func TestChainInnermostWins(t *testing.T) {
	outer := NewStyleMap(prop(ElemText, "fill", Str("black")))
	inner := NewStyleMap(prop(ElemText, "fill", Str("blue")))
	chain := NewStyleChain(outer).Chain(inner)

	got, ok := chain.Get(ElemText, "fill")
	if !ok || got != Str("blue") {
		t.Fatalf("got %v, want the inner value", got)
	}
}

func TestChainLaterEntriesWinWithinOneMap(t *testing.T) {
	m := NewStyleMap(
		prop(ElemText, "fill", Str("black")),
		prop(ElemText, "fill", Str("red")),
	)
	got, ok := NewStyleChain(m).Get(ElemText, "fill")
	if !ok || got != Str("red") {
		t.Fatalf("got %v, want the later entry", got)
	}
}

func TestChainMissesOtherElements(t *testing.T) {
	m := NewStyleMap(prop(ElemText, "fill", Str("blue")))
	if _, ok := NewStyleChain(m).Get(ElemStrong, "fill"); ok {
		t.Fatal("property leaked to a different element kind")
	}
}

func TestChainExtensionSharesTail(t *testing.T) {
	base := NewStyleChain(NewStyleMap(prop(ElemText, "fill", Str("black"))))
	a := base.Chain(NewStyleMap(prop(ElemText, "fill", Str("red"))))
	b := base.Chain(NewStyleMap(prop(ElemText, "fill", Str("blue"))))

	if got, _ := a.Get(ElemText, "fill"); got != Str("red") {
		t.Fatalf("chain a resolved %v", got)
	}
	if got, _ := b.Get(ElemText, "fill"); got != Str("blue") {
		t.Fatalf("chain b resolved %v", got)
	}
	if got, _ := base.Get(ElemText, "fill"); got != Str("black") {
		t.Fatalf("base chain mutated: %v", got)
	}
}

func TestScopedPropertyStopsAtSecondBarrier(t *testing.T) {
	scoped := NewStyleMap(scopedProp(ElemStrong, "delta", Int(100)))
	chain := NewStyleChain(scoped)

	// Visible at the matched element itself and through one barrier.
	one := chain.ChainBarrier(ElemStrong)
	if _, ok := one.Get(ElemStrong, "delta"); !ok {
		t.Fatal("scoped property invisible through the first barrier")
	}

	two := one.ChainBarrier(ElemStrong)
	if _, ok := two.Get(ElemStrong, "delta"); ok {
		t.Fatal("scoped property visible past the second barrier")
	}
}

func TestBarrierSkippedWithoutScopedProperties(t *testing.T) {
	plain := NewStyleChain(NewStyleMap(prop(ElemText, "fill", Str("blue"))))
	if plain.ChainBarrier(ElemText) != plain {
		t.Fatal("barrier added although nothing is scoped")
	}
}

func TestUnscopedPropertyCrossesBarriers(t *testing.T) {
	m := NewStyleMap(
		prop(ElemText, "fill", Str("blue")),
		scopedProp(ElemText, "size", Int(12)),
	)
	chain := NewStyleChain(m).ChainBarrier(ElemText).ChainBarrier(ElemText)
	if _, ok := chain.Get(ElemText, "fill"); !ok {
		t.Fatal("unscoped property blocked by barriers")
	}
	if _, ok := chain.Get(ElemText, "size"); ok {
		t.Fatal("scoped property crossed two barriers")
	}
}

func TestFoldAppliesOuterToInner(t *testing.T) {
	outer := NewStyleMap(prop(ElemStrong, "delta", Int(100)))
	inner := NewStyleMap(prop(ElemStrong, "delta", Int(50)))
	chain := NewStyleChain(outer).Chain(inner)

	got := chain.Fold(ElemStrong, "delta", Int(0), func(acc, v Value) Value {
		return acc.(Int) + v.(Int)
	})
	if got != Int(150) {
		t.Fatalf("folded to %v, want 150", got)
	}
}

func TestScopedCopiesProperties(t *testing.T) {
	m := NewStyleMap(prop(ElemText, "fill", Str("blue")))
	s := m.Scoped()
	p := s.Entries()[0].(*Property)
	if !p.Scoped {
		t.Fatal("Scoped copy not marked")
	}
	if m.Entries()[0].(*Property).Scoped {
		t.Fatal("original property mutated")
	}
}

func TestRecipeSelection(t *testing.T) {
	byElem := &Recipe{Elem: ElemStrong}
	if !byElem.Selects(&Content{Elem: ElemStrong}) ||
		byElem.Selects(&Content{Elem: ElemText}) {
		t.Fatal("element selector mismatch")
	}

	byLabel := &Recipe{SelLabel: "intro"}
	if !byLabel.Selects(&Content{Elem: ElemText, Label: "intro"}) ||
		byLabel.Selects(&Content{Elem: ElemText}) {
		t.Fatal("label selector mismatch")
	}

	all := &Recipe{}
	if !all.Unconditional() || !all.Selects(&Content{Elem: ElemText}) {
		t.Fatal("empty selector should match everything")
	}
}
