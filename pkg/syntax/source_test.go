package syntax

import "testing"

func sample(text string) *Source {
	return NewSource(1, "main.vel", &Expr{
		Kind: KindMarkup,
		Exprs: []*Expr{
			{Kind: KindText, Str: text},
		},
	})
}

func TestSourceRoundTrip(t *testing.T) {
	src := sample("hello")
	data, err := src.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := DecodeSource(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if back.Path != src.Path || back.ID != src.ID {
		t.Fatal("identity lost in the round trip")
	}
	if back.Root.Exprs[0].Str != "hello" {
		t.Fatal("AST lost in the round trip")
	}
}

func TestDecodeRejectsMissingRoot(t *testing.T) {
	src := &Source{ID: 1, Path: "main.vel"}
	data, err := src.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeSource(data); err == nil {
		t.Fatal("source without a root accepted")
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := DecodeSource([]byte("garbage")); err == nil {
		t.Fatal("garbage accepted")
	}
}

func TestFingerprintTracksAST(t *testing.T) {
	a := sample("one")
	b := sample("one")
	c := sample("two")

	if a.Fingerprint() != b.Fingerprint() {
		t.Fatal("equal ASTs fingerprint differently")
	}
	if a.Fingerprint() == c.Fingerprint() {
		t.Fatal("different ASTs share a fingerprint")
	}

	// Identity does not participate: the same parse from another
	// path keys the same cache entry.
	moved := NewSource(9, "elsewhere.vel", a.Root)
	if moved.Fingerprint() != a.Fingerprint() {
		t.Fatal("fingerprint depends on the file identity")
	}
}

func TestPatternNames(t *testing.T) {
	p := &Pattern{Kind: PatTuple, Items: []PatternItem{
		{Kind: PatItemPos, Pattern: &Pattern{Kind: PatIdent, Name: "a"}},
		{Kind: PatItemSpread, Pattern: &Pattern{Kind: PatIdent, Name: "rest"}},
		{Kind: PatItemPos, Pattern: &Pattern{Kind: PatPlaceholder}},
		{Kind: PatItemNamed, Name: "k", Pattern: &Pattern{Kind: PatIdent, Name: "b"}},
	}}
	names := p.Names()
	want := []string{"a", "rest", "b"}
	if len(names) != len(want) {
		t.Fatalf("names %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("names %v, want %v", names, want)
		}
	}
}

func TestImportItemBoundName(t *testing.T) {
	plain := ImportItem{Path: []string{"a", "b"}}
	if plain.BoundName() != "b" {
		t.Fatalf("bound name %q, want the path tail", plain.BoundName())
	}
	renamed := ImportItem{Path: []string{"a"}, Rename: "c"}
	if renamed.BoundName() != "c" {
		t.Fatalf("bound name %q, want the rename", renamed.BoundName())
	}
}
