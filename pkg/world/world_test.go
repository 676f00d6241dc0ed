package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/vellum-lang/vellum/pkg/syntax"
)

func TestRouteContains(t *testing.T) {
	r := NewRoute(1).Push(2).Push(3)
	for id := syntax.FileID(1); id <= 3; id++ {
		if !r.Contains(id) {
			t.Fatalf("route misses id %d", id)
		}
	}
	if r.Contains(4) {
		t.Fatal("route contains an id that was never pushed")
	}
	if r.Depth() != 3 {
		t.Fatalf("depth %d, want 3", r.Depth())
	}
}

func TestRouteIsImmutable(t *testing.T) {
	base := NewRoute(1)
	a := base.Push(2)
	b := base.Push(3)
	if a.Contains(3) || b.Contains(2) {
		t.Fatal("pushes onto the same route leaked into each other")
	}
	if base.Depth() != 1 {
		t.Fatal("base route mutated")
	}
}

func TestNilRoute(t *testing.T) {
	var r *Route
	if r.Contains(1) {
		t.Fatal("nil route contains something")
	}
	if r.Depth() != 0 {
		t.Fatal("nil route has depth")
	}
}

func TestMemWorld(t *testing.T) {
	w := NewMemWorld()
	root := &syntax.Expr{Kind: syntax.KindCode}
	first := w.Add("a.vel", root)
	second := w.Add("b.vel", root)

	if first.ID == second.ID {
		t.Fatal("sources share a file id")
	}
	if w.Main() != first {
		t.Fatal("first source should be main")
	}

	w.SetMain("b.vel")
	if w.Main() != second {
		t.Fatal("SetMain ignored")
	}

	if _, err := w.Source("missing.vel"); err == nil {
		t.Fatal("missing path resolved")
	}
}

func writeSource(t *testing.T, dir, name string) {
	t.Helper()
	src := syntax.NewSource(0, name, &syntax.Expr{
		Kind: syntax.KindCode,
		Exprs: []*syntax.Expr{
			{Kind: syntax.KindStr, Str: "hello"},
		},
	})
	data, err := src.Encode()
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirWorld(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "main.cbor")
	writeSource(t, dir, "other.cbor")

	w, err := OpenDir(dir, "main.cbor")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	main := w.Main()
	if main == nil || main.Path != "main.cbor" {
		t.Fatal("main source missing")
	}

	other, err := w.Source("other.cbor")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if other.ID == main.ID {
		t.Fatal("sources share a file id")
	}

	again, err := w.Source("other.cbor")
	if err != nil || again != other {
		t.Fatal("sources not cached")
	}

	if _, err := w.Source("missing.cbor"); err == nil {
		t.Fatal("missing file resolved")
	}
	if _, err := w.Source("../escape.cbor"); err == nil {
		t.Fatal("path escaped the root")
	}
}

func TestOpenDirMissingMain(t *testing.T) {
	if _, err := OpenDir(t.TempDir(), "main.cbor"); err == nil {
		t.Fatal("missing main file accepted")
	}
}
