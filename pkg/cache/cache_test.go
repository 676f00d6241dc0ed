package cache

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/bytecode"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/world"
)

func compiledModule(t *testing.T) *bytecode.CompiledModule {
	t.Helper()
	root := &syntax.Expr{Kind: syntax.KindCode, Exprs: []*syntax.Expr{
		{
			Kind:    syntax.KindLet,
			Pattern: &syntax.Pattern{Kind: syntax.PatIdent, Name: "x"},
			Init:    &syntax.Expr{Kind: syntax.KindInt, Int: 42},
		},
	}}
	w := world.NewMemWorld()
	src := w.Add("main.vel", root)
	e := engine.New(w, config.Default())
	cm, err := bytecode.Compile(e, library.New(), src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return cm
}

func openTemp(t *testing.T) *Cache {
	t.Helper()
	c, err := Open(filepath.Join(t.TempDir(), "modules.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCacheMiss(t *testing.T) {
	c := openTemp(t)
	if _, err := c.Get("no-such-fingerprint"); !errors.Is(err, ErrMiss) {
		t.Fatalf("got %v, want ErrMiss", err)
	}
}

func TestCachePutGet(t *testing.T) {
	c := openTemp(t)
	cm := compiledModule(t)

	if err := c.Put(cm); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, err := c.Get(cm.Fingerprint)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Fingerprint != cm.Fingerprint {
		t.Fatal("fingerprint mismatch after round trip")
	}
	if got.Code.Registers != cm.Code.Registers ||
		len(got.Code.Instructions) != len(cm.Code.Instructions) {
		t.Fatal("code lost in the round trip")
	}

	n, err := c.Len()
	if err != nil || n != 1 {
		t.Fatalf("len = %d, %v, want 1", n, err)
	}
}

func TestCachePutIsIdempotent(t *testing.T) {
	c := openTemp(t)
	cm := compiledModule(t)
	if err := c.Put(cm); err != nil {
		t.Fatal(err)
	}
	if err := c.Put(cm); err != nil {
		t.Fatal(err)
	}
	n, err := c.Len()
	if err != nil || n != 1 {
		t.Fatalf("len = %d, %v, want 1", n, err)
	}
}

func TestCacheSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "modules.db")
	cm := compiledModule(t)

	c, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Put(cm); err != nil {
		t.Fatal(err)
	}
	if err := c.Close(); err != nil {
		t.Fatal(err)
	}

	c, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if _, err := c.Get(cm.Fingerprint); err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
}

func TestCorruptEntryEvicted(t *testing.T) {
	c := openTemp(t)
	if _, err := c.db.Exec(
		`INSERT INTO modules (fingerprint, snapshot) VALUES (?, ?)`,
		"bad", []byte("garbage")); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("bad"); !errors.Is(err, ErrMiss) {
		t.Fatalf("got %v, want ErrMiss for a corrupt entry", err)
	}
	n, err := c.Len()
	if err != nil || n != 0 {
		t.Fatalf("corrupt entry not deleted: len = %d, %v", n, err)
	}
}
