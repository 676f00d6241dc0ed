package engine

import (
	"testing"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/world"
)

func testEngine(t *testing.T, cfg config.Config) *Engine {
	t.Helper()
	w := world.NewMemWorld()
	w.Add("main.vel", &syntax.Expr{Kind: syntax.KindCode})
	return New(w, cfg)
}

func TestCallDepthGuard(t *testing.T) {
	cfg := config.Default()
	cfg.MaxCallDepth = 3
	e := testEngine(t, cfg)

	for i := 0; i < 3; i++ {
		if err := e.EnterCall(syntax.Span{}); err != nil {
			t.Fatalf("call %d rejected early: %v", i, err)
		}
	}
	err := e.EnterCall(syntax.Span{})
	if err == nil || diag.KindOf(err) != diag.RecursionError {
		t.Fatalf("got %v, want a recursion error", err)
	}

	// Unwinding frees depth for later calls.
	e.ExitCall()
	e.ExitCall()
	if err := e.EnterCall(syntax.Span{}); err != nil {
		t.Fatalf("call after unwind rejected: %v", err)
	}
}

func TestIterationBudget(t *testing.T) {
	cfg := config.Default()
	cfg.MaxIterations = 2
	e := testEngine(t, cfg)

	if !e.TickIteration() || !e.TickIteration() {
		t.Fatal("budget exhausted early")
	}
	if e.TickIteration() {
		t.Fatal("budget not enforced")
	}
}

func TestWarningsCollect(t *testing.T) {
	e := testEngine(t, config.Default())
	if len(e.Warnings()) != 0 {
		t.Fatal("fresh engine has warnings")
	}
	e.Warn(diag.New(diag.CompileError, syntax.Span{}, "something odd"))
	warnings := e.Warnings()
	if len(warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(warnings))
	}
	if warnings[0].Kind != diag.Warning {
		t.Fatal("Warn must normalize the kind")
	}
}

func TestRouteStartsAtMain(t *testing.T) {
	e := testEngine(t, config.Default())
	main := e.World.Main()
	if e.Route == nil || !e.Route.Contains(main.ID) {
		t.Fatal("route should start at the main source")
	}
}
