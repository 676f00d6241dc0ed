package bytecode

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

func TestClosureCall(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("inc", closure("inc", []syntax.Param{param("x")},
			bin(syntax.OpAdd, ident("x"), intLit(1)))),
		letBind("y", call(ident("inc"), pos(intLit(41)))),
	))
	wantInt(t, export(t, mod, "y"), 42)
}

func TestClosureRecursionThroughOwnName(t *testing.T) {
	body := condExpr(
		bin(syntax.OpLeq, ident("n"), intLit(1)),
		codeBlock(intLit(1)),
		codeBlock(bin(syntax.OpMul, ident("n"),
			call(ident("fac"), pos(bin(syntax.OpSub, ident("n"), intLit(1)))))),
	)
	mod, _ := evalModule(t, codeBlock(
		letBind("fac", closure("fac", []syntax.Param{param("n")}, body)),
		letBind("x", call(ident("fac"), pos(intLit(5)))),
	))
	wantInt(t, export(t, mod, "x"), 120)
}

func TestClosureDefaultsEvaluatedAtInstantiation(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("d", intLit(10)),
		letBind("f", closure("f", []syntax.Param{namedParam("x", ident("d"))},
			ident("x"))),
		bin(syntax.OpAssign, ident("d"), intLit(99)),
		letBind("a", call(ident("f"))),
		letBind("b", call(ident("f"), named("x", intLit(7)))),
	))
	wantInt(t, export(t, mod, "a"), 10)
	wantInt(t, export(t, mod, "b"), 7)
}

func TestClosureCapturesByValue(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("a", intLit(1)),
		letBind("f", closure("f", nil, ident("a"))),
		bin(syntax.OpAssign, ident("a"), intLit(2)),
		letBind("x", call(ident("f"))),
	))
	wantInt(t, export(t, mod, "x"), 1)
}

func TestClosureCaptureThroughIntermediate(t *testing.T) {
	// The inner closure reads a binding of the outermost scope, so
	// the middle closure must capture it as well.
	inner := closure("", nil, ident("a"))
	outer := closure("outer", nil, codeBlock(
		letBind("g", inner),
		call(ident("g")),
	))
	mod, _ := evalModule(t, codeBlock(
		letBind("a", intLit(5)),
		letBind("f", outer),
		letBind("x", call(ident("f"))),
	))
	wantInt(t, export(t, mod, "x"), 5)
}

func TestClosureSinkCollectsRest(t *testing.T) {
	sum := closure("sum", []syntax.Param{param("a"), param("b")},
		bin(syntax.OpAdd, ident("a"), ident("b")))
	fwd := closure("fwd", []syntax.Param{sinkParam("rest")},
		call(ident("sum"), spreadArg(ident("rest"))))
	mod, _ := evalModule(t, codeBlock(
		letBind("sum", sum),
		letBind("fwd", fwd),
		letBind("x", call(ident("fwd"), pos(intLit(3)), pos(intLit(4)))),
	))
	wantInt(t, export(t, mod, "x"), 7)
}

func TestClosureDuplicateParam(t *testing.T) {
	err := compileErr(t, codeBlock(
		letBind("f", closure("f", []syntax.Param{param("x"), param("x")},
			ident("x"))),
	))
	if !strings.Contains(err.Error(), "duplicate parameter: x") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestClosureSecondSink(t *testing.T) {
	err := compileErr(t, codeBlock(
		letBind("f", closure("f",
			[]syntax.Param{sinkParam("a"), sinkParam("b")}, noneLit())),
	))
	if !strings.Contains(err.Error(), "only one argument sink") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestMissingArgumentsBatched(t *testing.T) {
	_, err := evalRawErr(codeBlock(
		letBind("f", closure("f", []syntax.Param{param("a"), param("b")},
			ident("a"))),
		call(ident("f")),
	))
	if err == nil {
		t.Fatal("expected missing-argument errors")
	}
	list, ok := err.(diag.List)
	if !ok {
		t.Fatalf("got %T, want a diagnostic list", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d diagnostics, want one per missing parameter: %v", len(list), err)
	}
	if diag.KindOf(err) != diag.ArgumentError {
		t.Fatalf("kind %v, want argument error", diag.KindOf(err))
	}
}

func TestUnexpectedArgument(t *testing.T) {
	_, err := evalRawErr(codeBlock(
		letBind("f", closure("f", nil, noneLit())),
		call(ident("f"), pos(intLit(1))),
	))
	if err == nil || diag.KindOf(err) != diag.ArgumentError {
		t.Fatalf("got %v, want an argument error", err)
	}
}

func TestRecursionDepthLimit(t *testing.T) {
	_, err := evalRawErr(codeBlock(
		letBind("f", closure("f", nil, call(ident("f")))),
		call(ident("f")),
	))
	if err == nil || !strings.Contains(err.Error(), "maximum function call depth exceeded") {
		t.Fatalf("got %v, want the call depth error", err)
	}
	if diag.KindOf(err) != diag.RecursionError {
		t.Fatalf("kind %v, want recursion error", diag.KindOf(err))
	}
}

// ==== Return flow =======================================================

func TestExplicitReturnSkipsJoinedPartials(t *testing.T) {
	// An explicit return value replaces everything the body already
	// joined.
	body := codeBlock(strLit("joined"), returnStmt(strLit("ret")))
	mod, _ := evalModule(t, codeBlock(
		letBind("f", closure("f", nil, body)),
		letBind("x", call(ident("f"))),
	))
	wantStr(t, export(t, mod, "x"), "ret")
}

func TestBareReturnKeepsJoinedPartials(t *testing.T) {
	body := codeBlock(strLit("joined"), returnStmt(nil), strLit("never"))
	mod, _ := evalModule(t, codeBlock(
		letBind("f", closure("f", nil, body)),
		letBind("x", call(ident("f"))),
	))
	wantStr(t, export(t, mod, "x"), "joined")
}

func TestReturnFromNestedBlock(t *testing.T) {
	body := codeBlock(
		codeBlock(returnStmt(intLit(9))),
		strLit("never"),
	)
	mod, _ := evalModule(t, codeBlock(
		letBind("f", closure("f", nil, body)),
		letBind("x", call(ident("f"))),
	))
	wantInt(t, export(t, mod, "x"), 9)
}

func TestExpressionBodyReturns(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("f", closure("f", nil, intLit(3))),
		letBind("x", call(ident("f"))),
	))
	wantInt(t, export(t, mod, "x"), 3)
}

func TestClosureSelfValue(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("f", closure("f", nil, noneLit())),
	))
	f, ok := export(t, mod, "f").(*value.Func)
	if !ok {
		t.Fatalf("exported f is %s, want a function", export(t, mod, "f").Kind())
	}
	if f.Name != "f" {
		t.Fatalf("function name %q, want %q", f.Name, "f")
	}
}
