package bytecode

import (
	"strings"
	"testing"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

func abc() *syntax.Expr {
	return arrayOf(strLit("a"), strLit("b"), strLit("c"))
}

func TestForLoopJoins(t *testing.T) {
	root := codeBlock(forLoop(identPat("x"), abc(), codeBlock(ident("x"))))
	wantStr(t, evalRaw(t, root), "abc")
}

func TestForLoopContinue(t *testing.T) {
	body := codeBlock(
		condExpr(bin(syntax.OpEq, ident("x"), strLit("b")),
			codeBlock(continueStmt()), nil),
		ident("x"),
	)
	root := codeBlock(forLoop(identPat("x"), abc(), body))
	wantStr(t, evalRaw(t, root), "ac")
}

func TestForLoopBreak(t *testing.T) {
	body := codeBlock(ident("x"), breakStmt())
	root := codeBlock(forLoop(identPat("x"), abc(), body))
	wantStr(t, evalRaw(t, root), "a")
}

func TestWhileLoop(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("n", intLit(0)),
		whileLoop(bin(syntax.OpLt, ident("n"), intLit(3)), codeBlock(
			bin(syntax.OpAddAssign, ident("n"), intLit(1)),
		)),
	))
	wantInt(t, export(t, mod, "n"), 3)
}

func TestInfiniteLoopAborts(t *testing.T) {
	w, src := testWorld(codeBlock(whileLoop(boolLit(true), codeBlock())))
	cfg := config.Default()
	cfg.MaxIterations = 8
	e := engine.New(w, cfg)
	_, err := Eval(e, library.New(), src)
	if err == nil || !strings.Contains(err.Error(), "loop seems to be infinite") {
		t.Fatalf("got %v, want the iteration bound error", err)
	}
}

func TestInfiniteContinueAborts(t *testing.T) {
	w, src := testWorld(codeBlock(
		whileLoop(boolLit(true), codeBlock(continueStmt())),
	))
	cfg := config.Default()
	cfg.MaxIterations = 8
	e := engine.New(w, cfg)
	_, err := Eval(e, library.New(), src)
	if err == nil || !strings.Contains(err.Error(), "loop seems to be infinite") {
		t.Fatalf("got %v, want the iteration bound error", err)
	}
}

func TestCompoundAssignment(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("x", intLit(10)),
		bin(syntax.OpSubAssign, ident("x"), intLit(3)),
		bin(syntax.OpMulAssign, ident("x"), intLit(2)),
	))
	wantInt(t, export(t, mod, "x"), 14)
}

func TestBooleanOperators(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("a", bin(syntax.OpOr, boolLit(false), boolLit(true))),
		letBind("b", bin(syntax.OpAnd, boolLit(true), boolLit(false))),
	))
	if export(t, mod, "a") != value.Bool(true) {
		t.Fatal("false or true should be true")
	}
	if export(t, mod, "b") != value.Bool(false) {
		t.Fatal("true and false should be false")
	}
}

func TestBooleanOperatorsShortCircuit(t *testing.T) {
	div := bin(syntax.OpDiv, intLit(1), intLit(0))
	mod, _ := evalModule(t, codeBlock(
		letBind("a", bin(syntax.OpAnd, boolLit(false), div)),
		letBind("b", bin(syntax.OpOr, boolLit(true), div)),
	))
	if export(t, mod, "a") != value.Bool(false) {
		t.Fatal("false and _ should yield false without evaluating the rhs")
	}
	if export(t, mod, "b") != value.Bool(true) {
		t.Fatal("true or _ should yield true without evaluating the rhs")
	}
}

func TestInOperator(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("a", bin(syntax.OpIn, strLit("b"), abc())),
		letBind("b", bin(syntax.OpNotIn, strLit("z"), abc())),
	))
	if export(t, mod, "a") != value.Bool(true) || export(t, mod, "b") != value.Bool(true) {
		t.Fatal("membership tests failed")
	}
}

func TestDictFieldAccess(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("d", dictOf(named("a", intLit(1)), named("b", intLit(2)))),
		letBind("x", fieldOf(ident("d"), "b")),
	))
	wantInt(t, export(t, mod, "x"), 2)
}

func TestCalcModuleCall(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("x", call(fieldOf(ident("calc"), "pow"), pos(intLit(2)), pos(intLit(10)))),
	))
	wantInt(t, export(t, mod, "x"), 1024)
}

func TestNativeCall(t *testing.T) {
	mod, _ := evalModule(t, codeBlock(
		letBind("x", call(ident("repr"), pos(intLit(3)))),
	))
	wantStr(t, export(t, mod, "x"), "3")
}

func TestCallNonCallable(t *testing.T) {
	_, err := evalRawErr(codeBlock(
		letBind("x", intLit(1)),
		call(ident("x")),
	))
	if err == nil || !strings.Contains(err.Error(), "not callable") {
		t.Fatalf("got %v, want a not-callable error", err)
	}
}

// ==== Destructuring =====================================================

func TestDestructureTupleWithSpread(t *testing.T) {
	pat := &syntax.Pattern{Kind: syntax.PatTuple, Items: []syntax.PatternItem{
		{Kind: syntax.PatItemPos, Pattern: identPat("first")},
		{Kind: syntax.PatItemSpread, Pattern: identPat("mid")},
		{Kind: syntax.PatItemPos, Pattern: identPat("last")},
	}}
	mod, _ := evalModule(t, codeBlock(
		letPat(pat, arrayOf(intLit(1), intLit(2), intLit(3), intLit(4))),
	))
	wantInt(t, export(t, mod, "first"), 1)
	wantInt(t, export(t, mod, "last"), 4)
	mid, ok := export(t, mod, "mid").(*value.Array)
	if !ok || len(mid.Items) != 2 {
		t.Fatalf("mid = %s, want the two middle items", export(t, mod, "mid").Repr())
	}
}

func TestDestructureLengthMismatch(t *testing.T) {
	pat := tuplePat(identPat("a"), identPat("b"))
	_, err := evalRawErr(codeBlock(letPat(pat, arrayOf(intLit(1)))))
	if err == nil || !strings.Contains(err.Error(), "cannot destructure array of length 1") {
		t.Fatalf("got %v, want a length mismatch error", err)
	}
}

func TestDestructureDictShorthand(t *testing.T) {
	pat := &syntax.Pattern{Kind: syntax.PatDict, Items: []syntax.PatternItem{
		{Kind: syntax.PatItemPos, Pattern: identPat("a")},
		{Kind: syntax.PatItemNamed, Name: "b", Pattern: identPat("bee")},
	}}
	mod, _ := evalModule(t, codeBlock(
		letPat(pat, dictOf(named("a", intLit(1)), named("b", intLit(2)))),
	))
	wantInt(t, export(t, mod, "a"), 1)
	wantInt(t, export(t, mod, "bee"), 2)
}

func TestDestructureAssignment(t *testing.T) {
	pat := tuplePat(identPat("a"), identPat("b"))
	swap := &syntax.Expr{
		Kind:    syntax.KindBinary,
		Op:      syntax.OpAssign,
		Pattern: pat,
		Rhs:     arrayOf(ident("b"), ident("a")),
	}
	mod, _ := evalModule(t, codeBlock(
		letBind("a", intLit(1)),
		letBind("b", intLit(2)),
		swap,
	))
	wantInt(t, export(t, mod, "a"), 2)
	wantInt(t, export(t, mod, "b"), 1)
}

// ==== Spread ============================================================

func TestArraySpread(t *testing.T) {
	root := codeBlock(
		letBind("inner", arrayOf(intLit(2), intLit(3))),
		letBind("all", &syntax.Expr{Kind: syntax.KindArray, Args: []syntax.Arg{
			pos(intLit(1)),
			spreadArg(ident("inner")),
			pos(intLit(4)),
		}}),
	)
	mod, _ := evalModule(t, root)
	arr := export(t, mod, "all").(*value.Array)
	if len(arr.Items) != 4 {
		t.Fatalf("got %s, want four items", arr.Repr())
	}
	wantInt(t, arr.Items[1], 2)
	wantInt(t, arr.Items[3], 4)
}

func TestSpreadNoneSkipped(t *testing.T) {
	root := codeBlock(
		letBind("all", &syntax.Expr{Kind: syntax.KindArray, Args: []syntax.Arg{
			pos(intLit(1)),
			spreadArg(noneLit()),
		}}),
	)
	mod, _ := evalModule(t, root)
	arr := export(t, mod, "all").(*value.Array)
	if len(arr.Items) != 1 {
		t.Fatalf("got %s, want one item", arr.Repr())
	}
}
