package bytecode

import (
	"testing"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
	"github.com/vellum-lang/vellum/pkg/world"
)

// AST builders. The parser is external, so tests construct trees
// directly.

func intLit(n int64) *syntax.Expr { return &syntax.Expr{Kind: syntax.KindInt, Int: n} }

func floatLit(f float64) *syntax.Expr { return &syntax.Expr{Kind: syntax.KindFloat, Float: f} }

func strLit(s string) *syntax.Expr { return &syntax.Expr{Kind: syntax.KindStr, Str: s} }

func boolLit(b bool) *syntax.Expr { return &syntax.Expr{Kind: syntax.KindBool, Bool: b} }

func noneLit() *syntax.Expr { return &syntax.Expr{Kind: syntax.KindNone} }

func labelLit(name string) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindLabel, Str: name}
}

func ident(name string) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindIdent, Str: name}
}

func textNode(s string) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindText, Str: s}
}

func bin(op string, lhs, rhs *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindBinary, Op: op, Lhs: lhs, Rhs: rhs}
}

func un(op string, rhs *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindUnary, Op: op, Rhs: rhs}
}

func codeBlock(exprs ...*syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindCode, Exprs: exprs}
}

func markupBlock(exprs ...*syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindMarkup, Exprs: exprs}
}

func contentBlock(exprs ...*syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindContent, Body: markupBlock(exprs...)}
}

func letBind(name string, init *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{
		Kind:    syntax.KindLet,
		Pattern: &syntax.Pattern{Kind: syntax.PatIdent, Name: name},
		Init:    init,
	}
}

func letPat(pat *syntax.Pattern, init *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindLet, Pattern: pat, Init: init}
}

func tuplePat(subs ...*syntax.Pattern) *syntax.Pattern {
	items := make([]syntax.PatternItem, len(subs))
	for i, sub := range subs {
		items[i] = syntax.PatternItem{Kind: syntax.PatItemPos, Pattern: sub}
	}
	return &syntax.Pattern{Kind: syntax.PatTuple, Items: items}
}

func identPat(name string) *syntax.Pattern {
	return &syntax.Pattern{Kind: syntax.PatIdent, Name: name}
}

func condExpr(cond, then, els *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindConditional, Cond: cond, Then: then, Else: els}
}

func whileLoop(cond, body *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindWhile, Cond: cond, Body: body}
}

func forLoop(pat *syntax.Pattern, iter, body *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindFor, Pattern: pat, Iter: iter, Body: body}
}

func breakStmt() *syntax.Expr    { return &syntax.Expr{Kind: syntax.KindBreak} }
func continueStmt() *syntax.Expr { return &syntax.Expr{Kind: syntax.KindContinue} }

func returnStmt(v *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindReturn, Body: v}
}

func call(callee *syntax.Expr, args ...syntax.Arg) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindFuncCall, Callee: callee, Args: args}
}

func pos(v *syntax.Expr) syntax.Arg { return syntax.Arg{Value: v} }

func named(name string, v *syntax.Expr) syntax.Arg {
	return syntax.Arg{Name: name, Value: v}
}

func spreadArg(v *syntax.Expr) syntax.Arg {
	return syntax.Arg{Spread: true, Value: v}
}

func closure(name string, params []syntax.Param, body *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindClosure, Str: name, Params: params, Body: body}
}

func param(name string) syntax.Param { return syntax.Param{Name: name} }

func namedParam(name string, def *syntax.Expr) syntax.Param {
	return syntax.Param{Name: name, Default: def}
}

func sinkParam(name string) syntax.Param { return syntax.Param{Name: name, Sink: true} }

func fieldOf(lhs *syntax.Expr, name string) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindFieldAccess, Lhs: lhs, Str: name}
}

func arrayOf(items ...*syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindArray, Exprs: items}
}

func dictOf(args ...syntax.Arg) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindDict, Args: args}
}

func setRule(callee *syntax.Expr, args ...syntax.Arg) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindSet, Callee: callee, Args: args}
}

func showRule(selector, transform *syntax.Expr) *syntax.Expr {
	return &syntax.Expr{Kind: syntax.KindShow, Lhs: selector, Body: transform}
}

// Evaluation harness.

func testWorld(root *syntax.Expr) (*world.MemWorld, *syntax.Source) {
	w := world.NewMemWorld()
	src := w.Add("main.vel", root)
	return w, src
}

func testEngine(w world.World) *engine.Engine {
	return engine.New(w, config.Default())
}

// compileRoot compiles a root expression, failing the test on error.
func compileRoot(t *testing.T, root *syntax.Expr) (*CompiledModule, *engine.Engine) {
	t.Helper()
	w, src := testWorld(root)
	e := testEngine(w)
	cm, err := Compile(e, library.New(), src)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	return cm, e
}

// evalRaw compiles and runs a root, returning the joined result before
// content conversion.
func evalRaw(t *testing.T, root *syntax.Expr) value.Value {
	t.Helper()
	v, err := evalRawErr(root)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return v
}

func evalRawErr(root *syntax.Expr) (value.Value, error) {
	w, src := testWorld(root)
	e := testEngine(w)
	lib := library.New()
	cm, err := Compile(e, lib, src)
	if err != nil {
		return nil, err
	}
	m := newMachine(e, lib, cm.Code)
	res, err := m.runRoot()
	if err != nil {
		return nil, err
	}
	return res.value, nil
}

// evalModule evaluates a root through the public entry point.
func evalModule(t *testing.T, root *syntax.Expr) (*value.Module, *engine.Engine) {
	t.Helper()
	w, src := testWorld(root)
	e := testEngine(w)
	mod, err := Eval(e, library.New(), src)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}
	return mod, e
}

// export reads an exported binding from an evaluated module.
func export(t *testing.T, mod *value.Module, name string) value.Value {
	t.Helper()
	v, ok := mod.Scope.Get(name)
	if !ok {
		t.Fatalf("module does not export %q", name)
	}
	return v
}

// wantInt asserts an integer result.
func wantInt(t *testing.T, v value.Value, want int64) {
	t.Helper()
	got, ok := v.(value.Int)
	if !ok {
		t.Fatalf("got %s %s, want int %d", v.Kind(), v.Repr(), want)
	}
	if int64(got) != want {
		t.Fatalf("got %d, want %d", int64(got), want)
	}
}

// wantStr asserts a string result.
func wantStr(t *testing.T, v value.Value, want string) {
	t.Helper()
	got, ok := v.(value.Str)
	if !ok {
		t.Fatalf("got %s %s, want str %q", v.Kind(), v.Repr(), want)
	}
	if string(got) != want {
		t.Fatalf("got %q, want %q", string(got), want)
	}
}
