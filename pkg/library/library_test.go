package library

import (
	"math"
	"testing"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
	"github.com/vellum-lang/vellum/pkg/world"
)

func testEngine() *engine.Engine {
	w := world.NewMemWorld()
	w.Add("main.vel", &syntax.Expr{Kind: syntax.KindCode})
	return engine.New(w, config.Default())
}

func callGlobal(t *testing.T, path []string, args *value.Args) value.Value {
	t.Helper()
	lib := New()
	var v value.Value
	v, ok := lib.Global.Get(path[0])
	if !ok {
		t.Fatalf("global %q missing", path[0])
	}
	for _, name := range path[1:] {
		mod, isMod := v.(*value.Module)
		if !isMod {
			t.Fatalf("%q is %s, want a module", path[0], v.Kind())
		}
		v, ok = mod.Field(name)
		if !ok {
			t.Fatalf("field %q missing", name)
		}
	}
	f, ok := v.(*value.Func)
	if !ok {
		t.Fatalf("%v is %s, want a function", path, v.Kind())
	}
	out, err := f.Call(testEngine(), args)
	if err != nil {
		t.Fatalf("call %v: %v", path, err)
	}
	return out
}

func TestElementConstructor(t *testing.T) {
	args := value.NewArgs(syntax.Span{})
	args.Push(syntax.Span{}, value.TextElem("hi"))
	args.PushNamed(syntax.Span{}, "fill", value.Str("blue"))

	out := callGlobal(t, []string{"text"}, args)
	c, ok := out.(*value.Content)
	if !ok {
		t.Fatalf("got %s, want content", out.Kind())
	}
	if c.Elem != value.ElemText || c.Body.Text != "hi" {
		t.Fatalf("got %s", c.Repr())
	}
	fill, ok := c.Fields.Get("fill")
	if !ok || fill != value.Str("blue") {
		t.Fatal("named property not recorded")
	}
}

func TestElementConstructorRegistersKind(t *testing.T) {
	lib := New()
	for _, name := range []string{"text", "strong", "emph", "heading", "ref"} {
		v, ok := lib.Global.Get(name)
		if !ok {
			t.Fatalf("element %q missing", name)
		}
		f, ok := v.(*value.Func)
		if !ok || f.Elem == "" {
			t.Fatalf("%q is not an element constructor", name)
		}
	}
}

func TestSetRuleBindsPositionalProps(t *testing.T) {
	lib := New()
	v, _ := lib.Global.Get("text")
	f := v.(*value.Func)

	args := value.NewArgs(syntax.Span{})
	args.Push(syntax.Span{}, value.Str("blue"))
	styles, err := f.SetRule(syntax.Span{}, args)
	if err != nil {
		t.Fatalf("set rule: %v", err)
	}
	got, ok := value.NewStyleChain(styles).Get(value.ElemText, "fill")
	if !ok || got != value.Str("blue") {
		t.Fatalf("fill = %v, want the positional argument", got)
	}
}

func TestCalcFunctions(t *testing.T) {
	abs := value.NewArgs(syntax.Span{})
	abs.Push(syntax.Span{}, value.Int(-5))
	if out := callGlobal(t, []string{"calc", "abs"}, abs); out != value.Int(5) {
		t.Fatalf("abs(-5) = %v", out)
	}

	pow := value.NewArgs(syntax.Span{})
	pow.Push(syntax.Span{}, value.Int(2))
	pow.Push(syntax.Span{}, value.Int(8))
	if out := callGlobal(t, []string{"calc", "pow"}, pow); out != value.Int(256) {
		t.Fatalf("pow(2, 8) = %v", out)
	}

	min := value.NewArgs(syntax.Span{})
	min.Push(syntax.Span{}, value.Int(3))
	min.Push(syntax.Span{}, value.Float(1.5))
	min.Push(syntax.Span{}, value.Int(7))
	if out := callGlobal(t, []string{"calc", "min"}, min); out != value.Float(1.5) {
		t.Fatalf("min = %v", out)
	}

	sqrt := value.NewArgs(syntax.Span{})
	sqrt.Push(syntax.Span{}, value.Int(2))
	out := callGlobal(t, []string{"calc", "sqrt"}, sqrt)
	f, ok := out.(value.Float)
	if !ok || math.Abs(float64(f)-math.Sqrt2) > 1e-12 {
		t.Fatalf("sqrt(2) = %v", out)
	}
}

func TestHelpers(t *testing.T) {
	repr := value.NewArgs(syntax.Span{})
	repr.Push(syntax.Span{}, value.Str("x"))
	if out := callGlobal(t, []string{"repr"}, repr); out != value.Str(`"x"`) {
		t.Fatalf("repr = %v", out)
	}

	kind := value.NewArgs(syntax.Span{})
	kind.Push(syntax.Span{}, value.Int(1))
	if out := callGlobal(t, []string{"type"}, kind); out != value.Str("int") {
		t.Fatalf("type = %v", out)
	}
}

func TestMathScope(t *testing.T) {
	lib := New()
	pi, ok := lib.Math.Get("pi")
	if !ok {
		t.Fatal("pi missing from the math scope")
	}
	if f, ok := pi.(value.Float); !ok || float64(f) != math.Pi {
		t.Fatalf("pi = %v", pi)
	}
	if _, ok := lib.Global.Get("pi"); ok {
		t.Fatal("math binding leaked into the global scope")
	}
}
