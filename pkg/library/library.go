// Package library builds the immutable built-in scope of the language.
// The library is constructed once and threaded through compilation and
// evaluation explicitly; nothing here is a process-wide mutable
// registry.
package library

import (
	"math"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/value"
)

// Library is the built-in definitions visible to every module: the
// global scope and the scope used inside equations.
type Library struct {
	Global *value.Scope
	Math   *value.Scope
}

// New builds the default library.
func New() *Library {
	lib := &Library{
		Global: value.NewScope(),
		Math:   value.NewScope(),
	}
	defineElements(lib.Global)
	defineColors(lib.Global)
	defineHelpers(lib.Global)
	defineCalc(lib.Global)
	defineMath(lib.Math)
	return lib
}

// elem registers an element constructor. The constructor takes an
// optional positional body plus named properties; posProps names the
// properties its positional set-rule arguments bind.
func elem(scope *value.Scope, name string, kind value.ElemKind, posProps ...string) {
	f := &value.Func{
		Name:     name,
		Elem:     kind,
		PosProps: posProps,
	}
	f.Native = func(e *engine.Engine, args *value.Args) (value.Value, error) {
		c := &value.Content{Elem: kind, Span: args.Span}
		if body, _, ok := args.EatPos(); ok {
			c.Body = value.ToContent(body)
		}
		rest := args.Take()
		fields := value.NewDict()
		for _, argName := range namedOf(rest) {
			v, _ := rest.Named(argName)
			fields.Insert(argName, v)
		}
		if fields.Len() > 0 {
			c.Fields = fields
		}
		if err := rest.Finish(); err != nil {
			return nil, err
		}
		return c, nil
	}
	scope.Define(name, f)
}

func namedOf(args *value.Args) []string {
	var names []string
	seen := map[string]bool{}
	for _, it := range args.Items() {
		if it.Name != "" && !seen[it.Name] {
			seen[it.Name] = true
			names = append(names, it.Name)
		}
	}
	return names
}

func defineElements(scope *value.Scope) {
	elem(scope, "text", value.ElemText, "fill")
	elem(scope, "strong", value.ElemStrong, "delta")
	elem(scope, "emph", value.ElemEmph)
	elem(scope, "heading", value.ElemHeading, "level")
	elem(scope, "linebreak", value.ElemLinebreak)
	elem(scope, "parbreak", value.ElemParbreak)
	elem(scope, "smartquote", value.ElemSmartQuote)
	elem(scope, "ref", value.ElemRef, "supplement")
}

// Color constants are plain named strings; resolving them to concrete
// colors is layout's business.
func defineColors(scope *value.Scope) {
	for _, name := range []string{
		"black", "white", "red", "green", "blue", "yellow", "purple", "gray",
	} {
		scope.Define(name, value.Str(name))
	}
}

func defineHelpers(scope *value.Scope) {
	scope.Define("repr", value.NewNative("repr",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			return value.Str(v.Repr()), nil
		}))

	scope.Define("type", value.NewNative("type",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			return value.Str(v.Kind().String()), nil
		}))

	scope.Define("str", value.NewNative("str",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			switch v := v.(type) {
			case value.Str:
				return v, nil
			case value.Int, value.Float, value.Bool, value.Label:
				return value.Str(stripQuotes(v.Repr())), nil
			}
			return nil, diag.New(diag.RuntimeError, args.Span,
				"cannot convert %s to str", v.Kind())
		}))

	scope.Define("label", value.NewNative("label",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("name")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			s, ok := v.(value.Str)
			if !ok {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"expected str, found %s", v.Kind())
			}
			return value.Label(s), nil
		}))

	scope.Define("range", value.NewNative("range",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			first, err := args.ExpectPos("end")
			if err != nil {
				return nil, err
			}
			start := int64(0)
			end, ok := first.(value.Int)
			if !ok {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"expected int, found %s", first.Kind())
			}
			if second, _, found := args.EatPos(); found {
				e2, ok := second.(value.Int)
				if !ok {
					return nil, diag.New(diag.RuntimeError, args.Span,
						"expected int, found %s", second.Kind())
				}
				start = int64(end)
				end = e2
			}
			step := int64(1)
			if v, found := args.Named("step"); found {
				s, ok := v.(value.Int)
				if !ok || s == 0 {
					return nil, diag.New(diag.RuntimeError, args.Span,
						"step must be a non-zero int")
				}
				step = int64(s)
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			var items []value.Value
			if step > 0 {
				for i := start; i < int64(end); i += step {
					items = append(items, value.Int(i))
				}
			} else {
				for i := start; i > int64(end); i += step {
					items = append(items, value.Int(i))
				}
			}
			return value.NewArray(items...), nil
		}))

	scope.Define("panic", value.NewNative("panic",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			msg := "panicked"
			if v, _, ok := args.EatPos(); ok {
				msg = "panicked with: " + v.Repr()
			}
			return nil, diag.New(diag.RuntimeError, args.Span, "%s", msg)
		}))

	scope.Define("assert", value.NewNative("assert",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("condition")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			b, ok := v.(value.Bool)
			if !ok {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"expected bool, found %s", v.Kind())
			}
			if !b {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"assertion failed")
			}
			return value.None{}, nil
		}))
}

func stripQuotes(s string) string {
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

func one(name string, f func(float64) float64) *value.Func {
	return value.NewNative(name,
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			switch v := v.(type) {
			case value.Int:
				return value.Float(f(float64(v))), nil
			case value.Float:
				return value.Float(f(float64(v))), nil
			}
			return nil, diag.New(diag.RuntimeError, args.Span,
				"expected number, found %s", v.Kind())
		})
}

func defineCalc(scope *value.Scope) {
	calc := value.NewScope()

	calc.Define("abs", value.NewNative("abs",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			v, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			switch v := v.(type) {
			case value.Int:
				if v < 0 {
					return -v, nil
				}
				return v, nil
			case value.Float:
				return value.Float(math.Abs(float64(v))), nil
			}
			return nil, diag.New(diag.RuntimeError, args.Span,
				"expected number, found %s", v.Kind())
		}))

	calc.Define("floor", one("floor", math.Floor))
	calc.Define("ceil", one("ceil", math.Ceil))
	calc.Define("round", one("round", math.Round))
	calc.Define("sqrt", one("sqrt", math.Sqrt))

	calc.Define("pow", value.NewNative("pow",
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			base, err := args.ExpectPos("base")
			if err != nil {
				return nil, err
			}
			exp, err := args.ExpectPos("exponent")
			if err != nil {
				return nil, err
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			bi, bok := base.(value.Int)
			ei, eok := exp.(value.Int)
			if bok && eok && ei >= 0 {
				out := value.Int(1)
				for i := value.Int(0); i < ei; i++ {
					out *= bi
				}
				return out, nil
			}
			bf, bok2 := asFloat(base)
			ef, eok2 := asFloat(exp)
			if !bok2 || !eok2 {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"expected numbers, found %s and %s", base.Kind(), exp.Kind())
			}
			return value.Float(math.Pow(bf, ef)), nil
		}))

	calc.Define("min", extremum("min", func(a, b float64) bool { return a < b }))
	calc.Define("max", extremum("max", func(a, b float64) bool { return a > b }))

	scope.Define("calc", &value.Module{Name: "calc", Scope: calc})
}

func asFloat(v value.Value) (float64, bool) {
	switch v := v.(type) {
	case value.Int:
		return float64(v), true
	case value.Float:
		return float64(v), true
	}
	return 0, false
}

func extremum(name string, better func(a, b float64) bool) *value.Func {
	return value.NewNative(name,
		func(e *engine.Engine, args *value.Args) (value.Value, error) {
			best, err := args.ExpectPos("value")
			if err != nil {
				return nil, err
			}
			bestF, ok := asFloat(best)
			if !ok {
				return nil, diag.New(diag.RuntimeError, args.Span,
					"expected number, found %s", best.Kind())
			}
			for {
				v, _, found := args.EatPos()
				if !found {
					break
				}
				f, ok := asFloat(v)
				if !ok {
					return nil, diag.New(diag.RuntimeError, args.Span,
						"expected number, found %s", v.Kind())
				}
				if better(f, bestF) {
					best, bestF = v, f
				}
			}
			if err := args.Finish(); err != nil {
				return nil, err
			}
			return best, nil
		})
}

func defineMath(scope *value.Scope) {
	scope.Define("pi", value.Float(math.Pi))
	scope.Define("e", value.Float(math.E))
	for _, name := range []string{"alpha", "beta", "gamma", "delta", "epsilon"} {
		scope.Define(name, value.Str(name))
	}
}
