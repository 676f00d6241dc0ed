package value

import (
	"math"
	"strings"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// Operators dispatch exhaustively over value kinds. Every operator
// takes the span of the expression for diagnostics.

func mismatch(span syntax.Span, op string, values ...Value) error {
	kinds := make([]string, len(values))
	for i, v := range values {
		kinds[i] = v.Kind().String()
	}
	return diag.New(diag.RuntimeError, span,
		"cannot apply %q to %s", op, strings.Join(kinds, " and "))
}

// Pos applies unary plus.
func Pos(span syntax.Span, v Value) (Value, error) {
	switch v.(type) {
	case Int, Float:
		return v, nil
	}
	return nil, mismatch(span, "+", v)
}

// Neg applies unary minus.
func Neg(span syntax.Span, v Value) (Value, error) {
	switch v := v.(type) {
	case Int:
		return -v, nil
	case Float:
		return -v, nil
	}
	return nil, mismatch(span, "-", v)
}

// Not applies logical negation.
func Not(span syntax.Span, v Value) (Value, error) {
	if b, ok := v.(Bool); ok {
		return !b, nil
	}
	return nil, mismatch(span, "not", v)
}

// Add applies binary plus: numeric addition, string and array and
// content concatenation, dict merging.
func Add(span syntax.Span, lhs, rhs Value) (Value, error) {
	switch a := lhs.(type) {
	case Int:
		switch b := rhs.(type) {
		case Int:
			return a + b, nil
		case Float:
			return Float(a) + b, nil
		}
	case Float:
		switch b := rhs.(type) {
		case Int:
			return a + Float(b), nil
		case Float:
			return a + b, nil
		}
	case Str:
		if b, ok := rhs.(Str); ok {
			return a + b, nil
		}
	case *Array:
		if b, ok := rhs.(*Array); ok {
			items := make([]Value, 0, len(a.Items)+len(b.Items))
			items = append(items, a.Items...)
			items = append(items, b.Items...)
			return &Array{Items: items}, nil
		}
	case *Dict:
		if b, ok := rhs.(*Dict); ok {
			out := NewDict()
			for _, k := range a.Keys() {
				v, _ := a.Get(k)
				out.Insert(k, v)
			}
			for _, k := range b.Keys() {
				v, _ := b.Get(k)
				out.Insert(k, v)
			}
			return out, nil
		}
	case *Content:
		if b, ok := rhs.(*Content); ok {
			return Sequence(a, b), nil
		}
	}
	return nil, mismatch(span, "+", lhs, rhs)
}

// Sub applies binary minus.
func Sub(span syntax.Span, lhs, rhs Value) (Value, error) {
	switch a := lhs.(type) {
	case Int:
		switch b := rhs.(type) {
		case Int:
			return a - b, nil
		case Float:
			return Float(a) - b, nil
		}
	case Float:
		switch b := rhs.(type) {
		case Int:
			return a - Float(b), nil
		case Float:
			return a - b, nil
		}
	}
	return nil, mismatch(span, "-", lhs, rhs)
}

// Mul applies multiplication, including string and array repetition.
func Mul(span syntax.Span, lhs, rhs Value) (Value, error) {
	switch a := lhs.(type) {
	case Int:
		switch b := rhs.(type) {
		case Int:
			return a * b, nil
		case Float:
			return Float(a) * b, nil
		case Str:
			return repeatStr(span, b, a)
		}
	case Float:
		switch b := rhs.(type) {
		case Int:
			return a * Float(b), nil
		case Float:
			return a * b, nil
		}
	case Str:
		if b, ok := rhs.(Int); ok {
			return repeatStr(span, a, b)
		}
	}
	return nil, mismatch(span, "*", lhs, rhs)
}

func repeatStr(span syntax.Span, s Str, n Int) (Value, error) {
	if n < 0 {
		return nil, diag.New(diag.RuntimeError, span,
			"cannot repeat string %d times", n)
	}
	return Str(strings.Repeat(string(s), int(n))), nil
}

// Div applies division. Integer division always produces a float,
// matching the language's arithmetic.
func Div(span syntax.Span, lhs, rhs Value) (Value, error) {
	a, aok := toFloat(lhs)
	b, bok := toFloat(rhs)
	if !aok || !bok {
		return nil, mismatch(span, "/", lhs, rhs)
	}
	if b == 0 {
		return nil, diag.New(diag.RuntimeError, span, "cannot divide by zero")
	}
	return Float(a / b), nil
}

func toFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case Int:
		return float64(v), true
	case Float:
		return float64(v), true
	}
	return 0, false
}

// And applies logical and.
func And(span syntax.Span, lhs, rhs Value) (Value, error) {
	a, aok := lhs.(Bool)
	b, bok := rhs.(Bool)
	if !aok || !bok {
		return nil, mismatch(span, "and", lhs, rhs)
	}
	return a && b, nil
}

// Or applies logical or.
func Or(span syntax.Span, lhs, rhs Value) (Value, error) {
	a, aok := lhs.(Bool)
	b, bok := rhs.(Bool)
	if !aok || !bok {
		return nil, mismatch(span, "or", lhs, rhs)
	}
	return a || b, nil
}

// Equal tests deep equality across kinds. Values of different kinds
// are unequal, except int and float which compare numerically.
func Equal(lhs, rhs Value) bool {
	switch a := lhs.(type) {
	case None:
		_, ok := rhs.(None)
		return ok
	case Auto:
		_, ok := rhs.(Auto)
		return ok
	case Bool:
		b, ok := rhs.(Bool)
		return ok && a == b
	case Int:
		switch b := rhs.(type) {
		case Int:
			return a == b
		case Float:
			return float64(a) == float64(b)
		}
	case Float:
		switch b := rhs.(type) {
		case Int:
			return float64(a) == float64(b)
		case Float:
			return a == b
		}
	case Str:
		b, ok := rhs.(Str)
		return ok && a == b
	case Label:
		b, ok := rhs.(Label)
		return ok && a == b
	case *Array:
		b, ok := rhs.(*Array)
		if !ok || len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case *Dict:
		b, ok := rhs.(*Dict)
		if !ok || a.Len() != b.Len() {
			return false
		}
		for _, k := range a.Keys() {
			av, _ := a.Get(k)
			bv, bok := b.Get(k)
			if !bok || !Equal(av, bv) {
				return false
			}
		}
		return true
	default:
		return lhs == rhs
	}
	return false
}

// Compare orders two values. Fails for kinds with no ordering.
func Compare(span syntax.Span, op string, lhs, rhs Value) (Value, error) {
	var cmp int
	switch a := lhs.(type) {
	case Str:
		b, ok := rhs.(Str)
		if !ok {
			return nil, mismatch(span, op, lhs, rhs)
		}
		cmp = strings.Compare(string(a), string(b))
	default:
		af, aok := toFloat(lhs)
		bf, bok := toFloat(rhs)
		if !aok || !bok {
			return nil, mismatch(span, op, lhs, rhs)
		}
		switch {
		case af < bf:
			cmp = -1
		case af > bf:
			cmp = 1
		}
	}
	switch op {
	case "<":
		return Bool(cmp < 0), nil
	case "<=":
		return Bool(cmp <= 0), nil
	case ">":
		return Bool(cmp > 0), nil
	case ">=":
		return Bool(cmp >= 0), nil
	}
	return nil, mismatch(span, op, lhs, rhs)
}

// In tests membership: substring, array element, or dict key.
func In(span syntax.Span, lhs, rhs Value) (Value, error) {
	switch b := rhs.(type) {
	case Str:
		if a, ok := lhs.(Str); ok {
			return Bool(strings.Contains(string(b), string(a))), nil
		}
	case *Array:
		for _, item := range b.Items {
			if Equal(lhs, item) {
				return Bool(true), nil
			}
		}
		return Bool(false), nil
	case *Dict:
		if a, ok := lhs.(Str); ok {
			_, found := b.Get(string(a))
			return Bool(found), nil
		}
	}
	return nil, mismatch(span, "in", lhs, rhs)
}

// Join merges two sequential block results. None is the identity on
// both sides; everything else merges kind-wise or fails.
func Join(span syntax.Span, lhs, rhs Value) (Value, error) {
	if _, ok := rhs.(None); ok {
		return lhs, nil
	}
	if _, ok := lhs.(None); ok {
		return rhs, nil
	}
	switch a := lhs.(type) {
	case Str:
		if b, ok := rhs.(Str); ok {
			return a + b, nil
		}
	case *Array:
		if b, ok := rhs.(*Array); ok {
			items := make([]Value, 0, len(a.Items)+len(b.Items))
			items = append(items, a.Items...)
			items = append(items, b.Items...)
			return &Array{Items: items}, nil
		}
	case *Content:
		if b, ok := rhs.(*Content); ok {
			return Sequence(a, b), nil
		}
		if b, ok := rhs.(Str); ok {
			return Sequence(a, TextElem(string(b))), nil
		}
	case *StyleMap:
		// A bare set rule joined with following content styles it.
		if b, ok := rhs.(*Content); ok {
			return b.StyledWithMap(a), nil
		}
	}
	return nil, diag.New(diag.RuntimeError, span,
		"cannot join %s with %s", lhs.Kind(), rhs.Kind())
}

// Display converts a value to content for document output.
func Display(v Value) *Content {
	switch v := v.(type) {
	case None:
		return Empty()
	case *Content:
		return v
	case Str:
		return TextElem(string(v))
	case Int, Float, Bool:
		return TextElem(v.Repr())
	default:
		return TextElem(v.Repr())
	}
}

// ToContent coerces a value to content, treating none as empty.
func ToContent(v Value) *Content {
	return Display(v)
}

// Truthy extracts a boolean condition.
func Truthy(span syntax.Span, v Value) (bool, error) {
	if b, ok := v.(Bool); ok {
		return bool(b), nil
	}
	return false, diag.New(diag.RuntimeError, span,
		"expected bool, found %s", v.Kind())
}

// Field reads a field of a value: dict entries, module definitions,
// content metadata, and the built-in collection fields.
func Field(span syntax.Span, v Value, name string) (Value, error) {
	switch v := v.(type) {
	case *Dict:
		if out, ok := v.Get(name); ok {
			return out, nil
		}
		if name == "len" {
			return Int(v.Len()), nil
		}
		if name == "keys" {
			keys := v.Keys()
			items := make([]Value, len(keys))
			for i, k := range keys {
				items[i] = Str(k)
			}
			return &Array{Items: items}, nil
		}
		return nil, diag.New(diag.RuntimeError, span,
			"dictionary does not contain key %q", name)
	case *Module:
		if out, ok := v.Field(name); ok {
			return out, nil
		}
		return nil, diag.New(diag.RuntimeError, span,
			"module %q does not contain %q", v.Name, name).
			WithHint("available: %s", strings.Join(v.Scope.SortedNames(), ", "))
	case *Content:
		switch name {
		case "label":
			if v.Label == "" {
				return None{}, nil
			}
			return v.Label, nil
		case "text":
			return Str(v.PlainText()), nil
		case "body":
			if v.Body != nil {
				return v.Body, nil
			}
			return None{}, nil
		}
	case *Array:
		switch name {
		case "len":
			return Int(len(v.Items)), nil
		case "first":
			if len(v.Items) == 0 {
				return nil, diag.New(diag.RuntimeError, span, "array is empty")
			}
			return v.Items[0], nil
		case "last":
			if len(v.Items) == 0 {
				return nil, diag.New(diag.RuntimeError, span, "array is empty")
			}
			return v.Items[len(v.Items)-1], nil
		}
	case Str:
		if name == "len" {
			return Int(len(v)), nil
		}
	}
	return nil, diag.New(diag.RuntimeError, span,
		"%s does not have field %q", v.Kind(), name)
}

// Iterate returns the items a for loop visits: array items, dict
// key-value pairs, string graphemes (here: runes), or integer ranges
// are produced by the library's range function as arrays.
func Iterate(span syntax.Span, v Value) ([]Value, error) {
	switch v := v.(type) {
	case *Array:
		return v.Items, nil
	case *Dict:
		out := make([]Value, 0, v.Len())
		for _, k := range v.Keys() {
			item, _ := v.Get(k)
			out = append(out, &Array{Items: []Value{Str(k), item}})
		}
		return out, nil
	case Str:
		out := make([]Value, 0, len(v))
		for _, r := range string(v) {
			out = append(out, Str(string(r)))
		}
		return out, nil
	}
	return nil, diag.New(diag.RuntimeError, span,
		"cannot loop over %s", v.Kind())
}

// IsNaN reports float NaN, used by tests and the calc library.
func IsNaN(v Value) bool {
	f, ok := v.(Float)
	return ok && math.IsNaN(float64(f))
}
