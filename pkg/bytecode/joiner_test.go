package bytecode

import (
	"testing"

	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
	"github.com/vellum-lang/vellum/pkg/world"
)

func collectJoiner(t *testing.T, j *joiner) value.Value {
	t.Helper()
	e := testEngine(world.NewMemWorld())
	v, err := j.collect(e, syntax.Span{})
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	return v
}

func TestJoinerIgnoresNone(t *testing.T) {
	j := newJoiner(false)
	must := func(v value.Value) {
		if err := j.join(syntax.Span{}, v); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	must(value.None{})
	must(value.Str("a"))
	must(value.None{})
	must(value.Str("b"))
	wantStr(t, collectJoiner(t, j), "ab")
}

func TestJoinerEmptyIsNone(t *testing.T) {
	j := newJoiner(false)
	if _, ok := collectJoiner(t, j).(value.None); !ok {
		t.Fatal("empty scalar joiner should collect to none")
	}
}

func TestJoinerScalarSwitchesToDisplay(t *testing.T) {
	j := newJoiner(false)
	if err := j.join(syntax.Span{}, value.Str("intro ")); err != nil {
		t.Fatal(err)
	}
	if err := j.join(syntax.Span{}, value.TextElem("body")); err != nil {
		t.Fatal(err)
	}
	c, ok := collectJoiner(t, j).(*value.Content)
	if !ok {
		t.Fatal("mixed scalar and content should collect to content")
	}
	if got := c.PlainText(); got != "intro body" {
		t.Fatalf("plain text %q, want %q", got, "intro body")
	}
}

func TestJoinerDisplaySequence(t *testing.T) {
	j := newJoiner(true)
	for _, s := range []string{"a", "b", "c"} {
		if err := j.join(syntax.Span{}, value.TextElem(s)); err != nil {
			t.Fatal(err)
		}
	}
	c := collectJoiner(t, j).(*value.Content)
	if c.Elem != value.ElemSequence || len(c.Children) != 3 {
		t.Fatalf("got %s, want a three-child sequence", c.Repr())
	}
}

func TestJoinerLabelAttachesToLast(t *testing.T) {
	j := newJoiner(true)
	if err := j.join(syntax.Span{}, value.TextElem("target")); err != nil {
		t.Fatal(err)
	}
	if err := j.join(syntax.Span{}, &value.Content{Elem: value.ElemSpace}); err != nil {
		t.Fatal(err)
	}
	if err := j.join(syntax.Span{}, value.Label("mark")); err != nil {
		t.Fatal(err)
	}
	c := collectJoiner(t, j).(*value.Content)
	if c.Children[0].Label != "mark" {
		t.Fatal("label should skip whitespace and attach to the text element")
	}
	if c.Children[1].Label != "" {
		t.Fatal("space element must not carry the label")
	}
}

func TestJoinerLabelWithoutContent(t *testing.T) {
	j := newJoiner(true)
	if err := j.join(syntax.Span{}, value.Label("dangling")); err == nil {
		t.Fatal("expected an error for a label with nothing to attach to")
	}
}

func TestJoinerStyledWrapsFollowingSiblings(t *testing.T) {
	j := newJoiner(true)
	if err := j.join(syntax.Span{}, value.TextElem("before")); err != nil {
		t.Fatal(err)
	}
	styles := value.NewStyleMap(&value.Property{
		Elem: value.ElemText, Name: "fill", Value: value.Str("blue"),
	})
	j.styled(styles)
	if err := j.join(syntax.Span{}, value.TextElem("x")); err != nil {
		t.Fatal(err)
	}
	if err := j.join(syntax.Span{}, value.TextElem("y")); err != nil {
		t.Fatal(err)
	}

	c := collectJoiner(t, j).(*value.Content)
	if c.Elem != value.ElemSequence || len(c.Children) != 2 {
		t.Fatalf("got %s, want [before, styled]", c.Repr())
	}
	styled := c.Children[1]
	if styled.Elem != value.ElemStyled {
		t.Fatalf("second child is %s, want one styled wrapper", styled.Elem)
	}
	if styled.Body.Elem != value.ElemSequence || len(styled.Body.Children) != 2 {
		t.Fatal("both following siblings should share the single wrapper")
	}
}

func TestJoinerConsecutiveSetRulesMerge(t *testing.T) {
	j := newJoiner(true)
	j.styled(value.NewStyleMap(&value.Property{
		Elem: value.ElemText, Name: "fill", Value: value.Str("blue"),
	}))
	j.styled(value.NewStyleMap(&value.Property{
		Elem: value.ElemStrong, Name: "delta", Value: value.Int(100),
	}))
	if err := j.join(syntax.Span{}, value.TextElem("x")); err != nil {
		t.Fatal(err)
	}

	c := collectJoiner(t, j).(*value.Content)
	if c.Elem != value.ElemStyled {
		t.Fatalf("got %s, want a single styled wrapper", c.Repr())
	}
	if c.Styles.Len() != 2 {
		t.Fatalf("wrapper has %d styles, want the two merged properties", c.Styles.Len())
	}
}
