package value

import (
	"strings"

	"github.com/vellum-lang/vellum/pkg/syntax"
)

// ElemKind identifies a content element kind. Scoped style properties
// and barriers are keyed by element kind.
type ElemKind string

const (
	ElemText       ElemKind = "text"
	ElemSpace      ElemKind = "space"
	ElemLinebreak  ElemKind = "linebreak"
	ElemParbreak   ElemKind = "parbreak"
	ElemSmartQuote ElemKind = "smartquote"
	ElemStrong     ElemKind = "strong"
	ElemEmph       ElemKind = "emph"
	ElemHeading    ElemKind = "heading"
	ElemListItem   ElemKind = "list.item"
	ElemEnumItem   ElemKind = "enum.item"
	ElemTermItem   ElemKind = "terms.item"
	ElemRef        ElemKind = "ref"
	ElemEquation   ElemKind = "equation"
	ElemFrac       ElemKind = "math.frac"
	ElemRoot       ElemKind = "math.root"
	ElemAttach     ElemKind = "math.attach"
	ElemDelimited  ElemKind = "math.lr"
	ElemSequence   ElemKind = "sequence"
	ElemStyled     ElemKind = "styled"
)

// Content is one node of the document tree handed to layout. A node is
// identified by its element kind; the remaining fields carry that
// kind's payload.
type Content struct {
	Elem  ElemKind
	Label Label
	Span  syntax.Span

	// Text for ElemText; the reference target for ElemRef.
	Text string

	// Children of ElemSequence and ElemDelimited.
	Children []*Content

	// Body of wrapper elements (strong, emph, heading, items,
	// equation, styled); the supplement for ElemRef; the numerator
	// for ElemFrac; the radicand for ElemRoot; the base for
	// ElemAttach.
	Body *Content

	// Second child where one exists: denominator for ElemFrac, the
	// description for ElemTermItem.
	Tail *Content

	// Attachments for ElemAttach.
	Top, Bottom *Content

	// Heading level, enum number (0 = automatic), root degree
	// (0 = square).
	Level int

	// Display flag for ElemEquation (block vs inline); the double
	// flag for ElemSmartQuote.
	Block bool

	// Styles wrapped around Body for ElemStyled.
	Styles *StyleMap

	// Properties set by the element's constructor function.
	Fields *Dict
}

func (*Content) Kind() Kind { return KindContent }
func (*Content) sealed()    {}

// Empty is the canonical empty content: an empty sequence.
func Empty() *Content {
	return &Content{Elem: ElemSequence}
}

// TextElem creates a text element.
func TextElem(text string) *Content {
	return &Content{Elem: ElemText, Text: text}
}

// Sequence joins children into one node. A single child is returned
// unchanged and nested sequences are flattened.
func Sequence(children ...*Content) *Content {
	flat := make([]*Content, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.Elem == ElemSequence && c.Label == "" {
			flat = append(flat, c.Children...)
		} else {
			flat = append(flat, c)
		}
	}
	if len(flat) == 1 {
		return flat[0]
	}
	return &Content{Elem: ElemSequence, Children: flat}
}

// Unlabellable reports whether a label joined after this element
// should skip it. Whitespace-like elements never carry labels.
func (c *Content) Unlabellable() bool {
	switch c.Elem {
	case ElemSpace, ElemLinebreak, ElemParbreak:
		return true
	}
	return false
}

// WithLabel returns a copy carrying the label.
func (c *Content) WithLabel(label Label) *Content {
	out := *c
	out.Label = label
	return &out
}

// IsEmpty reports whether the content is an empty sequence.
func (c *Content) IsEmpty() bool {
	return c.Elem == ElemSequence && len(c.Children) == 0 && c.Label == ""
}

// StyledWithMap wraps the content in an outer style map. An empty map
// is a no-op. Wrapping an unlabelled styled node merges into its map
// instead of nesting; the outer entries stay weaker than the inner
// node's own.
func (c *Content) StyledWithMap(styles *StyleMap) *Content {
	if styles == nil || styles.Len() == 0 {
		return c
	}
	if c.Elem == ElemStyled && c.Label == "" {
		merged := styles.Clone()
		merged.Apply(c.Styles)
		return &Content{Elem: ElemStyled, Span: c.Span, Body: c.Body, Styles: merged}
	}
	return &Content{Elem: ElemStyled, Span: c.Span, Body: c, Styles: styles}
}

// Repr renders the node for debugging and the REPL.
func (c *Content) Repr() string {
	var b strings.Builder
	c.repr(&b)
	return b.String()
}

func (c *Content) repr(b *strings.Builder) {
	if c.Label != "" {
		b.WriteString(string(c.Elem))
		b.WriteString("<")
		b.WriteString(string(c.Label))
		b.WriteString(">")
	} else {
		b.WriteString(string(c.Elem))
	}
	switch c.Elem {
	case ElemText:
		b.WriteString("(")
		b.WriteString(Str(c.Text).Repr())
		b.WriteString(")")
	case ElemSequence:
		b.WriteString("(")
		for i, child := range c.Children {
			if i > 0 {
				b.WriteString(", ")
			}
			child.repr(b)
		}
		b.WriteString(")")
	default:
		if c.Body != nil {
			b.WriteString("(")
			c.Body.repr(b)
			if c.Tail != nil {
				b.WriteString(", ")
				c.Tail.repr(b)
			}
			b.WriteString(")")
		}
	}
}

// PlainText extracts the concatenated text of the tree, with spaces
// for whitespace elements. Used by tests and trace output.
func (c *Content) PlainText() string {
	var b strings.Builder
	c.plainText(&b)
	return b.String()
}

func (c *Content) plainText(b *strings.Builder) {
	switch c.Elem {
	case ElemText:
		b.WriteString(c.Text)
	case ElemSpace:
		b.WriteString(" ")
	case ElemLinebreak, ElemParbreak:
		b.WriteString("\n")
	default:
		if c.Body != nil {
			c.Body.plainText(b)
		}
		if c.Tail != nil {
			c.Tail.plainText(b)
		}
		for _, child := range c.Children {
			child.plainText(b)
		}
	}
}
