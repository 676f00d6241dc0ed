package value

import (
	"strings"

	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/syntax"
)

// Style is one entry of a style map: a property override, a show-rule
// recipe, or a barrier. The set of implementations is closed.
type Style interface {
	isStyle()
}

// Property is a set-rule entry: one field override for one element
// kind. A scoped property applies to the element it targets but stops
// cascading past a second barrier for that kind.
type Property struct {
	Elem   ElemKind
	Name   string
	Value  Value
	Scoped bool
	Span   syntax.Span
}

func (*Property) isStyle() {}

// Recipe is a show-rule entry. Elem selects which elements it applies
// to; an empty Elem with an empty SelLabel selects everything, which
// applies the transform eagerly when the rule is attached. Transform
// is Content (replace), *Func (call with the matched element), or
// *StyleMap (style the matched element).
type Recipe struct {
	Span      syntax.Span
	Elem      ElemKind
	SelLabel  Label
	Transform Value
}

func (*Recipe) isStyle() {}

// Selects reports whether the recipe applies to the element.
func (r *Recipe) Selects(c *Content) bool {
	if r.SelLabel != "" {
		return c.Label == r.SelLabel
	}
	if r.Elem != "" {
		return c.Elem == r.Elem
	}
	return true
}

// Unconditional reports whether the recipe has no selector at all.
func (r *Recipe) Unconditional() bool {
	return r.Elem == "" && r.SelLabel == ""
}

// Apply runs the recipe's transform on a piece of content.
func (r *Recipe) Apply(e *engine.Engine, c *Content) (*Content, error) {
	switch t := r.Transform.(type) {
	case *Content:
		return t, nil
	case *StyleMap:
		return c.StyledWithMap(t), nil
	case *Func:
		args := NewArgs(r.Span)
		args.Push(r.Span, c)
		out, err := t.Call(e, args)
		if err != nil {
			return nil, err
		}
		return ToContent(out), nil
	default:
		return nil, diag.New(diag.RuntimeError, r.Span,
			"expected content, function, or styles as show rule transform, found %s",
			r.Transform.Kind())
	}
}

// Barrier limits the visibility of scoped properties: a scoped
// property for element kind T stops cascading once a second
// Barrier(T) lies between it and the resolving element.
type Barrier struct {
	Elem ElemKind
}

func (Barrier) isStyle() {}

// StyleMap is an ordered list of style entries. Later entries are
// stronger than earlier ones.
type StyleMap struct {
	styles []Style
}

func (*StyleMap) Kind() Kind { return KindStyles }
func (m *StyleMap) Repr() string {
	var b strings.Builder
	b.WriteString("styles(")
	for i, s := range m.styles {
		if i > 0 {
			b.WriteString(", ")
		}
		switch s := s.(type) {
		case *Property:
			b.WriteString(string(s.Elem))
			b.WriteString(".")
			b.WriteString(s.Name)
		case *Recipe:
			b.WriteString("show")
			if s.Elem != "" {
				b.WriteString(" ")
				b.WriteString(string(s.Elem))
			}
		case Barrier:
			b.WriteString("barrier(")
			b.WriteString(string(s.Elem))
			b.WriteString(")")
		}
	}
	b.WriteString(")")
	return b.String()
}
func (*StyleMap) sealed() {}

// NewStyleMap creates a style map from entries.
func NewStyleMap(styles ...Style) *StyleMap {
	return &StyleMap{styles: styles}
}

// Set appends a property.
func (m *StyleMap) Set(p *Property) {
	m.styles = append(m.styles, p)
}

// AddRecipe appends a recipe.
func (m *StyleMap) AddRecipe(r *Recipe) {
	m.styles = append(m.styles, r)
}

// Apply merges another map's entries in as stronger than m's own.
func (m *StyleMap) Apply(other *StyleMap) {
	if other != nil {
		m.styles = append(m.styles, other.styles...)
	}
}

// Clone returns an independent copy.
func (m *StyleMap) Clone() *StyleMap {
	if m == nil {
		return NewStyleMap()
	}
	out := &StyleMap{styles: make([]Style, len(m.styles))}
	copy(out.styles, m.styles)
	return out
}

// Scoped returns a copy with every property marked scoped, which is
// how a show-set rule limits its properties to the matched elements.
func (m *StyleMap) Scoped() *StyleMap {
	out := NewStyleMap()
	for _, s := range m.Entries() {
		if p, ok := s.(*Property); ok {
			scoped := *p
			scoped.Scoped = true
			out.styles = append(out.styles, &scoped)
		} else {
			out.styles = append(out.styles, s)
		}
	}
	return out
}

// Len returns the number of entries.
func (m *StyleMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.styles)
}

// Entries returns the entries, weakest first.
func (m *StyleMap) Entries() []Style {
	if m == nil {
		return nil
	}
	return m.styles
}

// StyleChain is a persistent chain of style maps. Extending a chain is
// O(1) and never copies or mutates existing links; two extensions of
// the same chain share their tail.
type StyleChain struct {
	head *StyleMap
	tail *StyleChain
}

// NewStyleChain starts a chain from one map. A nil map yields an
// empty chain.
func NewStyleChain(m *StyleMap) *StyleChain {
	return &StyleChain{head: m}
}

// Chain returns the chain extended with a map as its new innermost
// link.
func (c *StyleChain) Chain(m *StyleMap) *StyleChain {
	if m == nil || m.Len() == 0 {
		return c
	}
	return &StyleChain{head: m, tail: c}
}

// ChainBarrier returns the chain extended with a barrier for an
// element kind. The barrier is skipped when no link in the chain has
// a scoped property for that kind, keeping chains short.
func (c *StyleChain) ChainBarrier(elem ElemKind) *StyleChain {
	if !c.hasScoped(elem) {
		return c
	}
	return &StyleChain{head: NewStyleMap(Barrier{Elem: elem}), tail: c}
}

func (c *StyleChain) hasScoped(elem ElemKind) bool {
	for link := c; link != nil; link = link.tail {
		for _, s := range link.head.Entries() {
			if p, ok := s.(*Property); ok && p.Scoped && p.Elem == elem {
				return true
			}
		}
	}
	return false
}

// visit walks entries innermost-first, tracking how many barriers for
// the resolved element kind have been crossed. The callback returns
// false to stop the walk.
func (c *StyleChain) visit(elem ElemKind, f func(s Style, barriers int) bool) {
	barriers := 0
	for link := c; link != nil; link = link.tail {
		entries := link.head.Entries()
		for i := len(entries) - 1; i >= 0; i-- {
			if b, ok := entries[i].(Barrier); ok {
				if b.Elem == elem {
					barriers++
				}
				continue
			}
			if !f(entries[i], barriers) {
				return
			}
		}
	}
}

// Get resolves a property innermost-first and returns the first
// visible match. Scoped properties are visible through at most one
// barrier for their element kind.
func (c *StyleChain) Get(elem ElemKind, name string) (Value, bool) {
	var out Value
	c.visit(elem, func(s Style, barriers int) bool {
		p, ok := s.(*Property)
		if !ok || p.Elem != elem || p.Name != name {
			return true
		}
		if p.Scoped && barriers > 1 {
			return true
		}
		out = p.Value
		return false
	})
	return out, out != nil
}

// GetAll returns every visible match for a property, innermost-first.
func (c *StyleChain) GetAll(elem ElemKind, name string) []Value {
	var out []Value
	c.visit(elem, func(s Style, barriers int) bool {
		p, ok := s.(*Property)
		if ok && p.Elem == elem && p.Name == name && (!p.Scoped || barriers <= 1) {
			out = append(out, p.Value)
		}
		return true
	})
	return out
}

// Fold resolves a fold-requiring property: every visible match is
// folded outer-to-inner onto the base value.
func (c *StyleChain) Fold(elem ElemKind, name string, base Value, fold func(outer, inner Value) Value) Value {
	matches := c.GetAll(elem, name)
	out := base
	for i := len(matches) - 1; i >= 0; i-- {
		out = fold(out, matches[i])
	}
	return out
}

// Recipes returns every show-rule recipe in the chain, innermost-first.
func (c *StyleChain) Recipes() []*Recipe {
	var out []*Recipe
	c.visit("", func(s Style, _ int) bool {
		if r, ok := s.(*Recipe); ok {
			out = append(out, r)
		}
		return true
	})
	return out
}

// StyledWithRecipe attaches a show rule to content. An unconditional
// recipe transforms the content immediately; a selecting recipe is
// deferred by wrapping the content in a styled node for downstream
// realization.
func (c *Content) StyledWithRecipe(e *engine.Engine, r *Recipe) (*Content, error) {
	if r.Unconditional() {
		return r.Apply(e, c)
	}
	m := NewStyleMap()
	m.AddRecipe(r)
	return &Content{Elem: ElemStyled, Span: c.Span, Body: c, Styles: m}, nil
}
