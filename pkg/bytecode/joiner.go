package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// joiner merges the sequential results of one block into a single
// value. Style and recipe wrapping is deferred: a set or show rule
// opens a new frame that accumulates the siblings after it, and only
// collect wraps each completed frame in its styles. This applies one
// wrapper per run of siblings instead of re-wrapping every child.
//
// The state is algebraic: a scalar accumulator, a display sequence,
// or a Styled/Recipe frame remembering its parent.
type joiner struct {
	display bool
	state   joinState
}

type joinState interface {
	isJoinState()
}

// joinScalar accumulates non-display values with the generic join.
type joinScalar struct {
	val value.Value
}

// joinDisplay accumulates values as document content.
type joinDisplay struct {
	seq []*value.Content
}

// joinStyled accumulates siblings after a set rule.
type joinStyled struct {
	parent joinState
	seq    []*value.Content
	styles *value.StyleMap
}

// joinRecipe accumulates siblings after a show rule.
type joinRecipe struct {
	parent joinState
	seq    []*value.Content
	recipe *value.Recipe
}

func (*joinScalar) isJoinState()  {}
func (*joinDisplay) isJoinState() {}
func (*joinStyled) isJoinState()  {}
func (*joinRecipe) isJoinState()  {}

// newJoiner creates an empty joiner.
func newJoiner(display bool) *joiner {
	j := &joiner{display: display}
	if display {
		j.state = &joinDisplay{}
	} else {
		j.state = &joinScalar{val: value.None{}}
	}
	return j
}

// join merges the next sequential value in. None is ignored. A label
// relabels the last non-ignorable element instead of being appended.
func (j *joiner) join(span syntax.Span, v value.Value) error {
	if _, ok := v.(value.None); ok {
		return nil
	}
	if label, ok := v.(value.Label); ok {
		return j.attachLabel(span, label)
	}

	switch s := j.state.(type) {
	case *joinScalar:
		// Content arriving in a scalar block switches to display
		// accumulation, keeping prior string results as text.
		if c, ok := v.(*value.Content); ok {
			if _, none := s.val.(value.None); !none {
				prior := value.Display(s.val)
				j.state = &joinDisplay{seq: []*value.Content{prior, c}}
			} else {
				j.state = &joinDisplay{seq: []*value.Content{c}}
			}
			return nil
		}
		joined, err := value.Join(span, s.val, v)
		if err != nil {
			return err
		}
		s.val = joined
		return nil
	case *joinDisplay:
		s.seq = append(s.seq, value.Display(v))
		return nil
	case *joinStyled:
		s.seq = append(s.seq, value.Display(v))
		return nil
	case *joinRecipe:
		s.seq = append(s.seq, value.Display(v))
		return nil
	}
	return diag.New(diag.RuntimeError, span, "joiner in impossible state")
}

func (j *joiner) attachLabel(span syntax.Span, label value.Label) error {
	relabel := func(seq []*value.Content) bool {
		for i := len(seq) - 1; i >= 0; i-- {
			if !seq[i].Unlabellable() {
				seq[i] = seq[i].WithLabel(label)
				return true
			}
		}
		return false
	}
	switch s := j.state.(type) {
	case *joinScalar:
		if c, ok := s.val.(*value.Content); ok {
			s.val = c.WithLabel(label)
			return nil
		}
	case *joinDisplay:
		if relabel(s.seq) {
			return nil
		}
	case *joinStyled:
		if relabel(s.seq) {
			return nil
		}
	case *joinRecipe:
		if relabel(s.seq) {
			return nil
		}
	}
	return diag.New(diag.RuntimeError, span,
		"label %s must follow content", label.Repr())
}

// styled opens (or extends) a Styled frame. Consecutive set rules
// with nothing between them merge into one frame rather than nesting.
func (j *joiner) styled(styles *value.StyleMap) {
	if s, ok := j.state.(*joinStyled); ok && len(s.seq) == 0 {
		s.styles.Apply(styles)
		return
	}
	j.state = &joinStyled{parent: j.state, styles: styles.Clone()}
}

// recipe opens a Recipe frame for a show rule.
func (j *joiner) recipe(r *value.Recipe) {
	j.state = &joinRecipe{parent: j.state, recipe: r}
}

// collect resolves frames innermost to outermost, wrapping each
// completed inner sequence in its styles or recipe before handing it
// to the parent, and yields the block's single output value.
func (j *joiner) collect(e *engine.Engine, span syntax.Span) (value.Value, error) {
	st := j.state
	for {
		switch s := st.(type) {
		case *joinScalar:
			return s.val, nil
		case *joinDisplay:
			return value.Sequence(s.seq...), nil
		case *joinStyled:
			wrapped := value.Sequence(s.seq...).StyledWithMap(s.styles)
			parent, err := pushContent(span, s.parent, wrapped)
			if err != nil {
				return nil, err
			}
			st = parent
		case *joinRecipe:
			wrapped, err := value.Sequence(s.seq...).StyledWithRecipe(e, s.recipe)
			if err != nil {
				return nil, err
			}
			parent, err := pushContent(span, s.parent, wrapped)
			if err != nil {
				return nil, err
			}
			st = parent
		default:
			return nil, diag.New(diag.RuntimeError, span, "joiner in impossible state")
		}
	}
}

// pushContent appends resolved content to a parent frame.
func pushContent(span syntax.Span, st joinState, c *value.Content) (joinState, error) {
	if c.IsEmpty() {
		return st, nil
	}
	switch s := st.(type) {
	case *joinScalar:
		joined, err := value.Join(span, s.val, c)
		if err != nil {
			return nil, err
		}
		s.val = joined
		return s, nil
	case *joinDisplay:
		s.seq = append(s.seq, c)
		return s, nil
	case *joinStyled:
		s.seq = append(s.seq, c)
		return s, nil
	case *joinRecipe:
		s.seq = append(s.seq, c)
		return s, nil
	}
	return nil, diag.New(diag.RuntimeError, span, "joiner in impossible state")
}
