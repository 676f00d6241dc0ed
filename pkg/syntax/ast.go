// Package syntax defines spans, sources, and the AST contract with the
// external parser. The parser delivers documents as CBOR (or constructs
// them programmatically in tests); every node is an Expr with a kind
// discriminator plus the fields that kind uses.
package syntax

// ExprKind discriminates AST nodes.
type ExprKind string

const (
	// Literals
	KindNone  ExprKind = "none"
	KindAuto  ExprKind = "auto"
	KindBool  ExprKind = "bool"
	KindInt   ExprKind = "int"
	KindFloat ExprKind = "float"
	KindStr   ExprKind = "str"
	KindLabel ExprKind = "label"

	// Code expressions
	KindIdent       ExprKind = "ident"
	KindCode        ExprKind = "code"    // { ... } code block
	KindContent     ExprKind = "content" // [ ... ] content block
	KindParens      ExprKind = "parens"
	KindArray       ExprKind = "array"
	KindDict        ExprKind = "dict"
	KindUnary       ExprKind = "unary"
	KindBinary      ExprKind = "binary"
	KindFieldAccess ExprKind = "field"
	KindFuncCall    ExprKind = "call"
	KindClosure     ExprKind = "closure"
	KindLet         ExprKind = "let"
	KindSet         ExprKind = "set"
	KindShow        ExprKind = "show"
	KindConditional ExprKind = "conditional"
	KindWhile       ExprKind = "while"
	KindFor         ExprKind = "for"
	KindBreak       ExprKind = "break"
	KindContinue    ExprKind = "continue"
	KindReturn      ExprKind = "return"
	KindImport      ExprKind = "import"
	KindInclude     ExprKind = "include"

	// Markup
	KindMarkup     ExprKind = "markup"
	KindText       ExprKind = "text"
	KindSpace      ExprKind = "space"
	KindLinebreak  ExprKind = "linebreak"
	KindParbreak   ExprKind = "parbreak"
	KindSmartQuote ExprKind = "smartquote"
	KindStrong     ExprKind = "strong"
	KindEmph       ExprKind = "emph"
	KindHeading    ExprKind = "heading"
	KindListItem   ExprKind = "list-item"
	KindEnumItem   ExprKind = "enum-item"
	KindTermItem   ExprKind = "term-item"
	KindRef        ExprKind = "ref"
	KindEquation   ExprKind = "equation"

	// Math
	KindMath          ExprKind = "math"
	KindMathFrac      ExprKind = "math-frac"
	KindMathRoot      ExprKind = "math-root"
	KindMathAttach    ExprKind = "math-attach"
	KindMathDelimited ExprKind = "math-delimited"
)

// BinOp names for Expr.Op on KindBinary nodes. Assignment and compound
// assignment are binary operators, matching the parser's grammar.
const (
	OpAdd   = "+"
	OpSub   = "-"
	OpMul   = "*"
	OpDiv   = "/"
	OpAnd   = "and"
	OpOr    = "or"
	OpEq    = "=="
	OpNeq   = "!="
	OpLt    = "<"
	OpLeq   = "<="
	OpGt    = ">"
	OpGeq   = ">="
	OpIn    = "in"
	OpNotIn = "not in"

	OpAssign    = "="
	OpAddAssign = "+="
	OpSubAssign = "-="
	OpMulAssign = "*="
	OpDivAssign = "/="

	// Unary
	OpPos = "+u"
	OpNeg = "-u"
	OpNot = "not"
)

// Expr is one AST node. Which fields are populated depends on Kind;
// unused fields are zero and omitted on the wire.
type Expr struct {
	Kind ExprKind `json:"kind"`
	Span Span     `json:"span,omitempty"`

	// Literal payloads. Str doubles as the identifier name for
	// KindIdent, the text for KindText, the label name for KindLabel
	// and KindRef, the field name for KindFieldAccess, the closure
	// name for KindClosure, and the new binding name for KindImport.
	// Bool doubles as the block-display flag for KindEquation and the
	// double flag for KindSmartQuote.
	Int   int64   `json:"int,omitempty"`
	Float float64 `json:"float,omitempty"`
	Str   string  `json:"str,omitempty"`
	Bool  bool    `json:"bool,omitempty"`

	// Operators: KindUnary uses Op+Rhs, KindBinary uses Op+Lhs+Rhs.
	// Lhs doubles as the access target for KindFieldAccess, the source
	// expression for KindImport/KindInclude, the optional selector for
	// KindShow, the term for KindTermItem, the top attachment for
	// KindMathAttach, the degree for KindMathRoot, and the opening
	// delimiter for KindMathDelimited. Rhs likewise carries the bottom
	// attachment, the radicand, and the closing delimiter.
	Op  string `json:"op,omitempty"`
	Lhs *Expr  `json:"lhs,omitempty"`
	Rhs *Expr  `json:"rhs,omitempty"`

	// Conditionals and loops. Body doubles as the closure body, the
	// show transform, the strong/emph/heading/list-item body, the ref
	// supplement, the return value, the attach base, and the equation
	// body.
	Cond *Expr `json:"cond,omitempty"`
	Then *Expr `json:"then,omitempty"`
	Else *Expr `json:"else,omitempty"`
	Body *Expr `json:"body,omitempty"`

	// Bindings: KindLet uses Pattern+Init, KindFor uses
	// Pattern+Iter+Body. A KindBinary "=" node with Pattern set is a
	// destructuring assignment into existing variables.
	Pattern *Pattern `json:"pattern,omitempty"`
	Init    *Expr    `json:"init,omitempty"`
	Iter    *Expr    `json:"iter,omitempty"`

	// Calls: KindFuncCall and KindSet use Callee+Args. Args doubles as
	// the item list for KindDict, and for KindArray when the literal
	// contains spreads.
	Callee *Expr `json:"callee,omitempty"`
	Args   []Arg `json:"args,omitempty"`

	// KindClosure parameters.
	Params []Param `json:"params,omitempty"`

	// Sequence children: code block exprs, markup children, array
	// items, math sequence parts, delimited math parts.
	Exprs []*Expr `json:"exprs,omitempty"`

	// KindHeading level (1-based); KindEnumItem explicit number
	// (0 means automatic).
	Level int `json:"level,omitempty"`

	// KindImport item list and wildcard flag.
	Items    []ImportItem `json:"items,omitempty"`
	Wildcard bool         `json:"wildcard,omitempty"`
}

// Arg is a call argument, a dict item, or a spread.
type Arg struct {
	Name   string `json:"name,omitempty"` // named argument or dict key
	Spread bool   `json:"spread,omitempty"`
	Span   Span   `json:"span,omitempty"`
	Value  *Expr  `json:"value"`
}

// Param is a closure parameter. Exactly one of the three shapes
// applies: positional (no default, not sink), named (Default set),
// or sink (Sink set, at most one per closure).
type Param struct {
	Name    string `json:"name"`
	Span    Span   `json:"span,omitempty"`
	Default *Expr  `json:"default,omitempty"`
	Sink    bool   `json:"sink,omitempty"`
}

// ImportItem is one entry of an import item list. Path is the chain of
// field names from the module root; Rename is the binding name when the
// item is imported "as" something else.
type ImportItem struct {
	Path   []string `json:"path"`
	Rename string   `json:"rename,omitempty"`
	Span   Span     `json:"span,omitempty"`
}

// BoundName returns the name the item binds in the importing scope.
func (it ImportItem) BoundName() string {
	if it.Rename != "" {
		return it.Rename
	}
	return it.Path[len(it.Path)-1]
}

// PatternKind discriminates destructuring patterns.
type PatternKind string

const (
	PatIdent       PatternKind = "ident"
	PatPlaceholder PatternKind = "placeholder"
	PatTuple       PatternKind = "tuple"
	PatDict        PatternKind = "dict"
)

// Pattern is a destructuring template used by let, for, and
// destructuring assignment.
type Pattern struct {
	Kind  PatternKind   `json:"kind"`
	Span  Span          `json:"span,omitempty"`
	Name  string        `json:"name,omitempty"` // PatIdent binding name
	Items []PatternItem `json:"items,omitempty"`
}

// PatternItemKind discriminates entries of a tuple or dict pattern.
type PatternItemKind string

const (
	PatItemPos    PatternItemKind = "pos"
	PatItemNamed  PatternItemKind = "named"
	PatItemSpread PatternItemKind = "spread"
)

// PatternItem is one entry of a tuple or dict pattern. A spread with an
// empty Pattern discards the spread values.
type PatternItem struct {
	Kind    PatternItemKind `json:"kind"`
	Span    Span            `json:"span,omitempty"`
	Name    string          `json:"name,omitempty"` // dict key for PatItemNamed
	Pattern *Pattern        `json:"pattern,omitempty"`
}

// Names collects every binding name the pattern introduces, in source
// order.
func (p *Pattern) Names() []string {
	var names []string
	p.collectNames(&names)
	return names
}

func (p *Pattern) collectNames(names *[]string) {
	if p == nil {
		return
	}
	switch p.Kind {
	case PatIdent:
		*names = append(*names, p.Name)
	case PatTuple, PatDict:
		for _, item := range p.Items {
			item.Pattern.collectNames(names)
		}
	}
}
