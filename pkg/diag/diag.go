// Package diag defines the diagnostics carried by every fallible engine
// operation: an error kind, a source span, a message, and optional hints.
package diag

import (
	"fmt"
	"strings"

	"github.com/vellum-lang/vellum/pkg/syntax"
)

// Kind classifies a diagnostic.
type Kind int

const (
	// CompileError covers illegal set/show placement, unknown
	// identifiers, malformed destructuring targets, and register
	// exhaustion.
	CompileError Kind = iota

	// RuntimeError covers missing fields or methods, failed casts,
	// and unmet arguments during execution.
	RuntimeError

	// RecursionError covers exceeded call depth and cyclic imports.
	// These abort the whole evaluation.
	RecursionError

	// ArgumentError covers unconsumed or missing call arguments.
	ArgumentError

	// Warning diagnostics are collected but never abort evaluation.
	Warning
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case CompileError:
		return "compile error"
	case RuntimeError:
		return "runtime error"
	case RecursionError:
		return "recursion error"
	case ArgumentError:
		return "argument error"
	case Warning:
		return "warning"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Diagnostic is one error or warning with a source span and hints.
type Diagnostic struct {
	Kind    Kind
	Span    syntax.Span
	Message string
	Hints   []string
}

// New creates a diagnostic with a formatted message.
func New(kind Kind, span syntax.Span, format string, args ...any) *Diagnostic {
	return &Diagnostic{
		Kind:    kind,
		Span:    span,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithHint appends a hint and returns the diagnostic for chaining.
func (d *Diagnostic) WithHint(format string, args ...any) *Diagnostic {
	d.Hints = append(d.Hints, fmt.Sprintf(format, args...))
	return d
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Kind.String())
	if !d.Span.Detached() {
		b.WriteString(" at ")
		b.WriteString(d.Span.String())
	}
	b.WriteString(": ")
	b.WriteString(d.Message)
	for _, h := range d.Hints {
		b.WriteString("\n  hint: ")
		b.WriteString(h)
	}
	return b.String()
}

// List aggregates independent diagnostics, e.g. every bad named
// argument of one call, so callers see them all at once.
type List []*Diagnostic

// Error implements the error interface.
func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no diagnostics"
	case 1:
		return l[0].Error()
	}
	msgs := make([]string, len(l))
	for i, d := range l {
		msgs[i] = d.Error()
	}
	return fmt.Sprintf("%d errors:\n%s", len(l), strings.Join(msgs, "\n"))
}

// Err returns the list as an error, or nil if it is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	if len(l) == 1 {
		return l[0]
	}
	return l
}

// KindOf extracts the kind of an error produced by this package.
// Lists report the kind of their first entry. Foreign errors report
// RuntimeError.
func KindOf(err error) Kind {
	switch e := err.(type) {
	case *Diagnostic:
		return e.Kind
	case List:
		if len(e) > 0 {
			return e[0].Kind
		}
	}
	return RuntimeError
}
