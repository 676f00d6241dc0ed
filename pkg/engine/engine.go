// Package engine holds the per-evaluation context threaded through the
// compiler and VM: the world, the import route, resource limits, the
// logger, and collected warnings. An Engine is single-threaded; run
// concurrent evaluations on separate engines.
package engine

import (
	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/vellum-lang/vellum/config"
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/world"
)

// Engine is the evaluation context.
type Engine struct {
	World world.World
	Route *world.Route
	Log   commonlog.Logger

	// ID distinguishes interleaved evaluations in trace output.
	ID uuid.UUID

	MaxCallDepth  int
	MaxIterations int
	Trace         bool

	// iterations counts loop iterations across the whole evaluation.
	iterations int

	// depth is the current function call nesting.
	depth int

	warnings diag.List
}

// New creates an engine for one evaluation.
func New(w world.World, cfg config.Config) *Engine {
	e := &Engine{
		World:         w,
		Log:           commonlog.GetLogger("vellum.engine"),
		ID:            uuid.New(),
		MaxCallDepth:  cfg.MaxCallDepth,
		MaxIterations: cfg.MaxIterations,
		Trace:         cfg.Trace,
	}
	if main := w.Main(); main != nil {
		e.Route = world.NewRoute(main.ID)
	}
	return e
}

// Warn records a warning. Warnings never abort evaluation.
func (e *Engine) Warn(d *diag.Diagnostic) {
	d.Kind = diag.Warning
	e.warnings = append(e.warnings, d)
}

// Warnings returns every warning collected so far.
func (e *Engine) Warnings() diag.List {
	return e.warnings
}

// EnterCall records one level of function call nesting. The matching
// ExitCall must run when the call finishes.
func (e *Engine) EnterCall(span syntax.Span) error {
	e.depth++
	if e.depth > e.MaxCallDepth {
		return diag.New(diag.RecursionError, span,
			"maximum function call depth exceeded")
	}
	return nil
}

// ExitCall undoes one EnterCall.
func (e *Engine) ExitCall() {
	e.depth--
}

// TickIteration counts one loop iteration against the evaluation-wide
// bound. Returns false when the bound is exhausted.
func (e *Engine) TickIteration() bool {
	e.iterations++
	return e.iterations <= e.MaxIterations
}
