package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/engine"
	"github.com/vellum-lang/vellum/pkg/library"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
	"github.com/vellum-lang/vellum/pkg/world"
)

// Eval compiles and runs a source, producing its module. The result
// depends only on the world, the route, and the source, which is what
// makes module evaluation cacheable.
func Eval(e *engine.Engine, lib *library.Library, src *syntax.Source) (*value.Module, error) {
	if e.Route == nil {
		e.Route = world.NewRoute(src.ID)
	}
	cm, err := Compile(e, lib, src)
	if err != nil {
		return nil, err
	}
	return Run(e, lib, cm, moduleName(src.Path))
}

// Run executes a compiled module: the top-level code runs once, the
// exported registers become the module's scope, and the joined result
// becomes its content.
func Run(e *engine.Engine, lib *library.Library, cm *CompiledModule, name string) (*value.Module, error) {
	m := newMachine(e, lib, cm.Code)
	res, err := m.runRoot()
	if err != nil {
		return nil, err
	}

	scope := value.NewScope()
	for _, exp := range cm.Code.Exports {
		v := m.registers[exp.Reg]
		if v == nil {
			v = value.None{}
		}
		scope.Define(exp.Name, v)
	}
	return &value.Module{
		Name:    name,
		Scope:   scope,
		Content: value.ToContent(res.value),
	}, nil
}

// evalImport resolves and evaluates a module by path, guarding
// against cyclic imports and unbounded import depth. The route is
// extended for the duration of the nested evaluation only.
func evalImport(e *engine.Engine, lib *library.Library, span syntax.Span, path string) (*value.Module, error) {
	src, err := e.World.Source(path)
	if err != nil {
		return nil, diag.New(diag.RuntimeError, span, "%s", err.Error())
	}
	if e.Route.Contains(src.ID) {
		return nil, diag.New(diag.RecursionError, span,
			"cyclic import of %q", path)
	}
	if e.Route.Depth() >= e.MaxCallDepth {
		return nil, diag.New(diag.RecursionError, span,
			"maximum import depth exceeded")
	}
	saved := e.Route
	e.Route = saved.Push(src.ID)
	defer func() { e.Route = saved }()
	return Eval(e, lib, src)
}
