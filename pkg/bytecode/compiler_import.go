package bytecode

import (
	"github.com/vellum-lang/vellum/pkg/diag"
	"github.com/vellum-lang/vellum/pkg/syntax"
	"github.com/vellum-lang/vellum/pkg/value"
)

// compileImport lowers an import. Imports with a string-literal source
// are evaluated during compilation: the module becomes a constant, its
// items resolve to constants, and a missing item is a compile error.
// Dynamic sources defer to the VM and forgo wildcard imports.
func (c *compiler) compileImport(expr *syntax.Expr) error {
	source := expr.Lhs
	if source.Kind == syntax.KindStr {
		return c.compileStaticImport(expr, source.Str)
	}

	if expr.Wildcard {
		return diag.New(diag.CompileError, expr.Span,
			"wildcard imports require a known path").
			WithHint("import from a string literal instead")
	}

	r, err := c.compileExpr(source)
	if err != nil {
		return err
	}

	if len(expr.Items) > 0 {
		tmp, err := c.registers.allocate(expr.Span)
		if err != nil {
			c.free(r)
			return err
		}
		c.emit(expr.Span, Instruction{Op: OpImport, A: uint32(r), Out: RegWrite(tmp)})
		c.free(r)
		for _, item := range expr.Items {
			if err := c.compileImportItem(tmp, item); err != nil {
				c.registers.free(tmp)
				return err
			}
		}
		c.registers.free(tmp)
		return nil
	}

	name := expr.Str
	if name == "" {
		c.free(r)
		return diag.New(diag.CompileError, expr.Span,
			"dynamic imports require a new name").
			WithHint("write \"import <expr> as name\"")
	}
	reg, err := c.declare(expr.Span, name)
	if err != nil {
		c.free(r)
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpImport, A: uint32(r), Out: RegWrite(reg)})
	c.free(r)
	return nil
}

// compileImportItem walks one item path off the module in register
// mod, binding the result to the item's name.
func (c *compiler) compileImportItem(mod Register, item syntax.ImportItem) error {
	c.warnRedundantRename(item)
	cur := RegRead(mod)
	for i, field := range item.Path {
		reg, err := c.allocImportStep(item, i)
		if err != nil {
			return err
		}
		c.emit(item.Span, Instruction{
			Op: OpField, A: uint32(cur), B: uint32(c.addString(field)),
			Out: RegWrite(reg),
		})
		if i > 0 {
			c.registers.free(cur.Reg())
		}
		cur = RegRead(reg)
	}
	return nil
}

// allocImportStep claims the register for one path step: intermediate
// steps are temporaries, the final step is the item's binding.
func (c *compiler) allocImportStep(item syntax.ImportItem, i int) (Register, error) {
	if i == len(item.Path)-1 {
		return c.declare(item.Span, item.BoundName())
	}
	return c.registers.allocate(item.Span)
}

func (c *compiler) compileStaticImport(expr *syntax.Expr, path string) error {
	if c.imported != nil {
		if prev, ok := c.imported[path]; ok && !expr.Wildcard && len(expr.Items) == 0 {
			c.eng.Warn(diag.New(diag.Warning, expr.Span,
				"file was already imported at %s", prev))
		}
		c.imported[path] = expr.Span
	}

	mod, err := evalImport(c.eng, c.lib, expr.Span, path)
	if err != nil {
		return err
	}

	switch {
	case expr.Wildcard:
		for _, name := range mod.Scope.Names() {
			v, _ := mod.Scope.Get(name)
			c.declareConst(expr.Span, name, c.addConst(v))
		}
	case len(expr.Items) > 0:
		for _, item := range expr.Items {
			c.warnRedundantRename(item)
			v := value.Value(mod)
			for _, field := range item.Path {
				v, err = value.Field(item.Span, v, field)
				if err != nil {
					return diag.New(diag.CompileError, item.Span,
						"%s", err.Error())
				}
			}
			c.declareConst(item.Span, item.BoundName(), c.addConst(v))
		}
	default:
		name := expr.Str
		if name == "" {
			name = moduleName(path)
		}
		c.declareConst(expr.Span, name, c.addConst(mod))
	}
	return nil
}

// compileInclude lowers an include, which evaluates the target module
// and produces its content.
func (c *compiler) compileInclude(expr *syntax.Expr, out Writable) error {
	r, err := c.compileExpr(expr.Lhs)
	if err != nil {
		return err
	}
	c.emit(expr.Span, Instruction{Op: OpInclude, A: uint32(r), Out: out})
	c.free(r)
	return nil
}

func (c *compiler) warnRedundantRename(item syntax.ImportItem) {
	if item.Rename != "" && item.Rename == item.Path[len(item.Path)-1] {
		c.eng.Warn(diag.New(diag.Warning, item.Span,
			"unnecessary rename to %s", item.Rename))
	}
}
