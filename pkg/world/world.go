// Package world abstracts everything the engine reads from its host:
// source files resolved by import path. Worlds are read-only for the
// duration of one evaluation, which is what makes eval memoizable.
package world

import (
	"fmt"
	"sort"

	"github.com/vellum-lang/vellum/pkg/syntax"
)

// World resolves import paths to parsed sources.
type World interface {
	// Source returns the parsed source for an import path.
	Source(path string) (*syntax.Source, error)

	// Main returns the entry source of the evaluation.
	Main() *syntax.Source
}

// MemWorld is an in-memory World keyed by path. The first registered
// source is the main source unless SetMain overrides it.
type MemWorld struct {
	sources map[string]*syntax.Source
	main    string
	nextID  syntax.FileID
}

// NewMemWorld creates an empty in-memory world.
func NewMemWorld() *MemWorld {
	return &MemWorld{sources: make(map[string]*syntax.Source), nextID: 1}
}

// Add registers an AST under a path and returns the created source.
func (w *MemWorld) Add(path string, root *syntax.Expr) *syntax.Source {
	src := syntax.NewSource(w.nextID, path, root)
	w.nextID++
	w.sources[path] = src
	if w.main == "" {
		w.main = path
	}
	return src
}

// SetMain marks the given path as the entry source.
func (w *MemWorld) SetMain(path string) {
	w.main = path
}

// Source implements World.
func (w *MemWorld) Source(path string) (*syntax.Source, error) {
	src, ok := w.sources[path]
	if !ok {
		return nil, fmt.Errorf("file not found: %q", path)
	}
	return src, nil
}

// Main implements World.
func (w *MemWorld) Main() *syntax.Source {
	return w.sources[w.main]
}

// Paths returns every registered path in sorted order.
func (w *MemWorld) Paths() []string {
	paths := make([]string, 0, len(w.sources))
	for p := range w.sources {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}
