package world

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vellum-lang/vellum/pkg/syntax"
)

// DirWorld resolves import paths against a directory of CBOR-encoded
// source documents, as produced by the external parser. Sources are
// loaded lazily and cached; a DirWorld is safe for one evaluation at a
// time, like every World.
type DirWorld struct {
	root string
	main string

	mu      sync.Mutex
	sources map[string]*syntax.Source
	nextID  syntax.FileID
}

// OpenDir creates a world rooted at dir with the given main document.
// The main path is relative to dir and is loaded eagerly so that a
// missing entry file fails before any evaluation starts.
func OpenDir(dir, main string) (*DirWorld, error) {
	w := &DirWorld{
		root:    dir,
		main:    main,
		sources: make(map[string]*syntax.Source),
		nextID:  1,
	}
	if _, err := w.Source(main); err != nil {
		return nil, err
	}
	return w, nil
}

// Source implements World. Paths are interpreted relative to the
// world's root directory; escaping the root is rejected.
func (w *DirWorld) Source(path string) (*syntax.Source, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if src, ok := w.sources[path]; ok {
		return src, nil
	}

	full := filepath.Join(w.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(w.root, full)
	if err != nil || rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator) {
		return nil, fmt.Errorf("import path escapes the project root: %q", path)
	}

	data, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("file not found: %q", path)
	}
	src, err := syntax.DecodeSource(data)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", path, err)
	}
	src.ID = w.nextID
	src.Path = path
	w.nextID++
	w.sources[path] = src
	return src, nil
}

// Main implements World.
func (w *DirWorld) Main() *syntax.Source {
	src, err := w.Source(w.main)
	if err != nil {
		return nil
	}
	return src
}
