package world

import "github.com/vellum-lang/vellum/pkg/syntax"

// Route tracks the chain of sources currently being evaluated. Each
// import pushes a new link; the chain is walked to detect cycles and
// to bound recursion depth. Routes are immutable: Push returns a new
// route sharing the tail.
type Route struct {
	prev *Route
	id   syntax.FileID
}

// NewRoute starts a route at the given entry source.
func NewRoute(id syntax.FileID) *Route {
	return &Route{id: id}
}

// Push returns the route extended with another source.
func (r *Route) Push(id syntax.FileID) *Route {
	return &Route{prev: r, id: id}
}

// Contains reports whether the source is already on the route.
func (r *Route) Contains(id syntax.FileID) bool {
	for link := r; link != nil; link = link.prev {
		if link.id == id {
			return true
		}
	}
	return false
}

// Depth returns the number of sources on the route.
func (r *Route) Depth() int {
	n := 0
	for link := r; link != nil; link = link.prev {
		n++
	}
	return n
}
