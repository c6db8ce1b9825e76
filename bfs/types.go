// Package bfs provides tunable options and error definitions
// for breadth-first search over an integer-indexed multigraph.
package bfs

import (
	"errors"
)

// Sentinel errors for BFS execution.
var (
	// ErrStartVertexNotFound is returned when a start ID is absent.
	ErrStartVertexNotFound = errors.New("bfs: start vertex not found")

	// ErrGraphNil is returned if a nil graph is passed.
	ErrGraphNil = errors.New("bfs: graph is nil")
)

// Arc is one traversable direction of an edge, seen from the current vertex.
type Arc struct {
	// Edge identifies the underlying edge.
	Edge int

	// To is the vertex reached by following the arc.
	To int

	// Forward is true if the arc follows the edge from its tail to its head.
	Forward bool
}

// Graph is the minimal read-only view BFS needs.
type Graph interface {
	HasVertex(v int) bool
	Arcs(v int) []Arc
}

// Option configures BFS behavior via functional arguments.
type Option func(*BFSOptions)

// BFSOptions holds parameters to customize BFS execution.
type BFSOptions struct {
	// FilterArc can skip arcs by returning false.
	FilterArc func(curr int, a Arc) bool
}

// DefaultOptions returns a BFSOptions that admits every arc.
func DefaultOptions() BFSOptions {
	return BFSOptions{
		FilterArc: func(int, Arc) bool { return true },
	}
}

// WithFilterArc skips arcs when fn returns false.
func WithFilterArc(fn func(curr int, a Arc) bool) Option {
	return func(o *BFSOptions) {
		if fn != nil {
			o.FilterArc = fn
		}
	}
}

// BFSResult holds the outcome of a traversal.
//
//   - Order: vertices visited, in visit sequence.
//   - Depth: distance (in edges) from the root of the vertex's component.
//   - Parent: predecessor vertex in the BFS tree.
//   - ParentArc: the arc used to reach the vertex from its parent.
//   - Root: the root of the component every vertex belongs to.
//   - Roots: component roots in discovery order.
type BFSResult struct {
	Order     []int
	Depth     map[int]int
	Parent    map[int]int
	ParentArc map[int]Arc
	Root      map[int]int
	Roots     []int
}

func newResult(n int) *BFSResult {
	return &BFSResult{
		Order:     make([]int, 0, n),
		Depth:     make(map[int]int, n),
		Parent:    make(map[int]int, n),
		ParentArc: make(map[int]Arc, n),
		Root:      make(map[int]int, n),
	}
}

// EdgesToRoot returns the parent arcs on the tree path from v up to its root,
// starting at v. Each arc is oriented parent→child as it was traversed.
func (r *BFSResult) EdgesToRoot(v int) []Arc {
	var out []Arc
	for cur := v; ; {
		a, ok := r.ParentArc[cur]
		if !ok {
			return out
		}
		out = append(out, a)
		cur = r.Parent[cur]
	}
}
