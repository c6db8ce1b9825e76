// Package dijkstra defines core types and configuration options
// for Dijkstra's shortest-path algorithm on weighted digraphs.
//
// Dijkstra computes the minimum-cost path from a single source vertex to all
// other reachable vertices in a graph with non-negative edge weights.
//
// Complexity:
//
//	– Time:  O((V + E) log V)
//	– Space: O(V + E)  (lazy decrease-key keeps up to E heap entries)
//
// Options:
//
//	– Source:           ID of the starting vertex (must be present in the graph).
//	– ReturnPath:       if true, return predecessor vertex and edge maps.
//
// Errors (sentinel):
//
//	– ErrEmptySource     if no source was given.
//	– ErrNilGraph        if the provided graph pointer is nil.
//	– ErrVertexNotFound  if the source vertex does not exist in the graph.
//	– ErrNegativeWeight  if a negative or NaN edge weight is detected.
package dijkstra

import (
	"errors"
)

// Sentinel errors returned by the Dijkstra implementation.
var (
	// ErrEmptySource indicates that no source vertex was configured.
	ErrEmptySource = errors.New("dijkstra: source vertex not set")

	// ErrNilGraph indicates that a nil *Graph was passed to Dijkstra.
	ErrNilGraph = errors.New("dijkstra: graph is nil")

	// ErrVertexNotFound indicates that the source vertex does not exist.
	ErrVertexNotFound = errors.New("dijkstra: source vertex not found in graph")

	// ErrNegativeWeight indicates that a negative edge weight was detected.
	ErrNegativeWeight = errors.New("dijkstra: negative edge weight encountered")
)

// Options configures the behavior of the Dijkstra algorithm.
type Options struct {
	Source     int  // The ID of the source vertex
	HasSource  bool // Whether Source was set
	ReturnPath bool // Whether to return the predecessor maps
}

// Option represents a functional option for configuring Dijkstra.
type Option func(*Options)

// Source sets the starting vertex ID.
func Source(id int) Option {
	return func(o *Options) {
		o.Source = id
		o.HasSource = true
	}
}

// WithReturnPath enables generation of the predecessor maps in the result.
func WithReturnPath() Option {
	return func(o *Options) {
		o.ReturnPath = true
	}
}

// DefaultOptions returns Options without a source and without path output.
func DefaultOptions() Options {
	return Options{}
}

// Result holds the shortest-path tree of one run.
//
//   - Dist: minimum distance per reached vertex (unreached vertices are absent).
//   - Prev: predecessor vertex on the shortest path (only with ReturnPath).
//   - PrevEdge: edge used to enter the vertex (only with ReturnPath).
type Result struct {
	Source   int
	Dist     map[int]float64
	Prev     map[int]int
	PrevEdge map[int]int
}

// Distance returns the distance to v and whether v was reached.
func (r *Result) Distance(v int) (float64, bool) {
	d, ok := r.Dist[v]

	return d, ok
}

// EdgePathTo returns the edges of the shortest path from the source to dest,
// in travel order. Requires ReturnPath.
func (r *Result) EdgePathTo(dest int) ([]int, bool) {
	if _, ok := r.Dist[dest]; !ok || r.PrevEdge == nil {
		return nil, false
	}
	var out []int
	for cur := dest; cur != r.Source; {
		e, ok := r.PrevEdge[cur]
		if !ok {
			return nil, false
		}
		out = append(out, e)
		cur = r.Prev[cur]
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return out, true
}
