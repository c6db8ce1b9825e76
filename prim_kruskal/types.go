// Package prim_kruskal defines the edge-list input, the spanning forest
// result, configuration options and sentinel errors for MSF computation.
package prim_kruskal

import (
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/slices"
)

// ErrInvalidEdge indicates an edge whose endpoint is not a listed vertex or
// whose weight is NaN.
var ErrInvalidEdge = errors.New("prim_kruskal: invalid edge")

// ErrUnknownMethod indicates an MSFOptions.Method other than MethodPrim or MethodKruskal.
var ErrUnknownMethod = errors.New("prim_kruskal: unknown method")

// MethodPrim selects Prim's algorithm (grow one tree per component using a min-heap).
const MethodPrim = "prim"

// MethodKruskal selects Kruskal's algorithm (sort all edges and union-find).
const MethodKruskal = "kruskal"

// Edge is an undirected weighted edge. ID is caller-defined and carried
// through unchanged so callers can map forest edges back to their domain.
type Edge struct {
	ID     int
	From   int
	To     int
	Weight float64
}

// Forest is a minimum spanning forest: one minimum spanning tree per
// connected component of the input.
type Forest struct {
	Edges      []Edge  // forest edges in the order the algorithm accepted them
	Total      float64 // sum of forest edge weights
	Components int     // number of connected components (isolated vertices included)
}

// Contains reports whether the edge with the given ID is part of the forest.
func (f Forest) Contains(id int) bool {
	for _, e := range f.Edges {
		if e.ID == id {
			return true
		}
	}

	return false
}

// MSFOptions configures which algorithm Compute runs.
// Use DefaultOptions() to get a default setup (Kruskal).
type MSFOptions struct {
	// Method to use: MethodPrim or MethodKruskal.
	Method string
}

// Option configures MSFOptions.
type Option func(*MSFOptions)

// WithMethod returns an Option that sets the algorithm Method.
func WithMethod(m string) Option {
	return func(opts *MSFOptions) {
		opts.Method = m
	}
}

// DefaultOptions returns MSFOptions initialized for Kruskal.
func DefaultOptions() MSFOptions {
	return MSFOptions{Method: MethodKruskal}
}

// Compute selects and runs the MSF algorithm based on opts.
//
// Both algorithms return a forest of identical total weight; the chosen edges
// may differ when weights tie.
func Compute(vertices []int, edges []Edge, opts ...Option) (Forest, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	switch cfg.Method {
	case MethodKruskal:
		return Kruskal(vertices, edges)
	case MethodPrim:
		return Prim(vertices, edges)
	default:
		return Forest{}, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
}

// prepare returns the sorted, de-duplicated vertex list and validates edges.
func prepare(vertices []int, edges []Edge) ([]int, error) {
	vs := slices.Clone(vertices)
	slices.Sort(vs)
	vs = slices.Compact(vs)
	for _, e := range edges {
		if _, ok := slices.BinarySearch(vs, e.From); !ok {
			return nil, fmt.Errorf("%w: edge %d endpoint %d", ErrInvalidEdge, e.ID, e.From)
		}
		if _, ok := slices.BinarySearch(vs, e.To); !ok {
			return nil, fmt.Errorf("%w: edge %d endpoint %d", ErrInvalidEdge, e.ID, e.To)
		}
		if math.IsNaN(e.Weight) {
			return nil, fmt.Errorf("%w: edge %d weight is NaN", ErrInvalidEdge, e.ID)
		}
	}

	return vs, nil
}
