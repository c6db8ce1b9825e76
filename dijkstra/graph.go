package dijkstra

import "fmt"

// Edge is a directed weighted edge of a Graph.
type Edge struct {
	ID     int
	From   int
	To     int
	Weight float64
}

// Graph is a directed multigraph over integer vertex IDs with float64
// weights. Edge IDs are assigned densely in insertion order; out-edges are
// kept in insertion order, which fixes the relaxation order.
//
// A Graph is not safe for concurrent mutation; concurrent Dijkstra runs on
// a graph that is no longer modified are safe.
type Graph struct {
	vertices map[int]struct{}
	out      map[int][]int
	edges    []Edge
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		vertices: make(map[int]struct{}),
		out:      make(map[int][]int),
	}
}

// AddVertex inserts v; inserting an existing vertex is a no-op.
func (g *Graph) AddVertex(v int) {
	g.vertices[v] = struct{}{}
}

// HasVertex reports whether v exists.
func (g *Graph) HasVertex(v int) bool {
	_, ok := g.vertices[v]

	return ok
}

// AddEdge inserts from→to with weight w (endpoints are added as needed)
// and returns the new edge ID.
func (g *Graph) AddEdge(from, to int, w float64) int {
	g.AddVertex(from)
	g.AddVertex(to)
	id := len(g.edges)
	g.edges = append(g.edges, Edge{ID: id, From: from, To: to, Weight: w})
	g.out[from] = append(g.out[from], id)

	return id
}

// Edge returns the edge with the given ID.
func (g *Graph) Edge(id int) (Edge, error) {
	if id < 0 || id >= len(g.edges) {
		return Edge{}, fmt.Errorf("dijkstra: edge %d not found", id)
	}

	return g.edges[id], nil
}

// VertexCount returns |V|.
func (g *Graph) VertexCount() int { return len(g.vertices) }

// EdgeCount returns |E|.
func (g *Graph) EdgeCount() int { return len(g.edges) }
