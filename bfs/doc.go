// Package bfs provides breadth-first spanning forests over integer-indexed
// multigraphs, returning visit order, depths, parent vertices and the parent
// edge together with the orientation it was traversed in.
//
// What
//
//   - Explore vertices in non-decreasing edge count from a start vertex.
//   - Graph is any type exposing HasVertex and Arcs; an Arc names the edge,
//     the neighbour and whether the edge is walked along its own direction
//     (Forward) or against it. Exposing both directions of every edge turns
//     a directed multigraph into its undirected shadow, which is what the
//     event-activity network uses for spanning forests.
//   - Forest repeats BFS from every unreached vertex and records one root
//     per connected component.
//   - WithFilterArc prunes individual arcs, which restricts the forest to a
//     subset of the edges.
//
// Determinism
//
//	Arcs are enqueued in the order Graph.Arcs returns them and Forest starts
//	components in the order of the vertex slice it is given, so the parent
//	structure is reproducible.
//
// Complexity (V = |Vertices|, E = |Edges|)
//
//   - Time:   O(V + E)
//   - Memory: O(V)
//
// Usage
//
//	res, err := bfs.Forest(g, vertices, bfs.WithFilterArc(keep))
//	if err != nil {
//		// ErrGraphNil or ErrStartVertexNotFound
//	}
//	edges := res.EdgesToRoot(v)
package bfs
