// Package prim_kruskal provides an implementation of Prim's Minimum Spanning Forest algorithm.
// It grows one tree per connected component from the smallest unvisited vertex using a min-heap.
package prim_kruskal

import (
	"container/heap"
)

// Prim computes the Minimum Spanning Forest of an undirected, weighted edge
// list by growing a tree from each not yet visited vertex in ascending order.
//
// Error Conditions:
//   - ErrInvalidEdge : an edge endpoint is not in vertices, or its weight is NaN.
//
// Steps:
//  1. Sort and de-duplicate vertices; validate edges; build adjacency (self-loops skipped).
//  2. For each unvisited root in ascending order:
//     a. Mark root visited, Components++, push its incident edges.
//     b. Pop the smallest edge; skip it if its far end is visited, otherwise
//     accept it, mark the far end and push its incident edges.
//  3. Return the accepted edges and their total weight.
//
// Complexity: O(E log E) time, O(V + E) memory.
func Prim(vertices []int, edges []Edge) (Forest, error) {
	vs, err := prepare(vertices, edges)
	if err != nil {
		return Forest{}, err
	}

	adj := make(map[int][]halfEdge, len(vs))
	for i, e := range edges {
		if e.From == e.To {
			continue
		}
		adj[e.From] = append(adj[e.From], halfEdge{edge: e, to: e.To, seq: i})
		adj[e.To] = append(adj[e.To], halfEdge{edge: e, to: e.From, seq: i})
	}

	visited := make(map[int]bool, len(vs))
	forest := Forest{Edges: make([]Edge, 0, len(vs))}
	pq := &edgePQ{}

	push := func(v int) {
		for _, h := range adj[v] {
			if !visited[h.to] {
				heap.Push(pq, h)
			}
		}
	}

	for _, root := range vs {
		if visited[root] {
			continue
		}
		visited[root] = true
		forest.Components++
		push(root)
		for pq.Len() > 0 {
			h := heap.Pop(pq).(halfEdge)
			if visited[h.to] {
				continue
			}
			visited[h.to] = true
			forest.Edges = append(forest.Edges, h.edge)
			forest.Total += h.edge.Weight
			push(h.to)
		}
	}

	return forest, nil
}

// halfEdge is an edge seen from one endpoint; seq is the input position used
// to break weight ties.
type halfEdge struct {
	edge Edge
	to   int
	seq  int
}

// edgePQ implements heap.Interface for a min-heap of halfEdge, ordered by
// weight and then by input position.
type edgePQ []halfEdge

func (pq edgePQ) Len() int { return len(pq) }

func (pq edgePQ) Less(i, j int) bool {
	if pq[i].edge.Weight != pq[j].edge.Weight {
		return pq[i].edge.Weight < pq[j].edge.Weight
	}

	return pq[i].seq < pq[j].seq
}

func (pq edgePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

func (pq *edgePQ) Push(x interface{}) { *pq = append(*pq, x.(halfEdge)) }

func (pq *edgePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	e := old[n-1]
	*pq = old[:n-1]

	return e
}
