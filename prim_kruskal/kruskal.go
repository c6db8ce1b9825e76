// Package prim_kruskal provides an implementation of Kruskal's Minimum Spanning Forest algorithm.
package prim_kruskal

import (
	"sort"
)

// Kruskal computes the Minimum Spanning Forest of an undirected, weighted
// edge list. It uses a disjoint-set (union-find) data structure with path
// compression and union by rank.
//
// Error Conditions:
//   - ErrInvalidEdge : an edge endpoint is not in vertices, or its weight is NaN.
//
// Steps:
//  1. Sort and de-duplicate vertices; validate edges.
//  2. Skip self-loops; stable-sort the remaining edges by ascending weight so
//     equal weights keep input order.
//  3. Initialize DSU parent[] and rank[] for each vertex.
//  4. For each edge (u,v) with find(u) != find(v): union and accept the edge.
//  5. Components = |V| − |accepted edges|.
//
// Complexity: O(E log E + α(V)·E). Memory: O(E + V).
func Kruskal(vertices []int, edges []Edge) (Forest, error) {
	vs, err := prepare(vertices, edges)
	if err != nil {
		return Forest{}, err
	}

	sorted := make([]Edge, 0, len(edges))
	for _, e := range edges {
		if e.From == e.To {
			continue
		}
		sorted = append(sorted, e)
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Weight < sorted[j].Weight
	})

	parent := make(map[int]int, len(vs))
	rank := make(map[int]int, len(vs))
	for _, v := range vs {
		parent[v] = v
	}

	// Iterative find with path compression to avoid deep recursion.
	find := func(u int) int {
		for parent[u] != u {
			parent[u] = parent[parent[u]]
			u = parent[u]
		}

		return u
	}

	forest := Forest{Edges: make([]Edge, 0, len(vs))}
	for _, e := range sorted {
		ru, rv := find(e.From), find(e.To)
		if ru == rv {
			continue
		}
		// Attach smaller-rank tree under larger-rank root.
		switch {
		case rank[ru] < rank[rv]:
			parent[ru] = rv
		case rank[ru] > rank[rv]:
			parent[rv] = ru
		default:
			parent[rv] = ru
			rank[ru]++
		}
		forest.Edges = append(forest.Edges, e)
		forest.Total += e.Weight
		if len(forest.Edges) == len(vs)-1 {
			break
		}
	}
	forest.Components = len(vs) - len(forest.Edges)

	return forest, nil
}
