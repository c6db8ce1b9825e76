// Package prim_kruskal computes Minimum Spanning Forests (MSF) on undirected,
// weighted edge lists with two classic algorithms: Kruskal's and Prim's.
//
// What & Why
//
//   - A minimum spanning forest of G = (V, E) is a subset F ⊆ E that spans every
//     connected component of G with a tree and has minimal total weight.
//   - In periodic timetabling the forest edges are the activities whose
//     durations are implied by the others; every non-forest edge closes exactly
//     one fundamental cycle. Picking the forest with minimal span weight keeps
//     the integer ranges of the cycle modulo variables narrow.
//
// Algorithms Provided
//
//   - Kruskal(vertices, edges) (Forest, error)
//     Stable sort by weight, then union-find. O(E log E + α(V)·E).
//
//   - Prim(vertices, edges) (Forest, error)
//     One min-heap expansion per component, roots taken in ascending vertex ID.
//     O(E log E).
//
//   - Compute(vertices, edges, WithMethod(...)) dispatches between the two.
//
// Unlike a spanning tree routine, a disconnected input is not an error: the
// result reports the number of components instead. Self-loops never enter
// the forest. Isolated vertices count as components of their own.
//
// Determinism: vertices are sorted and equal weights break ties by input
// position, so the same input always yields the same forest.
package prim_kruskal
