// Package dijkstra implements Dijkstra's shortest-path algorithm on weighted digraphs.
//
// Notes on implementation choices:
//
//   - We perform an upfront scan of all edges (O(E)) to detect negative weights and fail fast.
//   - We use a “lazy” decrease-key strategy: pushing duplicates into the heap and ignoring stale entries.
//   - Heap ties are broken by vertex ID and equal-cost relaxations keep the first
//     predecessor found, so the shortest-path tree is deterministic.
package dijkstra

import (
	"container/heap"
	"fmt"
	"math"
)

// Dijkstra computes shortest distances from the source vertex (Options.Source)
// to all reachable vertices of g.
//
// Preconditions and validation (in order):
//  1. Source must be set (ErrEmptySource).
//  2. g must be non-nil (ErrNilGraph).
//  3. g must contain Source (ErrVertexNotFound).
//  4. No edge in g can have negative or NaN weight (ErrNegativeWeight).
//
// Complexity:
//
//   - Time:  O((V + E) log V)
//   - Space: O(V + E)
func Dijkstra(g *Graph, opts ...Option) (*Result, error) {
	cfg := DefaultOptions()
	for _, opt := range opts {
		opt(&cfg)
	}
	if !cfg.HasSource {
		return nil, ErrEmptySource
	}
	if g == nil {
		return nil, ErrNilGraph
	}
	if !g.HasVertex(cfg.Source) {
		return nil, fmt.Errorf("%w: %d", ErrVertexNotFound, cfg.Source)
	}
	for _, e := range g.edges {
		if e.Weight < 0 || math.IsNaN(e.Weight) {
			return nil, fmt.Errorf("%w: edge %d→%d weight=%g", ErrNegativeWeight, e.From, e.To, e.Weight)
		}
	}

	r := &runner{
		g:       g,
		options: cfg,
		res: &Result{
			Source: cfg.Source,
			Dist:   make(map[int]float64, len(g.vertices)),
		},
		visited: make(map[int]bool, len(g.vertices)),
		pq:      make(nodePQ, 0, len(g.vertices)),
	}
	if cfg.ReturnPath {
		r.res.Prev = make(map[int]int, len(g.vertices))
		r.res.PrevEdge = make(map[int]int, len(g.vertices))
	}
	r.init()
	r.process()

	return r.res, nil
}

// runner holds the mutable state for a single Dijkstra execution.
type runner struct {
	g       *Graph       // The input graph; read-only within Dijkstra.
	options Options      // Configuration options (Source, ReturnPath).
	res     *Result      // Distances and predecessors being built.
	visited map[int]bool // Tracks if a vertex's distance is finalized.
	pq      nodePQ       // Min-heap of *nodeItem for lazy priority queue.
}

// init pushes Source=0 into the heap.
func (r *runner) init() {
	r.res.Dist[r.options.Source] = 0
	heap.Init(&r.pq)
	heap.Push(&r.pq, &nodeItem{id: r.options.Source, dist: 0})
}

// process repeatedly extracts the vertex with the minimum distance from the
// source and relaxes its outgoing edges, until the heap is empty.
func (r *runner) process() {
	for r.pq.Len() > 0 {
		item := heap.Pop(&r.pq).(*nodeItem)
		if r.visited[item.id] {
			continue
		}
		r.visited[item.id] = true
		r.relax(item.id)
	}
}

// relax examines each edge outgoing from u and improves neighbour distances.
func (r *runner) relax(u int) {
	du := r.res.Dist[u]
	for _, eid := range r.g.out[u] {
		e := r.g.edges[eid]
		newDist := du + e.Weight
		// Strict improvement only: equal-cost alternatives keep the first
		// predecessor, which fixes tie-breaking to relaxation order.
		if old, seen := r.res.Dist[e.To]; seen && newDist >= old {
			continue
		}
		r.res.Dist[e.To] = newDist
		if r.res.Prev != nil {
			r.res.Prev[e.To] = u
			r.res.PrevEdge[e.To] = eid
		}
		heap.Push(&r.pq, &nodeItem{id: e.To, dist: newDist})
	}
}

// nodeItem represents a vertex and its current distance from the source.
type nodeItem struct {
	id   int
	dist float64
}

// nodePQ is a min-heap of *nodeItem ordered by distance, then vertex ID.
type nodePQ []*nodeItem

// Len returns the number of items in the heap.
func (pq nodePQ) Len() int { return len(pq) }

// Less defines the comparison: smaller dist → higher priority.
func (pq nodePQ) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}

	return pq[i].id < pq[j].id
}

// Swap swaps two elements in the heap.
func (pq nodePQ) Swap(i, j int) { pq[i], pq[j] = pq[j], pq[i] }

// Push adds a new element x onto the heap.
func (pq *nodePQ) Push(x interface{}) { *pq = append(*pq, x.(*nodeItem)) }

// Pop removes and returns the smallest element from the heap.
func (pq *nodePQ) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]

	return item
}
