// Package bfs provides breadth-first search over an integer-indexed multigraph,
// returning unweighted distances, parent links, parent arcs and visit order.
package bfs

import (
	"fmt"
)

// queueItem pairs a vertex ID with its BFS depth.
type queueItem struct {
	id    int
	depth int
}

// walker encapsulates mutable BFS state shared across components.
type walker struct {
	graph   Graph
	opts    BFSOptions
	queue   []queueItem
	visited map[int]bool
	res     *BFSResult
	root    int
}

// Forest runs BFS from every vertex in vertices that has not been reached yet,
// in slice order, producing a spanning forest of the arcs admitted by the
// options. Every component contributes one entry to BFSResult.Roots.
// Returns ErrGraphNil or ErrStartVertexNotFound for invalid input.
func Forest(g Graph, vertices []int, opts ...Option) (*BFSResult, error) {
	if g == nil {
		return nil, ErrGraphNil
	}
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	w := &walker{
		graph:   g,
		opts:    o,
		queue:   make([]queueItem, 0, len(vertices)),
		visited: make(map[int]bool, len(vertices)),
		res:     newResult(len(vertices)),
	}
	for _, v := range vertices {
		if w.visited[v] {
			continue
		}
		if !g.HasVertex(v) {
			return nil, fmt.Errorf("%w: %d", ErrStartVertexNotFound, v)
		}
		w.startComponent(v)
		w.loop()
	}

	return w.res, nil
}

func (w *walker) startComponent(v int) {
	w.root = v
	w.res.Roots = append(w.res.Roots, v)
	w.enqueue(v, 0, -1, Arc{}, false)
}

// enqueue marks id visited at depth d, records its parent, and adds it to
// the queue.
func (w *walker) enqueue(id, d, parent int, via Arc, hasParent bool) {
	w.visited[id] = true
	w.res.Depth[id] = d
	w.res.Root[id] = w.root
	if hasParent {
		w.res.Parent[id] = parent
		w.res.ParentArc[id] = via
	}
	w.queue = append(w.queue, queueItem{id: id, depth: d})
}

// loop processes the queue until it is empty.
func (w *walker) loop() {
	for len(w.queue) > 0 {
		item := w.queue[0]
		w.queue = w.queue[1:]
		w.res.Order = append(w.res.Order, item.id)
		w.enqueueNeighbors(item)
	}
}

// enqueueNeighbors enqueues every unseen neighbour through the first
// admissible arc leading to it.
func (w *walker) enqueueNeighbors(item queueItem) {
	for _, a := range w.graph.Arcs(item.id) {
		if w.visited[a.To] || !w.opts.FilterArc(item.id, a) {
			continue
		}
		w.enqueue(a.To, item.depth+1, item.id, a, true)
	}
}
