package cyclebase

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/bfs"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/prim_kruskal"
)

// ErrNotPeriodic indicates a cycle basis requested for an aperiodic network.
var ErrNotPeriodic = errors.New("cyclebase: network is not periodic")

// freeSlack is the tolerance of the "span covers the whole period" test.
const freeSlack = 1e-6

// Cycle is one element of a fundamental cycle basis.
type Cycle struct {
	// Key is the position of the cycle in its basis.
	Key int

	// Defining is the non-forest activity that closes the cycle.
	Defining int

	// Orientation maps every activity of the cycle to true if the cycle
	// traverses it from its From event to its To event.
	Orientation map[int]bool

	// Activities lists the cycle's activities by index.
	Activities []int

	// Lower and Upper bound the integer modulo parameter of the cycle.
	Lower, Upper float64
}

// SignedSum returns Σ ±value(a) over the cycle, + for forward activities.
func (c *Cycle) SignedSum(value func(activity int) float64) float64 {
	var s float64
	for _, id := range c.Activities {
		if c.Orientation[id] {
			s += value(id)
		} else {
			s -= value(id)
		}
	}

	return s
}

// Basis is a fundamental cycle basis of the cycle-relevant activities.
type Basis struct {
	Cycles []*Cycle

	// Forest lists the spanning forest activities by index.
	Forest []int

	// Selected lists the activities the basis was built on.
	Selected []int

	// Events and Components describe the graph the forest spans. Every event
	// of the network is a vertex, isolated events are components.
	Events     int
	Components int
}

// Rank returns |Selected| − Events + Components, the expected basis size.
func (b *Basis) Rank() int { return len(b.Selected) - b.Events + b.Components }

// CheckPeriodicity verifies that every cycle's signed duration sum is an
// integral multiple of the period. Activities without a duration fail.
func (b *Basis) CheckPeriodicity(net *ean.Network) error {
	for _, c := range b.Cycles {
		var missing int = -1
		sum := c.SignedSum(func(id int) float64 {
			a, _ := net.Activity(id)
			d, ok := a.Duration()
			if !ok {
				missing = id
			}
			return float64(d)
		})
		if missing >= 0 {
			return fmt.Errorf("cyclebase: cycle %d: activity %d has no duration", c.Key, missing)
		}
		if math.Mod(sum, float64(net.Period())) != 0 {
			return fmt.Errorf("cyclebase: cycle %d: signed duration sum %g is not a multiple of %d", c.Key, sum, net.Period())
		}
	}

	return nil
}

// Builder computes a fundamental cycle basis over the selected activities.
type Builder interface {
	Build(net *ean.Network, selected []*ean.Activity) (*Basis, error)
}

// SelectRelevant splits the activities of net into the cycle-relevant ones
// and the excluded ones. An activity is free if its (effective) span covers
// the period up to one time unit. Free activities, sorted by passengers
// descending, are kept while the passenger mass before them is below
// threshold·(total free mass); the remaining free activities are excluded.
// A model counts an excluded activity at its lower bound. A threshold >= 1
// keeps every activity.
func SelectRelevant(net *ean.Network, threshold float64) (selected, excluded []*ean.Activity) {
	var free []*ean.Activity
	for _, a := range net.Activities() {
		lo, hi := net.EffectiveBounds(a)
		if threshold < 1 && hi-lo >= float64(net.Period())-1-freeSlack {
			free = append(free, a)
			continue
		}
		selected = append(selected, a)
	}
	if len(free) == 0 {
		return selected, nil
	}

	slices.SortStableFunc(free, func(x, y *ean.Activity) int {
		switch {
		case x.Passengers > y.Passengers:
			return -1
		case x.Passengers < y.Passengers:
			return 1
		default:
			return x.ID - y.ID
		}
	})
	var total float64
	for _, a := range free {
		total += a.Passengers
	}
	var mass float64
	for _, a := range free {
		if mass < threshold*total {
			selected = append(selected, a)
		} else {
			excluded = append(excluded, a)
		}
		mass += a.Passengers
	}
	slices.SortFunc(selected, func(x, y *ean.Activity) int { return x.ID - y.ID })
	slices.SortFunc(excluded, func(x, y *ean.Activity) int { return x.ID - y.ID })

	return selected, excluded
}

// UnexploredVertices grows a breadth-first spanning forest from the smallest
// unreached event, component by component. Cycle bounds are left unrounded.
type UnexploredVertices struct{}

// Build implements Builder.
func (UnexploredVertices) Build(net *ean.Network, selected []*ean.Activity) (*Basis, error) {
	in := make(map[int]bool, len(selected))
	for _, a := range selected {
		in[a.ID] = true
	}

	return fundamentalBasis(net, selected, in, false)
}

// MinimumSpanningForest picks the spanning forest of minimal total span
// (upper − lower) with prim_kruskal, which keeps the modulo parameter ranges
// narrow. Cycle bounds are rounded inwards to integers.
type MinimumSpanningForest struct {
	// Method is prim_kruskal.MethodKruskal (default) or prim_kruskal.MethodPrim.
	Method string
}

// Build implements Builder.
func (m MinimumSpanningForest) Build(net *ean.Network, selected []*ean.Activity) (*Basis, error) {
	method := m.Method
	if method == "" {
		method = prim_kruskal.MethodKruskal
	}
	events := net.Events()
	vertices := make([]int, len(events))
	for i, e := range events {
		vertices[i] = e.ID
	}
	edges := make([]prim_kruskal.Edge, len(selected))
	for i, a := range selected {
		lo, hi := net.EffectiveBounds(a)
		edges[i] = prim_kruskal.Edge{ID: a.ID, From: a.From, To: a.To, Weight: hi - lo}
	}
	forest, err := prim_kruskal.Compute(vertices, edges, prim_kruskal.WithMethod(method))
	if err != nil {
		return nil, fmt.Errorf("cyclebase: spanning forest: %w", err)
	}
	tree := make(map[int]bool, len(forest.Edges))
	for _, e := range forest.Edges {
		tree[e.ID] = true
	}

	return fundamentalBasis(net, selected, tree, true)
}

// fundamentalBasis roots the forest given by the admitted activities with a
// breadth-first search and turns every selected non-forest activity into
// its fundamental cycle.
func fundamentalBasis(net *ean.Network, selected []*ean.Activity, admitted map[int]bool, round bool) (*Basis, error) {
	if !net.IsPeriodic() {
		return nil, ErrNotPeriodic
	}
	events := net.Events()
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	res, err := bfs.Forest(net, ids, bfs.WithFilterArc(func(_ int, a bfs.Arc) bool { return admitted[a.Edge] }))
	if err != nil {
		return nil, err
	}

	basis := &Basis{
		Selected:   make([]int, len(selected)),
		Events:     len(events),
		Components: len(res.Roots),
	}
	inForest := make(map[int]bool, len(res.ParentArc))
	for _, arc := range res.ParentArc {
		inForest[arc.Edge] = true
		basis.Forest = append(basis.Forest, arc.Edge)
	}
	slices.Sort(basis.Forest)

	period := float64(net.Period())
	for i, a := range selected {
		basis.Selected[i] = a.ID
		if inForest[a.ID] {
			continue
		}
		c := cycleOf(res, a)
		c.Key = len(basis.Cycles)
		var lo, hi float64
		for _, id := range c.Activities {
			act, _ := net.Activity(id)
			l, u := net.EffectiveBounds(act)
			if c.Orientation[id] {
				lo += l
				hi += u
			} else {
				lo -= u
				hi -= l
			}
		}
		c.Lower, c.Upper = lo/period, hi/period
		if round {
			c.Lower = math.Ceil(c.Lower - 1e-9)
			c.Upper = math.Floor(c.Upper + 1e-9)
		}
		basis.Cycles = append(basis.Cycles, c)
	}

	log.Debug().
		Int("selected", len(selected)).
		Int("components", basis.Components).
		Int("cycles", len(basis.Cycles)).
		Msg("cycle basis built")

	return basis, nil
}

// cycleOf closes the tree path between the endpoints of a non-forest
// activity: From →a→ To, up the tree to the common ancestor, and down to From.
func cycleOf(res *bfs.BFSResult, a *ean.Activity) *Cycle {
	up := res.EdgesToRoot(a.To)
	down := res.EdgesToRoot(a.From)
	for len(up) > 0 && len(down) > 0 && up[len(up)-1].Edge == down[len(down)-1].Edge {
		up = up[:len(up)-1]
		down = down[:len(down)-1]
	}

	c := &Cycle{
		Defining:    a.ID,
		Orientation: make(map[int]bool, len(up)+len(down)+1),
	}
	c.Orientation[a.ID] = true
	// climbing from child to parent runs against a parent→child arc
	for _, arc := range up {
		c.Orientation[arc.Edge] = !arc.Forward
	}
	for _, arc := range down {
		c.Orientation[arc.Edge] = arc.Forward
	}
	c.Activities = make([]int, 0, len(c.Orientation))
	for id := range c.Orientation {
		c.Activities = append(c.Activities, id)
	}
	slices.Sort(c.Activities)

	return c
}

// Memoized computes the basis once and returns it on every later call,
// whatever the arguments.
type Memoized struct {
	Builder Builder

	once  sync.Once
	basis *Basis
	err   error
}

// Build implements Builder.
func (m *Memoized) Build(net *ean.Network, selected []*ean.Activity) (*Basis, error) {
	m.once.Do(func() {
		m.basis, m.err = m.Builder.Build(net, selected)
	})

	return m.basis, m.err
}

// ForName returns the builder for a configuration name:
// "unexplored_vertices" (default), "msf_kruskal" or "msf_prim".
func ForName(name string) (Builder, error) {
	switch name {
	case "", "unexplored_vertices":
		return UnexploredVertices{}, nil
	case "msf", "msf_kruskal", "msf_fundamental_improvement":
		return MinimumSpanningForest{Method: prim_kruskal.MethodKruskal}, nil
	case "msf_prim":
		return MinimumSpanningForest{Method: prim_kruskal.MethodPrim}, nil
	}

	return nil, fmt.Errorf("cyclebase: unknown model %q", name)
}
