package passenger

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"github.com/rs/zerolog/log"
	"github.com/sourcegraph/conc/pool"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/dijkstra"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/od"
)

// Sentinel errors for passenger distribution.
var (
	// ErrNoPath indicates an OD pair with demand but no route.
	ErrNoPath = errors.New("passenger: no path")

	// ErrModel indicates an unknown or unusable weight model.
	ErrModel = errors.New("passenger: invalid weight model")
)

// Options configures an Engine.
type Options struct {
	Weights WeightOptions

	// Workers bounds the number of concurrent shortest-path computations.
	Workers int

	// RecordPaths keeps the activity and link path of every routed pair.
	RecordPaths bool

	// Validation, when set, is checked against the line pool's network
	// before routing.
	Validation *od.ValidateOptions
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the default weights and one worker per CPU.
func DefaultOptions() Options {
	return Options{
		Weights: DefaultWeightOptions(),
		Workers: runtime.NumCPU(),
	}
}

// WithWeights sets the weight models.
func WithWeights(w WeightOptions) Option {
	return func(o *Options) { o.Weights = w }
}

// WithWorkers bounds the worker pool; values below 1 mean one worker.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = max(n, 1) }
}

// WithPathRecording keeps the routed path of every OD pair.
func WithPathRecording() Option {
	return func(o *Options) { o.RecordPaths = true }
}

// WithODValidation validates the demand before routing.
func WithODValidation(v od.ValidateOptions) Option {
	return func(o *Options) { o.Validation = &v }
}

// Path is the route of one OD pair.
type Path struct {
	Activities []int
	Links      []int
	Length     float64
}

// Result summarizes a distribution run.
type Result struct {
	// Pairs is the number of routed OD pairs, Routed their total demand.
	Pairs  int
	Routed float64

	// SinkInflow is the demand delivered to each destination station.
	SinkInflow map[int]float64

	// Paths holds the route per pair when path recording is on.
	Paths map[od.Pair]Path
}

// Engine routes OD demand over an event-activity network.
type Engine struct {
	net     *ean.Network
	opts    Options
	weigher *Weigher
}

// NewEngine prepares an engine for net.
func NewEngine(net *ean.Network, opts ...Option) (*Engine, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	w, err := NewWeigher(net, o.Weights)
	if err != nil {
		return nil, err
	}

	return &Engine{net: net, opts: o, weigher: w}, nil
}

// routing is the shortest-path graph: events plus one virtual source and
// sink vertex per station.
type routing struct {
	g        *dijkstra.Graph
	activity map[int]int // graph edge → activity
	source   map[int]int // station → vertex
	sink     map[int]int
	virtual  map[int]bool
}

func (e *Engine) routing() (*routing, error) {
	r := &routing{
		g:        dijkstra.NewGraph(),
		activity: make(map[int]int),
		source:   make(map[int]int),
		sink:     make(map[int]int),
		virtual:  make(map[int]bool),
	}
	events := e.net.Events()
	next := 1
	var stations []int
	for _, ev := range events {
		r.g.AddVertex(ev.ID)
		next = max(next, ev.ID+1)
		stations = append(stations, ev.Station)
	}
	for _, a := range e.net.PassengerUsable() {
		w, err := e.weigher.Weight(a)
		if err != nil {
			return nil, err
		}
		r.activity[r.g.AddEdge(a.From, a.To, w)] = a.ID
	}

	slices.Sort(stations)
	for _, st := range slices.Compact(stations) {
		src, snk := next, next+1
		next += 2
		r.g.AddVertex(src)
		r.g.AddVertex(snk)
		r.source[st], r.sink[st] = src, snk
		r.virtual[src], r.virtual[snk] = true, true
		for _, dep := range e.net.EventsAt(st, ean.Departure) {
			r.g.AddEdge(src, dep.ID, 0)
		}
		for _, arr := range e.net.EventsAt(st, ean.Arrival) {
			r.g.AddEdge(arr.ID, snk, 0)
		}
	}

	return r, nil
}

type tree struct {
	origin int
	res    *dijkstra.Result
}

type route struct {
	pair   od.Pair
	demand float64
	edges  []int
}

// Distribute resets all passenger counts and routes every OD pair with
// positive demand on a shortest path from the virtual source of its origin
// to the virtual sink of its destination, adding the demand to every event
// and activity on the way. Shortest-path trees are computed per origin by a
// bounded worker pool; accumulation runs in OD order. Either all pairs are
// routed or the network is left unchanged.
func (e *Engine) Distribute(ctx context.Context, m *od.Matrix) (*Result, error) {
	if e.opts.Validation != nil && e.net.LinePool() != nil {
		if err := m.Validate(e.net.LinePool().PTN(), *e.opts.Validation); err != nil {
			return nil, err
		}
	}
	r, err := e.routing()
	if err != nil {
		return nil, err
	}

	var (
		pairs   []od.Pair
		origins []int
	)
	for _, p := range m.Pairs() {
		if p.Origin == p.Destination || m.Get(p.Origin, p.Destination) <= 0 {
			continue
		}
		if _, ok := r.source[p.Origin]; !ok {
			return nil, fmt.Errorf("%w: (%d,%d): origin has no departures", ErrNoPath, p.Origin, p.Destination)
		}
		if _, ok := r.sink[p.Destination]; !ok {
			return nil, fmt.Errorf("%w: (%d,%d): destination has no arrivals", ErrNoPath, p.Origin, p.Destination)
		}
		pairs = append(pairs, p)
		origins = append(origins, p.Origin)
	}
	slices.Sort(origins)
	origins = slices.Compact(origins)

	p := pool.NewWithResults[tree]().WithContext(ctx).WithMaxGoroutines(max(e.opts.Workers, 1))
	for _, o := range origins {
		src := r.source[o]
		origin := o
		p.Go(func(ctx context.Context) (tree, error) {
			if err := ctx.Err(); err != nil {
				return tree{}, err
			}
			res, err := dijkstra.Dijkstra(r.g, dijkstra.Source(src), dijkstra.WithReturnPath())
			if err != nil {
				return tree{}, fmt.Errorf("passenger: origin %d: %w", origin, err)
			}
			return tree{origin: origin, res: res}, nil
		})
	}
	trees, err := p.Wait()
	if err != nil {
		return nil, err
	}
	byOrigin := make(map[int]*dijkstra.Result, len(trees))
	for _, t := range trees {
		byOrigin[t.origin] = t.res
	}

	routes := make([]route, 0, len(pairs))
	for _, pr := range pairs {
		edges, ok := byOrigin[pr.Origin].EdgePathTo(r.sink[pr.Destination])
		if !ok {
			return nil, fmt.Errorf("%w: (%d,%d)", ErrNoPath, pr.Origin, pr.Destination)
		}
		routes = append(routes, route{pair: pr, demand: m.Get(pr.Origin, pr.Destination), edges: edges})
	}

	return e.accumulate(r, routes, byOrigin), nil
}

func (e *Engine) accumulate(r *routing, routes []route, trees map[int]*dijkstra.Result) *Result {
	e.net.ResetPassengers()
	out := &Result{SinkInflow: make(map[int]float64)}
	if e.opts.RecordPaths {
		out.Paths = make(map[od.Pair]Path, len(routes))
	}
	for _, rt := range routes {
		var path Path
		for _, id := range rt.edges {
			edge, _ := r.g.Edge(id)
			if !r.virtual[edge.To] {
				ev, _ := e.net.Event(edge.To)
				ev.AddPassengers(rt.demand)
			}
			aid, ok := r.activity[id]
			if !ok {
				continue
			}
			a, _ := e.net.Activity(aid)
			a.Passengers += rt.demand
			if e.opts.RecordPaths {
				path.Activities = append(path.Activities, aid)
				if a.Link != nil {
					path.Links = append(path.Links, a.Link.ID)
				}
			}
		}
		out.Pairs++
		out.Routed += rt.demand
		out.SinkInflow[rt.pair.Destination] += rt.demand
		if e.opts.RecordPaths {
			path.Length, _ = trees[rt.pair.Origin].Distance(r.sink[rt.pair.Destination])
			out.Paths[rt.pair] = path
		}
	}

	log.Info().
		Int("pairs", out.Pairs).
		Float64("passengers", out.Routed).
		Msg("passengers distributed")

	return out
}
