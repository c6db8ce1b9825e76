package bnb

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/katalvlaran/pesplan/solver"
)

// Name is the registry name of the solver.
const Name = "bnb"

const (
	// pruneEps keeps nodes whose bound ties the incumbent out of the search.
	pruneEps = 1e-9
	// checkTol is the tolerance used to accept warm starts and incumbents.
	checkTol = 1e-6
	// pivotTol is the smallest pivot accepted when reducing equality rows.
	pivotTol = 1e-9
	// maxPasses caps the bound propagation rounds of one node.
	maxPasses = 16
)

func init() {
	solver.Register(Name, func() solver.Solver { return &Solver{} })
}

// Solver is a depth-first branch and bound over LP relaxations.
type Solver struct{}

// Name implements solver.Solver.
func (*Solver) Name() string { return Name }

// node is a box of variable bounds still to be explored.
type node struct {
	lo, hi []float64
}

// linear is a constraint with merged, non-zero coefficients.
type linear struct {
	idx  []int
	coef []float64
	rel  solver.Relation
	rhs  float64
}

// outcome classifies the relaxation of one node.
type outcome int

const (
	infeasible outcome = iota
	solved
	// unresolved means the LP could not be solved numerically; the node is
	// split without a bound.
	unresolved
)

type relaxation struct {
	outcome outcome
	bound   float64
	x       []float64
}

// engine holds the search state of one solve.
type engine struct {
	m     *solver.Model
	vars  []solver.Variable
	rows  []linear
	cost  []float64 // objective coefficients, negated for maximization
	sense float64

	useDeadline bool
	deadline    time.Time
	nodeLimit   int
	nodes       int
	splits      int

	incumbent []float64
	best      float64
}

// Solve implements solver.Solver. Integer infeasibility of every branch
// yields Infeasible, a hit limit yields Feasible (with an incumbent) or
// NotSolved. A complete warm start that satisfies the model is the first
// incumbent.
func (s *Solver) Solve(ctx context.Context, m *solver.Model, p solver.Params) (*solver.Solution, error) {
	expr, _, minimize := m.Objective()
	e := &engine{
		m:         m,
		vars:      m.Variables(),
		sense:     1,
		nodeLimit: p.NodeLimit,
		best:      math.Inf(1),
	}
	if !minimize {
		e.sense = -1
	}
	e.cost = make([]float64, len(e.vars))
	for _, t := range expr {
		e.cost[t.Var] += e.sense * t.Coef
	}
	e.rows = merge(m.Constraints(), len(e.vars))
	if p.TimeLimit > 0 {
		e.useDeadline = true
		e.deadline = time.Now().Add(p.TimeLimit)
	}
	if warm, ok := m.WarmStart(); ok {
		rounded := roundAll(warm)
		if m.Check(rounded, checkTol) == nil {
			e.record(rounded)
		}
	}

	complete := e.search(ctx)

	sol := &solver.Solution{}
	switch {
	case e.incumbent != nil && complete:
		sol.Status = solver.Optimal
	case e.incumbent != nil:
		sol.Status = solver.Feasible
	case complete:
		sol.Status = solver.Infeasible
	default:
		sol.Status = solver.NotSolved
	}
	if e.incumbent != nil {
		sol.Values = e.incumbent
		sol.Objective = m.Evaluate(e.incumbent)
	}
	log.Debug().
		Int("variables", len(e.vars)).
		Int("constraints", len(e.rows)).
		Int("nodes", e.nodes).
		Int("splits", e.splits).
		Str("status", sol.Status.String()).
		Msg("branch and bound finished")

	return sol, nil
}

// merge collects the terms of every constraint per variable and drops zero
// coefficients.
func merge(cons []solver.Constraint, nv int) []linear {
	out := make([]linear, 0, len(cons))
	acc := make([]float64, nv)
	for _, c := range cons {
		var seen []int
		for _, t := range c.Expr {
			if acc[t.Var] == 0 {
				seen = append(seen, int(t.Var))
			}
			acc[t.Var] += t.Coef
		}
		l := linear{rel: c.Rel, rhs: c.RHS}
		for _, j := range seen {
			if acc[j] != 0 {
				l.idx = append(l.idx, j)
				l.coef = append(l.coef, acc[j])
			}
			acc[j] = 0
		}
		out = append(out, l)
	}

	return out
}

// search explores the bound boxes depth first and reports whether the tree
// was exhausted.
func (e *engine) search(ctx context.Context) bool {
	root := node{lo: make([]float64, len(e.vars)), hi: make([]float64, len(e.vars))}
	for j, v := range e.vars {
		root.lo[j], root.hi[j] = v.Lower, v.Upper
	}
	stack := []node{root}
	for len(stack) > 0 {
		if e.limitReached(ctx) {
			return false
		}
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		e.nodes++

		lo := append([]float64(nil), cur.lo...)
		hi := append([]float64(nil), cur.hi...)
		if !e.propagate(lo, hi) {
			continue
		}
		r := e.relax(lo, hi)
		switch r.outcome {
		case infeasible:
			continue
		case unresolved:
			e.splits++
			stack = append(stack, split(lo, hi)...)
			continue
		}
		if r.bound >= e.best-pruneEps {
			continue
		}
		j := mostFractional(r.x)
		if j < 0 {
			e.record(roundAll(r.x))
			continue
		}

		f := math.Floor(r.x[j])
		down := node{lo: lo, hi: append([]float64(nil), hi...)}
		down.hi[j] = f
		up := node{lo: append([]float64(nil), lo...), hi: hi}
		up.lo[j] = f + 1
		// the side nearer to the relaxation is explored first
		if r.x[j]-f < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}

	return true
}

// split halves the widest domain of the box. The box has a free variable,
// as fully fixed boxes never reach the LP.
func split(lo, hi []float64) []node {
	at, width := 0, -1.0
	for j := range lo {
		if w := hi[j] - lo[j]; w > width {
			at, width = j, w
		}
	}
	mid := math.Floor((lo[at] + hi[at]) / 2)
	down := node{lo: lo, hi: append([]float64(nil), hi...)}
	down.hi[at] = mid
	up := node{lo: append([]float64(nil), lo...), hi: hi}
	up.lo[at] = mid + 1

	return []node{up, down}
}

func (e *engine) limitReached(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	if e.nodeLimit > 0 && e.nodes >= e.nodeLimit {
		return true
	}

	return e.useDeadline && time.Now().After(e.deadline)
}

// record keeps x if it improves the incumbent.
func (e *engine) record(x []float64) {
	if v := e.value(x); v < e.best {
		e.best, e.incumbent = v, x
	}
}

// propagate tightens the integer box against every row until it is stable.
// It reports false if some row cannot be met inside the box.
func (e *engine) propagate(lo, hi []float64) bool {
	for pass := 0; pass < maxPasses; pass++ {
		changed := false
		for _, r := range e.rows {
			signs := []float64{1}
			switch r.rel {
			case solver.GreaterEqual:
				signs[0] = -1
			case solver.Equal:
				signs = append(signs, -1)
			}
			for _, sign := range signs {
				ok, c := tighten(r, sign, lo, hi)
				if !ok {
					return false
				}
				changed = changed || c
			}
		}
		if !changed {
			return true
		}
	}

	return true
}

// tighten applies sign·(row) <= sign·rhs to the box. Each bound moves against
// the least activity of the other terms, rounded inward since every variable
// is integer.
func tighten(r linear, sign float64, lo, hi []float64) (ok, changed bool) {
	rhs := sign * r.rhs
	var least float64
	for k, j := range r.idx {
		if a := sign * r.coef[k]; a > 0 {
			least += a * lo[j]
		} else {
			least += a * hi[j]
		}
	}
	if least > rhs+checkTol {
		return false, false
	}
	for k, j := range r.idx {
		a := sign * r.coef[k]
		if a > 0 {
			room := rhs - (least - a*lo[j])
			if u := math.Floor(room/a + checkTol); u < hi[j] {
				hi[j], changed = u, true
			}
		} else {
			room := rhs - (least - a*hi[j])
			if l := math.Ceil(room/a - checkTol); l > lo[j] {
				lo[j], changed = l, true
			}
		}
		if lo[j] > hi[j] {
			return false, changed
		}
	}

	return true, changed
}

// row is a constraint restricted to the free columns of a node.
type row struct {
	coef  []float64
	rhs   float64
	slack float64 // 0 for equalities
}

// relax solves the LP relaxation of the box in the standard form of
// lp.Simplex. Fixed variables are substituted out; every free variable is
// shifted to y = x − lo ≥ 0 and its upper bound becomes the row
// y + s = hi − lo. Inequalities get their own slack column, equality rows
// dependent on earlier ones are dropped, and rows with a negative right-hand
// side are negated.
func (e *engine) relax(lo, hi []float64) relaxation {
	col := make([]int, len(e.vars))
	var free []int
	for j := range e.vars {
		col[j] = -1
		if hi[j]-lo[j] > 0.5 {
			col[j] = len(free)
			free = append(free, j)
		}
	}
	if len(free) == 0 {
		x := append([]float64(nil), lo...)
		if e.m.Check(x, checkTol) != nil {
			return relaxation{outcome: infeasible}
		}

		return relaxation{outcome: solved, bound: e.value(x), x: x}
	}

	nf := len(free)
	var rows []row
	var slacks int
	for _, l := range e.rows {
		r := row{coef: make([]float64, nf), rhs: l.rhs}
		empty := true
		for k, j := range l.idx {
			r.rhs -= l.coef[k] * lo[j]
			if c := col[j]; c >= 0 {
				r.coef[c] += l.coef[k]
				empty = false
			}
		}
		if empty {
			if !holds(0, l.rel, r.rhs) {
				return relaxation{outcome: infeasible}
			}
			continue
		}
		switch l.rel {
		case solver.LessEqual:
			r.slack = 1
			slacks++
		case solver.GreaterEqual:
			r.slack = -1
			slacks++
		}
		rows = append(rows, r)
	}
	rows, consistent := independent(rows, nf)
	if !consistent {
		return relaxation{outcome: infeasible}
	}

	nr := len(rows) + nf
	nc := 2*nf + slacks
	A := mat.NewDense(nr, nc, nil)
	b := make([]float64, nr)
	next := 2 * nf
	for i, r := range rows {
		sign := 1.0
		if r.rhs < 0 {
			sign = -1
		}
		for c, a := range r.coef {
			if a != 0 {
				A.Set(i, c, sign*a)
			}
		}
		if r.slack != 0 {
			A.Set(i, next, sign*r.slack)
			next++
		}
		b[i] = sign * r.rhs
	}
	for c, j := range free {
		i := len(rows) + c
		A.Set(i, c, 1)
		A.Set(i, nf+c, 1)
		b[i] = hi[j] - lo[j]
	}
	cost := make([]float64, nc)
	for c, j := range free {
		cost[c] = e.cost[j]
	}

	_, y, err := lp.Simplex(cost, A, b, 0, nil)
	switch {
	case errors.Is(err, lp.ErrInfeasible):
		return relaxation{outcome: infeasible}
	case err != nil:
		log.Debug().Err(err).Int("node", e.nodes).Int("free", nf).Msg("LP relaxation unresolved, splitting")

		return relaxation{outcome: unresolved}
	}
	x := append([]float64(nil), lo...)
	for c, j := range free {
		x[j] += y[c]
	}

	return relaxation{outcome: solved, bound: e.value(x), x: x}
}

// value is the internal (minimized) objective at x.
func (e *engine) value(x []float64) float64 {
	var v float64
	for j, c := range e.cost {
		v += c * x[j]
	}

	return v
}

// independent keeps the inequality rows and the equality rows that are
// linearly independent of the equalities before them. It reports false if
// a dependent equality contradicts them.
func independent(rows []row, nf int) ([]row, bool) {
	out := rows[:0]
	var basis [][]float64
	var pivots []int
	for _, r := range rows {
		if r.slack != 0 {
			out = append(out, r)
			continue
		}
		v := append(append(make([]float64, 0, nf+1), r.coef...), r.rhs)
		for k, p := range pivots {
			if f := v[p]; f != 0 {
				for j := range v {
					v[j] -= f * basis[k][j]
				}
			}
		}
		p, size := -1, pivotTol
		for j := 0; j < nf; j++ {
			if a := math.Abs(v[j]); a > size {
				p, size = j, a
			}
		}
		if p < 0 {
			if math.Abs(v[nf]) > checkTol {
				return nil, false
			}
			continue
		}
		scale := v[p]
		for j := range v {
			v[j] /= scale
		}
		basis = append(basis, v)
		pivots = append(pivots, p)
		out = append(out, r)
	}

	return out, true
}

func holds(lhs float64, rel solver.Relation, rhs float64) bool {
	switch rel {
	case solver.LessEqual:
		return lhs <= rhs+checkTol
	case solver.GreaterEqual:
		return lhs >= rhs-checkTol
	}

	return math.Abs(lhs-rhs) <= checkTol
}

// mostFractional returns the variable farthest from an integer, or -1.
func mostFractional(x []float64) int {
	best, at := solver.IntegralityTolerance, -1
	for j, v := range x {
		if d := math.Abs(v - math.Round(v)); d > best {
			best, at = d, j
		}
	}

	return at
}

func roundAll(x []float64) []float64 {
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = math.Round(v)
	}

	return out
}
