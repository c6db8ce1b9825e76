package solver

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// IntegralityTolerance is the distance from an integer below which a value
// counts as integral.
const IntegralityTolerance = 1e-6

// Sentinel errors for models and solvers.
var (
	// ErrModel indicates a malformed model.
	ErrModel = errors.New("solver: malformed model")

	// ErrViolated indicates an assignment that violates the model.
	ErrViolated = errors.New("solver: assignment violates model")

	// ErrUnknownSolver indicates a name without a registered solver.
	ErrUnknownSolver = errors.New("solver: unknown solver")
)

// Status is the outcome of a solve.
type Status int

const (
	// NotSolved means a limit was hit before any solution was found.
	NotSolved Status = iota
	// Optimal means the returned solution is proven optimal.
	Optimal
	// Feasible means a solution was found but optimality is not proven.
	Feasible
	// Infeasible means the model has no solution.
	Infeasible
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "optimal"
	case Feasible:
		return "feasible"
	case Infeasible:
		return "infeasible"
	}

	return "not solved"
}

// Solution is the result of a solve. Values is indexed by Var.
type Solution struct {
	Status    Status
	Objective float64
	Values    []float64
}

// HasSolution reports whether Values holds an assignment.
func (s *Solution) HasSolution() bool { return s.Status == Optimal || s.Status == Feasible }

// Value returns the value of v.
func (s *Solution) Value(v Var) float64 { return s.Values[v] }

// Params bounds a solve. Zero values mean no limit.
type Params struct {
	TimeLimit time.Duration
	NodeLimit int
}

// Solver solves a Model.
type Solver interface {
	Name() string
	Solve(ctx context.Context, m *Model, p Params) (*Solution, error)
}

var (
	registryMu sync.RWMutex
	registry   = make(map[string]func() Solver)
)

// Register makes a solver available under name. Registering a name twice
// panics.
func Register(name string, factory func() Solver) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, dup := registry[name]; dup {
		panic("solver: Register called twice for " + name)
	}
	registry[name] = factory
}

// Lookup returns a new instance of the solver registered under name.
func Lookup(name string) (Solver, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSolver, name)
	}

	return factory(), nil
}

// Names returns the registered solver names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)

	return out
}
