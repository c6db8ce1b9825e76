package bnb_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/solver"
	"github.com/katalvlaran/pesplan/solver/bnb"
)

// knapsack: max 5x + 4y s.t. 6x + 4y <= 24, x + 2y <= 6, x,y in [0,10].
// The relaxation peaks at (3, 1.5) with 21; the integer optimum is (4, 0).
func knapsack(t *testing.T) (*solver.Model, solver.Var, solver.Var) {
	t.Helper()
	m := solver.NewModel()
	x, err := m.NewIntegerVariable("x", 0, 10)
	require.NoError(t, err)
	y, err := m.NewIntegerVariable("y", 0, 10)
	require.NoError(t, err)
	require.NoError(t, m.AddConstraint("c1", solver.Expr{}.Plus(x, 6).Plus(y, 4), solver.LessEqual, 24))
	require.NoError(t, m.AddConstraint("c2", solver.Expr{}.Plus(x, 1).Plus(y, 2), solver.LessEqual, 6))
	m.SetObjective(solver.Expr{}.Plus(x, 5).Plus(y, 4), 0, false)

	return m, x, y
}

func TestSolve_Knapsack(t *testing.T) {
	m, x, y := knapsack(t)
	s, err := solver.Lookup(bnb.Name)
	require.NoError(t, err)

	sol, err := s.Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	assert.Equal(t, solver.Optimal, sol.Status)
	assert.InDelta(t, 20, sol.Objective, 1e-9)
	assert.Equal(t, 4.0, sol.Value(x))
	assert.Equal(t, 0.0, sol.Value(y))
}

func TestSolve_NegativeBoundsAndEquality(t *testing.T) {
	m := solver.NewModel()
	x, _ := m.NewIntegerVariable("x", -3, 3)
	y, _ := m.NewIntegerVariable("y", -3, 3)
	require.NoError(t, m.AddConstraint("sum", solver.Expr{}.Plus(x, 1).Plus(y, 1), solver.Equal, -1))
	m.SetObjective(solver.Expr{}.Plus(x, 1).Plus(y, -1), 10, true)

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, -3.0, sol.Value(x))
	assert.Equal(t, 2.0, sol.Value(y))
	assert.InDelta(t, 5, sol.Objective, 1e-9)
}

func TestSolve_IntegerInfeasible(t *testing.T) {
	m := solver.NewModel()
	x, _ := m.NewIntegerVariable("x", 0, 1)
	y, _ := m.NewIntegerVariable("y", 0, 1)
	require.NoError(t, m.AddConstraint("odd", solver.Expr{}.Plus(x, 2).Plus(y, 2), solver.Equal, 3))
	m.SetObjective(solver.Expr{}.Plus(x, 1), 0, true)

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
	assert.False(t, sol.HasSolution())
}

func TestSolve_LimitsAndWarmStart(t *testing.T) {
	m, x, y := knapsack(t)
	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{NodeLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, solver.NotSolved, sol.Status)

	require.NoError(t, m.ProvideWarmStart([]solver.Var{x, y}, []float64{2, 2}))
	sol, err = (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{NodeLimit: 1})
	require.NoError(t, err)
	assert.Equal(t, solver.Feasible, sol.Status)
	assert.InDelta(t, 18, sol.Objective, 1e-9)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sol, err = (&bnb.Solver{}).Solve(ctx, m, solver.Params{})
	require.NoError(t, err)
	assert.Equal(t, solver.Feasible, sol.Status)
}

func TestSolve_FixedVariable(t *testing.T) {
	m, x, y := knapsack(t)
	require.NoError(t, m.Fix(x, 2))

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, 2.0, sol.Value(x))
	assert.Equal(t, 2.0, sol.Value(y))
	assert.InDelta(t, 18, sol.Objective, 1e-9)
}

// Repeated and dependent equalities plus a fixed variable leave the
// relaxation rank deficient unless the reduced system is solved.
func TestSolve_DependentRows(t *testing.T) {
	m := solver.NewModel()
	x, _ := m.NewIntegerVariable("x", 0, 5)
	y, _ := m.NewIntegerVariable("y", 0, 5)
	z, _ := m.NewIntegerVariable("z", 0, 5)
	w, _ := m.NewIntegerVariable("w", 0, 5)
	require.NoError(t, m.Fix(w, 2))
	sum := solver.Expr{}.Plus(x, 1).Plus(y, 1)
	require.NoError(t, m.AddConstraint("sum", sum, solver.Equal, 4))
	require.NoError(t, m.AddConstraint("sum again", sum, solver.Equal, 4))
	require.NoError(t, m.AddConstraint("sum doubled", solver.Expr{}.Plus(x, 2).Plus(y, 2), solver.Equal, 8))
	require.NoError(t, m.AddConstraint("tail", solver.Expr{}.Plus(y, 1).Plus(z, 1), solver.Equal, 3))
	require.NoError(t, m.AddConstraint("difference", solver.Expr{}.Plus(x, 1).Plus(z, -1), solver.Equal, 1))
	require.NoError(t, m.AddConstraint("cap", solver.Expr{}.Plus(w, 1).Plus(x, 1), solver.LessEqual, 7))
	require.NoError(t, m.AddConstraint("fixed only", solver.Expr{}.Plus(w, 3), solver.Equal, 6))
	m.SetObjective(solver.Expr{}.Plus(x, 1).Plus(z, 1), 0, true)

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, 1.0, sol.Value(x))
	assert.Equal(t, 3.0, sol.Value(y))
	assert.Equal(t, 0.0, sol.Value(z))
	assert.Equal(t, 2.0, sol.Value(w))
	assert.NoError(t, m.Check(sol.Values, 1e-9))
}

func TestSolve_ContradictoryDependentRows(t *testing.T) {
	m := solver.NewModel()
	x, _ := m.NewIntegerVariable("x", 0, 5)
	y, _ := m.NewIntegerVariable("y", 0, 5)
	require.NoError(t, m.AddConstraint("sum", solver.Expr{}.Plus(x, 1).Plus(y, 1), solver.Equal, 4))
	require.NoError(t, m.AddConstraint("scaled", solver.Expr{}.Plus(x, 2).Plus(y, 2), solver.Equal, 9))
	m.SetObjective(solver.Expr{}.Plus(x, 1), 0, true)

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{})
	require.NoError(t, err)
	assert.Equal(t, solver.Infeasible, sol.Status)
}

// Bound propagation alone settles a chain of equalities.
func TestSolve_PropagationFixesChain(t *testing.T) {
	m := solver.NewModel()
	vars := make([]solver.Var, 6)
	for i := range vars {
		vars[i], _ = m.NewIntegerVariable("v", -10, 10)
	}
	require.NoError(t, m.Fix(vars[0], 3))
	for i := 1; i < len(vars); i++ {
		diff := solver.Expr{}.Plus(vars[i], 1).Plus(vars[i-1], -1)
		require.NoError(t, m.AddConstraint("step", diff, solver.Equal, 1))
	}
	m.SetObjective(solver.Expr{}.Plus(vars[5], 1), 0, false)

	sol, err := (&bnb.Solver{}).Solve(context.Background(), m, solver.Params{NodeLimit: 1})
	require.NoError(t, err)
	require.Equal(t, solver.Optimal, sol.Status)
	assert.Equal(t, 8.0, sol.Value(vars[5]))
}
