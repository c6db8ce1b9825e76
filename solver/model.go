package solver

import (
	"fmt"
	"math"
	"strings"
)

// Var identifies a model variable.
type Var int

// Term is one coefficient·variable summand.
type Term struct {
	Var  Var
	Coef float64
}

// Expr is a linear expression Σ coef·var.
type Expr []Term

// Plus returns e + coef·v.
func (e Expr) Plus(v Var, coef float64) Expr { return append(e, Term{Var: v, Coef: coef}) }

// Value evaluates e at values, indexed by Var.
func (e Expr) Value(values []float64) float64 {
	var s float64
	for _, t := range e {
		s += t.Coef * values[t.Var]
	}

	return s
}

// Relation is the sense of a linear constraint.
type Relation int

const (
	LessEqual Relation = iota
	Equal
	GreaterEqual
)

func (r Relation) String() string {
	switch r {
	case LessEqual:
		return "<="
	case Equal:
		return "="
	}

	return ">="
}

// Variable is a bounded integer variable.
type Variable struct {
	Name         string
	Lower, Upper float64
}

// Constraint is expr (rel) rhs.
type Constraint struct {
	Name string
	Expr Expr
	Rel  Relation
	RHS  float64
}

// Model is a solver-independent integer linear program over bounded
// integer variables.
type Model struct {
	vars        []Variable
	constraints []Constraint

	objective Expr
	constant  float64
	minimize  bool

	warm map[Var]float64
}

// NewModel returns an empty minimization model.
func NewModel() *Model {
	return &Model{minimize: true, warm: make(map[Var]float64)}
}

// NewIntegerVariable adds an integer variable with finite bounds.
func (m *Model) NewIntegerVariable(name string, lower, upper float64) (Var, error) {
	if math.IsNaN(lower) || math.IsNaN(upper) || math.IsInf(lower, 0) || math.IsInf(upper, 0) {
		return 0, fmt.Errorf("%w: variable %s bounds [%g,%g] not finite", ErrModel, name, lower, upper)
	}
	lo, hi := math.Ceil(lower-IntegralityTolerance), math.Floor(upper+IntegralityTolerance)
	if lo > hi {
		return 0, fmt.Errorf("%w: variable %s has empty domain [%g,%g]", ErrModel, name, lower, upper)
	}
	m.vars = append(m.vars, Variable{Name: name, Lower: lo, Upper: hi})

	return Var(len(m.vars) - 1), nil
}

// AddConstraint adds expr (rel) rhs.
func (m *Model) AddConstraint(name string, expr Expr, rel Relation, rhs float64) error {
	for _, t := range expr {
		if int(t.Var) < 0 || int(t.Var) >= len(m.vars) {
			return fmt.Errorf("%w: constraint %s references variable %d", ErrModel, name, t.Var)
		}
	}
	m.constraints = append(m.constraints, Constraint{Name: name, Expr: expr, Rel: rel, RHS: rhs})

	return nil
}

// SetObjective sets the objective expr + constant and its sense.
func (m *Model) SetObjective(expr Expr, constant float64, minimize bool) {
	m.objective, m.constant, m.minimize = expr, constant, minimize
}

// ProvideWarmStart records starting values for vars.
func (m *Model) ProvideWarmStart(vars []Var, values []float64) error {
	if len(vars) != len(values) {
		return fmt.Errorf("%w: warm start has %d variables and %d values", ErrModel, len(vars), len(values))
	}
	for i, v := range vars {
		if int(v) < 0 || int(v) >= len(m.vars) {
			return fmt.Errorf("%w: warm start references variable %d", ErrModel, v)
		}
		m.warm[v] = values[i]
	}

	return nil
}

// Fix pins v to value through its bounds.
func (m *Model) Fix(v Var, value float64) error {
	if int(v) < 0 || int(v) >= len(m.vars) {
		return fmt.Errorf("%w: fix references variable %d", ErrModel, v)
	}
	if value != math.Round(value) {
		return fmt.Errorf("%w: variable %s fixed to fractional %g", ErrModel, m.vars[v].Name, value)
	}
	m.vars[v].Lower, m.vars[v].Upper = value, value

	return nil
}

// NumVariables returns the number of variables.
func (m *Model) NumVariables() int { return len(m.vars) }

// Variable returns the definition of v.
func (m *Model) Variable(v Var) Variable { return m.vars[v] }

// Variables returns all variable definitions, indexed by Var.
func (m *Model) Variables() []Variable { return append([]Variable(nil), m.vars...) }

// Constraints returns all constraints in insertion order.
func (m *Model) Constraints() []Constraint { return append([]Constraint(nil), m.constraints...) }

// Objective returns the objective expression, its constant and its sense.
func (m *Model) Objective() (Expr, float64, bool) { return m.objective, m.constant, m.minimize }

// WarmStart returns the warm start as a full assignment, or false if some
// variable has no starting value.
func (m *Model) WarmStart() ([]float64, bool) {
	if len(m.warm) != len(m.vars) {
		return nil, false
	}
	values := make([]float64, len(m.vars))
	for v, x := range m.warm {
		values[v] = x
	}

	return values, true
}

// Evaluate returns the objective value at values, constant included.
func (m *Model) Evaluate(values []float64) float64 {
	return m.objective.Value(values) + m.constant
}

// Check reports every bound, integrality and constraint violation of values
// beyond tol in a single error.
func (m *Model) Check(values []float64, tol float64) error {
	if len(values) != len(m.vars) {
		return fmt.Errorf("%w: %d values for %d variables", ErrModel, len(values), len(m.vars))
	}
	var bad []string
	for i, v := range m.vars {
		x := values[i]
		if x < v.Lower-tol || x > v.Upper+tol {
			bad = append(bad, fmt.Sprintf("%s=%g outside [%g,%g]", v.Name, x, v.Lower, v.Upper))
		}
		if math.Abs(x-math.Round(x)) > tol {
			bad = append(bad, fmt.Sprintf("%s=%g not integral", v.Name, x))
		}
	}
	for _, c := range m.constraints {
		lhs := c.Expr.Value(values)
		var ok bool
		switch c.Rel {
		case LessEqual:
			ok = lhs <= c.RHS+tol
		case Equal:
			ok = math.Abs(lhs-c.RHS) <= tol
		default:
			ok = lhs >= c.RHS-tol
		}
		if !ok {
			bad = append(bad, fmt.Sprintf("%s: %g %v %g", c.Name, lhs, c.Rel, c.RHS))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrViolated, strings.Join(bad, "; "))
	}

	return nil
}
