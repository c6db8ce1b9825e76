package timetabling

import (
	"errors"
	"fmt"

	"github.com/katalvlaran/pesplan/cyclebase"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/solver"
	_ "github.com/katalvlaran/pesplan/solver/bnb"
)

// Sentinel errors for timetabling.
var (
	// ErrInfeasible indicates that no feasible timetable was found.
	ErrInfeasible = errors.New("timetabling: no feasible timetable")

	// ErrObjectiveMismatch indicates a solver objective that differs from
	// the objective recomputed from the decoded timetable.
	ErrObjectiveMismatch = errors.New("timetabling: objective mismatch")

	// ErrUnsupported indicates a model combination without an implementation.
	ErrUnsupported = errors.New("timetabling: unsupported combination")
)

// LinearModel selects the formulation.
type LinearModel string

// ObjectiveModel selects the objective function.
type ObjectiveModel string

const (
	// PESP uses event times and one modulo variable per activity.
	PESP LinearModel = "PESP"
	// CPF uses activity durations and one modulo variable per basis cycle.
	CPF LinearModel = "CPF"

	// Slack weighs the time above each activity's lower bound.
	Slack ObjectiveModel = "SLACK"
	// TravelingTime weighs the full durations.
	TravelingTime ObjectiveModel = "TRAVELING_TIME"
)

// Options configures a timetabling run.
type Options struct {
	Model     LinearModel
	Objective ObjectiveModel

	// CycleBasis builds the basis of the CPF formulation.
	CycleBasis cyclebase.Builder

	// Threshold is the passenger mass share of free activities kept in the
	// model (see cyclebase.SelectRelevant).
	Threshold float64

	// UseInitialTimetable seeds the solver with the current timetable.
	UseInitialTimetable bool
	// FixModulo pins the modulo variables to the initial timetable.
	FixModulo bool

	// Solver is used if set, otherwise SolverName is looked up.
	Solver     solver.Solver
	SolverName string
	Params     solver.Params

	// Epsilon is the tolerated objective difference.
	Epsilon float64
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the CPF formulation with a slack objective, the
// unexplored-vertices basis, no activity exclusion and the bnb solver.
func DefaultOptions() Options {
	return Options{
		Model:      CPF,
		Objective:  Slack,
		CycleBasis: cyclebase.UnexploredVertices{},
		Threshold:  1,
		SolverName: "bnb",
		Epsilon:    1e-4,
	}
}

// WithModel selects the formulation.
func WithModel(m LinearModel) Option {
	return func(o *Options) { o.Model = m }
}

// WithObjective selects the objective.
func WithObjective(m ObjectiveModel) Option {
	return func(o *Options) { o.Objective = m }
}

// WithCycleBasis selects the cycle basis builder.
func WithCycleBasis(b cyclebase.Builder) Option {
	return func(o *Options) { o.CycleBasis = b }
}

// WithThreshold sets the passenger mass share of free activities to keep.
func WithThreshold(v float64) Option {
	return func(o *Options) { o.Threshold = v }
}

// WithInitialTimetable seeds the solver with the current timetable and,
// if fix is set, pins the modulo variables.
func WithInitialTimetable(fix bool) Option {
	return func(o *Options) {
		o.UseInitialTimetable = true
		o.FixModulo = fix
	}
}

// WithSolver uses s.
func WithSolver(s solver.Solver) Option {
	return func(o *Options) { o.Solver = s }
}

// WithSolverName looks the solver up by name.
func WithSolverName(name string) Option {
	return func(o *Options) { o.SolverName = name }
}

// WithParams sets the solver limits.
func WithParams(p solver.Params) Option {
	return func(o *Options) { o.Params = p }
}

// WithEpsilon sets the tolerated objective difference.
func WithEpsilon(eps float64) Option {
	return func(o *Options) { o.Epsilon = eps }
}

// validate rejects unsupported combinations before any model is built and
// resolves the solver.
func (o *Options) validate(net *ean.Network) error {
	if !net.IsPeriodic() {
		return fmt.Errorf("%w: aperiodic network", ErrUnsupported)
	}
	switch o.Model {
	case PESP:
	case CPF:
		if net.ChangeModel() == ean.ChangeLCMSimplification {
			return fmt.Errorf("%w: CPF with change model %v", ErrUnsupported, net.ChangeModel())
		}
		if o.CycleBasis == nil {
			return fmt.Errorf("%w: CPF without cycle basis builder", ErrUnsupported)
		}
	default:
		return fmt.Errorf("%w: linear model %q", ErrUnsupported, o.Model)
	}
	if o.Objective != Slack && o.Objective != TravelingTime {
		return fmt.Errorf("%w: objective model %q", ErrUnsupported, o.Objective)
	}
	if o.Solver == nil {
		s, err := solver.Lookup(o.SolverName)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrUnsupported, err)
		}
		o.Solver = s
	}
	if o.UseInitialTimetable {
		if err := net.CheckTimetableCompleteness(); err != nil {
			return err
		}
	}

	return nil
}
