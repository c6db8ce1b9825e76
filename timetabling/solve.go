package timetabling

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/solver"
)

// Result summarizes a timetabling run.
type Result struct {
	Status    solver.Status
	Objective float64

	Relevant  int
	Excluded  int
	Cycles    int
	Variables int
}

// Solve computes a passenger-weighted optimal periodic timetable of net.
// On success every event has a time and every activity a duration, and
// the solver objective has been verified against the decoded timetable.
func Solve(ctx context.Context, net *ean.Network, opts ...Option) (*Result, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(net); err != nil {
		return nil, err
	}
	f, err := build(net, o)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Relevant:  len(f.relevant),
		Excluded:  len(f.excluded),
		Variables: f.Model.NumVariables(),
	}
	if f.basis != nil {
		res.Cycles = len(f.basis.Cycles)
	}
	log.Info().
		Str("model", string(o.Model)).
		Str("solver", o.Solver.Name()).
		Int("relevant", res.Relevant).
		Int("excluded", res.Excluded).
		Int("cycles", res.Cycles).
		Int("variables", res.Variables).
		Msg("solving timetabling model")

	sol, err := o.Solver.Solve(ctx, f.Model, o.Params)
	if err != nil {
		return nil, fmt.Errorf("timetabling: solver %s: %w", o.Solver.Name(), err)
	}
	res.Status = sol.Status
	if !sol.HasSolution() {
		return res, fmt.Errorf("%w: solver status %v", ErrInfeasible, sol.Status)
	}
	if err = f.Decode(sol); err != nil {
		return res, err
	}
	ref, err := f.Verify(sol.Objective, o.Epsilon)
	if err != nil {
		return res, err
	}
	res.Objective = ref
	log.Info().
		Str("status", sol.Status.String()).
		Float64("objective", ref).
		Msg("timetable computed")

	return res, nil
}

// Decode writes the solution into the network. CPF durations are propagated
// over the relevant activities into a timetable; PESP event times are
// written directly. In both cases all durations are then derived from the
// timetable, so excluded activities get the duration their events imply.
func (f *Formulation) Decode(sol *solver.Solution) error {
	round := func(e solver.Expr) int { return int(math.Round(e.Value(sol.Values))) }

	if f.kind == PESP {
		f.net.ClearDurations()
		for id, v := range f.times {
			e, _ := f.net.Event(id)
			e.SetTime(int(math.Round(sol.Value(v))))
		}

		return f.net.ComputeDurationsFromTimetable()
	}

	f.net.ClearDurations()
	f.net.ClearTimetable()
	relevant := make(map[int]bool, len(f.relevant))
	for _, a := range f.relevant {
		a.SetDuration(round(f.durations[a.ID]))
		relevant[a.ID] = true
	}

	return f.net.ComputeTimetableFromDurations(func(a *ean.Activity) bool { return relevant[a.ID] })
}

// ReferenceObjective recomputes the objective from the activity durations
// of the decoded timetable. Excluded activities count with the duration
// their events imply, like every other activity.
func (f *Formulation) ReferenceObjective() (float64, error) {
	rel, excl, err := f.reference()

	return rel + excl, err
}

// reference splits the recomputed objective into the part of the relevant
// activities and the part the model does not see: the weighted time of the
// excluded activities above their lower bounds (TRAVELING_TIME already
// counts the lower bounds as a constant).
func (f *Formulation) reference() (relevant, excluded float64, err error) {
	for _, a := range f.relevant {
		v, err := f.duration(a)
		if err != nil {
			return 0, 0, err
		}
		if f.objective == Slack {
			v -= f.lower(a)
		}
		relevant += weight(a) * v
	}
	for _, a := range f.excluded {
		v, err := f.duration(a)
		if err != nil {
			return 0, 0, err
		}
		if f.objective == TravelingTime {
			relevant += weight(a) * f.lower(a)
		}
		excluded += weight(a) * (v - f.lower(a))
	}

	return relevant, excluded, nil
}

func (f *Formulation) duration(a *ean.Activity) (float64, error) {
	d, ok := a.Duration()
	if !ok {
		return 0, fmt.Errorf("%w: activity %d", ean.ErrTimetableIncomplete, a.ID)
	}
	if f.net.Window(a).Residue {
		return float64(ean.Mod(d, f.net.Period())), nil
	}

	return float64(d), nil
}

// Verify compares the solver objective with ReferenceObjective and returns
// the reference value. If the difference is exactly the time that excluded
// passenger-carrying activities spend above their lower bounds, the error is
// ean.ErrObjectiveRisk; any other difference is ErrObjectiveMismatch.
func (f *Formulation) Verify(reported, eps float64) (float64, error) {
	rel, excl, err := f.reference()
	if err != nil {
		return 0, err
	}
	ref := rel + excl
	if math.Abs(ref-reported) <= eps {
		return ref, nil
	}
	if excl > eps && math.Abs(rel-reported) <= eps {
		return ref, fmt.Errorf("%w: excluded activities add %g to the reported %g, timetable gives %g",
			ean.ErrObjectiveRisk, excl, reported, ref)
	}

	return ref, fmt.Errorf("%w: solver reported %g, timetable gives %g", ErrObjectiveMismatch, reported, ref)
}
