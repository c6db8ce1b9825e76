package timetabling

import (
	"errors"
	"fmt"
	"math"

	"github.com/katalvlaran/pesplan/cyclebase"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/solver"
)

// Formulation is a solver model of a timetabling instance together with the
// bookkeeping needed to decode its solutions.
type Formulation struct {
	Model *solver.Model

	kind      LinearModel
	objective ObjectiveModel
	net       *ean.Network

	relevant []*ean.Activity
	excluded []*ean.Activity

	// PESP: event times and one modulo variable per relevant activity.
	times   map[int]solver.Var
	offsets map[int]solver.Var

	// CPF: duration expression per relevant activity and one modulo
	// variable per cycle.
	basis     *cyclebase.Basis
	durations map[int]solver.Expr
	cycles    []solver.Var

	modulo []solver.Var
}

// Relevant returns the activities constrained by the model.
func (f *Formulation) Relevant() []*ean.Activity { return f.relevant }

// Excluded returns the free activities left out of the model.
func (f *Formulation) Excluded() []*ean.Activity { return f.excluded }

// Basis returns the cycle basis of a CPF formulation, nil for PESP.
func (f *Formulation) Basis() *cyclebase.Basis { return f.basis }

// BuildModel formulates the timetabling problem of net. Options are
// validated eagerly.
func BuildModel(net *ean.Network, opts ...Option) (*Formulation, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(net); err != nil {
		return nil, err
	}

	return build(net, o)
}

func build(net *ean.Network, o Options) (*Formulation, error) {
	f := &Formulation{
		Model:     solver.NewModel(),
		kind:      o.Model,
		objective: o.Objective,
		net:       net,
	}
	f.relevant, f.excluded = cyclebase.SelectRelevant(net, o.Threshold)

	var err error
	if o.Model == PESP {
		err = f.buildPESP()
	} else {
		err = f.buildCPF(o.CycleBasis)
	}
	if err != nil {
		if errors.Is(err, solver.ErrModel) {
			return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return nil, err
	}
	f.setObjective()

	if o.UseInitialTimetable {
		if err = f.warmStart(o.FixModulo); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// weight is the objective coefficient of a.
func weight(a *ean.Activity) float64 { return a.Passengers }

func (f *Formulation) lower(a *ean.Activity) float64 {
	lo, _ := f.net.EffectiveBounds(a)

	return math.Ceil(lo - solver.IntegralityTolerance)
}

// durationExpr is the duration of relevant activity a in model variables.
func (f *Formulation) durationExpr(a *ean.Activity) solver.Expr {
	if f.kind == CPF {
		return f.durations[a.ID]
	}
	w := f.net.Window(a)

	return solver.Expr{}.
		Plus(f.times[a.To], 1).
		Plus(f.times[a.From], -1).
		Plus(f.offsets[a.ID], float64(w.Modulus))
}

// setObjective minimizes the passenger-weighted durations of the relevant
// activities. SLACK subtracts their lower bounds; TRAVELING_TIME adds the
// excluded activities at their lower bounds.
func (f *Formulation) setObjective() {
	var (
		expr     solver.Expr
		constant float64
	)
	for _, a := range f.relevant {
		w := weight(a)
		if w == 0 {
			continue
		}
		for _, t := range f.durationExpr(a) {
			expr = expr.Plus(t.Var, w*t.Coef)
		}
		if f.objective == Slack {
			constant -= w * f.lower(a)
		}
	}
	if f.objective == TravelingTime {
		for _, a := range f.excluded {
			constant += weight(a) * f.lower(a)
		}
	}
	f.Model.SetObjective(expr, constant, true)
}

// buildPESP adds π_e in [0, T-1] per event and, per relevant activity with
// window (l, u, m), an integer p_a with l <= π_j − π_i + m·p_a <= u.
func (f *Formulation) buildPESP() error {
	period := f.net.Period()
	f.times = make(map[int]solver.Var, f.net.NumEvents())
	f.offsets = make(map[int]solver.Var, len(f.relevant))
	for _, e := range f.net.Events() {
		v, err := f.Model.NewIntegerVariable(fmt.Sprintf("pi_%d", e.ID), 0, float64(period-1))
		if err != nil {
			return err
		}
		f.times[e.ID] = v
	}
	for _, a := range f.relevant {
		w := f.net.Window(a)
		m := float64(w.Modulus)
		lo := math.Ceil((w.Lower - float64(period-1)) / m)
		hi := math.Floor((w.Upper + float64(period-1)) / m)
		p, err := f.Model.NewIntegerVariable(fmt.Sprintf("p_%d", a.ID), lo, hi)
		if err != nil {
			return err
		}
		f.offsets[a.ID] = p
		f.modulo = append(f.modulo, p)
		expr := f.durationExpr(a)
		if err = f.Model.AddConstraint(fmt.Sprintf("lower_%d", a.ID), expr, solver.GreaterEqual, w.Lower); err != nil {
			return err
		}
		if err = f.Model.AddConstraint(fmt.Sprintf("upper_%d", a.ID), expr, solver.LessEqual, w.Upper); err != nil {
			return err
		}
	}

	return nil
}

// buildCPF adds one duration per relevant activity, one modulo parameter z_C
// per basis cycle, and Σ ±x_a − T·z_C = 0 for every cycle. A HEADWAY under
// the LCM representation is instance·(T/lcm) + offset with the instance in
// [0, lcm−1] and the offset in [h, T/lcm − h].
func (f *Formulation) buildCPF(builder cyclebase.Builder) error {
	basis, err := builder.Build(f.net, f.relevant)
	if err != nil {
		return err
	}
	f.basis = basis
	f.durations = make(map[int]solver.Expr, len(f.relevant))
	for _, a := range f.relevant {
		w := f.net.Window(a)
		if w.Residue {
			inst, err := f.Model.NewIntegerVariable(fmt.Sprintf("inst_%d", a.ID), 0, float64(f.net.Lcm(a)-1))
			if err != nil {
				return err
			}
			off, err := f.Model.NewIntegerVariable(fmt.Sprintf("off_%d", a.ID), w.Lower, w.Upper)
			if err != nil {
				return err
			}
			f.durations[a.ID] = solver.Expr{}.Plus(inst, float64(w.Modulus)).Plus(off, 1)
			continue
		}
		lo, hi := f.net.EffectiveBounds(a)
		x, err := f.Model.NewIntegerVariable(fmt.Sprintf("x_%d", a.ID), lo, hi)
		if err != nil {
			return err
		}
		f.durations[a.ID] = solver.Expr{}.Plus(x, 1)
	}

	period := float64(f.net.Period())
	for _, c := range basis.Cycles {
		z, err := f.Model.NewIntegerVariable(fmt.Sprintf("z_%d", c.Key), c.Lower, c.Upper)
		if err != nil {
			return err
		}
		f.cycles = append(f.cycles, z)
		f.modulo = append(f.modulo, z)
		var expr solver.Expr
		for _, id := range c.Activities {
			sign := 1.0
			if !c.Orientation[id] {
				sign = -1
			}
			for _, t := range f.durations[id] {
				expr = expr.Plus(t.Var, sign*t.Coef)
			}
		}
		expr = expr.Plus(z, -period)
		if err = f.Model.AddConstraint(fmt.Sprintf("cycle_%d", c.Key), expr, solver.Equal, 0); err != nil {
			return err
		}
	}

	return nil
}

// warmStart derives variable values from the current timetable.
func (f *Formulation) warmStart(fix bool) error {
	period := f.net.Period()
	diff := func(a *ean.Activity) int {
		from, _ := f.net.Event(a.From)
		to, _ := f.net.Event(a.To)
		tf, _ := from.Time()
		tt, _ := to.Time()
		return tt - tf
	}
	// window returns the duration of a in its window, reduced from d.
	window := func(a *ean.Activity, d int) (int, error) {
		w := f.net.Window(a)
		lo := int(math.Ceil(w.Lower - solver.IntegralityTolerance))
		v := lo + ean.Mod(d-lo, w.Modulus)
		if float64(v) > w.Upper+solver.IntegralityTolerance {
			return 0, fmt.Errorf("%w: initial timetable violates activity %d", ean.ErrBoundViolation, a.ID)
		}
		return v, nil
	}
	var (
		vars []solver.Var
		xs   []float64
	)
	set := func(v solver.Var, x float64) {
		vars = append(vars, v)
		xs = append(xs, x)
	}

	values := make(map[solver.Var]float64)
	switch f.kind {
	case PESP:
		for id, v := range f.times {
			e, _ := f.net.Event(id)
			t, _ := e.Time()
			set(v, float64(ean.Mod(t, period)))
		}
		for _, a := range f.relevant {
			d := diff(a)
			v, err := window(a, d)
			if err != nil {
				return err
			}
			p := float64((v - d) / f.net.Window(a).Modulus)
			set(f.offsets[a.ID], p)
			values[f.offsets[a.ID]] = p
		}
	case CPF:
		durations := make(map[int]float64, len(f.relevant))
		for _, a := range f.relevant {
			w := f.net.Window(a)
			if w.Residue {
				d := ean.Mod(diff(a), period)
				inst, off := d/w.Modulus, ean.Mod(d, w.Modulus)
				if float64(off) < w.Lower || float64(off) > w.Upper {
					return fmt.Errorf("%w: initial timetable violates headway %d", ean.ErrBoundViolation, a.ID)
				}
				expr := f.durations[a.ID]
				set(expr[0].Var, float64(inst))
				set(expr[1].Var, float64(off))
				durations[a.ID] = float64(d)
				continue
			}
			v, err := window(a, diff(a))
			if err != nil {
				return err
			}
			set(f.durations[a.ID][0].Var, float64(v))
			durations[a.ID] = float64(v)
		}
		for i, c := range f.basis.Cycles {
			z := c.SignedSum(func(id int) float64 { return durations[id] }) / float64(period)
			set(f.cycles[i], z)
			values[f.cycles[i]] = z
		}
	}
	if err := f.Model.ProvideWarmStart(vars, xs); err != nil {
		return err
	}
	if !fix {
		return nil
	}
	for _, v := range f.modulo {
		if err := f.Model.Fix(v, values[v]); err != nil {
			return err
		}
	}

	return nil
}
