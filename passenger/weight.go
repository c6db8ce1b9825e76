package passenger

import (
	"fmt"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/katalvlaran/pesplan/ean"
)

// DriveModel selects the assumed duration of DRIVE activities.
type DriveModel string

// WaitModel selects the assumed duration of WAIT activities.
type WaitModel string

// ChangeModel selects the assumed duration of CHANGE activities.
type ChangeModel string

const (
	DriveMinimal    DriveModel = "MINIMAL"
	DriveAverage    DriveModel = "AVERAGE"
	DriveMaximal    DriveModel = "MAXIMAL"
	DriveEdgeLength DriveModel = "EDGE_LENGTH"

	WaitMinimal WaitModel = "MINIMAL"
	WaitAverage WaitModel = "AVERAGE"
	WaitMaximal WaitModel = "MAXIMAL"
	WaitZero    WaitModel = "ZERO"

	// ChangeMinimal uses the lower bound.
	ChangeMinimal ChangeModel = "MINIMAL_CHANGING_TIME"
	// ChangeFormula1 adds half the headway of the connecting line: T/(2·f_to).
	ChangeFormula1 ChangeModel = "FORMULA_1"
	// ChangeFormula2 adds half the common headway: T/(2·lcm(f_from,f_to)).
	ChangeFormula2 ChangeModel = "FORMULA_2"
	// ChangeFormula3 adds T/(2·f_from·f_to).
	ChangeFormula3 ChangeModel = "FORMULA_3"
	// ChangeFormula4 adds (upper−lower)/(2·f_to).
	ChangeFormula4 ChangeModel = "FORMULA_4"
	// ChangeExpression evaluates WeightOptions.Expression.
	ChangeExpression ChangeModel = "EXPRESSION"
)

// WeightOptions configures a Weigher.
type WeightOptions struct {
	Drive  DriveModel
	Wait   WaitModel
	Change ChangeModel

	// ChangePenalty is added to every CHANGE weight.
	ChangePenalty float64

	// Expression is an expr-lang expression over lower, upper, period,
	// freqFrom, freqTo and lcm, used by ChangeExpression.
	Expression string

	// UseTimetable trusts realized activity durations when present.
	UseTimetable bool

	// CacheAssumptions stores every computed weight as the activity's
	// initial duration assumption.
	CacheAssumptions bool
}

// DefaultWeightOptions returns average drive and wait times, minimal change
// times and no penalty.
func DefaultWeightOptions() WeightOptions {
	return WeightOptions{
		Drive:  DriveAverage,
		Wait:   WaitAverage,
		Change: ChangeMinimal,
	}
}

// Weigher assigns assumed traversal durations to passenger-usable activities.
type Weigher struct {
	net     *ean.Network
	opts    WeightOptions
	program *vm.Program
}

// NewWeigher validates opts and compiles the change expression, if any.
func NewWeigher(net *ean.Network, opts WeightOptions) (*Weigher, error) {
	switch opts.Drive {
	case DriveMinimal, DriveAverage, DriveMaximal, DriveEdgeLength:
	default:
		return nil, fmt.Errorf("%w: drive model %q", ErrModel, opts.Drive)
	}
	switch opts.Wait {
	case WaitMinimal, WaitAverage, WaitMaximal, WaitZero:
	default:
		return nil, fmt.Errorf("%w: wait model %q", ErrModel, opts.Wait)
	}
	w := &Weigher{net: net, opts: opts}
	switch opts.Change {
	case ChangeMinimal, ChangeFormula1, ChangeFormula2, ChangeFormula3, ChangeFormula4:
	case ChangeExpression:
		program, err := expr.Compile(opts.Expression, expr.Env(changeEnv(0, 0, 0, 1, 1)), expr.AsFloat64())
		if err != nil {
			return nil, fmt.Errorf("%w: change expression: %v", ErrModel, err)
		}
		w.program = program
	default:
		return nil, fmt.Errorf("%w: change model %q", ErrModel, opts.Change)
	}

	return w, nil
}

func changeEnv(lower, upper, period float64, fFrom, fTo int) map[string]any {
	return map[string]any{
		"lower":    lower,
		"upper":    upper,
		"period":   period,
		"freqFrom": float64(fFrom),
		"freqTo":   float64(fTo),
		"lcm":      float64(ean.LCM(fFrom, fTo)),
	}
}

// Weight returns the assumed duration of a. Cached assumptions win, then
// trusted timetable durations, then the configured model.
func (w *Weigher) Weight(a *ean.Activity) (float64, error) {
	if v, ok := a.Assumption(); ok {
		return v, nil
	}
	var penalty float64
	if a.Type == ean.Change {
		penalty = w.opts.ChangePenalty
	}
	if w.opts.UseTimetable {
		if d, ok := a.Duration(); ok {
			return float64(d) + penalty, nil
		}
	}
	v, err := w.model(a)
	if err != nil {
		return 0, err
	}
	v += penalty
	if w.opts.CacheAssumptions {
		a.SetAssumption(v)
	}

	return v, nil
}

func (w *Weigher) model(a *ean.Activity) (float64, error) {
	switch a.Type {
	case ean.Drive:
		switch w.opts.Drive {
		case DriveMinimal:
			return a.Lower, nil
		case DriveMaximal:
			return a.Upper, nil
		case DriveEdgeLength:
			if a.Link == nil {
				return 0, fmt.Errorf("%w: drive activity %d has no link", ErrModel, a.ID)
			}
			if pool := w.net.LinePool(); pool != nil {
				return pool.PTN().LinkLength(a.Link), nil
			}
			return a.Link.Length, nil
		}
		return (a.Lower + a.Upper) / 2, nil
	case ean.Wait:
		switch w.opts.Wait {
		case WaitMinimal:
			return a.Lower, nil
		case WaitMaximal:
			return a.Upper, nil
		case WaitZero:
			return 0, nil
		}
		return (a.Lower + a.Upper) / 2, nil
	case ean.Change:
		return w.change(a)
	}

	return 0, fmt.Errorf("%w: activity %d of type %v is not passenger-usable", ErrModel, a.ID, a.Type)
}

func (w *Weigher) change(a *ean.Activity) (float64, error) {
	from, _ := w.net.Event(a.From)
	to, _ := w.net.Event(a.To)
	fFrom, fTo := max(w.net.Frequency(from), 1), max(w.net.Frequency(to), 1)
	period := float64(w.net.Period())
	switch w.opts.Change {
	case ChangeFormula1:
		return a.Lower + period/float64(2*fTo), nil
	case ChangeFormula2:
		return a.Lower + period/float64(2*ean.LCM(fFrom, fTo)), nil
	case ChangeFormula3:
		return a.Lower + period/float64(2*fFrom*fTo), nil
	case ChangeFormula4:
		return a.Lower + a.Span()/float64(2*fTo), nil
	case ChangeExpression:
		out, err := expr.Run(w.program, changeEnv(a.Lower, a.Upper, period, fFrom, fTo))
		if err != nil {
			return 0, fmt.Errorf("%w: change activity %d: %v", ErrModel, a.ID, err)
		}
		return out.(float64), nil
	}

	return a.Lower, nil
}
