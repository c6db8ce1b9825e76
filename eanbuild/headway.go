package eanbuild

import (
	"fmt"

	"github.com/katalvlaran/pesplan/ean"
)

// Bounds is the duration interval of one generated activity.
type Bounds struct {
	Lower, Upper float64
}

// HeadwayExpansionPolicy turns the headway h of a link shared by two lines
// with frequencies f1 and f2 into the bounds of the HEADWAY activities that
// separate one departure of the first line from one of the second.
type HeadwayExpansionPolicy interface {
	Expand(h, f1, f2, period int) ([]Bounds, error)
}

// PolicyFor returns the policy implementing the given headway model.
func PolicyFor(m ean.HeadwayModel) (HeadwayExpansionPolicy, error) {
	switch m {
	case ean.HeadwaySimple:
		return SimpleHeadway{}, nil
	case ean.HeadwayProductOfFrequencies:
		return ProductOfFrequencies{}, nil
	case ean.HeadwayLCMOfFrequencies:
		return LCMOfFrequencies{}, nil
	case ean.HeadwayLCMRepresentation:
		return LCMRepresentation{}, nil
	default:
		return nil, fmt.Errorf("%w: headway model %d", ErrUnsupported, int(m))
	}
}

// SimpleHeadway ignores frequencies: one activity with bounds [h, T-h].
type SimpleHeadway struct{}

// Expand implements HeadwayExpansionPolicy.
func (SimpleHeadway) Expand(h, _, _, period int) ([]Bounds, error) {
	if 2*h > period {
		return nil, fmt.Errorf("%w: headway %d in period %d", ErrHeadwayTooLarge, h, period)
	}

	return []Bounds{{Lower: float64(h), Upper: float64(period - h)}}, nil
}

// ProductOfFrequencies separates every instance pair: f1·f2 activities
// shifted by i·T/f1 + j·T/f2.
type ProductOfFrequencies struct{}

// Expand implements HeadwayExpansionPolicy.
func (ProductOfFrequencies) Expand(h, f1, f2, period int) ([]Bounds, error) {
	f1, f2 = positive(f1), positive(f2)
	if period%f1 != 0 || period%f2 != 0 {
		return nil, fmt.Errorf("%w: period %d by frequencies %d and %d", ErrPeriodNotDivisible, period, f1, f2)
	}
	if 2*h > period {
		return nil, fmt.Errorf("%w: headway %d in period %d", ErrHeadwayTooLarge, h, period)
	}
	out := make([]Bounds, 0, f1*f2)
	for i := 0; i < f1; i++ {
		for j := 0; j < f2; j++ {
			out = append(out, shifted(h, i*period/f1+j*period/f2, period))
		}
	}

	return out, nil
}

// LCMOfFrequencies uses the distinct relative offsets only: lcm(f1,f2)
// activities shifted by k·T/lcm.
type LCMOfFrequencies struct{}

// Expand implements HeadwayExpansionPolicy.
func (LCMOfFrequencies) Expand(h, f1, f2, period int) ([]Bounds, error) {
	l := ean.LCM(f1, f2)
	if period%l != 0 {
		return nil, fmt.Errorf("%w: period %d by lcm %d", ErrPeriodNotDivisible, period, l)
	}
	step := period / l
	if 2*h > step {
		return nil, fmt.Errorf("%w: headway %d in period/lcm %d", ErrHeadwayTooLarge, h, step)
	}
	out := make([]Bounds, 0, l)
	for k := 0; k < l; k++ {
		out = append(out, shifted(h, k*step, period))
	}

	return out, nil
}

// LCMRepresentation keeps one activity with degenerate bounds [h,h]; the
// timetabling model decomposes its duration into instance·(T/lcm) + offset.
type LCMRepresentation struct{}

// Expand implements HeadwayExpansionPolicy.
func (LCMRepresentation) Expand(h, f1, f2, period int) ([]Bounds, error) {
	l := ean.LCM(f1, f2)
	if period%l != 0 {
		return nil, fmt.Errorf("%w: period %d by lcm %d", ErrPeriodNotDivisible, period, l)
	}
	if 2*h > period/l {
		return nil, fmt.Errorf("%w: headway %d in period/lcm %d", ErrHeadwayTooLarge, h, period/l)
	}

	return []Bounds{{Lower: float64(h), Upper: float64(h)}}, nil
}

// shifted returns [h+o, T-h+o] with the lower bound moved into [0, T).
func shifted(h, offset, period int) Bounds {
	lo := ean.Mod(h+offset, period)

	return Bounds{Lower: float64(lo), Upper: float64(lo + period - 2*h)}
}

func positive(f int) int {
	if f <= 0 {
		return 1
	}

	return f
}
