package ean

import (
	"fmt"
	"math"
	"strings"

	"github.com/katalvlaran/pesplan/bfs"
)

// PassengerEpsilon is the passenger count below which an activity is
// considered empty.
const PassengerEpsilon = 1e-6

// Lcm returns lcm(freq(from.line), freq(to.line)) for CHANGE and HEADWAY
// activities and 1 for every other type.
func (n *Network) Lcm(a *Activity) int {
	if a.Type != Change && a.Type != Headway {
		return 1
	}

	return LCM(n.Frequency(n.events[a.From]), n.Frequency(n.events[a.To]))
}

// Window describes the periodic feasibility window of an activity: a
// duration d is feasible iff some d' ≡ d (mod Modulus) lies in
// [Lower, Upper]. Modulus is 0 for aperiodic networks.
type Window struct {
	Lower, Upper float64
	Modulus      int

	// Residue marks a HEADWAY under the LCM representation: its duration is
	// stored modulo the period and only its residue modulo Modulus is bounded.
	Residue bool
}

// Window returns the feasibility window of a.
func (n *Network) Window(a *Activity) Window {
	w := Window{Lower: a.Lower, Upper: a.Upper, Modulus: n.period}
	if !n.periodic {
		return w
	}
	switch {
	case a.Type == Change && n.changeModel == ChangeLCMSimplification:
		w.Modulus = n.period / n.Lcm(a)
	case n.isLCMRepresented(a):
		m := n.period / n.Lcm(a)
		w.Modulus = m
		w.Upper = float64(m) - a.Lower
		w.Residue = true
	}

	return w
}

// EffectiveBounds returns the interval the duration of a is stored in.
// A HEADWAY under the LCM representation has degenerate input bounds [h,h]
// but ranges over [h, period-h].
func (n *Network) EffectiveBounds(a *Activity) (float64, float64) {
	if n.periodic && n.isLCMRepresented(a) {
		return a.Lower, float64(n.period) - a.Lower
	}

	return a.Lower, a.Upper
}

func (n *Network) isLCMRepresented(a *Activity) bool {
	return a.Type == Headway && n.headwayModel == HeadwayLCMRepresentation && a.Lower == a.Upper
}

// Reduce maps a raw time difference d into the window of a. The boolean is
// false if no representative of d satisfies the bounds.
func (n *Network) Reduce(a *Activity, d int) (int, bool) {
	w := n.Window(a)
	if w.Modulus <= 0 {
		return d, float64(d) >= w.Lower && float64(d) <= w.Upper
	}
	if w.Residue {
		r := Mod(d, w.Modulus)

		return Mod(d, n.period), float64(r) >= w.Lower && float64(r) <= w.Upper
	}
	lo := int(math.Ceil(w.Lower - 1e-9))
	red := lo + Mod(d-lo, w.Modulus)

	return red, float64(red) <= w.Upper+1e-9
}

// CheckTimetableCompleteness fails with one error naming every event
// without a time.
func (n *Network) CheckTimetableCompleteness() error {
	var missing []int
	for _, e := range n.Events() {
		if !e.hasTime {
			missing = append(missing, e.ID)
		}
	}

	return aggregate(ErrTimetableIncomplete, "events without time", missing)
}

// CheckPassengerDataCompleteness fails with one error naming every event
// without passenger data.
func (n *Network) CheckPassengerDataCompleteness() error {
	var missing []int
	for _, e := range n.Events() {
		if !e.hasPassengers {
			missing = append(missing, e.ID)
		}
	}

	return aggregate(ErrPassengersIncomplete, "events without passengers", missing)
}

// CheckStructuralCompleteness fails with one error naming every event whose
// line direction was never determined.
func (n *Network) CheckStructuralCompleteness() error {
	var missing []int
	for _, e := range n.Events() {
		if _, ok := n.unaligned[e.ID]; ok {
			missing = append(missing, e.ID)
		}
	}

	return aggregate(ErrUnaligned, "unaligned events", missing)
}

func aggregate(sentinel error, what string, ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}

	return fmt.Errorf("%w: %d %s: %s", sentinel, len(ids), what, strings.Join(parts, ", "))
}

// ComputeDurationsFromTimetable sets duration = to.time − from.time for
// every activity, reduced into its feasibility window. If an activity
// already has a duration, the new one must agree modulo the period, and may
// only differ at all if the activity carries no passengers. The network is
// left unchanged on error.
func (n *Network) ComputeDurationsFromTimetable() error {
	if err := n.CheckTimetableCompleteness(); err != nil {
		return err
	}
	acts := n.Activities()
	derived := make([]int, len(acts))
	for i, a := range acts {
		d := n.events[a.To].time - n.events[a.From].time
		red, ok := n.Reduce(a, d)
		if !ok {
			return fmt.Errorf("%w: %v activity %d: time difference %d outside [%g,%g]",
				ErrBoundViolation, a.Type, a.ID, d, a.Lower, a.Upper)
		}
		if a.hasDuration && a.duration != red {
			if !n.periodic || Mod(a.duration-red, n.period) != 0 {
				return fmt.Errorf("%w: %v activity %d: stored %d, timetable gives %d",
					ErrDurationMismatch, a.Type, a.ID, a.duration, red)
			}
			if a.Passengers > PassengerEpsilon {
				return fmt.Errorf("%w: %v activity %d with %g passengers: stored %d, timetable gives %d",
					ErrObjectiveRisk, a.Type, a.ID, a.Passengers, a.duration, red)
			}
		}
		derived[i] = red
	}
	for i, a := range acts {
		a.SetDuration(derived[i])
	}

	return nil
}

// ComputeTimetableFromDurations assigns event times by breadth-first
// propagation along activities that have a duration and are admitted by
// filter (nil admits all). Each connected component is rooted at its
// smallest event index, which gets time 0. Times are wrapped into
// [0, period). Durations are then re-derived from the timetable.
func (n *Network) ComputeTimetableFromDurations(filter func(*Activity) bool) error {
	admit := func(_ int, arc bfs.Arc) bool {
		a := n.activities[arc.Edge]
		return a.hasDuration && (filter == nil || filter(a))
	}
	events := n.Events()
	ids := make([]int, len(events))
	for i, e := range events {
		ids[i] = e.ID
	}
	res, err := bfs.Forest(n, ids, bfs.WithFilterArc(admit))
	if err != nil {
		return err
	}

	times := make(map[int]int, len(ids))
	for _, v := range res.Order {
		arc, ok := res.ParentArc[v]
		if !ok {
			times[v] = 0
			continue
		}
		d := n.activities[arc.Edge].duration
		if arc.Forward {
			times[v] = times[res.Parent[v]] + d
		} else {
			times[v] = times[res.Parent[v]] - d
		}
		if n.periodic {
			times[v] = Mod(times[v], n.period)
		}
	}
	for _, e := range events {
		e.SetTime(times[e.ID])
	}

	return n.ComputeDurationsFromTimetable()
}

// ClearDurations forgets every activity duration.
func (n *Network) ClearDurations() {
	for _, a := range n.activities {
		a.ClearDuration()
	}
}

// ClearTimetable forgets every event time.
func (n *Network) ClearTimetable() {
	for _, e := range n.events {
		e.ClearTime()
	}
}

// ResetPassengers sets the passengers of every event and activity to zero.
func (n *Network) ResetPassengers() {
	for _, e := range n.events {
		e.SetPassengers(0)
	}
	for _, a := range n.activities {
		a.Passengers = 0
	}
}

// ClearAssumptions drops every cached initial duration assumption.
func (n *Network) ClearAssumptions() {
	for _, a := range n.activities {
		a.ClearAssumption()
	}
}
