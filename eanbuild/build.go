package eanbuild

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/network"
)

// trip is one frequency instance of one direction of a line. deps[i] and
// arrs[i] are the events at the start and end of the i-th link.
type trip struct {
	line     *network.Line
	dir      ean.Direction
	instance int
	deps     []int
	arrs     []int
}

type builder struct {
	opts   Options
	policy HeadwayExpansionPolicy
	pool   *network.LinePool
	net    *ean.Network
	period int
	trips  []*trip

	nextEvent    int
	nextActivity int
}

// Build generates the periodic EAN of the active lines of pool.
//
// Phase one adds, per line direction and frequency instance, departure and
// arrival events with DRIVE and WAIT activities, plus SYNC activities between
// instances under the Multiplicity model. Phase two adds CHANGE activities
// between arrivals and departures of different lines at every station,
// HEADWAY activities between departures of different lines over the same
// link in the same direction, and optional TURNAROUND activities.
func Build(pool *network.LinePool, period int, opts ...Option) (*ean.Network, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.validate(pool, period); err != nil {
		return nil, err
	}
	policy := o.HeadwayPolicy
	if policy == nil {
		var err error
		if policy, err = PolicyFor(o.HeadwayModel); err != nil {
			return nil, err
		}
	}
	net, err := ean.New(period,
		ean.WithLinePool(pool),
		ean.WithChangeModel(o.ChangeModel),
		ean.WithHeadwayModel(o.HeadwayModel),
	)
	if err != nil {
		return nil, err
	}

	b := &builder{
		opts:         o,
		policy:       policy,
		pool:         pool,
		net:          net,
		period:       period,
		nextEvent:    1,
		nextActivity: 1,
	}
	steps := []func() error{b.addTrips, b.addSyncs, b.addTurnarounds}
	if o.Changes {
		steps = append(steps, b.addChanges)
	}
	if o.Headways {
		steps = append(steps, b.addHeadways)
	}
	for _, step := range steps {
		if err = step(); err != nil {
			return nil, err
		}
	}
	if err = net.CheckStructuralCompleteness(); err != nil {
		return nil, err
	}

	s := net.Stats()
	log.Debug().
		Int("events", s.Events).
		Int("drive", s.ByType[ean.Drive]).
		Int("wait", s.ByType[ean.Wait]).
		Int("change", s.ByType[ean.Change]).
		Int("headway", s.ByType[ean.Headway]).
		Int("sync", s.ByType[ean.Sync]).
		Int("turnaround", s.ByType[ean.Turnaround]).
		Msg("EAN built")

	return net, nil
}

func (o Options) validate(pool *network.LinePool, period int) error {
	if pool == nil {
		return fmt.Errorf("%w: nil line pool", ErrUnsupported)
	}
	if o.MinWait > o.MaxWait {
		return fmt.Errorf("%w: wait bounds [%g,%g]", ErrUnsupported, o.MinWait, o.MaxWait)
	}
	if o.FrequencyModel != Multiplicity {
		return nil
	}
	if o.ChangeModel != ean.ChangeSimple || o.HeadwayModel != ean.HeadwaySimple {
		return fmt.Errorf("%w: frequency model multiplicity needs simple change and headway models", ErrUnsupported)
	}
	for _, l := range pool.ActiveLines() {
		if period <= 0 || period%l.Frequency != 0 {
			return fmt.Errorf("%w: period %d by frequency %d of line %d", ErrPeriodNotDivisible, period, l.Frequency, l.ID)
		}
	}

	return nil
}

func (b *builder) instances(l *network.Line) int {
	if b.opts.FrequencyModel == Multiplicity {
		return l.Frequency
	}

	return 1
}

// frequency is the frequency attribute seen by the change and headway models.
func (b *builder) frequency(e *ean.Event) int {
	if b.opts.FrequencyModel == Multiplicity {
		return 1
	}

	return b.net.Frequency(e)
}

func (b *builder) addEvent(typ ean.EventType, station int, t *trip) (int, error) {
	id := b.nextEvent
	b.nextEvent++
	dir := t.dir
	if b.opts.LateAlignment && !t.line.Directed {
		dir = ean.Undetermined
	}

	return id, b.net.AddEvent(ean.NewEvent(id, typ, station, t.line.ID, dir, t.instance))
}

func (b *builder) addActivity(typ ean.ActivityType, from, to int, link *network.Link, lower, upper float64) error {
	a := &ean.Activity{
		ID:    b.nextActivity,
		Type:  typ,
		From:  from,
		To:    to,
		Link:  link,
		Lower: lower,
		Upper: upper,
	}
	b.nextActivity++

	return b.net.AddActivity(a)
}

// addTrips creates events, DRIVE and WAIT activities for every trip.
func (b *builder) addTrips() error {
	for _, l := range b.pool.ActiveLines() {
		views := []*trip{{line: l, dir: ean.Forwards}}
		if back := l.Backward(); back != nil {
			views = append(views, &trip{line: back, dir: ean.Backwards})
		}
		for _, v := range views {
			for k := 1; k <= b.instances(l); k++ {
				t := &trip{line: v.line, dir: v.dir, instance: k}
				if err := b.addTrip(t); err != nil {
					return err
				}
				b.trips = append(b.trips, t)
			}
		}
	}

	return nil
}

func (b *builder) addTrip(t *trip) error {
	for i, lk := range t.line.Links {
		dep, err := b.addEvent(ean.Departure, lk.From, t)
		if err != nil {
			return err
		}
		arr, err := b.addEvent(ean.Arrival, lk.To, t)
		if err != nil {
			return err
		}
		t.deps = append(t.deps, dep)
		t.arrs = append(t.arrs, arr)
		if err = b.addActivity(ean.Drive, dep, arr, lk, lk.LowerBound, lk.UpperBound); err != nil {
			return err
		}
		if i > 0 {
			if err = b.addActivity(ean.Wait, t.arrs[i-1], dep, nil, b.opts.MinWait, b.opts.MaxWait); err != nil {
				return err
			}
		}
	}

	return nil
}

// addSyncs ties the first departures of successive instances of the same
// line direction with the fixed offset period/frequency.
func (b *builder) addSyncs() error {
	if b.opts.FrequencyModel != Multiplicity {
		return nil
	}
	for i := 1; i < len(b.trips); i++ {
		prev, cur := b.trips[i-1], b.trips[i]
		if prev.line != cur.line || cur.instance != prev.instance+1 {
			continue
		}
		offset := float64(b.period / cur.line.Frequency)
		if err := b.addActivity(ean.Sync, prev.deps[0], cur.deps[0], nil, offset, offset); err != nil {
			return err
		}
	}

	return nil
}

// addTurnarounds links the final arrival of each direction of an undirected
// line to the first departure of the opposite direction, same instance.
func (b *builder) addTurnarounds() error {
	if !b.opts.Turnarounds {
		return nil
	}
	ptn := b.pool.PTN()
	upper := b.opts.MinTurnaround + float64(b.period) - 1
	for _, in := range b.trips {
		if in.line.Backward() == nil {
			continue
		}
		st, ok := ptn.Station(in.line.Last())
		if !ok || !st.CanTurn {
			continue
		}
		for _, out := range b.trips {
			if out.line != in.line.Backward() || out.instance != in.instance {
				continue
			}
			if err := b.addActivity(ean.Turnaround, in.arrs[len(in.arrs)-1], out.deps[0], nil, b.opts.MinTurnaround, upper); err != nil {
				return err
			}
		}
	}

	return nil
}

// addChanges connects every arrival to every departure of another line at
// the same station.
func (b *builder) addChanges() error {
	for _, st := range b.pool.PTN().Stations() {
		deps := b.net.EventsAt(st.ID, ean.Departure)
		for _, arr := range b.net.EventsAt(st.ID, ean.Arrival) {
			for _, dep := range deps {
				if arr.Line == dep.Line {
					continue
				}
				modulus := b.period
				if b.opts.ChangeModel == ean.ChangeLCMSimplification {
					l := ean.LCM(b.frequency(arr), b.frequency(dep))
					if b.period%l != 0 {
						return fmt.Errorf("%w: period %d by lcm %d of lines %d and %d",
							ErrPeriodNotDivisible, b.period, l, arr.Line, dep.Line)
					}
					modulus = b.period / l
				}
				upper := b.opts.MinChange + float64(modulus) - 1
				if err := b.addActivity(ean.Change, arr.ID, dep.ID, nil, b.opts.MinChange, upper); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

type linkDirection struct {
	link, from int
}

type departure struct {
	event int
	link  *network.Link
}

// addHeadways separates, for every ordered pair of departures of different
// lines that drive over the same link in the same direction, the two
// departures by the bounds of the headway policy.
func (b *builder) addHeadways() error {
	groups := make(map[linkDirection][]departure)
	var keys []linkDirection
	for _, t := range b.trips {
		for i, lk := range t.line.Links {
			if lk.Headway <= 0 {
				continue
			}
			key := linkDirection{link: lk.ID, from: lk.From}
			if _, ok := groups[key]; !ok {
				keys = append(keys, key)
			}
			groups[key] = append(groups[key], departure{event: t.deps[i], link: lk})
		}
	}

	for _, key := range keys {
		deps := groups[key]
		for _, d1 := range deps {
			e1, _ := b.net.Event(d1.event)
			for _, d2 := range deps {
				e2, _ := b.net.Event(d2.event)
				if e1.Line == e2.Line {
					continue
				}
				bounds, err := b.policy.Expand(d1.link.Headway, b.frequency(e1), b.frequency(e2), b.period)
				if err != nil {
					return fmt.Errorf("link %d: %w", key.link, err)
				}
				for _, bd := range bounds {
					if err = b.addActivity(ean.Headway, e1.ID, e2.ID, d1.link, bd.Lower, bd.Upper); err != nil {
						return err
					}
				}
			}
		}
	}

	return nil
}
