package ean

import (
	"fmt"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/bfs"
	"github.com/katalvlaran/pesplan/network"
)

// Option configures a Network at construction time.
type Option func(*Network)

// WithLinePool attaches the line pool used to infer DRIVE links, align
// undirected lines and look up line frequencies.
func WithLinePool(lp *network.LinePool) Option {
	return func(n *Network) { n.pool = lp }
}

// WithChangeModel selects the change model (default ChangeSimple).
func WithChangeModel(m ChangeModel) Option {
	return func(n *Network) { n.changeModel = m }
}

// WithHeadwayModel selects the headway model (default HeadwaySimple).
func WithHeadwayModel(m HeadwayModel) Option {
	return func(n *Network) { n.headwayModel = m }
}

// Aperiodic builds a network without a period; durations are then plain
// time differences.
func Aperiodic() Option {
	return func(n *Network) { n.periodic = false }
}

type pair struct{ from, to int }

type lineLink struct{ line, link int }

// Network is an event-activity network. Events and activities live in
// index-addressed arenas; every cross reference is an index.
//
// A Network is not safe for concurrent mutation.
type Network struct {
	period       int
	periodic     bool
	pool         *network.LinePool
	changeModel  ChangeModel
	headwayModel HeadwayModel
	state        InputState

	events     map[int]*Event
	activities map[int]*Activity

	departuresAt map[int][]int
	arrivalsAt   map[int][]int
	byType       [numActivityTypes][]int
	byLink       map[int][]int
	drivesByLine map[lineLink][]int
	usable       []int
	unaligned    map[int]struct{}
	drivePairs   map[pair]int
	changePairs  map[pair]int

	nextEvent    int
	nextActivity int

	// identification cache, rebuilt lazily after insertions
	sortedEvents     []*Event
	sortedActivities []*Activity
}

// New creates an empty network with the given period length. The period is
// immutable; it is ignored when Aperiodic is given.
func New(period int, opts ...Option) (*Network, error) {
	n := &Network{
		period:       period,
		periodic:     true,
		events:       make(map[int]*Event),
		activities:   make(map[int]*Activity),
		departuresAt: make(map[int][]int),
		arrivalsAt:   make(map[int][]int),
		byLink:       make(map[int][]int),
		drivesByLine: make(map[lineLink][]int),
		unaligned:    make(map[int]struct{}),
		drivePairs:   make(map[pair]int),
		changePairs:  make(map[pair]int),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.periodic && period <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadPeriod, period)
	}
	if !n.periodic {
		n.period = 0
	}

	return n, nil
}

// Period returns the period length (0 for aperiodic networks).
func (n *Network) Period() int { return n.period }

// IsPeriodic reports whether the network has a period.
func (n *Network) IsPeriodic() bool { return n.periodic }

// ChangeModel returns the configured change model.
func (n *Network) ChangeModel() ChangeModel { return n.changeModel }

// HeadwayModel returns the configured headway model.
func (n *Network) HeadwayModel() HeadwayModel { return n.headwayModel }

// LinePool returns the attached line pool, or nil.
func (n *Network) LinePool() *network.LinePool { return n.pool }

// State returns the current input phase.
func (n *Network) State() InputState { return n.state }

// SmallestFreeEventIndex returns an index larger than every event index
// ever added.
func (n *Network) SmallestFreeEventIndex() int { return n.nextEvent }

// SmallestFreeActivityIndex returns an index larger than every activity
// index ever added.
func (n *Network) SmallestFreeActivityIndex() int { return n.nextActivity }

// AddEvent validates e and inserts it. Adjacency and back references of e
// are reset; only the descriptive fields, time and passengers are kept.
func (n *Network) AddEvent(e *Event) error {
	if e == nil {
		return fmt.Errorf("%w: nil event", ErrStructure)
	}
	if _, ok := n.events[e.ID]; ok {
		return fmt.Errorf("%w: event %d", ErrDuplicateIndex, e.ID)
	}
	if e.Type != Arrival && e.Type != Departure {
		return fmt.Errorf("%w: event %d has type %v", ErrStructure, e.ID, e.Type)
	}
	if e.Direction < Undetermined || e.Direction > Backwards {
		return fmt.Errorf("%w: event %d has direction %d", ErrStructure, e.ID, int(e.Direction))
	}
	if n.pool != nil {
		line, ok := n.pool.Line(e.Line)
		if !ok {
			return fmt.Errorf("%w: event %d references unknown line %d", ErrStructure, e.ID, e.Line)
		}
		if line.Directed && e.Direction != Forwards {
			return fmt.Errorf("%w: event %d of directed line %d has direction %v", ErrStructure, e.ID, e.Line, e.Direction)
		}
	}

	e.drive, e.wait = -1, -1
	e.out, e.in = nil, nil
	e.outByNeighbor = make(map[int][]int)
	e.inByNeighbor = make(map[int][]int)
	n.events[e.ID] = e
	if e.Type == Departure {
		n.departuresAt[e.Station] = insertSorted(n.departuresAt[e.Station], e.ID)
	} else {
		n.arrivalsAt[e.Station] = insertSorted(n.arrivalsAt[e.Station], e.ID)
	}
	if e.Direction == Undetermined {
		n.unaligned[e.ID] = struct{}{}
	}
	if e.ID >= n.nextEvent {
		n.nextEvent = e.ID + 1
	}
	n.sortedEvents = nil

	return nil
}

// AddActivity validates a against the rules of its type and inserts it.
// No index is touched unless every rule holds.
func (n *Network) AddActivity(a *Activity) error {
	if a == nil {
		return fmt.Errorf("%w: nil activity", ErrStructure)
	}
	if _, ok := n.activities[a.ID]; ok {
		return fmt.Errorf("%w: activity %d", ErrDuplicateIndex, a.ID)
	}
	if a.Type < 0 || a.Type >= numActivityTypes {
		return fmt.Errorf("%w: activity %d has type %d", ErrStructure, a.ID, int(a.Type))
	}
	from, ok := n.events[a.From]
	if !ok {
		return fmt.Errorf("%w: activity %d from event %d", ErrDanglingEvent, a.ID, a.From)
	}
	to, ok := n.events[a.To]
	if !ok {
		return fmt.Errorf("%w: activity %d to event %d", ErrDanglingEvent, a.ID, a.To)
	}
	if a.From == a.To {
		return fmt.Errorf("%w: activity %d is a loop at event %d", ErrStructure, a.ID, a.From)
	}
	if !(a.Lower <= a.Upper) {
		return fmt.Errorf("%w: activity %d bounds [%g,%g]", ErrStructure, a.ID, a.Lower, a.Upper)
	}
	if a.Link != nil && a.Type != Drive && a.Type != Headway {
		return fmt.Errorf("%w: %v activity %d carries link %d", ErrStructure, a.Type, a.ID, a.Link.ID)
	}
	if err := n.checkPhase(a); err != nil {
		return err
	}
	ins, err := validators[a.Type](n, a, from, to)
	if err != nil {
		return err
	}

	n.commit(a, from, to, ins)

	return nil
}

func (n *Network) checkPhase(a *Activity) error {
	switch a.Type {
	case Drive, Wait, Sync:
		if n.state != AcceptingDriveWaitSync {
			return fmt.Errorf("%w: %v activity %d while %v", ErrPhase, a.Type, a.ID, n.state)
		}
	}

	return nil
}

// commit updates every derived structure for a validated activity.
func (n *Network) commit(a *Activity, from, to *Event, ins insertion) {
	if ins.link != nil {
		a.Link = ins.link
	}
	n.activities[a.ID] = a

	from.out = insertSorted(from.out, a.ID)
	to.in = insertSorted(to.in, a.ID)
	from.outByNeighbor[to.ID] = insertSorted(from.outByNeighbor[to.ID], a.ID)
	to.inByNeighbor[from.ID] = insertSorted(to.inByNeighbor[from.ID], a.ID)

	switch a.Type {
	case Drive:
		if from.drive < 0 {
			from.drive = a.ID
		}
		if to.drive < 0 {
			to.drive = a.ID
		}
		n.drivePairs[pair{from.ID, to.ID}] = a.ID
		if a.Link != nil {
			key := lineLink{line: from.Line, link: a.Link.ID}
			n.drivesByLine[key] = insertSorted(n.drivesByLine[key], a.ID)
			n.byLink[a.Link.ID] = insertSorted(n.byLink[a.Link.ID], a.ID)
		}
	case Wait:
		if from.wait < 0 {
			from.wait = a.ID
		}
		if to.wait < 0 {
			to.wait = a.ID
		}
	case Change:
		n.changePairs[pair{from.ID, to.ID}]++
		n.state = AcceptingChangeHeadway
	case Headway:
		if a.Link != nil {
			n.byLink[a.Link.ID] = insertSorted(n.byLink[a.Link.ID], a.ID)
		}
		n.state = AcceptingChangeHeadway
	}
	n.byType[a.Type] = insertSorted(n.byType[a.Type], a.ID)
	if a.IsPassengerUsable() {
		n.usable = insertSorted(n.usable, a.ID)
	}

	if ins.align != Undetermined {
		for _, e := range []*Event{from, to} {
			if e.Direction == Undetermined {
				e.Direction = ins.align
				delete(n.unaligned, e.ID)
			}
		}
	}

	if a.ID >= n.nextActivity {
		n.nextActivity = a.ID + 1
	}
	n.sortedActivities = nil
}

// Event returns the event with the given index.
func (n *Network) Event(id int) (*Event, bool) {
	e, ok := n.events[id]

	return e, ok
}

// Activity returns the activity with the given index.
func (n *Network) Activity(id int) (*Activity, bool) {
	a, ok := n.activities[id]

	return a, ok
}

// NumEvents returns the number of events.
func (n *Network) NumEvents() int { return len(n.events) }

// NumActivities returns the number of activities.
func (n *Network) NumActivities() int { return len(n.activities) }

// Events returns all events sorted by index. The slice is shared until the
// next insertion and must not be modified.
func (n *Network) Events() []*Event {
	if n.sortedEvents == nil {
		out := make([]*Event, 0, len(n.events))
		for _, e := range n.events {
			out = append(out, e)
		}
		slices.SortFunc(out, func(a, b *Event) int { return a.ID - b.ID })
		n.sortedEvents = out
	}

	return n.sortedEvents
}

// Activities returns all activities sorted by index. The slice is shared
// until the next insertion and must not be modified.
func (n *Network) Activities() []*Activity {
	if n.sortedActivities == nil {
		out := make([]*Activity, 0, len(n.activities))
		for _, a := range n.activities {
			out = append(out, a)
		}
		slices.SortFunc(out, func(a, b *Activity) int { return a.ID - b.ID })
		n.sortedActivities = out
	}

	return n.sortedActivities
}

// EventsAt returns the events of the given type at station, by index.
func (n *Network) EventsAt(station int, typ EventType) []*Event {
	ids := n.arrivalsAt[station]
	if typ == Departure {
		ids = n.departuresAt[station]
	}

	return n.eventsOf(ids)
}

// ActivitiesOfType returns the activities of type t, by index.
func (n *Network) ActivitiesOfType(t ActivityType) []*Activity {
	if t < 0 || t >= numActivityTypes {
		return nil
	}

	return n.activitiesOf(n.byType[t])
}

// ActivitiesOnLink returns the DRIVE and HEADWAY activities on link id.
func (n *Network) ActivitiesOnLink(link int) []*Activity {
	return n.activitiesOf(n.byLink[link])
}

// DriveActivities returns the DRIVE activities of line over link.
func (n *Network) DriveActivities(line, link int) []*Activity {
	return n.activitiesOf(n.drivesByLine[lineLink{line: line, link: link}])
}

// PassengerUsable returns the DRIVE, WAIT and CHANGE activities, by index.
func (n *Network) PassengerUsable() []*Activity {
	return n.activitiesOf(n.usable)
}

// Frequency returns the frequency of the event's line, or 1 when no line
// pool is attached or the line has no positive frequency.
func (n *Network) Frequency(e *Event) int {
	if n.pool == nil {
		return 1
	}
	if f := n.pool.Frequency(e.Line); f > 0 {
		return f
	}

	return 1
}

// HasVertex implements bfs.Graph over event indices.
func (n *Network) HasVertex(v int) bool {
	_, ok := n.events[v]

	return ok
}

// Arcs implements bfs.Graph: outgoing activities (forward) followed by
// incoming activities (backward), each in index order.
func (n *Network) Arcs(v int) []bfs.Arc {
	e, ok := n.events[v]
	if !ok {
		return nil
	}
	arcs := make([]bfs.Arc, 0, len(e.out)+len(e.in))
	for _, id := range e.out {
		arcs = append(arcs, bfs.Arc{Edge: id, To: n.activities[id].To, Forward: true})
	}
	for _, id := range e.in {
		arcs = append(arcs, bfs.Arc{Edge: id, To: n.activities[id].From, Forward: false})
	}

	return arcs
}

// Stats summarises the network size.
type Stats struct {
	Events     int
	Activities int
	ByType     map[ActivityType]int
	Unaligned  int
}

// Stats returns the current size summary.
func (n *Network) Stats() Stats {
	s := Stats{
		Events:     len(n.events),
		Activities: len(n.activities),
		ByType:     make(map[ActivityType]int, numActivityTypes),
		Unaligned:  len(n.unaligned),
	}
	for _, t := range ActivityTypes() {
		s.ByType[t] = len(n.byType[t])
	}

	return s
}

func (n *Network) eventsOf(ids []int) []*Event {
	out := make([]*Event, len(ids))
	for i, id := range ids {
		out[i] = n.events[id]
	}

	return out
}

func (n *Network) activitiesOf(ids []int) []*Activity {
	out := make([]*Activity, len(ids))
	for i, id := range ids {
		out[i] = n.activities[id]
	}

	return out
}

func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}

	return slices.Insert(s, i, v)
}
