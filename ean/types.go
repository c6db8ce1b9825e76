package ean

import (
	"errors"
	"fmt"
	"strings"

	"github.com/katalvlaran/pesplan/network"
)

// Sentinel errors. Structural errors are always wrapped with the offending
// index so they can be diagnosed without re-running.
var (
	// ErrStructure indicates malformed or rule-violating construction input.
	ErrStructure = errors.New("ean: structural inconsistency")

	// ErrPhase indicates a DRIVE, WAIT or SYNC activity added after the
	// network moved on to accepting CHANGE and HEADWAY activities.
	ErrPhase = fmt.Errorf("%w: activity added in wrong input phase", ErrStructure)

	// ErrDuplicateIndex indicates an event or activity index already in use.
	ErrDuplicateIndex = fmt.Errorf("%w: duplicate index", ErrStructure)

	// ErrDanglingEvent indicates an activity endpoint that was never added.
	ErrDanglingEvent = fmt.Errorf("%w: dangling event reference", ErrStructure)

	// ErrUnaligned indicates events of undirected lines whose direction was
	// never determined by a DRIVE activity.
	ErrUnaligned = fmt.Errorf("%w: unaligned events", ErrStructure)

	// ErrTimetableIncomplete indicates events without a time.
	ErrTimetableIncomplete = errors.New("ean: timetable incomplete")

	// ErrPassengersIncomplete indicates events without passenger data.
	ErrPassengersIncomplete = errors.New("ean: passenger data incomplete")

	// ErrBoundViolation indicates a derived duration outside its bounds.
	ErrBoundViolation = errors.New("ean: duration violates bounds")

	// ErrDurationMismatch indicates a stored duration that differs from the
	// timetable-derived one by something other than a multiple of the period.
	ErrDurationMismatch = errors.New("ean: duration does not match timetable")

	// ErrObjectiveRisk indicates a passenger-carrying activity whose stored
	// duration differs from the timetable-derived one by whole periods, which
	// would change the objective value.
	ErrObjectiveRisk = errors.New("ean: objective function risk")

	// ErrNotPeriodic indicates a periodic operation on an aperiodic network.
	ErrNotPeriodic = errors.New("ean: network is not periodic")

	// ErrBadPeriod indicates a non-positive period length.
	ErrBadPeriod = errors.New("ean: period must be positive")
)

// EventType distinguishes arrivals from departures.
type EventType int

const (
	Arrival EventType = iota
	Departure
)

// String returns the lower-case name used in data files.
func (t EventType) String() string {
	switch t {
	case Arrival:
		return "arrival"
	case Departure:
		return "departure"
	default:
		return fmt.Sprintf("event_type(%d)", int(t))
	}
}

// ParseEventType accepts "arrival"/"departure" in any case, optionally
// quoted, and the abbreviations "arr"/"dep".
func ParseEventType(s string) (EventType, error) {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(s)), "\"") {
	case "arrival", "arr":
		return Arrival, nil
	case "departure", "dep":
		return Departure, nil
	}

	return 0, fmt.Errorf("ean: unknown event type %q", s)
}

// ActivityType tags the variant of an activity.
type ActivityType int

const (
	Drive ActivityType = iota
	Wait
	Change
	Headway
	Sync
	Turnaround
	numActivityTypes
)

var activityTypeNames = [...]string{"drive", "wait", "change", "headway", "sync", "turnaround"}

// String returns the lower-case name used in data files.
func (t ActivityType) String() string {
	if t >= 0 && t < numActivityTypes {
		return activityTypeNames[t]
	}

	return fmt.Sprintf("activity_type(%d)", int(t))
}

// ParseActivityType is the inverse of ActivityType.String (case-insensitive).
func ParseActivityType(s string) (ActivityType, error) {
	s = strings.Trim(strings.ToLower(strings.TrimSpace(s)), "\"")
	for i, n := range activityTypeNames {
		if n == s {
			return ActivityType(i), nil
		}
	}

	return 0, fmt.Errorf("ean: unknown activity type %q", s)
}

// ActivityTypes lists all activity types in declaration order.
func ActivityTypes() []ActivityType {
	return []ActivityType{Drive, Wait, Change, Headway, Sync, Turnaround}
}

// Direction is the orientation of an event's line.
type Direction int

const (
	// Undetermined marks an event of an undirected line that has not been
	// aligned yet.
	Undetermined Direction = iota
	Forwards
	Backwards
)

// String returns ">", "<" or "?" as used in event files.
func (d Direction) String() string {
	switch d {
	case Forwards:
		return ">"
	case Backwards:
		return "<"
	default:
		return "?"
	}
}

// ParseDirection accepts ">", "<", "?" and the words forwards/backwards.
func ParseDirection(s string) (Direction, error) {
	switch strings.Trim(strings.ToLower(strings.TrimSpace(s)), "\"") {
	case ">", "forwards", "forward", "":
		return Forwards, nil
	case "<", "backwards", "backward":
		return Backwards, nil
	case "?", "undetermined":
		return Undetermined, nil
	}

	return 0, fmt.Errorf("ean: unknown direction %q", s)
}

// ChangeModel selects how CHANGE activities between lines of different
// frequencies are represented.
type ChangeModel int

const (
	// ChangeSimple allows at most one CHANGE per arrival/departure pair.
	ChangeSimple ChangeModel = iota
	// ChangeLCMSimplification reduces CHANGE durations modulo period/lcm and
	// permits parallel CHANGE activities for distinct residues.
	ChangeLCMSimplification
)

// HeadwayModel selects how HEADWAY activities are expanded.
type HeadwayModel int

const (
	HeadwaySimple HeadwayModel = iota
	HeadwayProductOfFrequencies
	HeadwayLCMOfFrequencies
	HeadwayLCMRepresentation
)

// InputState is the construction phase of a Network.
type InputState int

const (
	// AcceptingDriveWaitSync is the initial phase.
	AcceptingDriveWaitSync InputState = iota
	// AcceptingChangeHeadway is entered on the first CHANGE or HEADWAY and
	// never left.
	AcceptingChangeHeadway
)

// String returns a readable phase name.
func (s InputState) String() string {
	if s == AcceptingDriveWaitSync {
		return "accepting drive/wait/sync"
	}

	return "accepting change/headway"
}

// Event is a node of the EAN: one arrival or departure of one frequency
// instance of a line at a station.
type Event struct {
	ID        int
	Type      EventType
	Station   int
	Line      int
	Direction Direction
	Instance  int

	time          int
	hasTime       bool
	passengers    float64
	hasPassengers bool

	drive int // associated DRIVE activity, -1 if none
	wait  int // associated WAIT activity, -1 if none

	out, in       []int
	outByNeighbor map[int][]int
	inByNeighbor  map[int][]int
}

// NewEvent returns an event with no time and no passenger data.
func NewEvent(id int, typ EventType, station, line int, dir Direction, instance int) *Event {
	return &Event{
		ID:        id,
		Type:      typ,
		Station:   station,
		Line:      line,
		Direction: dir,
		Instance:  instance,
		drive:     -1,
		wait:      -1,
	}
}

// Time returns the periodic time and whether it is set.
func (e *Event) Time() (int, bool) { return e.time, e.hasTime }

// SetTime sets the event time. Callers are responsible for the range;
// Network methods always store times in [0, period).
func (e *Event) SetTime(t int) { e.time, e.hasTime = t, true }

// ClearTime forgets the event time.
func (e *Event) ClearTime() { e.time, e.hasTime = 0, false }

// Passengers returns the passenger load and whether it is known.
func (e *Event) Passengers() (float64, bool) { return e.passengers, e.hasPassengers }

// SetPassengers sets the passenger load.
func (e *Event) SetPassengers(p float64) { e.passengers, e.hasPassengers = p, true }

// AddPassengers increments the passenger load, initialising it if unset.
func (e *Event) AddPassengers(p float64) {
	e.passengers += p
	e.hasPassengers = true
}

// DriveActivity returns the associated DRIVE activity index.
func (e *Event) DriveActivity() (int, bool) { return e.drive, e.drive >= 0 }

// WaitActivity returns the associated WAIT activity index.
func (e *Event) WaitActivity() (int, bool) { return e.wait, e.wait >= 0 }

// Outgoing returns the indices of activities leaving e, ascending.
func (e *Event) Outgoing() []int { return append([]int(nil), e.out...) }

// Incoming returns the indices of activities entering e, ascending.
func (e *Event) Incoming() []int { return append([]int(nil), e.in...) }

// OutgoingTo returns the activities from e to the event with index to.
func (e *Event) OutgoingTo(to int) []int { return append([]int(nil), e.outByNeighbor[to]...) }

// IncomingFrom returns the activities from the event with index from to e.
func (e *Event) IncomingFrom(from int) []int { return append([]int(nil), e.inByNeighbor[from]...) }

// Activity is an edge of the EAN: a timing relation between two events.
type Activity struct {
	ID       int
	Type     ActivityType
	From, To int

	// Link is the infrastructure link of DRIVE and HEADWAY activities; it
	// must be nil for every other type.
	Link *network.Link

	Lower, Upper float64
	Passengers   float64

	duration      int
	hasDuration   bool
	assumption    float64
	hasAssumption bool
}

// IsPassengerUsable is true exactly for DRIVE, WAIT and CHANGE.
func (a *Activity) IsPassengerUsable() bool {
	return a.Type == Drive || a.Type == Wait || a.Type == Change
}

// Duration returns the realised duration and whether it is set.
func (a *Activity) Duration() (int, bool) { return a.duration, a.hasDuration }

// SetDuration sets the realised duration.
func (a *Activity) SetDuration(d int) { a.duration, a.hasDuration = d, true }

// ClearDuration forgets the realised duration.
func (a *Activity) ClearDuration() { a.duration, a.hasDuration = 0, false }

// Assumption returns the cached initial duration assumption.
func (a *Activity) Assumption() (float64, bool) { return a.assumption, a.hasAssumption }

// SetAssumption caches an initial duration assumption.
func (a *Activity) SetAssumption(v float64) { a.assumption, a.hasAssumption = v, true }

// ClearAssumption drops the cached assumption.
func (a *Activity) ClearAssumption() { a.assumption, a.hasAssumption = 0, false }

// Span returns Upper - Lower.
func (a *Activity) Span() float64 { return a.Upper - a.Lower }

// GCD returns the greatest common divisor of a and b (non-negative).
func GCD(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}

	return a
}

// LCM returns the least common multiple of a and b; non-positive inputs count as 1.
func LCM(a, b int) int {
	if a <= 0 {
		a = 1
	}
	if b <= 0 {
		b = 1
	}

	return a / GCD(a, b) * b
}

// Mod returns x mod m in [0, m) for m > 0.
func Mod(x, m int) int {
	r := x % m
	if r < 0 {
		r += m
	}

	return r
}
