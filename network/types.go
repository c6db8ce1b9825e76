package network

import (
	"errors"

	"github.com/paulmach/orb"
)

// Sentinel errors for network construction.
var (
	// ErrDuplicateStation indicates a station index that is already in use.
	ErrDuplicateStation = errors.New("network: duplicate station index")

	// ErrDuplicateLink indicates a link index that is already in use.
	ErrDuplicateLink = errors.New("network: duplicate link index")

	// ErrDuplicateLine indicates a line index that is already in the pool.
	ErrDuplicateLine = errors.New("network: duplicate line index")

	// ErrStationNotFound indicates a reference to an unknown station.
	ErrStationNotFound = errors.New("network: station not found")

	// ErrLinkNotFound indicates a reference to an unknown link.
	ErrLinkNotFound = errors.New("network: link not found")

	// ErrLineNotFound indicates a reference to an unknown line.
	ErrLineNotFound = errors.New("network: line not found")

	// ErrNotAPath indicates that line links do not form a simple path.
	ErrNotAPath = errors.New("network: line is not a simple path")

	// ErrBadBounds indicates negative or inverted drive time bounds.
	ErrBadBounds = errors.New("network: invalid drive time bounds")

	// ErrFrequencyBounds indicates a line concept violating link frequency bounds.
	ErrFrequencyBounds = errors.New("network: link frequency bounds violated")
)

// Station is a stop of the public transport network.
type Station struct {
	// ID is the arena index of the station.
	ID int

	// ShortName and LongName are display names.
	ShortName string
	LongName  string

	// Location holds the station coordinates (x/y or lon/lat).
	Location orb.Point

	// CanTurn marks stations where vehicles may turn around.
	CanTurn bool
}

// Link is an infrastructure edge between two stations.
//
// For undirected links the arena stores the representative; Counterpart
// returns the same link seen in the opposite direction.
type Link struct {
	ID       int
	From, To int

	// Length is the physical length; zero means "derive from coordinates".
	Length float64

	// LowerBound and UpperBound bound the drive time over the link.
	LowerBound float64
	UpperBound float64

	// Headway is the minimal separation of two vehicles using the link.
	Headway int

	// Load is the passenger load carried by the link (line planning input).
	Load float64

	// LowerFrequency and UpperFrequency bound the number of vehicles per
	// period. UpperFrequency == 0 disables the check.
	LowerFrequency int
	UpperFrequency int

	// Directed links are one-way.
	Directed bool

	counterpart    *Link
	representative bool
}

// Counterpart returns the paired link with swapped endpoints, or nil for
// directed links.
func (l *Link) Counterpart() *Link { return l.counterpart }

// Representative reports whether l is the arena-stored half of its pair.
// Directed links are always representative.
func (l *Link) Representative() bool { return l.representative || l.Directed }

// Connects reports whether the link leads from station a to station b.
func (l *Link) Connects(a, b int) bool { return l.From == a && l.To == b }

// Line is a vehicle route through the PTN with a fixed frequency.
type Line struct {
	// ID is the pool index shared by both directions of an undirected line.
	ID int

	// Links is the ordered sequence of (directed views of) links.
	Links []*Link

	// Frequency is the number of vehicles per period (0 = not operated).
	Frequency int

	// Cost and Length are line concept attributes.
	Cost   float64
	Length float64

	// Directed lines are operated one-way only.
	Directed bool

	backward *Line
	forward  bool
}

// Backward returns the reversed counterpart of an undirected line, or nil.
func (l *Line) Backward() *Line { return l.backward }

// IsForward reports whether l is the direction listed in the pool input.
func (l *Line) IsForward() bool { return l.forward }

// Stations returns the station sequence visited by the line.
func (l *Line) Stations() []int {
	if len(l.Links) == 0 {
		return nil
	}
	out := make([]int, 0, len(l.Links)+1)
	out = append(out, l.Links[0].From)
	for _, lk := range l.Links {
		out = append(out, lk.To)
	}

	return out
}

// LinkBetween returns the line link leading from station a to station b, or nil.
func (l *Line) LinkBetween(a, b int) *Link {
	for _, lk := range l.Links {
		if lk.Connects(a, b) {
			return lk
		}
	}

	return nil
}

// First and Last return the terminal stations of the line.
func (l *Line) First() int { return l.Links[0].From }

// Last returns the final station of the line.
func (l *Line) Last() int { return l.Links[len(l.Links)-1].To }
