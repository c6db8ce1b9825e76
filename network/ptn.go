package network

import (
	"fmt"

	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"golang.org/x/exp/slices"
)

// PTNOption configures a PTN before use.
type PTNOption func(p *PTN)

// WithGeographicCoordinates interprets station locations as lon/lat and
// derives missing link lengths in kilometres along the great circle.
// By default locations are planar x/y coordinates.
func WithGeographicCoordinates() PTNOption {
	return func(p *PTN) { p.geographic = true }
}

// PTN is the public transport network: an arena of stations and links.
type PTN struct {
	geographic bool

	stations map[int]*Station
	links    map[int]*Link

	// incident[station] = sorted link indices touching the station
	incident map[int][]int
}

// NewPTN creates an empty network.
func NewPTN(opts ...PTNOption) *PTN {
	p := &PTN{
		stations: make(map[int]*Station),
		links:    make(map[int]*Link),
		incident: make(map[int][]int),
	}
	for _, opt := range opts {
		opt(p)
	}

	return p
}

// AddStation inserts s into the arena.
func (p *PTN) AddStation(s *Station) error {
	if s == nil {
		return fmt.Errorf("%w: nil station", ErrStationNotFound)
	}
	if _, ok := p.stations[s.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateStation, s.ID)
	}
	p.stations[s.ID] = s

	return nil
}

// AddLink inserts l into the arena. Undirected links get a counterpart view
// with swapped endpoints; l itself becomes the representative.
func (p *PTN) AddLink(l *Link) error {
	if l == nil {
		return fmt.Errorf("%w: nil link", ErrLinkNotFound)
	}
	if _, ok := p.links[l.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateLink, l.ID)
	}
	if _, ok := p.stations[l.From]; !ok {
		return fmt.Errorf("%w: link %d references station %d", ErrStationNotFound, l.ID, l.From)
	}
	if _, ok := p.stations[l.To]; !ok {
		return fmt.Errorf("%w: link %d references station %d", ErrStationNotFound, l.ID, l.To)
	}
	if l.From == l.To {
		return fmt.Errorf("%w: link %d is a loop at station %d", ErrNotAPath, l.ID, l.From)
	}
	if l.LowerBound < 0 || l.UpperBound < l.LowerBound {
		return fmt.Errorf("%w: link %d [%g,%g]", ErrBadBounds, l.ID, l.LowerBound, l.UpperBound)
	}

	l.representative = true
	if !l.Directed {
		back := *l
		back.From, back.To = l.To, l.From
		back.representative = false
		back.counterpart = l
		l.counterpart = &back
	}
	p.links[l.ID] = l
	p.incident[l.From] = insertSorted(p.incident[l.From], l.ID)
	p.incident[l.To] = insertSorted(p.incident[l.To], l.ID)

	return nil
}

// Station returns the station with the given index.
func (p *PTN) Station(id int) (*Station, bool) {
	s, ok := p.stations[id]

	return s, ok
}

// Link returns the representative link with the given index.
func (p *PTN) Link(id int) (*Link, bool) {
	l, ok := p.links[id]

	return l, ok
}

// Stations returns all stations sorted by index.
func (p *PTN) Stations() []*Station {
	out := make([]*Station, 0, len(p.stations))
	for _, s := range p.stations {
		out = append(out, s)
	}
	slices.SortFunc(out, func(a, b *Station) int { return a.ID - b.ID })

	return out
}

// Links returns all representative links sorted by index.
func (p *PTN) Links() []*Link {
	out := make([]*Link, 0, len(p.links))
	for _, l := range p.links {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b *Link) int { return a.ID - b.ID })

	return out
}

// IncidentLinks returns the sorted indices of links touching station.
func (p *PTN) IncidentLinks(station int) []int {
	return append([]int(nil), p.incident[station]...)
}

// OrientedLink returns the view of link id that leads from station a to b,
// or nil if the link does not connect them in that direction.
func (p *PTN) OrientedLink(id, a, b int) *Link {
	l, ok := p.links[id]
	if !ok {
		return nil
	}
	if l.Connects(a, b) {
		return l
	}
	if c := l.counterpart; c != nil && c.Connects(a, b) {
		return c
	}

	return nil
}

// LinkLength returns the length of l, derived from the endpoint coordinates
// when no explicit length was given.
func (p *PTN) LinkLength(l *Link) float64 {
	if l.Length > 0 {
		return l.Length
	}
	from, okFrom := p.stations[l.From]
	to, okTo := p.stations[l.To]
	if !okFrom || !okTo {
		return 0
	}
	if p.geographic {
		return geo.Distance(from.Location, to.Location) / 1000
	}

	return planar.Distance(from.Location, to.Location)
}

func insertSorted(s []int, v int) []int {
	i, found := slices.BinarySearch(s, v)
	if found {
		return s
	}

	return slices.Insert(s, i, v)
}
