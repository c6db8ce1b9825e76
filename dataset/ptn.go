package dataset

import (
	"fmt"
	"io"

	"github.com/paulmach/orb"
	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/network"
	"github.com/katalvlaran/pesplan/od"
)

type stopRow struct {
	ID        int     `csv:"stop-id"`
	ShortName string  `csv:"short-name"`
	LongName  string  `csv:"long-name"`
	X         float64 `csv:"x-coordinate"`
	Y         float64 `csv:"y-coordinate"`
	CanTurn   bool    `csv:"can-turn"`
}

var stopHeader = []string{"stop-id", "short-name", "long-name", "x-coordinate", "y-coordinate", "can-turn"}

type edgeRow struct {
	ID             int     `csv:"link-index"`
	From           int     `csv:"from-stop"`
	To             int     `csv:"to-stop"`
	Length         float64 `csv:"length"`
	Lower          float64 `csv:"lower-bound"`
	Upper          float64 `csv:"upper-bound"`
	Headway        int     `csv:"headway"`
	LowerFrequency int     `csv:"lower-frequency"`
	UpperFrequency int     `csv:"upper-frequency"`
}

var edgeHeader = []string{"link-index", "from-stop", "to-stop", "length", "lower-bound", "upper-bound",
	"headway", "lower-frequency", "upper-frequency"}

type conceptRow struct {
	Line      int     `csv:"line-index"`
	Order     int     `csv:"link-order"`
	Link      int     `csv:"link-index"`
	Frequency int     `csv:"frequency"`
	Cost      float64 `csv:"cost"`
}

var conceptHeader = []string{"line-index", "link-order", "link-index", "frequency", "cost"}

type odRow struct {
	Origin      int     `csv:"origin"`
	Destination int     `csv:"destination"`
	Customers   float64 `csv:"customers"`
}

var odHeader = []string{"origin", "destination", "customers"}

// ReadPTN reads a stop file and an edge file into a new PTN.
func ReadPTN(stops, edges io.Reader, opts ...Option) (*network.PTN, error) {
	o := newOptions(opts)
	var ptnOpts []network.PTNOption
	if o.Geographic {
		ptnOpts = append(ptnOpts, network.WithGeographicCoordinates())
	}
	ptn := network.NewPTN(ptnOpts...)

	stopRows, err := read[stopRow](stops, stopHeader, StopFile)
	if err != nil {
		return nil, err
	}
	for _, r := range stopRows {
		s := &network.Station{
			ID:        r.ID,
			ShortName: r.ShortName,
			LongName:  r.LongName,
			Location:  orb.Point{r.X, r.Y},
			CanTurn:   r.CanTurn,
		}
		if err = ptn.AddStation(s); err != nil {
			return nil, err
		}
	}

	edgeRows, err := read[edgeRow](edges, edgeHeader, EdgeFile)
	if err != nil {
		return nil, err
	}
	for _, r := range edgeRows {
		l := &network.Link{
			ID:             r.ID,
			From:           r.From,
			To:             r.To,
			Length:         r.Length,
			LowerBound:     r.Lower,
			UpperBound:     r.Upper,
			Headway:        r.Headway,
			LowerFrequency: r.LowerFrequency,
			UpperFrequency: r.UpperFrequency,
			Directed:       o.DirectedLinks,
		}
		if err = ptn.AddLink(l); err != nil {
			return nil, err
		}
	}

	return ptn, nil
}

// WritePTN writes the stop and edge files of ptn.
func WritePTN(stops, edges io.Writer, ptn *network.PTN) error {
	var sr []stopRow
	for _, s := range ptn.Stations() {
		sr = append(sr, stopRow{
			ID:        s.ID,
			ShortName: s.ShortName,
			LongName:  s.LongName,
			X:         s.Location.X(),
			Y:         s.Location.Y(),
			CanTurn:   s.CanTurn,
		})
	}
	if err := write(stops, stopHeader, sr); err != nil {
		return err
	}
	var er []edgeRow
	for _, l := range ptn.Links() {
		er = append(er, edgeRow{
			ID:             l.ID,
			From:           l.From,
			To:             l.To,
			Length:         l.Length,
			Lower:          l.LowerBound,
			Upper:          l.UpperBound,
			Headway:        l.Headway,
			LowerFrequency: l.LowerFrequency,
			UpperFrequency: l.UpperFrequency,
		})
	}

	return write(edges, edgeHeader, er)
}

// ReadLineConcept reads a line concept (one record per line link, ordered by
// link-order) and returns the pool with the frequencies applied.
func ReadLineConcept(in io.Reader, ptn *network.PTN, opts ...Option) (*network.LinePool, error) {
	o := newOptions(opts)
	rows, err := read[conceptRow](in, conceptHeader, LineConceptFile)
	if err != nil {
		return nil, err
	}
	byLine := make(map[int][]conceptRow)
	for _, r := range rows {
		byLine[r.Line] = append(byLine[r.Line], r)
	}
	ids := make([]int, 0, len(byLine))
	for id := range byLine {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	pool := network.NewLinePool(ptn)
	freq := make(map[int]int, len(ids))
	for _, id := range ids {
		lr := byLine[id]
		slices.SortStableFunc(lr, func(a, b conceptRow) int { return a.Order - b.Order })
		links := make([]int, len(lr))
		for i, r := range lr {
			if r.Frequency != lr[0].Frequency {
				return nil, fmt.Errorf("%w: line %d has frequencies %d and %d", ErrFormat, id, lr[0].Frequency, r.Frequency)
			}
			links[i] = r.Link
		}
		if err = pool.AddFromLinks(id, o.DirectedLines, lr[0].Cost, links); err != nil {
			return nil, err
		}
		freq[id] = lr[0].Frequency
	}
	if err = pool.ApplyConcept(freq); err != nil {
		return nil, err
	}

	return pool, nil
}

// WriteLineConcept writes the forward direction of every line of pool.
func WriteLineConcept(out io.Writer, pool *network.LinePool) error {
	var rows []conceptRow
	for _, l := range pool.Lines() {
		for i, lk := range l.Links {
			rows = append(rows, conceptRow{Line: l.ID, Order: i + 1, Link: lk.ID, Frequency: l.Frequency, Cost: l.Cost})
		}
	}

	return write(out, conceptHeader, rows)
}

// ReadOD reads an OD matrix.
func ReadOD(in io.Reader) (*od.Matrix, error) {
	rows, err := read[odRow](in, odHeader, ODFile)
	if err != nil {
		return nil, err
	}
	m := od.New()
	for _, r := range rows {
		m.Set(r.Origin, r.Destination, r.Customers)
	}

	return m, nil
}

// WriteOD writes m in pair order.
func WriteOD(out io.Writer, m *od.Matrix) error {
	pairs := m.Pairs()
	rows := make([]odRow, len(pairs))
	for i, p := range pairs {
		rows[i] = odRow{Origin: p.Origin, Destination: p.Destination, Customers: m.Get(p.Origin, p.Destination)}
	}

	return write(out, odHeader, rows)
}
