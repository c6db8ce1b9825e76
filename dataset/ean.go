package dataset

import (
	"fmt"
	"io"
	"strconv"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/network"
)

type eventRow struct {
	ID         int     `csv:"event-index"`
	Type       string  `csv:"type"`
	Station    int     `csv:"stop-index"`
	Line       int     `csv:"line-index"`
	Passengers float64 `csv:"passengers"`
	Direction  string  `csv:"line-direction"`
	Instance   int     `csv:"line-freq-repetition"`
}

var eventHeader = []string{"event-index", "type", "stop-index", "line-index", "passengers", "line-direction",
	"line-freq-repetition"}

type activityRow struct {
	ID         int     `csv:"activity-index"`
	Type       string  `csv:"type"`
	From       int     `csv:"from-event"`
	To         int     `csv:"to-event"`
	Lower      float64 `csv:"lower-bound"`
	Upper      float64 `csv:"upper-bound"`
	Passengers float64 `csv:"passengers"`
	Link       string  `csv:"link-index"`
}

var activityHeader = []string{"activity-index", "type", "from-event", "to-event", "lower-bound", "upper-bound",
	"passengers", "link-index"}

type timetableRow struct {
	Event int `csv:"event-index"`
	Time  int `csv:"time"`
}

var timetableHeader = []string{"event-index", "time"}

// firstPhase orders DRIVE, WAIT and SYNC activities before the others so
// that files in any order respect the construction protocol.
func firstPhase(t ean.ActivityType) bool {
	return t == ean.Drive || t == ean.Wait || t == ean.Sync
}

// ReadEAN reads an event file and an activity file into a new network with
// the given period. A non-nil pool resolves lines and links.
func ReadEAN(events, activities io.Reader, pool *network.LinePool, period int, opts ...ean.Option) (*ean.Network, error) {
	if pool != nil {
		opts = append([]ean.Option{ean.WithLinePool(pool)}, opts...)
	}
	net, err := ean.New(period, opts...)
	if err != nil {
		return nil, err
	}

	eventRows, err := read[eventRow](events, eventHeader, EventsFile)
	if err != nil {
		return nil, err
	}
	for _, r := range eventRows {
		typ, err := ean.ParseEventType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrFormat, r.ID, err)
		}
		dir, err := ean.ParseDirection(r.Direction)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d: %v", ErrFormat, r.ID, err)
		}
		e := ean.NewEvent(r.ID, typ, r.Station, r.Line, dir, r.Instance)
		e.SetPassengers(r.Passengers)
		if err = net.AddEvent(e); err != nil {
			return nil, err
		}
	}

	activityRows, err := read[activityRow](activities, activityHeader, ActivitiesFile)
	if err != nil {
		return nil, err
	}
	parsed := make([]*ean.Activity, 0, len(activityRows))
	for _, r := range activityRows {
		typ, err := ean.ParseActivityType(r.Type)
		if err != nil {
			return nil, fmt.Errorf("%w: activity %d: %v", ErrFormat, r.ID, err)
		}
		a := &ean.Activity{
			ID:         r.ID,
			Type:       typ,
			From:       r.From,
			To:         r.To,
			Lower:      r.Lower,
			Upper:      r.Upper,
			Passengers: r.Passengers,
		}
		if r.Link != "" {
			id, err := strconv.Atoi(r.Link)
			if err != nil {
				return nil, fmt.Errorf("%w: activity %d link %q", ErrFormat, r.ID, r.Link)
			}
			if pool == nil {
				return nil, fmt.Errorf("%w: activity %d references link %d without a line pool", ErrFormat, r.ID, id)
			}
			lk, ok := pool.PTN().Link(id)
			if !ok {
				return nil, fmt.Errorf("%w: activity %d link %d", network.ErrLinkNotFound, r.ID, id)
			}
			a.Link = lk
		}
		parsed = append(parsed, a)
	}
	slices.SortStableFunc(parsed, func(a, b *ean.Activity) int {
		pa, pb := firstPhase(a.Type), firstPhase(b.Type)
		switch {
		case pa && !pb:
			return -1
		case !pa && pb:
			return 1
		}
		return 0
	})
	for _, a := range parsed {
		if err = net.AddActivity(a); err != nil {
			return nil, err
		}
	}

	return net, nil
}

// WriteEAN writes the event and activity files of net in index order.
func WriteEAN(events, activities io.Writer, net *ean.Network) error {
	var er []eventRow
	for _, e := range net.Events() {
		p, _ := e.Passengers()
		er = append(er, eventRow{
			ID:         e.ID,
			Type:       e.Type.String(),
			Station:    e.Station,
			Line:       e.Line,
			Passengers: p,
			Direction:  e.Direction.String(),
			Instance:   e.Instance,
		})
	}
	if err := write(events, eventHeader, er); err != nil {
		return err
	}
	var ar []activityRow
	for _, a := range net.Activities() {
		r := activityRow{
			ID:         a.ID,
			Type:       a.Type.String(),
			From:       a.From,
			To:         a.To,
			Lower:      a.Lower,
			Upper:      a.Upper,
			Passengers: a.Passengers,
		}
		if a.Link != nil {
			r.Link = strconv.Itoa(a.Link.ID)
		}
		ar = append(ar, r)
	}

	return write(activities, activityHeader, ar)
}

// ReadTimetable sets the event times of net. Events missing from the file
// keep their state.
func ReadTimetable(in io.Reader, net *ean.Network) error {
	rows, err := read[timetableRow](in, timetableHeader, TimetableFile)
	if err != nil {
		return err
	}
	for _, r := range rows {
		e, ok := net.Event(r.Event)
		if !ok {
			return fmt.Errorf("%w: timetable references event %d", ean.ErrDanglingEvent, r.Event)
		}
		e.SetTime(r.Time)
	}

	return nil
}

// WriteTimetable writes the event times of net. The timetable must be
// complete.
func WriteTimetable(out io.Writer, net *ean.Network) error {
	if err := net.CheckTimetableCompleteness(); err != nil {
		return err
	}
	events := net.Events()
	rows := make([]timetableRow, len(events))
	for i, e := range events {
		t, _ := e.Time()
		rows[i] = timetableRow{Event: e.ID, Time: t}
	}

	return write(out, timetableHeader, rows)
}
