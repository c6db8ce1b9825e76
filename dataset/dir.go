package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/network"
	"github.com/katalvlaran/pesplan/od"
)

// File locations relative to a dataset directory.
const (
	StopFile        = "basis/Stop.giv"
	EdgeFile        = "basis/Edge.giv"
	ODFile          = "basis/OD.giv"
	LineConceptFile = "line-planning/Line-Concept.lin"
	EventsFile      = "timetabling/Events-periodic.giv"
	ActivitiesFile  = "timetabling/Activities-periodic.giv"
	TimetableFile   = "timetabling/Timetable-periodic.tim"
)

// Options controls how files are interpreted.
type Options struct {
	// DirectedLinks reads every edge as a one-way link.
	DirectedLinks bool
	// DirectedLines reads every line as operated one way.
	DirectedLines bool
	// Geographic interprets stop coordinates as lon/lat.
	Geographic bool
}

// Option configures Options.
type Option func(*Options)

// WithDirectedLinks reads edges as one-way links.
func WithDirectedLinks() Option {
	return func(o *Options) { o.DirectedLinks = true }
}

// WithDirectedLines reads lines as one-way lines.
func WithDirectedLines() Option {
	return func(o *Options) { o.DirectedLines = true }
}

// WithGeographicCoordinates interprets stop coordinates as lon/lat.
func WithGeographicCoordinates() Option {
	return func(o *Options) { o.Geographic = true }
}

func newOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}

	return o
}

// Dir is a dataset directory in the LinTim layout.
type Dir struct {
	Root string
	opts []Option
}

// Open returns the dataset rooted at root. Nothing is read until a
// loader is called.
func Open(root string, opts ...Option) *Dir {
	return &Dir{Root: root, opts: opts}
}

func (d *Dir) path(name string) string { return filepath.Join(d.Root, filepath.FromSlash(name)) }

// Has reports whether the named file exists.
func (d *Dir) Has(name string) bool {
	_, err := os.Stat(d.path(name))

	return err == nil
}

func (d *Dir) open(name string) (*os.File, error) {
	f, err := os.Open(d.path(name))
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	return f, nil
}

func (d *Dir) create(name string) (*os.File, error) {
	p := d.path(name)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}
	f, err := os.Create(p)
	if err != nil {
		return nil, fmt.Errorf("dataset: %w", err)
	}

	return f, nil
}

// PTN loads the stop and edge files.
func (d *Dir) PTN() (*network.PTN, error) {
	stops, err := d.open(StopFile)
	if err != nil {
		return nil, err
	}
	defer stops.Close()
	edges, err := d.open(EdgeFile)
	if err != nil {
		return nil, err
	}
	defer edges.Close()

	ptn, err := ReadPTN(stops, edges, d.opts...)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", d.Root).Int("stations", len(ptn.Stations())).Int("links", len(ptn.Links())).Msg("loaded PTN")

	return ptn, nil
}

// LinePool loads the line concept over ptn.
func (d *Dir) LinePool(ptn *network.PTN) (*network.LinePool, error) {
	f, err := d.open(LineConceptFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pool, err := ReadLineConcept(f, ptn, d.opts...)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("dir", d.Root).Int("lines", len(pool.ActiveLines())).Msg("loaded line concept")

	return pool, nil
}

// OD loads the demand matrix.
func (d *Dir) OD() (*od.Matrix, error) {
	f, err := d.open(ODFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ReadOD(f)
}

// EAN loads the event and activity files and, if present, the timetable.
func (d *Dir) EAN(pool *network.LinePool, period int, opts ...ean.Option) (*ean.Network, error) {
	events, err := d.open(EventsFile)
	if err != nil {
		return nil, err
	}
	defer events.Close()
	activities, err := d.open(ActivitiesFile)
	if err != nil {
		return nil, err
	}
	defer activities.Close()

	net, err := ReadEAN(events, activities, pool, period, opts...)
	if err != nil {
		return nil, err
	}
	if d.Has(TimetableFile) {
		f, err := d.open(TimetableFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		if err = ReadTimetable(f, net); err != nil {
			return nil, err
		}
	}
	log.Debug().Str("dir", d.Root).Int("events", net.NumEvents()).Int("activities", net.NumActivities()).Msg("loaded EAN")

	return net, nil
}

// WriteEAN writes the event and activity files.
func (d *Dir) WriteEAN(net *ean.Network) (err error) {
	events, err := d.create(EventsFile)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, events.Close()) }()
	activities, err := d.create(ActivitiesFile)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, activities.Close()) }()

	return WriteEAN(events, activities, net)
}

// WriteTimetable writes the timetable file.
func (d *Dir) WriteTimetable(net *ean.Network) (err error) {
	f, err := d.create(TimetableFile)
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, f.Close()) }()

	return WriteTimetable(f, net)
}
