package eanbuild

import (
	"errors"

	"github.com/katalvlaran/pesplan/ean"
)

// Sentinel errors for EAN generation.
var (
	// ErrPeriodNotDivisible indicates a frequency or lcm that does not divide the period.
	ErrPeriodNotDivisible = errors.New("eanbuild: period not divisible")

	// ErrHeadwayTooLarge indicates a headway that leaves no feasible window.
	ErrHeadwayTooLarge = errors.New("eanbuild: headway too large for period")

	// ErrUnsupported indicates a model combination without an implementation.
	ErrUnsupported = errors.New("eanbuild: unsupported model combination")
)

// FrequencyModel selects how line frequencies enter the EAN.
type FrequencyModel int

const (
	// Multiplicity creates one set of events per frequency instance and ties
	// successive instances with SYNC activities.
	Multiplicity FrequencyModel = iota
	// Attribute creates one instance per line; frequencies only enter through
	// the change and headway models.
	Attribute
)

// Options holds the generation parameters.
type Options struct {
	FrequencyModel FrequencyModel
	ChangeModel    ean.ChangeModel
	HeadwayModel   ean.HeadwayModel

	// HeadwayPolicy overrides the policy derived from HeadwayModel.
	HeadwayPolicy HeadwayExpansionPolicy

	MinWait, MaxWait float64
	MinChange        float64

	// Turnarounds enables TURNAROUND activities at terminals with CanTurn.
	Turnarounds   bool
	MinTurnaround float64

	// Changes and Headways can be switched off for diagnostics.
	Changes  bool
	Headways bool

	// LateAlignment adds events of undirected lines unaligned and lets the
	// first DRIVE activity determine their direction.
	LateAlignment bool
}

// Option configures Options.
type Option func(*Options)

// DefaultOptions returns the attribute frequency model with simple change
// and headway models, waits in [1,3], a minimal change time of 3, changes
// and headways on, turnarounds off.
func DefaultOptions() Options {
	return Options{
		FrequencyModel: Attribute,
		ChangeModel:    ean.ChangeSimple,
		HeadwayModel:   ean.HeadwaySimple,
		MinWait:        1,
		MaxWait:        3,
		MinChange:      3,
		MinTurnaround:  5,
		Changes:        true,
		Headways:       true,
	}
}

// WithFrequencyModel selects the frequency model.
func WithFrequencyModel(m FrequencyModel) Option {
	return func(o *Options) { o.FrequencyModel = m }
}

// WithChangeModel selects the change model.
func WithChangeModel(m ean.ChangeModel) Option {
	return func(o *Options) { o.ChangeModel = m }
}

// WithHeadwayModel selects the headway model and its default policy.
func WithHeadwayModel(m ean.HeadwayModel) Option {
	return func(o *Options) { o.HeadwayModel = m }
}

// WithHeadwayPolicy overrides the headway expansion policy.
func WithHeadwayPolicy(p HeadwayExpansionPolicy) Option {
	return func(o *Options) { o.HeadwayPolicy = p }
}

// WithWaitBounds sets the dwell time interval.
func WithWaitBounds(min, max float64) Option {
	return func(o *Options) { o.MinWait, o.MaxWait = min, max }
}

// WithMinChange sets the minimal transfer time.
func WithMinChange(v float64) Option {
	return func(o *Options) { o.MinChange = v }
}

// WithTurnarounds enables TURNAROUND activities with the given minimal time.
func WithTurnarounds(min float64) Option {
	return func(o *Options) {
		o.Turnarounds = true
		o.MinTurnaround = min
	}
}

// WithoutChanges disables CHANGE generation.
func WithoutChanges() Option {
	return func(o *Options) { o.Changes = false }
}

// WithoutHeadways disables HEADWAY generation.
func WithoutHeadways() Option {
	return func(o *Options) { o.Headways = false }
}

// WithLateAlignment adds undirected line events unaligned.
func WithLateAlignment() Option {
	return func(o *Options) { o.LateAlignment = true }
}
