// Package od holds origin-destination demand between stations.
package od

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"golang.org/x/exp/slices"

	"github.com/katalvlaran/pesplan/network"
)

// ErrInvalid indicates an OD matrix that failed validation.
var ErrInvalid = errors.New("od: invalid matrix")

// Pair is an ordered station pair.
type Pair struct {
	Origin, Destination int
}

// Matrix is a sparse station×station non-negative demand mapping.
type Matrix struct {
	demand map[Pair]float64
}

// New creates an empty matrix.
func New() *Matrix {
	return &Matrix{demand: make(map[Pair]float64)}
}

// Set stores the demand from origin to destination.
func (m *Matrix) Set(origin, destination int, value float64) {
	m.demand[Pair{origin, destination}] = value
}

// Get returns the demand from origin to destination (0 if absent).
func (m *Matrix) Get(origin, destination int) float64 {
	return m.demand[Pair{origin, destination}]
}

// Has reports whether an entry for the pair was stored.
func (m *Matrix) Has(origin, destination int) bool {
	_, ok := m.demand[Pair{origin, destination}]

	return ok
}

// Pairs returns all stored pairs ordered by origin, then destination.
func (m *Matrix) Pairs() []Pair {
	out := make([]Pair, 0, len(m.demand))
	for p := range m.demand {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b Pair) int {
		if a.Origin != b.Origin {
			return a.Origin - b.Origin
		}

		return a.Destination - b.Destination
	})

	return out
}

// Total returns the sum of all demand.
func (m *Matrix) Total() float64 {
	var sum float64
	for _, v := range m.demand {
		sum += v
	}

	return sum
}

// ValidateOptions selects the optional checks of Validate.
type ValidateOptions struct {
	// Symmetric requires d(s1,s2) == d(s2,s1).
	Symmetric bool

	// Complete requires an entry for every ordered pair of distinct stations.
	Complete bool

	// Epsilon is the tolerance of the symmetry check.
	Epsilon float64
}

// Validate checks non-negativity and station existence, plus the optional
// symmetry and completeness requirements. All violations are reported in
// a single error.
func (m *Matrix) Validate(ptn *network.PTN, opts ValidateOptions) error {
	var bad []string
	for _, p := range m.Pairs() {
		v := m.demand[p]
		if v < 0 || math.IsNaN(v) {
			bad = append(bad, fmt.Sprintf("(%d,%d) negative demand %g", p.Origin, p.Destination, v))
		}
		if _, ok := ptn.Station(p.Origin); !ok {
			bad = append(bad, fmt.Sprintf("(%d,%d) unknown origin", p.Origin, p.Destination))
		}
		if _, ok := ptn.Station(p.Destination); !ok {
			bad = append(bad, fmt.Sprintf("(%d,%d) unknown destination", p.Origin, p.Destination))
		}
		if opts.Symmetric && p.Origin < p.Destination {
			if back := m.Get(p.Destination, p.Origin); math.Abs(back-v) > opts.Epsilon {
				bad = append(bad, fmt.Sprintf("(%d,%d) asymmetric: %g vs %g", p.Origin, p.Destination, v, back))
			}
		}
		if opts.Symmetric && p.Origin > p.Destination && !m.Has(p.Destination, p.Origin) && v > opts.Epsilon {
			bad = append(bad, fmt.Sprintf("(%d,%d) asymmetric: %g vs 0", p.Origin, p.Destination, v))
		}
	}
	if opts.Complete {
		stations := ptn.Stations()
		for _, s1 := range stations {
			for _, s2 := range stations {
				if s1.ID != s2.ID && !m.Has(s1.ID, s2.ID) {
					bad = append(bad, fmt.Sprintf("(%d,%d) missing", s1.ID, s2.ID))
				}
			}
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(bad, "; "))
	}

	return nil
}
