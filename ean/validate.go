package ean

import (
	"fmt"

	"github.com/katalvlaran/pesplan/network"
)

// insertion carries what a validator inferred for the commit step.
type insertion struct {
	link  *network.Link // inferred or normalised link, nil to keep a.Link
	align Direction     // direction for unaligned endpoints, Undetermined for none
}

// validator checks the type-specific rules of an activity. It must not
// mutate the network.
type validator func(n *Network, a *Activity, from, to *Event) (insertion, error)

var validators = [numActivityTypes]validator{
	Drive:      validateDrive,
	Wait:       validateWait,
	Change:     validateChange,
	Headway:    validateHeadway,
	Sync:       validateSync,
	Turnaround: validateTurnaround,
}

func expectTypes(a *Activity, from, to *Event, ft, tt EventType) error {
	if from.Type != ft || to.Type != tt {
		return fmt.Errorf("%w: %v activity %d must lead from %v to %v, got %v event %d to %v event %d",
			ErrStructure, a.Type, a.ID, ft, tt, from.Type, from.ID, to.Type, to.ID)
	}

	return nil
}

// sameLine reports whether two events belong to the same directed line,
// treating an unaligned event as matching either direction of its line.
func sameLine(x, y *Event) bool {
	if x.Line != y.Line {
		return false
	}

	return x.Direction == y.Direction || x.Direction == Undetermined || y.Direction == Undetermined
}

func validateDrive(n *Network, a *Activity, from, to *Event) (insertion, error) {
	if err := expectTypes(a, from, to, Departure, Arrival); err != nil {
		return insertion{}, err
	}
	if !sameLine(from, to) {
		return insertion{}, fmt.Errorf("%w: drive activity %d connects line %d%v and line %d%v",
			ErrStructure, a.ID, from.Line, from.Direction, to.Line, to.Direction)
	}
	if from.Station == to.Station {
		return insertion{}, fmt.Errorf("%w: drive activity %d stays at station %d", ErrStructure, a.ID, from.Station)
	}
	if prev, ok := n.drivePairs[pair{from.ID, to.ID}]; ok {
		return insertion{}, fmt.Errorf("%w: drive activity %d duplicates drive activity %d between events %d and %d",
			ErrStructure, a.ID, prev, from.ID, to.ID)
	}

	if n.pool == nil {
		if from.Direction == Undetermined || to.Direction == Undetermined {
			return insertion{}, fmt.Errorf("%w: drive activity %d cannot align events without a line pool", ErrStructure, a.ID)
		}
		if a.Link == nil {
			return insertion{}, nil
		}
		oriented := orient(a.Link, from.Station, to.Station)
		if oriented == nil {
			return insertion{}, fmt.Errorf("%w: drive activity %d link %d does not connect stations %d and %d",
				ErrStructure, a.ID, a.Link.ID, from.Station, to.Station)
		}

		return insertion{link: oriented}, nil
	}

	dirs := []Direction{from.Direction}
	if from.Direction == Undetermined {
		dirs = []Direction{to.Direction}
		if to.Direction == Undetermined {
			dirs = []Direction{Forwards, Backwards}
		}
	}
	var (
		found    *network.Link
		foundDir Direction
		matches  int
	)
	for _, d := range dirs {
		line, ok := n.pool.Directed(from.Line, d != Backwards)
		if !ok {
			continue
		}
		if lk := line.LinkBetween(from.Station, to.Station); lk != nil {
			found, foundDir = lk, d
			matches++
		}
	}
	switch {
	case matches == 0:
		return insertion{}, fmt.Errorf("%w: drive activity %d: line %d has no link from station %d to %d",
			ErrStructure, a.ID, from.Line, from.Station, to.Station)
	case matches > 1:
		return insertion{}, fmt.Errorf("%w: drive activity %d: link of line %d between stations %d and %d is ambiguous",
			ErrStructure, a.ID, from.Line, from.Station, to.Station)
	}
	if a.Link != nil && (a.Link.ID != found.ID || orient(a.Link, from.Station, to.Station) == nil) {
		return insertion{}, fmt.Errorf("%w: drive activity %d has link %d but line %d uses link %d",
			ErrStructure, a.ID, a.Link.ID, from.Line, found.ID)
	}
	ins := insertion{link: found}
	if from.Direction == Undetermined || to.Direction == Undetermined {
		ins.align = foundDir
	}

	return ins, nil
}

// orient returns the view of l leading from station a to b, or nil.
func orient(l *network.Link, a, b int) *network.Link {
	if l.Connects(a, b) {
		return l
	}
	if c := l.Counterpart(); c != nil && c.Connects(a, b) {
		return c
	}

	return nil
}

func validateWait(_ *Network, a *Activity, from, to *Event) (insertion, error) {
	if err := expectTypes(a, from, to, Arrival, Departure); err != nil {
		return insertion{}, err
	}
	if from.Station != to.Station {
		return insertion{}, fmt.Errorf("%w: wait activity %d connects stations %d and %d",
			ErrStructure, a.ID, from.Station, to.Station)
	}
	if !sameLine(from, to) {
		return insertion{}, fmt.Errorf("%w: wait activity %d connects line %d%v and line %d%v",
			ErrStructure, a.ID, from.Line, from.Direction, to.Line, to.Direction)
	}

	return insertion{}, nil
}

func validateChange(n *Network, a *Activity, from, to *Event) (insertion, error) {
	if err := expectTypes(a, from, to, Arrival, Departure); err != nil {
		return insertion{}, err
	}
	if from.Line == to.Line {
		return insertion{}, fmt.Errorf("%w: change activity %d stays on line %d", ErrStructure, a.ID, from.Line)
	}
	if n.changeModel == ChangeSimple && n.changePairs[pair{from.ID, to.ID}] > 0 {
		return insertion{}, fmt.Errorf("%w: change activity %d duplicates a change between events %d and %d",
			ErrStructure, a.ID, from.ID, to.ID)
	}

	return insertion{}, nil
}

func validateHeadway(n *Network, a *Activity, from, to *Event) (insertion, error) {
	if err := expectTypes(a, from, to, Departure, Departure); err != nil {
		return insertion{}, err
	}
	if from.Line == to.Line {
		return insertion{}, fmt.Errorf("%w: headway activity %d separates line %d from itself", ErrStructure, a.ID, from.Line)
	}
	fromLink := n.driveLink(from)
	toLink := n.driveLink(to)
	link := a.Link
	if link == nil {
		link = fromLink
	}
	if link == nil {
		return insertion{}, fmt.Errorf("%w: headway activity %d has no link", ErrStructure, a.ID)
	}
	for _, dl := range []*network.Link{fromLink, toLink} {
		if dl != nil && dl.ID != link.ID {
			return insertion{}, fmt.Errorf("%w: headway activity %d on link %d joins a departure on link %d",
				ErrStructure, a.ID, link.ID, dl.ID)
		}
	}

	return insertion{link: link}, nil
}

// driveLink returns the link of the event's associated DRIVE activity.
func (n *Network) driveLink(e *Event) *network.Link {
	if e.drive < 0 {
		return nil
	}

	return n.activities[e.drive].Link
}

func validateSync(_ *Network, a *Activity, from, to *Event) (insertion, error) {
	if err := expectTypes(a, from, to, Departure, Departure); err != nil {
		return insertion{}, err
	}
	if from.Station != to.Station {
		return insertion{}, fmt.Errorf("%w: sync activity %d connects stations %d and %d",
			ErrStructure, a.ID, from.Station, to.Station)
	}
	if a.Lower != a.Upper {
		return insertion{}, fmt.Errorf("%w: sync activity %d bounds [%g,%g] are not fixed",
			ErrStructure, a.ID, a.Lower, a.Upper)
	}

	return insertion{}, nil
}

func validateTurnaround(_ *Network, a *Activity, from, to *Event) (insertion, error) {
	return insertion{}, expectTypes(a, from, to, Arrival, Departure)
}
