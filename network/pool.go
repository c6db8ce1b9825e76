package network

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// LinePool is the collection of lines operated on a PTN.
// Index uniqueness is enforced here.
type LinePool struct {
	ptn   *PTN
	lines map[int]*Line
}

// NewLinePool creates an empty pool over ptn.
func NewLinePool(ptn *PTN) *LinePool {
	return &LinePool{ptn: ptn, lines: make(map[int]*Line)}
}

// PTN returns the network the pool is defined on.
func (lp *LinePool) PTN() *PTN { return lp.ptn }

// AddFromLinks builds a line from an ordered list of link indices and adds it.
// The orientation of every undirected link is resolved by chaining: the first
// link is oriented so that it connects to the second one.
func (lp *LinePool) AddFromLinks(id int, directed bool, cost float64, linkIDs []int) error {
	if len(linkIDs) == 0 {
		return fmt.Errorf("%w: line %d has no links", ErrNotAPath, id)
	}
	links := make([]*Link, len(linkIDs))
	for i, lid := range linkIDs {
		l, ok := lp.ptn.links[lid]
		if !ok {
			return fmt.Errorf("%w: line %d uses link %d", ErrLinkNotFound, id, lid)
		}
		links[i] = l
	}

	// Orient the first link against the second one (if any).
	if len(links) > 1 && !links[0].Directed {
		next := links[1]
		if links[0].To != next.From && links[0].To != next.To {
			links[0] = links[0].counterpart
		}
	}
	for i := 1; i < len(links); i++ {
		prev := links[i-1]
		cur := links[i]
		if cur.From != prev.To && cur.counterpart != nil && cur.counterpart.From == prev.To {
			links[i] = cur.counterpart
		}
	}

	line := &Line{ID: id, Links: links, Cost: cost, Directed: directed}

	return lp.Add(line)
}

// Add validates line and inserts it into the pool. Undirected lines receive
// their backward counterpart.
func (lp *LinePool) Add(line *Line) error {
	if line == nil {
		return fmt.Errorf("%w: nil line", ErrLineNotFound)
	}
	if _, ok := lp.lines[line.ID]; ok {
		return fmt.Errorf("%w: %d", ErrDuplicateLine, line.ID)
	}
	if err := lp.validatePath(line); err != nil {
		return err
	}
	if line.Length == 0 {
		for _, l := range line.Links {
			line.Length += lp.ptn.LinkLength(l)
		}
	}
	line.forward = true
	if !line.Directed {
		back := &Line{
			ID:        line.ID,
			Links:     make([]*Link, len(line.Links)),
			Frequency: line.Frequency,
			Cost:      line.Cost,
			Length:    line.Length,
			Directed:  false,
			backward:  line,
		}
		for i, l := range line.Links {
			c := l.counterpart
			if c == nil {
				return fmt.Errorf("%w: undirected line %d uses directed link %d", ErrNotAPath, line.ID, l.ID)
			}
			back.Links[len(line.Links)-1-i] = c
		}
		line.backward = back
	}
	lp.lines[line.ID] = line

	return nil
}

func (lp *LinePool) validatePath(line *Line) error {
	seen := make(map[int]struct{}, len(line.Links)+1)
	for i, l := range line.Links {
		if l == nil {
			return fmt.Errorf("%w: line %d has a nil link", ErrLinkNotFound, line.ID)
		}
		if lp.ptn.OrientedLink(l.ID, l.From, l.To) == nil {
			return fmt.Errorf("%w: line %d uses link %d (%d->%d)", ErrLinkNotFound, line.ID, l.ID, l.From, l.To)
		}
		if i > 0 && line.Links[i-1].To != l.From {
			return fmt.Errorf("%w: line %d breaks between links %d and %d", ErrNotAPath, line.ID, line.Links[i-1].ID, l.ID)
		}
		if i == 0 {
			seen[l.From] = struct{}{}
		}
		if _, dup := seen[l.To]; dup {
			return fmt.Errorf("%w: line %d visits station %d twice", ErrNotAPath, line.ID, l.To)
		}
		seen[l.To] = struct{}{}
	}

	return nil
}

// Line returns the forward direction of the line with the given index.
func (lp *LinePool) Line(id int) (*Line, bool) {
	l, ok := lp.lines[id]

	return l, ok
}

// Directed returns the requested direction of line id. forward=false on a
// directed line reports false.
func (lp *LinePool) Directed(id int, forward bool) (*Line, bool) {
	l, ok := lp.lines[id]
	if !ok {
		return nil, false
	}
	if forward {
		return l, true
	}
	if l.backward == nil {
		return nil, false
	}

	return l.backward, true
}

// Lines returns all lines (forward direction) sorted by index.
func (lp *LinePool) Lines() []*Line {
	out := make([]*Line, 0, len(lp.lines))
	for _, l := range lp.lines {
		out = append(out, l)
	}
	slices.SortFunc(out, func(a, b *Line) int { return a.ID - b.ID })

	return out
}

// ActiveLines returns the lines with positive frequency, sorted by index.
func (lp *LinePool) ActiveLines() []*Line {
	all := lp.Lines()
	out := all[:0]
	for _, l := range all {
		if l.Frequency > 0 {
			out = append(out, l)
		}
	}

	return out
}

// Frequency returns the frequency of line id, or 0 if unknown.
func (lp *LinePool) Frequency(id int) int {
	if l, ok := lp.lines[id]; ok {
		return l.Frequency
	}

	return 0
}

// ApplyConcept sets the fixed per-line frequencies of a line concept and
// checks the per-link frequency bounds. Lines missing from freq are set to 0.
func (lp *LinePool) ApplyConcept(freq map[int]int) error {
	for id := range freq {
		if _, ok := lp.lines[id]; !ok {
			return fmt.Errorf("%w: concept references line %d", ErrLineNotFound, id)
		}
	}
	for id, l := range lp.lines {
		f := freq[id]
		l.Frequency = f
		if l.backward != nil {
			l.backward.Frequency = f
		}
	}

	perLink := make(map[int]int)
	for _, l := range lp.lines {
		for _, lk := range l.Links {
			perLink[lk.ID] += l.Frequency
		}
	}
	var bad []string
	for _, lk := range lp.ptn.Links() {
		if lk.UpperFrequency == 0 {
			continue
		}
		f := perLink[lk.ID]
		if f < lk.LowerFrequency || f > lk.UpperFrequency {
			bad = append(bad, fmt.Sprintf("link %d: %d not in [%d,%d]", lk.ID, f, lk.LowerFrequency, lk.UpperFrequency))
		}
	}
	if len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrFrequencyBounds, strings.Join(bad, "; "))
	}

	return nil
}
