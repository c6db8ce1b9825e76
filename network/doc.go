// Package network provides the physical and operational primitives a periodic
// timetable is planned on: stations, links and lines.
//
// A PTN (public transport network) is an arena of stations and links addressed
// by integer index. Links may be undirected; an undirected link owns a
// counterpart view with swapped endpoints, and exactly one of the pair is the
// representative that is stored in the arena.
//
// A LinePool collects lines. Every line is a simple path through the PTN (no
// station is visited twice). Undirected lines own a backward counterpart built
// from the counterpart links in reverse order; both share the same index.
//
// Typical flow:
//
//	ptn := network.NewPTN()
//	_ = ptn.AddStation(&network.Station{ID: 1, ShortName: "A"})
//	_ = ptn.AddStation(&network.Station{ID: 2, ShortName: "B"})
//	_ = ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7})
//
//	pool := network.NewLinePool(ptn)
//	_ = pool.AddFromLinks(1, false, 100, []int{1})
//	_ = pool.ApplyConcept(map[int]int{1: 2})
//
// Errors:
//
//	ErrDuplicateStation - station index already present.
//	ErrDuplicateLink    - link index already present.
//	ErrDuplicateLine    - line index already present in the pool.
//	ErrStationNotFound  - a referenced station does not exist.
//	ErrLinkNotFound     - a referenced link does not exist.
//	ErrNotAPath         - line links are not consecutive or repeat a station.
//	ErrBadBounds        - drive time bounds are negative or inverted.
//	ErrFrequencyBounds  - a line concept violates per-link frequency bounds.
package network
