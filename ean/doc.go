// Package ean implements the periodic event-activity network (EAN): the
// graph a periodic timetable is computed on.
//
// Events are the nodes: one ARRIVAL or DEPARTURE per line, frequency
// instance and station. Activities are the edges: timing relations with a
// duration interval [Lower, Upper].
//
//	DRIVE       departure → arrival, same line, different stations
//	WAIT        arrival → departure, same station, same line
//	CHANGE      arrival → departure, different lines
//	HEADWAY     departure → departure, same link, different lines
//	SYNC        departure → departure, same station, fixed offset
//	TURNAROUND  arrival → departure
//
// Both live in arenas addressed by integer index; events keep sorted lists of
// incident activity indices instead of pointers, so the mutual Event ↔
// Activity references never form ownership cycles.
//
// Construction protocol:
//
//   - AddEvent / AddActivity validate first and mutate second: a rejected
//     insertion leaves every index untouched. Each activity type has its own
//     validator, selected once per insertion.
//   - The network accepts DRIVE, WAIT and SYNC activities until the first
//     CHANGE or HEADWAY is added; from then on only CHANGE, HEADWAY and
//     TURNAROUND are accepted (see InputState).
//   - Events of undirected lines may be added with Direction Undetermined.
//     The first DRIVE activity touching them looks up which direction of the
//     line contains the driven link and aligns both endpoints.
//
// Periodic durations: for a periodic network with period T the duration of
// an activity is the time difference of its endpoints reduced into the
// activity window, modulo T in general, modulo T/lcm(f1,f2) for CHANGE
// activities under ChangeLCMSimplification. HEADWAY activities under
// HeadwayLCMRepresentation carry bounds [h,h]; their durations range over
// [h, T-h] and only the residue modulo T/lcm is bounded by [h, T/lcm-h].
//
// Network implements bfs.Graph over event indices, which is what both the
// timetable propagation here and the cycle basis construction use.
package ean
