// Package passenger distributes OD demand over a periodic event-activity
// network and thereby produces the passenger weights of the timetabling
// objective.
//
// Every passenger-usable activity (DRIVE, WAIT, CHANGE) becomes a weighted
// edge of a shortest-path graph; the Weigher decides the assumed duration.
// Each station gets a virtual source wired to its departures and a virtual
// sink wired from its arrivals, both with weight zero. Every OD pair is then
// routed on the deterministic Dijkstra tree of its origin's source.
package passenger
