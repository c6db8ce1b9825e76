// Package dataset reads and writes planning data in the LinTim text layout.
//
// Every file is a sequence of ';'-separated records; lines starting with
// '#' are comments and whitespace around fields is ignored. Records are
// bound to row structs with gocsv. Trailing columns may be omitted and
// default to zero.
//
//	basis/Stop.giv                       stop-id; short-name; long-name; x; y; can-turn
//	basis/Edge.giv                       link-index; from; to; length; lower; upper; headway; lower-freq; upper-freq
//	basis/OD.giv                         origin; destination; customers
//	line-planning/Line-Concept.lin       line-index; link-order; link-index; frequency; cost
//	timetabling/Events-periodic.giv      event-index; type; stop; line; passengers; direction; repetition
//	timetabling/Activities-periodic.giv  activity-index; type; from; to; lower; upper; passengers; link
//	timetabling/Timetable-periodic.tim   event-index; time
//
// The link column of the activity file is empty for activities without an
// infrastructure link. Dir bundles the files of one dataset directory.
package dataset
