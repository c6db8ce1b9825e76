// Package eanbuild generates a periodic event-activity network from a line
// concept: a line pool whose lines carry fixed frequencies.
//
// Every operated line direction becomes a trip of alternating departure and
// arrival events, linked by DRIVE activities (bounded by the link drive
// times) and WAIT activities (bounded by the configured dwell times).
//
// Frequency models:
//
//	Multiplicity  one trip per frequency instance; successive instances are
//	              tied by SYNC activities with the fixed offset T/f.
//	Attribute     one trip per line direction; the frequency is an attribute
//	              the change and headway models read through the line pool.
//
// CHANGE activities connect each arrival with each departure of another line
// at the same station, bounded by [minChange, minChange+T-1], or by
// [minChange, minChange+T/lcm-1] under ean.ChangeLCMSimplification.
//
// HEADWAY activities separate departures of different lines that drive over
// the same link in the same direction. The HeadwayExpansionPolicy decides
// how many activities one departure pair needs and how they are bounded:
//
//	SimpleHeadway         one activity [h, T-h]
//	ProductOfFrequencies  f1·f2 activities shifted by i·T/f1 + j·T/f2
//	LCMOfFrequencies      lcm(f1,f2) activities shifted by k·T/lcm
//	LCMRepresentation     one activity [h,h], decomposed by the model builder
//
// Multiplicity only combines with the simple change and headway models: the
// frequency-based models assume one event per line and station.
package eanbuild
