// Package cyclebase computes fundamental cycle bases of periodic
// event-activity networks for the cycle periodicity formulation.
//
// Only cycle-relevant activities enter the basis. SelectRelevant drops free
// activities (span of almost a full period) that carry little passenger
// weight; those activities are later fixed to their lower bound.
//
// Two builders are available:
//
//	UnexploredVertices     breadth-first spanning forest, unrounded bounds
//	MinimumSpanningForest  prim_kruskal forest by span, integer bounds
//
// For every cycle C with forward activities C+ and backward activities C-,
// its modulo parameter z satisfies
//
//	Σ_{C+} l − Σ_{C-} u ≤ T·z ≤ Σ_{C+} u − Σ_{C-} l,
//
// and the basis has |A| − |E| + #components cycles.
package cyclebase
