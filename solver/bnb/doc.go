// Package bnb is a small exact MILP solver for solver.Model, registered as
// "bnb".
//
// The search is a depth-first branch and bound. Every node first tightens its
// integer bound box against the rows, which often fixes variables outright.
// Fixed variables are then substituted out and the LP relaxation over the
// remaining ones is solved with gonum's simplex (optimize/convex/lp), after
// dropping empty rows and equality rows that depend on earlier ones. A node
// is pruned on infeasibility or on a bound no better than the incumbent and
// otherwise branches on the most fractional variable, nearer side first.
// Should the simplex fail numerically (for example on a degenerate basis),
// the node is split on its widest domain instead, so the search stays exact.
// A feasible warm start seeds the incumbent.
//
// Limits (Params.NodeLimit, Params.TimeLimit, context cancellation) stop the
// search early; the status then reports Feasible or NotSolved.
//
// The solver targets the modest models of tests and small instances. The
// reduced relaxation is still built densely at every node.
package bnb
