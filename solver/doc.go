// Package solver defines the contract between the timetabling model builder
// and mixed-integer solvers.
//
// A Model holds bounded integer variables, linear constraints, a linear
// objective with a constant, and optional warm-start values. Solvers are
// registered by name (see Register and Lookup); the solver/bnb package
// registers a pure-Go branch and bound under "bnb".
//
// Status distinguishes Optimal and Feasible (a solution is available) from
// Infeasible and NotSolved (none is).
package solver
