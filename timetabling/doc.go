// Package timetabling turns a passenger-weighted periodic event-activity
// network into a mixed-integer model, solves it through the solver contract
// and writes the timetable back.
//
// Two formulations are available:
//
//	PESP  event times π_e in [0, T-1] and, per activity, an integer p_a with
//	      l_a <= π_j − π_i + m_a·p_a <= u_a, m_a being the window modulus
//	CPF   one duration per activity and one modulo parameter z_C per cycle
//	      of a fundamental basis, with Σ ±x_a − T·z_C = 0
//
// Under the LCM headway representation a headway duration is modelled as
// instance·(T/lcm) + offset. CPF cannot express the LCM change
// simplification and is rejected for it before any work starts.
//
// The SLACK objective weighs the time above each lower bound, the
// TRAVELING_TIME objective the full durations. After decoding, the objective
// is recomputed from the timetable and compared with the solver's value;
// a difference fails the run with ErrObjectiveMismatch. Activities excluded
// by the cycle threshold are modelled at their lower bounds but take the
// duration the timetable implies. When that costs passengers time the run
// fails with ean.ErrObjectiveRisk instead.
package timetabling
