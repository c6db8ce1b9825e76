package timetabling_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/cyclebase"
	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/eanbuild"
	"github.com/katalvlaran/pesplan/network"
	"github.com/katalvlaran/pesplan/od"
	"github.com/katalvlaran/pesplan/passenger"
	"github.com/katalvlaran/pesplan/solver"
	"github.com/katalvlaran/pesplan/timetabling"
)

// square is the 4-cycle drive(1→2), change(2→3), drive(3→4), change(4→1)
// with period 10; change 3 carries 10 passengers.
func square(t *testing.T, drive, change [2]float64) *ean.Network {
	t.Helper()
	n, err := ean.New(10)
	require.NoError(t, err)
	for _, e := range []*ean.Event{
		ean.NewEvent(1, ean.Departure, 1, 1, ean.Forwards, 1),
		ean.NewEvent(2, ean.Arrival, 2, 1, ean.Forwards, 1),
		ean.NewEvent(3, ean.Departure, 2, 2, ean.Forwards, 1),
		ean.NewEvent(4, ean.Arrival, 1, 2, ean.Forwards, 1),
	} {
		require.NoError(t, n.AddEvent(e))
	}
	for _, a := range []*ean.Activity{
		{ID: 1, Type: ean.Drive, From: 1, To: 2, Lower: drive[0], Upper: drive[1]},
		{ID: 2, Type: ean.Drive, From: 3, To: 4, Lower: drive[0], Upper: drive[1]},
		{ID: 3, Type: ean.Change, From: 2, To: 3, Lower: change[0], Upper: change[1], Passengers: 10},
		{ID: 4, Type: ean.Change, From: 4, To: 1, Lower: change[0], Upper: change[1]},
	} {
		require.NoError(t, n.AddActivity(a))
	}

	return n
}

func assertFeasible(t *testing.T, n *ean.Network) {
	t.Helper()
	require.NoError(t, n.CheckTimetableCompleteness())
	for _, a := range n.Activities() {
		d, ok := a.Duration()
		require.True(t, ok, "activity %d", a.ID)
		lo, hi := n.EffectiveBounds(a)
		assert.GreaterOrEqual(t, float64(d), lo, "activity %d", a.ID)
		assert.LessOrEqual(t, float64(d), hi, "activity %d", a.ID)
	}
}

func TestSolve_Square(t *testing.T) {
	cases := []struct {
		model     timetabling.LinearModel
		objective timetabling.ObjectiveModel
		want      float64
	}{
		{timetabling.CPF, timetabling.Slack, 0},
		{timetabling.CPF, timetabling.TravelingTime, 20},
		{timetabling.PESP, timetabling.Slack, 0},
		{timetabling.PESP, timetabling.TravelingTime, 20},
	}
	for _, tc := range cases {
		t.Run(string(tc.model)+"/"+string(tc.objective), func(t *testing.T) {
			n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
			res, err := timetabling.Solve(context.Background(), n,
				timetabling.WithModel(tc.model),
				timetabling.WithObjective(tc.objective))
			require.NoError(t, err)
			assert.Equal(t, solver.Optimal, res.Status)
			assert.InDelta(t, tc.want, res.Objective, 1e-9)
			assertFeasible(t, n)
			change, _ := n.Activity(3)
			d, _ := change.Duration()
			assert.Equal(t, 2, d)
		})
	}
}

func TestSolve_CycleSumsAreMultiplesOfPeriod(t *testing.T) {
	n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
	f, err := timetabling.BuildModel(n, timetabling.WithCycleBasis(cyclebase.MinimumSpanningForest{}))
	require.NoError(t, err)
	require.NotNil(t, f.Basis())
	assert.Len(t, f.Basis().Cycles, 1)

	s, err := solver.Lookup("bnb")
	require.NoError(t, err)
	sol, err := s.Solve(context.Background(), f.Model, solver.Params{})
	require.NoError(t, err)
	require.NoError(t, f.Decode(sol))
	_, err = f.Verify(sol.Objective, 1e-6)
	require.NoError(t, err)
	assert.NoError(t, f.Basis().CheckPeriodicity(n))
}

func TestSolve_ExcludedActivity(t *testing.T) {
	n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
	res, err := timetabling.Solve(context.Background(), n,
		timetabling.WithThreshold(0.5),
		timetabling.WithObjective(timetabling.TravelingTime))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Excluded)
	assert.Zero(t, res.Cycles)
	assert.InDelta(t, 20, res.Objective, 1e-9)
	assertFeasible(t, n)
}

// With threshold 0.5 change 4 is excluded although it carries passengers.
// The cycle forces it to 4..8 while the model counts its lower bound 2, so
// the run must not report the understated objective.
func TestSolve_ExcludedActivityWithPassengers(t *testing.T) {
	for _, objective := range []timetabling.ObjectiveModel{timetabling.TravelingTime, timetabling.Slack} {
		t.Run(string(objective), func(t *testing.T) {
			n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
			change, ok := n.Activity(4)
			require.True(t, ok)
			change.Passengers = 5

			res, err := timetabling.Solve(context.Background(), n,
				timetabling.WithThreshold(0.5),
				timetabling.WithObjective(objective))
			require.Error(t, err)
			assert.ErrorIs(t, err, ean.ErrObjectiveRisk)
			assert.NotErrorIs(t, err, timetabling.ErrObjectiveMismatch)
			require.NotNil(t, res)
			assert.Equal(t, 1, res.Excluded)

			d, ok := change.Duration()
			require.True(t, ok)
			assert.GreaterOrEqual(t, d, 4)
			assert.LessOrEqual(t, d, 8)
		})
	}

	// the same network with every activity in the model has no such gap
	n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
	change, _ := n.Activity(4)
	change.Passengers = 5
	res, err := timetabling.Solve(context.Background(), n, timetabling.WithObjective(timetabling.TravelingTime))
	require.NoError(t, err)
	assert.Zero(t, res.Excluded)
	f, err := timetabling.BuildModel(n, timetabling.WithObjective(timetabling.TravelingTime))
	require.NoError(t, err)
	ref, err := f.ReferenceObjective()
	require.NoError(t, err)
	assert.InDelta(t, ref, res.Objective, 1e-9)
}

func TestSolve_Infeasible(t *testing.T) {
	for _, model := range []timetabling.LinearModel{timetabling.CPF, timetabling.PESP} {
		t.Run(string(model), func(t *testing.T) {
			// 5 + 1 + 5 + 1 = 12 is no multiple of 10
			n := square(t, [2]float64{5, 5}, [2]float64{1, 1})
			_, err := timetabling.Solve(context.Background(), n, timetabling.WithModel(model))
			assert.ErrorIs(t, err, timetabling.ErrInfeasible)
		})
	}
}

type offByOne struct{ inner solver.Solver }

func (offByOne) Name() string { return "off-by-one" }

func (s offByOne) Solve(ctx context.Context, m *solver.Model, p solver.Params) (*solver.Solution, error) {
	sol, err := s.inner.Solve(ctx, m, p)
	if err == nil {
		sol.Objective++
	}
	return sol, err
}

func TestSolve_ObjectiveMismatch(t *testing.T) {
	inner, err := solver.Lookup("bnb")
	require.NoError(t, err)
	n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
	_, err = timetabling.Solve(context.Background(), n, timetabling.WithSolver(offByOne{inner: inner}))
	assert.ErrorIs(t, err, timetabling.ErrObjectiveMismatch)
}

func TestSolve_UnsupportedCombinations(t *testing.T) {
	lcm, err := ean.New(60, ean.WithChangeModel(ean.ChangeLCMSimplification))
	require.NoError(t, err)
	_, err = timetabling.Solve(context.Background(), lcm, timetabling.WithModel(timetabling.CPF))
	assert.ErrorIs(t, err, timetabling.ErrUnsupported)

	aperiodic, err := ean.New(0, ean.Aperiodic())
	require.NoError(t, err)
	_, err = timetabling.Solve(context.Background(), aperiodic)
	assert.ErrorIs(t, err, timetabling.ErrUnsupported)

	n := square(t, [2]float64{5, 7}, [2]float64{2, 11})
	_, err = timetabling.Solve(context.Background(), n, timetabling.WithSolverName("gurobi"))
	assert.ErrorIs(t, err, timetabling.ErrUnsupported)
	_, err = timetabling.Solve(context.Background(), n, timetabling.WithModel("MIP"))
	assert.ErrorIs(t, err, timetabling.ErrUnsupported)
	_, err = timetabling.Solve(context.Background(), n, timetabling.WithObjective("FARE"))
	assert.ErrorIs(t, err, timetabling.ErrUnsupported)
	_, err = timetabling.Solve(context.Background(), n, timetabling.WithInitialTimetable(false))
	assert.ErrorIs(t, err, ean.ErrTimetableIncomplete)
}

// pipeline builds lines 1 (1→2→3) and 2 (1→2) sharing link 1 with headway
// 2, period 20, and routes 10 passengers from 1 to 3.
func pipeline(t *testing.T) *ean.Network {
	t.Helper()
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 2, To: 3, LowerBound: 5, UpperBound: 7}))
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, true, 0, []int{1, 2}))
	require.NoError(t, pool.AddFromLinks(2, true, 0, []int{1}))
	require.NoError(t, pool.ApplyConcept(map[int]int{1: 1, 2: 1}))
	net, err := eanbuild.Build(pool, 20)
	require.NoError(t, err)

	m := od.New()
	m.Set(1, 3, 10)
	engine, err := passenger.NewEngine(net)
	require.NoError(t, err)
	_, err = engine.Distribute(context.Background(), m)
	require.NoError(t, err)

	return net
}

func TestSolve_Pipeline(t *testing.T) {
	for _, model := range []timetabling.LinearModel{timetabling.CPF, timetabling.PESP} {
		t.Run(string(model), func(t *testing.T) {
			net := pipeline(t)
			res, err := timetabling.Solve(context.Background(), net,
				timetabling.WithModel(model),
				timetabling.WithObjective(timetabling.TravelingTime))
			require.NoError(t, err)
			assert.InDelta(t, 110, res.Objective, 1e-9) // 10 · (5 + 1 + 5)
			assertFeasible(t, net)

			// the computed timetable is a valid warm start
			res, err = timetabling.Solve(context.Background(), net,
				timetabling.WithModel(model),
				timetabling.WithObjective(timetabling.TravelingTime),
				timetabling.WithInitialTimetable(true))
			require.NoError(t, err)
			assert.Equal(t, solver.Optimal, res.Status)
			assert.InDelta(t, 110, res.Objective, 1e-9)
		})
	}
}

func TestSolve_LCMRepresentedHeadways(t *testing.T) {
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 2, To: 3, LowerBound: 5, UpperBound: 7}))
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, true, 0, []int{1, 2}))
	require.NoError(t, pool.AddFromLinks(2, true, 0, []int{1}))
	require.NoError(t, pool.ApplyConcept(map[int]int{1: 2, 2: 3}))

	for _, model := range []timetabling.LinearModel{timetabling.CPF, timetabling.PESP} {
		t.Run(string(model), func(t *testing.T) {
			net, err := eanbuild.Build(pool, 60, eanbuild.WithHeadwayModel(ean.HeadwayLCMRepresentation))
			require.NoError(t, err)
			_, err = timetabling.Solve(context.Background(), net, timetabling.WithModel(model))
			require.NoError(t, err)
			for _, a := range net.ActivitiesOfType(ean.Headway) {
				d, ok := a.Duration()
				require.True(t, ok)
				r := ean.Mod(d, 10) // 60 / lcm(2,3)
				assert.GreaterOrEqual(t, r, 2, "headway %d", a.ID)
				assert.LessOrEqual(t, r, 8, "headway %d", a.ID)
			}
		})
	}
}

// TestSolve_HeadwayModels solves lines of frequency 2 and 3 sharing link 1
// under every headway model. Product and lcm expansions put several parallel
// headways between the same events, which makes the cycle rows of CPF
// linearly dependent.
func TestSolve_HeadwayModels(t *testing.T) {
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 1}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 2, To: 3, LowerBound: 5, UpperBound: 7}))
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, true, 0, []int{1, 2}))
	require.NoError(t, pool.AddFromLinks(2, true, 0, []int{1}))
	require.NoError(t, pool.ApplyConcept(map[int]int{1: 2, 2: 3}))

	demand := od.New()
	demand.Set(1, 3, 10)
	headways := []struct {
		name  string
		model ean.HeadwayModel
	}{
		{"simple", ean.HeadwaySimple},
		{"product", ean.HeadwayProductOfFrequencies},
		{"lcm of frequencies", ean.HeadwayLCMOfFrequencies},
		{"lcm representation", ean.HeadwayLCMRepresentation},
	}
	runs := []struct {
		name  string
		model timetabling.LinearModel
		basis cyclebase.Builder
	}{
		{"CPF/unexplored", timetabling.CPF, cyclebase.UnexploredVertices{}},
		{"CPF/msf", timetabling.CPF, cyclebase.MinimumSpanningForest{}},
		{"PESP", timetabling.PESP, nil},
	}
	for _, hw := range headways {
		for _, run := range runs {
			t.Run(hw.name+"/"+run.name, func(t *testing.T) {
				net, err := eanbuild.Build(pool, 12, eanbuild.WithHeadwayModel(hw.model))
				require.NoError(t, err)
				require.NotEmpty(t, net.ActivitiesOfType(ean.Headway))
				engine, err := passenger.NewEngine(net)
				require.NoError(t, err)
				_, err = engine.Distribute(context.Background(), demand)
				require.NoError(t, err)

				opts := []timetabling.Option{
					timetabling.WithModel(run.model),
					timetabling.WithObjective(timetabling.TravelingTime),
				}
				if run.basis != nil {
					opts = append(opts, timetabling.WithCycleBasis(run.basis))
				}
				res, err := timetabling.Solve(context.Background(), net, opts...)
				require.NoError(t, err)
				assert.Equal(t, solver.Optimal, res.Status)
				assert.InDelta(t, 110, res.Objective, 1e-9) // 10 · (5 + 1 + 5)
				for _, a := range net.Activities() {
					d, ok := a.Duration()
					require.True(t, ok, "activity %d", a.ID)
					lo, hi := net.EffectiveBounds(a)
					assert.GreaterOrEqual(t, float64(d), lo, "activity %d", a.ID)
					assert.LessOrEqual(t, float64(d), hi, "activity %d", a.ID)
					if w := net.Window(a); w.Residue {
						r := ean.Mod(d, w.Modulus)
						assert.GreaterOrEqual(t, float64(r), w.Lower, "headway %d", a.ID)
						assert.LessOrEqual(t, float64(r), w.Upper, "headway %d", a.ID)
					}
				}
			})
		}
	}
}
