package ean_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/ean"
	"github.com/katalvlaran/pesplan/network"
)

// buildPool returns stations 1-2-3, undirected links 1 (1-2) and 2 (2-3),
// undirected line 1 (frequency 2) and directed line 2 (frequency 3) over
// both links.
func buildPool(t *testing.T) *network.LinePool {
	t.Helper()
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 2, To: 3, LowerBound: 5, UpperBound: 7, Headway: 2}))
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, false, 0, []int{1, 2}))
	require.NoError(t, pool.AddFromLinks(2, true, 0, []int{1, 2}))
	require.NoError(t, pool.ApplyConcept(map[int]int{1: 2, 2: 3}))

	return pool
}

// buildLines adds the forward trips of lines 1 and 2:
//
//	line 1: dep 1@1 → arr 2@2 → dep 3@2 → arr 4@3
//	line 2: dep 5@1 → arr 6@2 → dep 7@2 → arr 8@3
//
// with DRIVE 1..2, WAIT 3 (line 1) and DRIVE 11..12, WAIT 13 (line 2).
func buildLines(t *testing.T, opts ...ean.Option) *ean.Network {
	t.Helper()
	opts = append([]ean.Option{ean.WithLinePool(buildPool(t))}, opts...)
	n, err := ean.New(60, opts...)
	require.NoError(t, err)

	for line, base := range map[int]int{1: 0, 2: 4} {
		require.NoError(t, n.AddEvent(ean.NewEvent(base+1, ean.Departure, 1, line, ean.Forwards, 1)))
		require.NoError(t, n.AddEvent(ean.NewEvent(base+2, ean.Arrival, 2, line, ean.Forwards, 1)))
		require.NoError(t, n.AddEvent(ean.NewEvent(base+3, ean.Departure, 2, line, ean.Forwards, 1)))
		require.NoError(t, n.AddEvent(ean.NewEvent(base+4, ean.Arrival, 3, line, ean.Forwards, 1)))
	}
	for line, base := range map[int]int{1: 0, 2: 10} {
		ev := (line - 1) * 4
		require.NoError(t, n.AddActivity(&ean.Activity{ID: base + 1, Type: ean.Drive, From: ev + 1, To: ev + 2, Lower: 5, Upper: 7}))
		require.NoError(t, n.AddActivity(&ean.Activity{ID: base + 2, Type: ean.Drive, From: ev + 3, To: ev + 4, Lower: 5, Upper: 7}))
		require.NoError(t, n.AddActivity(&ean.Activity{ID: base + 3, Type: ean.Wait, From: ev + 2, To: ev + 3, Lower: 1, Upper: 3}))
	}

	return n
}

func TestNew_RejectsBadPeriod(t *testing.T) {
	_, err := ean.New(0)
	assert.True(t, errors.Is(err, ean.ErrBadPeriod))

	n, err := ean.New(0, ean.Aperiodic())
	require.NoError(t, err)
	assert.False(t, n.IsPeriodic())
}

func TestAddActivity_WrongTypedDriveLeavesNetworkUntouched(t *testing.T) {
	n, err := ean.New(20)
	require.NoError(t, err)
	require.NoError(t, n.AddEvent(ean.NewEvent(1, ean.Departure, 1, 1, ean.Forwards, 1)))
	require.NoError(t, n.AddEvent(ean.NewEvent(2, ean.Departure, 2, 1, ean.Forwards, 1)))

	err = n.AddActivity(&ean.Activity{ID: 0, Type: ean.Drive, From: 1, To: 2, Lower: 1, Upper: 2})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ean.ErrStructure))

	assert.Zero(t, n.NumActivities())
	assert.Zero(t, n.SmallestFreeActivityIndex())
	e, _ := n.Event(1)
	assert.Empty(t, e.Outgoing())
	_, hasDrive := e.DriveActivity()
	assert.False(t, hasDrive)
	assert.Empty(t, n.ActivitiesOfType(ean.Drive))
}

func TestAddActivity_GenericRejections(t *testing.T) {
	n := buildLines(t)

	err := n.AddActivity(&ean.Activity{ID: 1, Type: ean.Wait, From: 2, To: 3})
	assert.True(t, errors.Is(err, ean.ErrDuplicateIndex))

	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Wait, From: 2, To: 42})
	assert.True(t, errors.Is(err, ean.ErrDanglingEvent))

	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Turnaround, From: 2, To: 2})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Wait, From: 2, To: 3, Lower: 3, Upper: 1})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	// duplicate DRIVE between the same ordered pair
	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Drive, From: 1, To: 2, Lower: 5, Upper: 7})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	// wait across stations
	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Wait, From: 2, To: 1})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	// sync needs a fixed offset
	err = n.AddActivity(&ean.Activity{ID: 99, Type: ean.Sync, From: 1, To: 5, Lower: 1, Upper: 2})
	assert.True(t, errors.Is(err, ean.ErrStructure))
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 99, Type: ean.Sync, From: 1, To: 5, Lower: 10, Upper: 10}))

	// link payload only on DRIVE and HEADWAY
	lk, _ := n.LinePool().PTN().Link(1)
	err = n.AddActivity(&ean.Activity{ID: 100, Type: ean.Wait, From: 2, To: 3, Link: lk})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	assert.Equal(t, 7, n.NumActivities())
	assert.Equal(t, 100, n.SmallestFreeActivityIndex())
}

func TestAddActivity_DriveInfersLink(t *testing.T) {
	n := buildLines(t)

	a, ok := n.Activity(2)
	require.True(t, ok)
	require.NotNil(t, a.Link)
	assert.Equal(t, 2, a.Link.ID)
	assert.Len(t, n.DriveActivities(1, 2), 1)
	assert.Len(t, n.ActivitiesOnLink(1), 2)

	e, _ := n.Event(2)
	drive, ok := e.DriveActivity()
	require.True(t, ok)
	assert.Equal(t, 1, drive)
	wait, ok := e.WaitActivity()
	require.True(t, ok)
	assert.Equal(t, 3, wait)
	assert.Equal(t, []int{3}, e.OutgoingTo(3))

	// an explicitly given link must match the line
	require.NoError(t, n.AddEvent(ean.NewEvent(20, ean.Departure, 1, 1, ean.Forwards, 2)))
	require.NoError(t, n.AddEvent(ean.NewEvent(21, ean.Arrival, 2, 1, ean.Forwards, 2)))
	wrong, _ := n.LinePool().PTN().Link(2)
	err := n.AddActivity(&ean.Activity{ID: 30, Type: ean.Drive, From: 20, To: 21, Link: wrong, Lower: 5, Upper: 7})
	assert.True(t, errors.Is(err, ean.ErrStructure))
}

func TestAddActivity_AlignsUndirectedLine(t *testing.T) {
	n, err := ean.New(60, ean.WithLinePool(buildPool(t)))
	require.NoError(t, err)

	// line 1 driven from station 3 to 2 is the backward direction
	require.NoError(t, n.AddEvent(ean.NewEvent(1, ean.Departure, 3, 1, ean.Undetermined, 1)))
	require.NoError(t, n.AddEvent(ean.NewEvent(2, ean.Arrival, 2, 1, ean.Undetermined, 1)))
	require.NoError(t, n.AddEvent(ean.NewEvent(3, ean.Departure, 2, 1, ean.Undetermined, 1)))
	assert.Equal(t, 3, n.Stats().Unaligned)

	require.NoError(t, n.AddActivity(&ean.Activity{ID: 1, Type: ean.Drive, From: 1, To: 2, Lower: 5, Upper: 7}))
	e1, _ := n.Event(1)
	e2, _ := n.Event(2)
	assert.Equal(t, ean.Backwards, e1.Direction)
	assert.Equal(t, ean.Backwards, e2.Direction)
	a, _ := n.Activity(1)
	assert.Equal(t, 3, a.Link.From)
	assert.Equal(t, 2, a.Link.To)

	err = n.CheckStructuralCompleteness()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ean.ErrUnaligned))
	assert.Contains(t, err.Error(), "3")

	// wait is accepted while the departure is still unaligned
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 2, Type: ean.Wait, From: 2, To: 3, Lower: 1, Upper: 3}))
	require.NoError(t, n.AddEvent(ean.NewEvent(4, ean.Arrival, 1, 1, ean.Undetermined, 1)))
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 3, Type: ean.Drive, From: 3, To: 4, Lower: 5, Upper: 7}))
	assert.NoError(t, n.CheckStructuralCompleteness())
}

func TestAddActivity_PhaseMachine(t *testing.T) {
	n := buildLines(t)
	assert.Equal(t, ean.AcceptingDriveWaitSync, n.State())

	require.NoError(t, n.AddActivity(&ean.Activity{ID: 20, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 61}))
	assert.Equal(t, ean.AcceptingChangeHeadway, n.State())

	err := n.AddActivity(&ean.Activity{ID: 21, Type: ean.Wait, From: 6, To: 7, Lower: 1, Upper: 3})
	assert.True(t, errors.Is(err, ean.ErrPhase))
	assert.True(t, errors.Is(err, ean.ErrStructure))

	require.NoError(t, n.AddActivity(&ean.Activity{ID: 22, Type: ean.Headway, From: 1, To: 5, Lower: 2, Upper: 58}))
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 23, Type: ean.Turnaround, From: 4, To: 1, Lower: 5, Upper: 64}))
	assert.Equal(t, ean.AcceptingChangeHeadway, n.State())
}

func TestAddActivity_ChangeDuplicatesPerModel(t *testing.T) {
	simple := buildLines(t)
	require.NoError(t, simple.AddActivity(&ean.Activity{ID: 20, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 61}))
	err := simple.AddActivity(&ean.Activity{ID: 21, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 61})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	// same line is never a change
	err = simple.AddActivity(&ean.Activity{ID: 22, Type: ean.Change, From: 2, To: 3, Lower: 2, Upper: 61})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	lcm := buildLines(t, ean.WithChangeModel(ean.ChangeLCMSimplification))
	require.NoError(t, lcm.AddActivity(&ean.Activity{ID: 20, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 11}))
	require.NoError(t, lcm.AddActivity(&ean.Activity{ID: 21, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 11}))
	assert.Len(t, lcm.ActivitiesOfType(ean.Change), 2)
}

func TestAddActivity_HeadwayLinkRules(t *testing.T) {
	n := buildLines(t)

	// departures 1 and 5 both drive over link 1; the link is inferred
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 30, Type: ean.Headway, From: 5, To: 1, Lower: 2, Upper: 58}))
	a, _ := n.Activity(30)
	require.NotNil(t, a.Link)
	assert.Equal(t, 1, a.Link.ID)
	assert.Len(t, n.ActivitiesOnLink(1), 3)

	// departure 7 drives over link 2
	err := n.AddActivity(&ean.Activity{ID: 31, Type: ean.Headway, From: 1, To: 7, Lower: 2, Upper: 58})
	assert.True(t, errors.Is(err, ean.ErrStructure))

	// departures of the same line never get a headway
	err = n.AddActivity(&ean.Activity{ID: 32, Type: ean.Headway, From: 1, To: 3, Lower: 2, Upper: 58})
	assert.True(t, errors.Is(err, ean.ErrStructure))
}

func TestPassengerUsableAndStats(t *testing.T) {
	n := buildLines(t)
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 20, Type: ean.Change, From: 2, To: 7, Lower: 2, Upper: 61}))
	require.NoError(t, n.AddActivity(&ean.Activity{ID: 30, Type: ean.Headway, From: 5, To: 1, Lower: 2, Upper: 58}))

	usable := n.PassengerUsable()
	assert.Len(t, usable, 7)
	for _, a := range usable {
		assert.True(t, a.IsPassengerUsable())
	}
	s := n.Stats()
	assert.Equal(t, 8, s.Events)
	assert.Equal(t, 8, s.Activities)
	assert.Equal(t, 4, s.ByType[ean.Drive])
	assert.Equal(t, 1, s.ByType[ean.Headway])
	assert.Len(t, n.EventsAt(2, ean.Departure), 2)
	assert.Equal(t, 9, n.SmallestFreeEventIndex())
}

func TestParseTypes(t *testing.T) {
	for _, typ := range ean.ActivityTypes() {
		got, err := ean.ParseActivityType(typ.String())
		require.NoError(t, err)
		assert.Equal(t, typ, got)
	}
	got, err := ean.ParseActivityType("\"HEADWAY\"")
	require.NoError(t, err)
	assert.Equal(t, ean.Headway, got)
	_, err = ean.ParseActivityType("teleport")
	assert.Error(t, err)

	et, err := ean.ParseEventType("\"departure\"")
	require.NoError(t, err)
	assert.Equal(t, ean.Departure, et)

	d, err := ean.ParseDirection("<")
	require.NoError(t, err)
	assert.Equal(t, ean.Backwards, d)
}

func TestLCMHelpers(t *testing.T) {
	assert.Equal(t, 6, ean.LCM(2, 3))
	assert.Equal(t, 4, ean.LCM(4, 0))
	assert.Equal(t, 2, ean.GCD(-4, 6))
	assert.Equal(t, 59, ean.Mod(-1, 60))
}
