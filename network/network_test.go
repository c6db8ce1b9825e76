package network_test

import (
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/network"
)

// buildCorridor returns the PTN 1-2-3-4 with undirected links 1,2,3.
func buildCorridor(t *testing.T) *network.PTN {
	t.Helper()
	ptn := network.NewPTN()
	for i := 1; i <= 4; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i, Location: orb.Point{float64(i) * 3, 0}}))
	}
	require.NoError(t, ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 2, From: 3, To: 2, LowerBound: 5, UpperBound: 7, Headway: 2}))
	require.NoError(t, ptn.AddLink(&network.Link{ID: 3, From: 3, To: 4, Length: 10, LowerBound: 2, UpperBound: 3, UpperFrequency: 4}))

	return ptn
}

func TestPTN_AddLinkValidation(t *testing.T) {
	ptn := buildCorridor(t)

	err := ptn.AddLink(&network.Link{ID: 1, From: 1, To: 2})
	assert.True(t, errors.Is(err, network.ErrDuplicateLink))

	err = ptn.AddLink(&network.Link{ID: 9, From: 1, To: 99})
	assert.True(t, errors.Is(err, network.ErrStationNotFound))

	err = ptn.AddLink(&network.Link{ID: 9, From: 1, To: 3, LowerBound: 4, UpperBound: 2})
	assert.True(t, errors.Is(err, network.ErrBadBounds))

	err = ptn.AddStation(&network.Station{ID: 2})
	assert.True(t, errors.Is(err, network.ErrDuplicateStation))
}

func TestPTN_CounterpartAndLength(t *testing.T) {
	ptn := buildCorridor(t)

	l, ok := ptn.Link(2)
	require.True(t, ok)
	assert.True(t, l.Representative())
	c := l.Counterpart()
	require.NotNil(t, c)
	assert.False(t, c.Representative())
	assert.Equal(t, 2, c.From)
	assert.Equal(t, 3, c.To)
	assert.Same(t, l, c.Counterpart())

	assert.Same(t, c, ptn.OrientedLink(2, 2, 3))
	assert.Nil(t, ptn.OrientedLink(2, 1, 3))

	// planar distance from coordinates
	assert.InDelta(t, 3.0, ptn.LinkLength(l), 1e-9)
	l3, _ := ptn.Link(3)
	assert.Equal(t, 10.0, ptn.LinkLength(l3))
	assert.Equal(t, []int{2, 3}, ptn.IncidentLinks(3))
}

func TestLinePool_AddFromLinksOrientsUndirectedLinks(t *testing.T) {
	ptn := buildCorridor(t)
	pool := network.NewLinePool(ptn)

	require.NoError(t, pool.AddFromLinks(7, false, 12, []int{1, 2, 3}))
	line, ok := pool.Line(7)
	require.True(t, ok)
	assert.Equal(t, []int{1, 2, 3, 4}, line.Stations())
	assert.True(t, line.IsForward())
	assert.InDelta(t, 16.0, line.Length, 1e-9)

	back := line.Backward()
	require.NotNil(t, back)
	assert.Equal(t, []int{4, 3, 2, 1}, back.Stations())
	assert.False(t, back.IsForward())
	assert.NotNil(t, back.LinkBetween(3, 2))
	assert.Nil(t, line.LinkBetween(3, 2))

	err := pool.AddFromLinks(7, false, 1, []int{1})
	assert.True(t, errors.Is(err, network.ErrDuplicateLine))

	err = pool.AddFromLinks(8, false, 1, []int{1, 3})
	assert.True(t, errors.Is(err, network.ErrNotAPath))
}

func TestLinePool_ApplyConcept(t *testing.T) {
	ptn := buildCorridor(t)
	pool := network.NewLinePool(ptn)
	require.NoError(t, pool.AddFromLinks(1, false, 1, []int{1, 2, 3}))
	require.NoError(t, pool.AddFromLinks(2, true, 1, []int{3}))

	require.NoError(t, pool.ApplyConcept(map[int]int{1: 2, 2: 2}))
	assert.Equal(t, 2, pool.Frequency(1))
	l, _ := pool.Line(1)
	assert.Equal(t, 2, l.Backward().Frequency)
	assert.Len(t, pool.ActiveLines(), 2)

	err := pool.ApplyConcept(map[int]int{1: 3, 2: 2})
	assert.True(t, errors.Is(err, network.ErrFrequencyBounds))

	err = pool.ApplyConcept(map[int]int{42: 1})
	assert.True(t, errors.Is(err, network.ErrLineNotFound))
}
