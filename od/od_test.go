package od_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/network"
	"github.com/katalvlaran/pesplan/od"
)

func threeStations(t *testing.T) *network.PTN {
	t.Helper()
	ptn := network.NewPTN()
	for i := 1; i <= 3; i++ {
		require.NoError(t, ptn.AddStation(&network.Station{ID: i}))
	}

	return ptn
}

func TestMatrix_PairsAndTotal(t *testing.T) {
	m := od.New()
	m.Set(3, 1, 4)
	m.Set(1, 3, 10)
	m.Set(1, 2, 0)

	assert.Equal(t, []od.Pair{{1, 2}, {1, 3}, {3, 1}}, m.Pairs())
	assert.Equal(t, 14.0, m.Total())
	assert.Equal(t, 0.0, m.Get(2, 3))
	assert.False(t, m.Has(2, 3))
}

func TestMatrix_Validate(t *testing.T) {
	ptn := threeStations(t)

	m := od.New()
	m.Set(1, 3, 10)
	m.Set(3, 1, 10)
	require.NoError(t, m.Validate(ptn, od.ValidateOptions{Symmetric: true}))

	m.Set(3, 1, 4)
	m.Set(1, 9, 1)
	m.Set(2, 1, -1)
	err := m.Validate(ptn, od.ValidateOptions{Symmetric: true, Complete: true})
	require.Error(t, err)
	assert.True(t, errors.Is(err, od.ErrInvalid))
	for _, want := range []string{"asymmetric", "unknown destination", "negative demand", "(2,3) missing"} {
		assert.True(t, strings.Contains(err.Error(), want), "missing %q in %v", want, err)
	}
}
