package prim_kruskal_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pesplan/prim_kruskal"
)

// buildTriangle returns A(1)-B(2) w=1, B-C(3) w=2, A-C w=3.
// Its MSF consists of edges 0 and 1 with total weight 3.
func buildTriangle() ([]int, []prim_kruskal.Edge) {
	return []int{1, 2, 3}, []prim_kruskal.Edge{
		{ID: 0, From: 1, To: 2, Weight: 1},
		{ID: 1, From: 2, To: 3, Weight: 2},
		{ID: 2, From: 1, To: 3, Weight: 3},
	}
}

// buildRandom creates a graph with n vertices and m edges, seeded
// deterministically; connectivity is not guaranteed.
func buildRandom(n, m int) ([]int, []prim_kruskal.Edge) {
	r := rand.New(rand.NewSource(42))
	vs := make([]int, n)
	for i := range vs {
		vs[i] = i
	}
	es := make([]prim_kruskal.Edge, 0, m)
	for i := 0; i < m; i++ {
		es = append(es, prim_kruskal.Edge{
			ID:     i,
			From:   r.Intn(n),
			To:     r.Intn(n),
			Weight: float64(r.Intn(50)),
		})
	}

	return vs, es
}

func TestKruskal_Triangle(t *testing.T) {
	vs, es := buildTriangle()
	f, err := prim_kruskal.Kruskal(vs, es)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.Total)
	assert.Equal(t, 1, f.Components)
	assert.True(t, f.Contains(0))
	assert.True(t, f.Contains(1))
	assert.False(t, f.Contains(2))
}

func TestPrim_Triangle(t *testing.T) {
	vs, es := buildTriangle()
	f, err := prim_kruskal.Prim(vs, es)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.Total)
	assert.Len(t, f.Edges, 2)
}

func TestForest_Disconnected(t *testing.T) {
	// Two components plus an isolated vertex and a self-loop.
	vs := []int{1, 2, 3, 4, 5}
	es := []prim_kruskal.Edge{
		{ID: 10, From: 1, To: 2, Weight: 4},
		{ID: 11, From: 3, To: 4, Weight: 1},
		{ID: 12, From: 5, To: 5, Weight: 0},
	}
	for _, method := range []string{prim_kruskal.MethodKruskal, prim_kruskal.MethodPrim} {
		f, err := prim_kruskal.Compute(vs, es, prim_kruskal.WithMethod(method))
		require.NoError(t, err, method)
		assert.Equal(t, 3, f.Components, method)
		assert.Equal(t, 5.0, f.Total, method)
		assert.False(t, f.Contains(12), method)
	}
}

func TestForest_Validation(t *testing.T) {
	_, err := prim_kruskal.Kruskal([]int{1}, []prim_kruskal.Edge{{From: 1, To: 2}})
	assert.True(t, errors.Is(err, prim_kruskal.ErrInvalidEdge))

	_, err = prim_kruskal.Compute(nil, nil, prim_kruskal.WithMethod("boruvka"))
	assert.True(t, errors.Is(err, prim_kruskal.ErrUnknownMethod))

	f, err := prim_kruskal.Kruskal(nil, nil)
	require.NoError(t, err)
	assert.Zero(t, f.Components)
}

// TestForest_AlgorithmsAgree checks that both algorithms find forests of the
// same weight and size on random multigraphs.
func TestForest_AlgorithmsAgree(t *testing.T) {
	for _, size := range [][2]int{{10, 8}, {30, 60}, {100, 400}} {
		vs, es := buildRandom(size[0], size[1])
		k, err := prim_kruskal.Kruskal(vs, es)
		require.NoError(t, err)
		p, err := prim_kruskal.Prim(vs, es)
		require.NoError(t, err)
		assert.Equal(t, k.Total, p.Total)
		assert.Equal(t, k.Components, p.Components)
		assert.Equal(t, len(vs)-k.Components, len(k.Edges))
	}
}
