package services

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosedTSPTwoNodes(t *testing.T) {
	got := ClosedTSP([][]float64{{0, 1}, {1, 0}}, 0)
	assert.Equal(t, []int{0, 1, 0}, got)
}

func TestClosedTSPSingleNode(t *testing.T) {
	assert.Equal(t, []int{0, 0}, ClosedTSP([][]float64{{0}}, 0))
}

func TestOpenTSPThreeNodes(t *testing.T) {
	m := [][]float64{
		{0, 5, 1},
		{5, 0, 5},
		{1, 5, 0},
	}
	// End is reserved even though it is the cheapest first hop.
	assert.Equal(t, []int{0, 1, 2}, OpenTSP(m, 0, 2))
}

func TestOpenTSPSameEndpointsIsClosed(t *testing.T) {
	m := [][]float64{{0, 1}, {1, 0}}
	assert.Equal(t, ClosedTSP(m, 0), OpenTSP(m, 0, 0))
}

func TestTSPRejectsInvalidInput(t *testing.T) {
	assert.Nil(t, ClosedTSP(nil, 0))
	assert.Nil(t, ClosedTSP([][]float64{{0, 1}}, 0))
	assert.Nil(t, ClosedTSP([][]float64{{0}}, 1))
	assert.Nil(t, OpenTSP([][]float64{{0, 1}, {1, 0}}, 0, 2))
}

func TestTwoOptUncrossesTour(t *testing.T) {
	// Points on a unit square; visiting 0,2,1,3 crosses the diagonals.
	pts := [][2]float64{{0, 0}, {0, 1}, {1, 1}, {1, 0}}
	m := euclidean(pts)

	crossed := []int{0, 2, 1, 3, 0}
	got := twoOpt(m, crossed)

	assert.InDelta(t, 4.0, TourCost(m, got), 1e-9)
	assert.Equal(t, 0, got[0])
	assert.Equal(t, 0, got[len(got)-1])
	assert.Equal(t, []int{0, 2, 1, 3, 0}, crossed, "input must not be mutated")
}

func TestTwoOptNeverIncreasesCost(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(8)
		m := make([][]float64, n)
		for i := range m {
			m[i] = make([]float64, n)
			for j := range m[i] {
				if i != j {
					m[i][j] = 1 + rng.Float64()*100
				}
			}
		}

		start, end := 0, n-1

		initial := append(nearestNeighborTour(m, start, end), end)
		got := OpenTSP(m, start, end)

		require.Len(t, got, n)
		assert.Equal(t, start, got[0])
		assert.Equal(t, end, got[n-1])
		assert.LessOrEqual(t, TourCost(m, got), TourCost(m, initial)+1e-9)
		assertPermutation(t, got, n)

		loop := ClosedTSP(m, start)
		require.Len(t, loop, n+1)
		assert.Equal(t, start, loop[0])
		assert.Equal(t, start, loop[n])
		assertPermutation(t, loop[:n], n)
	}
}

func TestNearestNeighborTieBreaksOnLowestIndex(t *testing.T) {
	m := [][]float64{
		{0, 3, 3, 3},
		{3, 0, 1, 1},
		{3, 1, 0, 1},
		{3, 1, 1, 0},
	}
	assert.Equal(t, []int{0, 1, 2, 3}, nearestNeighborTour(m, 0, -1))
}

func euclidean(pts [][2]float64) [][]float64 {
	m := make([][]float64, len(pts))
	for i := range pts {
		m[i] = make([]float64, len(pts))
		for j := range pts {
			m[i][j] = math.Hypot(pts[i][0]-pts[j][0], pts[i][1]-pts[j][1])
		}
	}
	return m
}

func assertPermutation(t *testing.T, tour []int, n int) {
	t.Helper()
	seen := make(map[int]bool, n)
	for _, v := range tour {
		assert.False(t, seen[v], "node %d visited twice", v)
		seen[v] = true
	}
	assert.Len(t, seen, n)
}
