package services

// Cost of a leg the provider could not resolve. Large but finite so tour
// arithmetic stays well defined.
const unreachableCost = 1e12

// Minimum gain for a 2-opt move to be accepted.
const twoOptEpsilon = 1e-6

// ClosedTSP orders every node of matrix into a loop that leaves and returns
// to start. The result has len(matrix)+1 entries, first and last == start.
//
// Tours are built by greedy nearest-neighbor and refined with 2-opt.
// The matrix may be asymmetric; matrix[i][j] is the cost of i->j.
// Returns nil when matrix is not square or start is out of range.
func ClosedTSP(matrix [][]float64, start int) []int {
	if !validMatrix(matrix) || start < 0 || start >= len(matrix) {
		return nil
	}

	tour := nearestNeighborTour(matrix, start, -1)
	tour = append(tour, start)

	return twoOpt(matrix, tour)
}

// OpenTSP orders every node of matrix into a path from start to end.
// Both endpoints stay pinned. When start == end it behaves like ClosedTSP.
func OpenTSP(matrix [][]float64, start, end int) []int {
	if !validMatrix(matrix) || start < 0 || start >= len(matrix) || end < 0 || end >= len(matrix) {
		return nil
	}
	if start == end {
		return ClosedTSP(matrix, start)
	}

	// Reserve end so the greedy pass never picks it early.
	tour := nearestNeighborTour(matrix, start, end)
	tour = append(tour, end)

	return twoOpt(matrix, tour)
}

// TourCost sums matrix costs over consecutive tour positions.
func TourCost(matrix [][]float64, tour []int) float64 {
	total := 0.0
	for i := 0; i+1 < len(tour); i++ {
		total += matrix[tour[i]][tour[i+1]]
	}
	return total
}

// nearestNeighborTour visits every node except skip, starting at start and
// always moving to the cheapest unvisited node.
func nearestNeighborTour(matrix [][]float64, start, skip int) []int {
	n := len(matrix)

	visited := make([]bool, n)
	visited[start] = true
	if skip >= 0 {
		visited[skip] = true
	}

	tour := make([]int, 0, n+1)
	tour = append(tour, start)

	current := start
	for {
		best := -1
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			// Strict comparison keeps the lowest index on ties.
			if best == -1 || matrix[current][j] < matrix[current][best] {
				best = j
			}
		}
		if best == -1 {
			return tour
		}

		visited[best] = true
		tour = append(tour, best)
		current = best
	}
}

// twoOpt reverses interior sub-segments tour[i..j] while doing so lowers
// the total cost by more than twoOptEpsilon. The first and last positions
// never move. Costs are recomputed in full since the matrix may be
// asymmetric and a reversal flips every inner leg.
func twoOpt(matrix [][]float64, tour []int) []int {
	best := append([]int(nil), tour...)
	bestCost := TourCost(matrix, best)

	candidate := make([]int, len(best))
	for improved := true; improved; {
		improved = false

		for i := 1; i < len(best)-2; i++ {
			for j := i + 1; j < len(best)-1; j++ {
				copy(candidate, best)
				reverse(candidate[i : j+1])

				if c := TourCost(matrix, candidate); c < bestCost-twoOptEpsilon {
					best, candidate = candidate, best
					bestCost = c
					improved = true
				}
			}
		}
	}

	return best
}

func reverse(s []int) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func validMatrix(matrix [][]float64) bool {
	if len(matrix) == 0 {
		return false
	}
	for _, row := range matrix {
		if len(row) != len(matrix) {
			return false
		}
	}
	return true
}
