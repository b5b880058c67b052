package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/obs"

	"go.uber.org/zap"
)

// Activities at placed stops within this radius of a candidate count
// toward its density penalty.
const densityRadiusMeters = 500.0

// progressive builds the tour one stop at a time. Each step prices only the
// BeamWidth unvisited nodes nearest (straight line) to the last placed stop,
// widening the beam when none of them resolves.
func (r *RouteOptimizer) progressive(
	ctx context.Context,
	nodes []domain.Location,
	endIdx int,
	activities []domain.Activity,
	mode domain.TransportMode,
) (domain.OrderedRoute, error) {
	end := nodes[endIdx]

	if endIdx != 0 {
		anchor, err := r.leg(ctx, nodes[0], end, mode)
		if err != nil {
			return domain.OrderedRoute{}, err
		}
		if anchor == nil {
			r.logger.Info("start to end leg unresolved", zap.String("req_id", obs.RequestID(ctx)))
			return domain.FailedRoute(), nil
		}
	}

	all := make([]domain.Coordinates, len(nodes))
	for i, l := range nodes {
		all[i] = l.Coordinates
	}
	center := domain.Centroid(all)

	activityCount := make(map[domain.Coordinates]int, len(activities))
	for _, a := range activities {
		activityCount[a.Location.Coordinates]++
	}

	remaining := make([]int, 0, len(nodes))
	for i := 1; i < len(nodes); i++ {
		if i != endIdx {
			remaining = append(remaining, i)
		}
	}

	placed := []int{0}
	legs := make([]float64, 0, len(nodes))

	for len(remaining) > 0 {
		current := nodes[placed[len(placed)-1]]

		next, dur, err := r.step(ctx, nodes, current, placed, remaining, center, activityCount, mode)
		if err != nil {
			return domain.OrderedRoute{}, err
		}
		if next < 0 {
			r.logger.Info("no reachable candidate",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("from", current.Name),
				zap.Int("remaining", len(remaining)),
			)
			return domain.FailedRoute(), nil
		}

		placed = append(placed, next)
		legs = append(legs, dur)
		remaining = removeIndex(remaining, next)
	}

	final, err := r.leg(ctx, nodes[placed[len(placed)-1]], end, mode)
	if err != nil {
		return domain.OrderedRoute{}, err
	}
	if final == nil {
		r.logger.Info("final leg unresolved",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("from", nodes[placed[len(placed)-1]].Name),
		)
		return domain.FailedRoute(), nil
	}
	placed = append(placed, endIdx)
	legs = append(legs, *final)

	ordered := make([]domain.Location, len(placed))
	for i, idx := range placed {
		ordered[i] = nodes[idx]
	}

	return newOrderedRoute(ordered, legs), nil
}

// step picks the next stop. It returns -1 when no remaining node is
// reachable from current.
func (r *RouteOptimizer) step(
	ctx context.Context,
	nodes []domain.Location,
	current domain.Location,
	placed, remaining []int,
	center domain.Coordinates,
	activityCount map[domain.Coordinates]int,
	mode domain.TransportMode,
) (int, float64, error) {
	byDistance := append([]int(nil), remaining...)
	sort.SliceStable(byDistance, func(a, b int) bool {
		da := domain.Haversine(current.Coordinates, nodes[byDistance[a]].Coordinates)
		db := domain.Haversine(current.Coordinates, nodes[byDistance[b]].Coordinates)
		if da != db {
			return da < db
		}
		return byDistance[a] < byDistance[b]
	})

	placedCoords := make([]domain.Coordinates, len(placed))
	for i, idx := range placed {
		placedCoords[i] = nodes[idx].Coordinates
	}
	running := domain.Centroid(placedCoords)

	w := r.cfg.Weights
	for lo := 0; lo < len(byDistance); lo += r.cfg.BeamWidth {
		beam := byDistance[lo:min(lo+r.cfg.BeamWidth, len(byDistance))]

		ends := make([]domain.Coordinates, len(beam))
		for i, idx := range beam {
			ends[i] = nodes[idx].Coordinates
		}

		durations, err := r.matrix.FetchDurationsFromStart(ctx, current.Coordinates, ends, mode)
		if err != nil {
			return -1, 0, fmt.Errorf("progressive step from %q: %w", current.Name, err)
		}

		nearestCenter := math.Inf(1)
		for _, c := range ends {
			nearestCenter = math.Min(nearestCenter, domain.Haversine(c, center))
		}

		best, bestDur, bestScore := -1, 0.0, math.Inf(1)
		for i, idx := range beam {
			d := durations[domain.Pair{From: current.Coordinates, To: ends[i]}]
			if d == nil {
				continue
			}

			score := w.Duration * *d
			if w.Zigzag != 0 {
				back := domain.Haversine(current.Coordinates, running) - domain.Haversine(ends[i], running)
				score += w.Zigzag * math.Max(0, back)
			}
			if w.Density != 0 {
				score += w.Density * float64(density(ends[i], placedCoords, activityCount))
			}
			if w.Center != 0 {
				score += w.Center * (domain.Haversine(ends[i], center) - nearestCenter)
			}

			if score < bestScore {
				best, bestDur, bestScore = idx, *d, score
			}
		}
		if best >= 0 {
			return best, bestDur, nil
		}
	}

	return -1, 0, nil
}

// density counts activities bundled at c plus those at placed stops near c.
func density(c domain.Coordinates, placed []domain.Coordinates, activityCount map[domain.Coordinates]int) int {
	n := activityCount[c]
	for _, p := range placed {
		if p != c && domain.Haversine(p, c) <= densityRadiusMeters {
			n += activityCount[p]
		}
	}
	return n
}

// leg resolves a single from->to duration.
func (r *RouteOptimizer) leg(ctx context.Context, from, to domain.Location, mode domain.TransportMode) (*float64, error) {
	if from.Coordinates == to.Coordinates {
		zero := 0.0
		return &zero, nil
	}

	durations, err := r.matrix.FetchDurationsFromStart(ctx, from.Coordinates, []domain.Coordinates{to.Coordinates}, mode)
	if err != nil {
		return nil, fmt.Errorf("leg %q -> %q: %w", from.Name, to.Name, err)
	}
	return durations[domain.Pair{From: from.Coordinates, To: to.Coordinates}], nil
}

func removeIndex(s []int, v int) []int {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
