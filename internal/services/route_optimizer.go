package services

import (
	"context"
	"fmt"
	"math"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/metrics"
	"trip-planner-service/internal/platform/obs"
	"trip-planner-service/internal/ports"

	"go.uber.org/zap"
)

type Strategy string

const (
	StrategyAuto        Strategy = "auto"
	StrategyFull        Strategy = "full"
	StrategyProgressive Strategy = "progressive"
)

func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyAuto:
		return StrategyAuto, nil
	case StrategyFull, StrategyProgressive:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("parse strategy: unknown strategy %q", s)
	}
}

// Multipliers of the progressive scoring terms. Zero disables a term.
type PenaltyWeights struct {
	Duration float64 // per second of travel
	Zigzag   float64 // per meter of backtracking toward the running centroid
	Density  float64 // per activity bundled at or near the candidate
	Center   float64 // per meter of extra drift from the global centroid
}

type OptimizerConfig struct {
	Strategy Strategy
	// Upper bound on distinct locations, start and end included.
	MaxLocations int
	// Under StrategyAuto, the full matrix is used up to this many locations.
	FullMatrixMax int
	// Number of nearest unvisited candidates priced per progressive step.
	BeamWidth int
	Weights   PenaltyWeights
}

func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		Strategy:      StrategyAuto,
		MaxLocations:  60,
		FullMatrixMax: 12,
		BeamWidth:     5,
		Weights: PenaltyWeights{
			Duration: 1.0,
			Zigzag:   0.05,
			Density:  120,
			Center:   0.02,
		},
	}
}

// RouteOptimizer orders must-visit locations between a fixed start and end.
// It holds no per-request state and is safe for concurrent use.
type RouteOptimizer struct {
	matrix ports.DurationMatrixProvider
	cfg    OptimizerConfig
	logger *zap.Logger
}

func NewRouteOptimizer(matrix ports.DurationMatrixProvider, cfg OptimizerConfig, logger *zap.Logger) *RouteOptimizer {
	def := DefaultOptimizerConfig()
	if cfg.Strategy == "" {
		cfg.Strategy = def.Strategy
	}
	if cfg.MaxLocations <= 0 {
		cfg.MaxLocations = def.MaxLocations
	}
	if cfg.FullMatrixMax <= 0 {
		cfg.FullMatrixMax = def.FullMatrixMax
	}
	if cfg.BeamWidth <= 0 {
		cfg.BeamWidth = def.BeamWidth
	}

	return &RouteOptimizer{
		matrix: matrix,
		cfg:    cfg,
		logger: logging.OrNop(logger),
	}
}

// WithStrategy returns a copy of r using strategy s.
func (r *RouteOptimizer) WithStrategy(s Strategy) *RouteOptimizer {
	if s == "" || s == r.cfg.Strategy {
		return r
	}
	cp := *r
	cp.cfg.Strategy = s
	return &cp
}

// OptimizeRoute orders allLocations between start and end. When start and
// end share coordinates the route is a loop.
//
// Structural problems (too many locations, invalid coordinates, an
// unresolvable start/end leg) yield domain.FailedRoute() with a nil error.
// The error is non-nil only when ctx is cancelled.
func (r *RouteOptimizer) OptimizeRoute(
	ctx context.Context,
	start, end domain.Location,
	allLocations []domain.Location,
	activities []domain.Activity,
	mode domain.TransportMode,
) (_ domain.OrderedRoute, err error) {
	defer obs.Time(ctx, "optimizer.OptimizeRoute")(&err)

	nodes := coalesce(start, end, allLocations)
	closed := start.Coordinates == end.Coordinates

	if len(nodes) == 1 {
		return domain.OrderedRoute{
			Locations:        []domain.Location{nodes[0]},
			TotalDuration:    0,
			SegmentDurations: []float64{},
			Mode:             mode,
		}, nil
	}

	strategy := r.cfg.Strategy
	if strategy == StrategyAuto {
		strategy = StrategyFull
		if len(nodes) > r.cfg.FullMatrixMax {
			strategy = StrategyProgressive
		}
	}

	if reason := r.invalid(nodes); reason != "" {
		r.logger.Info("route not computable",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.String("reason", reason),
			zap.Int("locations", len(nodes)),
		)
		metrics.OptimizerRuns.WithLabelValues(string(strategy), "invalid").Inc()
		return domain.FailedRoute(), nil
	}

	endIdx := len(nodes) - 1
	if closed {
		endIdx = 0
	}

	var route domain.OrderedRoute
	switch strategy {
	case StrategyFull:
		route, err = r.fullMatrix(ctx, nodes, endIdx, mode)
	case StrategyProgressive:
		route, err = r.progressive(ctx, nodes, endIdx, activities, mode)
	default:
		err = fmt.Errorf("optimize route: unknown strategy %q", strategy)
	}
	if err != nil {
		metrics.OptimizerRuns.WithLabelValues(string(strategy), "error").Inc()
		return domain.FailedRoute(), err
	}

	route.Mode = mode
	outcome := "ok"
	if route.Failed() {
		outcome = "failed"
	}
	metrics.OptimizerRuns.WithLabelValues(string(strategy), outcome).Inc()

	return route, nil
}

func (r *RouteOptimizer) invalid(nodes []domain.Location) string {
	if len(nodes) > r.cfg.MaxLocations {
		return fmt.Sprintf("%d locations exceeds maximum %d", len(nodes), r.cfg.MaxLocations)
	}
	for _, n := range nodes {
		c := n.Coordinates
		if math.IsNaN(c.Lat) || math.IsNaN(c.Lon) || c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			return fmt.Sprintf("invalid coordinates %s for %q", c, n.Name)
		}
	}
	return ""
}

// fullMatrix fetches every pairwise duration and solves with 2-opt.
func (r *RouteOptimizer) fullMatrix(
	ctx context.Context,
	nodes []domain.Location,
	endIdx int,
	mode domain.TransportMode,
) (domain.OrderedRoute, error) {
	n := len(nodes)
	coords := make([]domain.Coordinates, n)
	for i, l := range nodes {
		coords[i] = l.Coordinates
	}

	matrix := make([][]float64, n)
	for i := range nodes {
		fetched, err := r.matrix.FetchDurationsFromStart(ctx, coords[i], coords, mode)
		if err != nil {
			return domain.OrderedRoute{}, fmt.Errorf("full matrix: row %d: %w", i, err)
		}

		row := make([]float64, n)
		for j := range nodes {
			if i == j {
				continue
			}
			row[j] = unreachableCost
			if d := fetched[domain.Pair{From: coords[i], To: coords[j]}]; d != nil {
				row[j] = *d
			}
		}
		matrix[i] = row
	}

	if endIdx != 0 && matrix[0][endIdx] >= unreachableCost {
		r.logger.Info("start to end leg unresolved", zap.String("req_id", obs.RequestID(ctx)))
		return domain.FailedRoute(), nil
	}

	tour := OpenTSP(matrix, 0, endIdx)

	legs := make([]float64, 0, len(tour)-1)
	for i := 0; i+1 < len(tour); i++ {
		d := matrix[tour[i]][tour[i+1]]
		if d >= unreachableCost {
			r.logger.Info("tour uses an unresolved leg",
				zap.String("req_id", obs.RequestID(ctx)),
				zap.String("from", nodes[tour[i]].Name),
				zap.String("to", nodes[tour[i+1]].Name),
			)
			return domain.FailedRoute(), nil
		}
		legs = append(legs, d)
	}

	ordered := make([]domain.Location, len(tour))
	for i, idx := range tour {
		ordered[i] = nodes[idx]
	}

	return newOrderedRoute(ordered, legs), nil
}

func newOrderedRoute(locations []domain.Location, legs []float64) domain.OrderedRoute {
	total := 0.0
	for _, d := range legs {
		total += d
	}
	return domain.OrderedRoute{
		Locations:        locations,
		TotalDuration:    total,
		SegmentDurations: legs,
	}
}

// coalesce returns start, the distinct candidates in input order, then end
// (omitted when end shares start's coordinates). Candidates sharing
// coordinates with an earlier location are dropped.
func coalesce(start, end domain.Location, all []domain.Location) []domain.Location {
	seen := map[domain.Coordinates]bool{
		start.Coordinates: true,
		end.Coordinates:   true,
	}

	nodes := make([]domain.Location, 0, len(all)+2)
	nodes = append(nodes, start)
	for _, l := range all {
		if seen[l.Coordinates] {
			continue
		}
		seen[l.Coordinates] = true
		nodes = append(nodes, l)
	}
	if end.Coordinates != start.Coordinates {
		nodes = append(nodes, end)
	}
	return nodes
}
