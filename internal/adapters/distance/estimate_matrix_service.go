package distance

import (
	"context"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/ports"
)

// Average straight-line speeds in meters per second, with a detour factor
// applied on top.
var estimateSpeeds = map[domain.TransportMode]float64{
	domain.ModeDriving: 11.0,
	domain.ModeCycling: 4.2,
	domain.ModeWalking: 1.3,
}

const detourFactor = 1.3

// EstimateMatrixService approximates durations from great-circle distance.
// Used when no routing provider is configured.
type EstimateMatrixService struct {
	BatchSize int
}

var _ ports.DistanceMatrixService = EstimateMatrixService{}

func (s EstimateMatrixService) MaxBatchSize() int { return s.BatchSize }

func (s EstimateMatrixService) Query(
	ctx context.Context,
	origin domain.Coordinates,
	destinations []domain.Coordinates,
	mode domain.TransportMode,
) ([]*float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	speed, ok := estimateSpeeds[mode]
	out := make([]*float64, len(destinations))
	if !ok {
		return out, nil
	}
	for i, d := range destinations {
		out[i] = ptr(domain.Haversine(origin, d) * detourFactor / speed)
	}
	return out, nil
}
