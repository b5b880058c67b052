package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Contract for an external one-origin, many-destination travel time service.
type DistanceMatrixService interface {
	// Return one duration in seconds per destination, in input order.
	// A nil entry means the provider found no route for that destination;
	// a non-nil error means the whole call failed.
	Query(
		ctx context.Context,
		origin domain.Coordinates,
		destinations []domain.Coordinates,
		mode domain.TransportMode,
	) ([]*float64, error)

	// Largest number of destinations accepted by a single Query call.
	MaxBatchSize() int
}
