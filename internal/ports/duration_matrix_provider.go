package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Resolves pairwise travel durations, cache first.
type DurationMatrixProvider interface {
	// Return durations (seconds) from start to every end. A nil value means
	// the duration could not be determined. The error is non-nil only when
	// ctx is done.
	FetchDurationsFromStart(
		ctx context.Context,
		start domain.Coordinates,
		ends []domain.Coordinates,
		mode domain.TransportMode,
	) (map[domain.Pair]*float64, error)
}
