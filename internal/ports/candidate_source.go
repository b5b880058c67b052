package ports

import (
	"context"
	"trip-planner-service/internal/domain"
)

// Port: supplies the inputs of a planning request.
type CandidateSource interface {
	LoadRequest(ctx context.Context) (domain.PlanRequest, error)
}
