package services

import (
	"context"
	"errors"
	"fmt"
	"time"
	"trip-planner-service/internal/domain"
	"trip-planner-service/internal/platform/logging"
	"trip-planner-service/internal/platform/obs"

	"go.uber.org/zap"
)

// ErrInvalidRequest wraps every request validation failure.
var ErrInvalidRequest = errors.New("invalid plan request")

// Result of one planning request. When Failed is true Route is the
// sentinel failed route and Elements is empty.
type Itinerary struct {
	Route    domain.OrderedRoute  `json:"route"`
	Elements []domain.TripElement `json:"elements"`
	Failed   bool                 `json:"failed"`
}

// Planner runs the optimize-then-schedule pipeline.
type Planner struct {
	optimizer *RouteOptimizer
	schedule  domain.ScheduleParams
	logger    *zap.Logger
}

// NewPlanner uses schedule for requests that carry no ScheduleParams.
func NewPlanner(optimizer *RouteOptimizer, schedule domain.ScheduleParams, logger *zap.Logger) *Planner {
	return &Planner{
		optimizer: optimizer,
		schedule:  schedule,
		logger:    logging.OrNop(logger),
	}
}

func (p *Planner) PlanTrip(ctx context.Context, req domain.PlanRequest) (_ Itinerary, err error) {
	defer obs.Time(ctx, "planner.PlanTrip")(&err)

	strategy, params, err := p.validate(req)
	if err != nil {
		return Itinerary{}, err
	}

	route, err := p.optimizer.WithStrategy(strategy).OptimizeRoute(
		ctx, req.Start, req.End, req.Locations, req.Activities, req.Mode,
	)
	if err != nil {
		return Itinerary{}, fmt.Errorf("plan trip: optimize route: %w", err)
	}

	if route.Failed() {
		p.logger.Info("route could not be computed",
			zap.String("req_id", obs.RequestID(ctx)),
			zap.Int("locations", len(req.Locations)),
			zap.String("mode", string(req.Mode)),
		)
		return Itinerary{Route: route, Elements: []domain.TripElement{}, Failed: true}, nil
	}

	elements := ScheduleTrip(req.TripStart, route, req.Activities, params)

	p.logger.Debug("trip planned",
		zap.String("req_id", obs.RequestID(ctx)),
		zap.Int("stops", len(route.Locations)),
		zap.Float64("total_duration_s", route.TotalDuration),
		zap.Int("elements", len(elements)),
	)

	return Itinerary{Route: route, Elements: elements}, nil
}

func (p *Planner) validate(req domain.PlanRequest) (Strategy, domain.ScheduleParams, error) {
	var errs []error

	if req.TripStart.IsZero() {
		errs = append(errs, errors.New("trip start is required"))
	}
	if _, err := domain.ParseTransportMode(string(req.Mode)); err != nil || req.Mode == "" {
		errs = append(errs, fmt.Errorf("unsupported transport mode %q", req.Mode))
	}

	strategy, err := ParseStrategy(req.Strategy)
	if err != nil {
		errs = append(errs, err)
	}

	params := p.schedule
	if req.Schedule != nil {
		params = *req.Schedule
	}
	if params.DayStart < 0 || params.DayEnd > 24*time.Hour || params.DayEnd <= params.DayStart {
		errs = append(errs, fmt.Errorf("day window %s-%s is empty or out of range", params.DayStart, params.DayEnd))
	}
	if params.PauseBetweenActivities < 0 {
		errs = append(errs, errors.New("pause must not be negative"))
	}

	for _, a := range req.Activities {
		if a.EstimatedDuration < 0 {
			errs = append(errs, fmt.Errorf("activity %q has a negative duration", a.Description))
		}
	}

	if len(errs) > 0 {
		return "", params, fmt.Errorf("%w: %w", ErrInvalidRequest, errors.Join(errs...))
	}
	return strategy, params, nil
}
