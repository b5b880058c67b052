package dto

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"trip-planner-service/internal/config"
	"trip-planner-service/internal/domain"
)

type LocationDTO struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	ImageRef string  `json:"image_ref,omitempty"`
}

type ActivityDTO struct {
	Location        LocationDTO `json:"location"`
	DurationMinutes int         `json:"duration_minutes"`
	Description     string      `json:"description"`
}

// Day window as "HH:MM" clock times; empty fields fall back to server defaults.
type ScheduleDTO struct {
	DayStart     string `json:"day_start"`
	DayEnd       string `json:"day_end"`
	PauseMinutes *int   `json:"pause_minutes"`
}

type PlanRequest struct {
	TripStart  *time.Time    `json:"trip_start"`
	Start      LocationDTO   `json:"start"`
	End        *LocationDTO  `json:"end"`
	Locations  []LocationDTO `json:"locations"`
	Activities []ActivityDTO `json:"activities"`
	Mode       string        `json:"mode"`
	Strategy   string        `json:"strategy"`
	Schedule   *ScheduleDTO  `json:"schedule"`
}

// ToDomain converts the wire request. A missing end means a round trip,
// a missing trip start means now. Schedule fields left empty take their
// values from defaults.
func (r PlanRequest) ToDomain(now time.Time, defaults domain.ScheduleParams) (domain.PlanRequest, error) {
	mode, err := domain.ParseTransportMode(r.Mode)
	if err != nil {
		return domain.PlanRequest{}, err
	}

	start := r.Start.toDomain()
	if strings.TrimSpace(start.Name) == "" {
		return domain.PlanRequest{}, errors.New("start.name is required")
	}

	end := start
	if r.End != nil {
		end = r.End.toDomain()
	}

	tripStart := now
	if r.TripStart != nil {
		tripStart = *r.TripStart
	}

	locations := make([]domain.Location, 0, len(r.Locations))
	for _, l := range r.Locations {
		locations = append(locations, l.toDomain())
	}

	activities := make([]domain.Activity, 0, len(r.Activities))
	for i, a := range r.Activities {
		if a.DurationMinutes < 0 {
			return domain.PlanRequest{}, fmt.Errorf("activities[%d].duration_minutes must not be negative", i)
		}
		activities = append(activities, domain.Activity{
			Location:          a.Location.toDomain(),
			EstimatedDuration: time.Duration(a.DurationMinutes) * time.Minute,
			Description:       a.Description,
		})
	}

	schedule, err := r.Schedule.toDomain(defaults)
	if err != nil {
		return domain.PlanRequest{}, err
	}

	return domain.PlanRequest{
		TripStart:  tripStart,
		Start:      start,
		End:        end,
		Locations:  locations,
		Activities: activities,
		Mode:       mode,
		Strategy:   strings.ToLower(strings.TrimSpace(r.Strategy)),
		Schedule:   schedule,
	}, nil
}

func (l LocationDTO) toDomain() domain.Location {
	return domain.Location{
		Name:        strings.TrimSpace(l.Name),
		Coordinates: domain.Coordinates{Lat: l.Lat, Lon: l.Lon},
		ImageRef:    l.ImageRef,
	}
}

func (s *ScheduleDTO) toDomain(defaults domain.ScheduleParams) (*domain.ScheduleParams, error) {
	if s == nil {
		return nil, nil
	}

	out := defaults
	if s.DayStart != "" {
		d, err := config.ParseClock(s.DayStart)
		if err != nil {
			return nil, fmt.Errorf("schedule.day_start: %w", err)
		}
		out.DayStart = d
	}
	if s.DayEnd != "" {
		d, err := config.ParseClock(s.DayEnd)
		if err != nil {
			return nil, fmt.Errorf("schedule.day_end: %w", err)
		}
		out.DayEnd = d
	}
	if s.PauseMinutes != nil {
		out.PauseBetweenActivities = time.Duration(*s.PauseMinutes) * time.Minute
	}
	return &out, nil
}

type ElementResponse struct {
	Kind  string    `json:"kind"`
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Segment fields.
	From            *LocationDTO `json:"from,omitempty"`
	To              *LocationDTO `json:"to,omitempty"`
	Mode            string       `json:"mode,omitempty"`
	DistanceMeters  float64      `json:"distance_meters,omitempty"`
	DurationSeconds float64      `json:"duration_seconds,omitempty"`
	Polyline        string       `json:"polyline,omitempty"`

	// Activity fields.
	Location        *LocationDTO `json:"location,omitempty"`
	Description     string       `json:"description,omitempty"`
	DurationMinutes float64      `json:"duration_minutes,omitempty"`
}

type ItineraryResponse struct {
	Failed               bool              `json:"failed"`
	Mode                 string            `json:"mode"`
	TotalDurationSeconds float64           `json:"total_duration_seconds"`
	Locations            []LocationDTO     `json:"locations"`
	SegmentDurations     []float64         `json:"segment_durations"`
	Elements             []ElementResponse `json:"elements"`
}

func NewItineraryResponse(route domain.OrderedRoute, elements []domain.TripElement, failed bool) ItineraryResponse {
	res := ItineraryResponse{
		Failed:               failed,
		Mode:                 string(route.Mode),
		TotalDurationSeconds: route.TotalDuration,
		Locations:            make([]LocationDTO, 0, len(route.Locations)),
		SegmentDurations:     append([]float64{}, route.SegmentDurations...),
		Elements:             make([]ElementResponse, 0, len(elements)),
	}

	for _, l := range route.Locations {
		res.Locations = append(res.Locations, fromLocation(l))
	}

	for _, e := range elements {
		el := ElementResponse{Kind: string(e.Kind), Start: e.Start(), End: e.End()}
		switch {
		case e.Segment != nil:
			from, to := fromLocation(e.Segment.From), fromLocation(e.Segment.To)
			el.From, el.To = &from, &to
			el.Mode = string(e.Segment.Mode)
			el.DistanceMeters = e.Segment.DistanceMeters
			el.DurationSeconds = e.Segment.Duration.Seconds()
			el.Polyline = e.Segment.Polyline
		case e.Activity != nil:
			l := fromLocation(e.Activity.Location)
			el.Location = &l
			el.Description = e.Activity.Description
			el.DurationMinutes = e.Activity.EstimatedDuration.Minutes()
		}
		res.Elements = append(res.Elements, el)
	}

	return res
}

func fromLocation(l domain.Location) LocationDTO {
	return LocationDTO{
		Name:     l.Name,
		Lat:      l.Coordinates.Lat,
		Lon:      l.Coordinates.Lon,
		ImageRef: l.ImageRef,
	}
}
