package domain

import "time"

// Everything a caller supplies for one planning request.
type PlanRequest struct {
	TripStart  time.Time
	Start      Location
	End        Location
	Locations  []Location
	Activities []Activity
	Mode       TransportMode
	Strategy   string
	Schedule   *ScheduleParams
}

// Daily operating window and the pause inserted after each travel leg.
// DayStart and DayEnd are offsets from local midnight.
type ScheduleParams struct {
	DayStart               time.Duration
	DayEnd                 time.Duration
	PauseBetweenActivities time.Duration
}
