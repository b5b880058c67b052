package domain

import "time"

// FailedRouteDuration marks an OrderedRoute that could not be computed.
const FailedRouteDuration = -1

// The output of the route optimizer: locations in visiting order plus the
// travel duration of every consecutive leg, in seconds.
// For a non-failed route len(SegmentDurations) == len(Locations)-1.
type OrderedRoute struct {
	Locations        []Location    `json:"locations"`
	TotalDuration    float64       `json:"total_duration"`
	SegmentDurations []float64     `json:"segment_durations"`
	Mode             TransportMode `json:"mode,omitempty"`
}

// FailedRoute returns the sentinel "could not compute" route.
func FailedRoute() OrderedRoute {
	return OrderedRoute{
		Locations:        []Location{},
		TotalDuration:    FailedRouteDuration,
		SegmentDurations: []float64{},
	}
}

// Failed reports whether r is the sentinel failure route.
func (r OrderedRoute) Failed() bool {
	return r.TotalDuration < 0
}

// A single travel leg between two consecutive stops.
// Start and End are filled in by the scheduler.
type RouteSegment struct {
	From           Location      `json:"from"`
	To             Location      `json:"to"`
	Mode           TransportMode `json:"mode"`
	DistanceMeters float64       `json:"distance_meters"`
	Duration       time.Duration `json:"duration"`
	Polyline       string        `json:"polyline"`
	Start          time.Time     `json:"start"`
	End            time.Time     `json:"end"`
}
