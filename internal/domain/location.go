package domain

import "time"

// A named place on the map. ImageRef is an opaque reference owned by the caller.
type Location struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	ImageRef    string      `json:"image_ref,omitempty"`
}

// A point-of-interest activity performed at a Location.
// Start and End are placeholders until the scheduler assigns them.
type Activity struct {
	Location          Location      `json:"location"`
	EstimatedDuration time.Duration `json:"estimated_duration"`
	Description       string        `json:"description"`
	Start             time.Time     `json:"start"`
	End               time.Time     `json:"end"`
}
