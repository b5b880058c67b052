package domain

import "time"

// A cached directional travel duration. Start and End are already rounded
// to the cache precision.
type CacheEntry struct {
	Start           Coordinates   `json:"start"`
	End             Coordinates   `json:"end"`
	Mode            TransportMode `json:"mode"`
	DurationSeconds float64       `json:"duration_seconds"`
	LastAccess      time.Time     `json:"last_access"`
}
