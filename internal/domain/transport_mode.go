package domain

import (
	"fmt"
	"strings"
)

// How a leg is travelled. A single leg never mixes modes.
type TransportMode string

const (
	ModeDriving TransportMode = "driving"
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"
)

// ParseTransportMode accepts the canonical names case-insensitively.
// An empty string defaults to driving.
func ParseTransportMode(s string) (TransportMode, error) {
	switch TransportMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeDriving:
		return ModeDriving, nil
	case ModeWalking:
		return ModeWalking, nil
	case ModeCycling:
		return ModeCycling, nil
	default:
		return "", fmt.Errorf("parse transport mode: unknown mode %q", s)
	}
}
