package domain

import "time"

type ElementKind string

const (
	ElementSegment  ElementKind = "segment"
	ElementActivity ElementKind = "activity"
)

// One scheduled itinerary item: either a travel Segment or an Activity.
// Exactly one of the pointers is set, matching Kind.
type TripElement struct {
	Kind     ElementKind   `json:"kind"`
	Segment  *RouteSegment `json:"segment,omitempty"`
	Activity *Activity     `json:"activity,omitempty"`
}

func NewSegmentElement(s RouteSegment) TripElement {
	return TripElement{Kind: ElementSegment, Segment: &s}
}

func NewActivityElement(a Activity) TripElement {
	return TripElement{Kind: ElementActivity, Activity: &a}
}

// Start returns the scheduled start of the underlying item.
func (e TripElement) Start() time.Time {
	switch e.Kind {
	case ElementSegment:
		if e.Segment != nil {
			return e.Segment.Start
		}
	case ElementActivity:
		if e.Activity != nil {
			return e.Activity.Start
		}
	}
	return time.Time{}
}

// End returns the scheduled end of the underlying item.
func (e TripElement) End() time.Time {
	switch e.Kind {
	case ElementSegment:
		if e.Segment != nil {
			return e.Segment.End
		}
	case ElementActivity:
		if e.Activity != nil {
			return e.Activity.End
		}
	}
	return time.Time{}
}
