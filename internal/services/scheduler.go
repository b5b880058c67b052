package services

import (
	"math"
	"time"
	"trip-planner-service/internal/domain"

	"github.com/twpayne/go-polyline"
)

// ScheduleTrip lays an ordered route and its activities out on the calendar.
//
// Activities are attached to the first visit of the stop sharing their
// coordinates, in input order; activities at stops not on the route are
// skipped. At each stop its activities run back to back, then the leg to
// the next stop follows, then the pause.
//
// DayStart and DayEnd are wall-clock offsets in tripStart's location, so a
// 09:00 opening stays 09:00 across DST changes.
//
// The cursor starts at params.DayStart on tripStart's date. An item that
// would end after DayEnd moves to DayStart of the next day. An item that
// does not fit even a fresh day is still placed there and overruns.
// Output is sorted by start time. A failed or empty route yields no
// elements.
func ScheduleTrip(
	tripStart time.Time,
	route domain.OrderedRoute,
	activities []domain.Activity,
	params domain.ScheduleParams,
) []domain.TripElement {
	elements := []domain.TripElement{}
	if route.Failed() || len(route.Locations) == 0 {
		return elements
	}

	atStop := make(map[domain.Coordinates][]domain.Activity)
	for _, a := range activities {
		c := a.Location.Coordinates
		atStop[c] = append(atStop[c], a)
	}

	c := newCursor(tripStart, params)
	visited := make(map[domain.Coordinates]bool, len(route.Locations))

	for i, loc := range route.Locations {
		if !visited[loc.Coordinates] {
			visited[loc.Coordinates] = true

			for _, a := range atStop[loc.Coordinates] {
				a.Start, a.End = c.place(a.EstimatedDuration)
				elements = append(elements, domain.NewActivityElement(a))
			}
		}

		if i+1 >= len(route.Locations) || i >= len(route.SegmentDurations) {
			continue
		}

		next := route.Locations[i+1]
		seg := domain.RouteSegment{
			From:           loc,
			To:             next,
			Mode:           route.Mode,
			DistanceMeters: domain.Haversine(loc.Coordinates, next.Coordinates),
			Duration:       seconds(route.SegmentDurations[i]),
			Polyline:       encodeLeg(loc.Coordinates, next.Coordinates),
		}
		seg.Start, seg.End = c.place(seg.Duration)
		elements = append(elements, domain.NewSegmentElement(seg))

		c.advance(params.PauseBetweenActivities)
	}

	return elements
}

// cursor is the scheduler's monotonic position on the calendar.
type cursor struct {
	at     time.Time
	params domain.ScheduleParams
}

func newCursor(tripStart time.Time, params domain.ScheduleParams) *cursor {
	return &cursor{at: clockOn(tripStart, 0, params.DayStart), params: params}
}

// place reserves [start, start+d) and moves the cursor to its end.
func (c *cursor) place(d time.Duration) (start, end time.Time) {
	// An overrun past midnight resumes at that day's opening.
	if open := clockOn(c.at, 0, c.params.DayStart); c.at.Before(open) {
		c.at = open
	}

	rolled := false
	for !rolled && c.at.Add(d).After(clockOn(c.at, 0, c.params.DayEnd)) {
		c.at = clockOn(c.at, 1, c.params.DayStart)
		rolled = true
	}

	start = c.at
	c.at = c.at.Add(d)
	return start, c.at
}

func (c *cursor) advance(d time.Duration) {
	if d > 0 {
		c.at = c.at.Add(d)
	}
}

// clockOn returns the wall-clock time of day on the date days after t's,
// in t's location.
func clockOn(t time.Time, days int, of time.Duration) time.Time {
	y, m, d := t.Date()
	hour := int(of / time.Hour)
	minute := int(of % time.Hour / time.Minute)
	sec := int(of % time.Minute / time.Second)
	return time.Date(y, m, d+days, hour, minute, sec, int(of%time.Second), t.Location())
}

func seconds(s float64) time.Duration {
	return time.Duration(math.Round(s)) * time.Second
}

// encodeLeg returns the Google encoded polyline of a straight from->to line.
func encodeLeg(from, to domain.Coordinates) string {
	return string(polyline.EncodeCoords([][]float64{
		{from.Lat, from.Lon},
		{to.Lat, to.Lon},
	}))
}
