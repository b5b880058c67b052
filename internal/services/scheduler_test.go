package services

import (
	"testing"
	"time"
	_ "time/tzdata"
	"trip-planner-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
)

var (
	tripDay = time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	window  = domain.ScheduleParams{
		DayStart:               9 * time.Hour,
		DayEnd:                 18 * time.Hour,
		PauseBetweenActivities: 15 * time.Minute,
	}
)

func at(day, hour, minute int) time.Time {
	return tripDay.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func singleStop(l domain.Location) domain.OrderedRoute {
	return domain.OrderedRoute{Locations: []domain.Location{l}, SegmentDurations: []float64{}}
}

func activity(l domain.Location, d time.Duration, desc string) domain.Activity {
	return domain.Activity{Location: l, EstimatedDuration: d, Description: desc}
}

func TestScheduleOneHourActivity(t *testing.T) {
	got := ScheduleTrip(tripDay, singleStop(pA), []domain.Activity{activity(pA, time.Hour, "museum")}, window)

	require.Len(t, got, 1)
	assert.Equal(t, domain.ElementActivity, got[0].Kind)
	assert.Equal(t, at(0, 9, 0), got[0].Start())
	assert.Equal(t, at(0, 10, 0), got[0].End())
	assert.Equal(t, "museum", got[0].Activity.Description)
}

func TestScheduleLongActivityRollsToNextDay(t *testing.T) {
	got := ScheduleTrip(tripDay, singleStop(pA), []domain.Activity{activity(pA, 10*time.Hour, "hike")}, window)

	require.Len(t, got, 1)
	assert.Equal(t, at(1, 9, 0), got[0].Start())
	// Longer than the window, so it overruns the fresh day.
	assert.Equal(t, at(1, 19, 0), got[0].End())
}

func TestScheduleActivityFillingWindowStaysSameDay(t *testing.T) {
	got := ScheduleTrip(tripDay, singleStop(pA), []domain.Activity{activity(pA, 9*time.Hour, "tour")}, window)

	require.Len(t, got, 1)
	assert.Equal(t, at(0, 9, 0), got[0].Start())
	assert.Equal(t, at(0, 18, 0), got[0].End())
}

func TestSchedulePauseOnlyAfterLegs(t *testing.T) {
	route := domain.OrderedRoute{
		Locations:        []domain.Location{pA, pB},
		SegmentDurations: []float64{600},
		TotalDuration:    600,
		Mode:             domain.ModeWalking,
	}
	acts := []domain.Activity{
		activity(pA, 30*time.Minute, "a1"),
		activity(pB, time.Hour, "b1"),
		activity(pA, 30*time.Minute, "a2"),
	}

	got := ScheduleTrip(tripDay, route, acts, window)
	require.Len(t, got, 4)

	assert.Equal(t, "a1", got[0].Activity.Description)
	assert.Equal(t, at(0, 9, 0), got[0].Start())
	assert.Equal(t, "a2", got[1].Activity.Description)
	assert.Equal(t, at(0, 9, 30), got[1].Start(), "activities at one stop run back to back")

	require.Equal(t, domain.ElementSegment, got[2].Kind)
	seg := got[2].Segment
	assert.Equal(t, at(0, 10, 0), seg.Start)
	assert.Equal(t, at(0, 10, 10), seg.End)
	assert.Equal(t, domain.ModeWalking, seg.Mode)
	assert.Equal(t, "A", seg.From.Name)
	assert.Equal(t, "B", seg.To.Name)
	assert.InDelta(t, domain.Haversine(pA.Coordinates, pB.Coordinates), seg.DistanceMeters, 1e-9)

	assert.Equal(t, "b1", got[3].Activity.Description)
	assert.Equal(t, at(0, 10, 25), got[3].Start())
}

func TestScheduleRollsWhenDayIsFull(t *testing.T) {
	acts := []domain.Activity{
		activity(pA, 5*time.Hour, "first"),
		activity(pA, 5*time.Hour, "second"),
	}

	got := ScheduleTrip(tripDay, singleStop(pA), acts, window)
	require.Len(t, got, 2)
	assert.Equal(t, at(0, 14, 0), got[0].End())
	assert.Equal(t, at(1, 9, 0), got[1].Start())
	assert.Equal(t, at(1, 14, 0), got[1].End())
}

func TestScheduleResumesAtDayStartAfterOverrunPastMidnight(t *testing.T) {
	acts := []domain.Activity{
		activity(pA, 8*time.Hour, "long"),
		activity(pA, 20*time.Hour, "overnight"),
		activity(pA, time.Hour, "after"),
	}

	got := ScheduleTrip(tripDay, singleStop(pA), acts, window)
	require.Len(t, got, 3)
	assert.Equal(t, at(1, 9, 0), got[1].Start())
	assert.Equal(t, at(2, 5, 0), got[1].End())
	assert.Equal(t, at(2, 9, 0), got[2].Start())
}

func TestScheduleKeepsWallClockAcrossDST(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	tests := []struct {
		name string
		day  time.Time
	}{
		{"spring forward", time.Date(2026, 3, 8, 0, 0, 0, 0, ny)},
		{"fall back", time.Date(2026, 11, 1, 0, 0, 0, 0, ny)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScheduleTrip(tt.day, singleStop(pA), []domain.Activity{activity(pA, 9*time.Hour, "tour")}, window)

			require.Len(t, got, 1)
			assert.Equal(t, "09:00", got[0].Start().Format("15:04"))
			assert.Equal(t, "18:00", got[0].End().Format("15:04"))
			assert.Equal(t, tt.day.Day(), got[0].End().Day(), "a full window fits the day")
		})
	}
}

func TestScheduleDayEndIsWallClockOnDSTDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	springForward := time.Date(2026, 3, 8, 0, 0, 0, 0, ny)

	acts := []domain.Activity{
		activity(pA, 8*time.Hour+30*time.Minute, "long"),
		activity(pA, time.Hour, "late"),
	}

	got := ScheduleTrip(springForward, singleStop(pA), acts, window)
	require.Len(t, got, 2)
	assert.True(t, time.Date(2026, 3, 8, 17, 30, 0, 0, ny).Equal(got[0].End()), "first ends %v", got[0].End())
	// 18:30 would pass the 18:00 close, so the second moves to the next day.
	assert.True(t, time.Date(2026, 3, 9, 9, 0, 0, 0, ny).Equal(got[1].Start()), "second starts %v", got[1].Start())
}

func TestClockOnNormalizesMonthEnd(t *testing.T) {
	last := time.Date(2026, 1, 31, 22, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC), clockOn(last, 1, 9*time.Hour+30*time.Minute))
}

func TestScheduleOutputIsSorted(t *testing.T) {
	stops := []domain.Location{pA, pB, pC, pD, pA}
	route := domain.OrderedRoute{
		Locations:        stops,
		SegmentDurations: []float64{1200, 7200, 300, 20000},
	}

	var acts []domain.Activity
	for i, l := range stops[:4] {
		acts = append(acts,
			activity(l, time.Duration(i+1)*90*time.Minute, "x"),
			activity(l, 45*time.Minute, "y"),
		)
	}

	got := ScheduleTrip(tripDay.Add(13*time.Hour), route, acts, window)
	require.Len(t, got, len(acts)+4)

	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Start().Before(got[i-1].Start()), "element %d starts before %d", i, i-1)
		assert.False(t, got[i].Start().Before(got[i-1].End()), "element %d overlaps %d", i, i-1)
	}
	for _, e := range got {
		assert.False(t, e.End().Before(e.Start()))
		assert.False(t, e.Start().Before(clockOn(e.Start(), 0, window.DayStart)), "element starts before the day opens")
	}
}

func TestScheduleLoopVisitsStartActivitiesOnce(t *testing.T) {
	route := domain.OrderedRoute{
		Locations:        []domain.Location{pA, pB, pA},
		SegmentDurations: []float64{60, 60},
	}
	got := ScheduleTrip(tripDay, route, []domain.Activity{activity(pA, time.Hour, "breakfast")}, window)

	var activities int
	for _, e := range got {
		if e.Kind == domain.ElementActivity {
			activities++
		}
	}
	assert.Equal(t, 1, activities)
	assert.Len(t, got, 3)
}

func TestScheduleSkipsActivitiesOffRoute(t *testing.T) {
	got := ScheduleTrip(tripDay, singleStop(pA), []domain.Activity{activity(pC, time.Hour, "elsewhere")}, window)
	assert.Empty(t, got)
}

func TestScheduleEmptyAndFailedRoutes(t *testing.T) {
	acts := []domain.Activity{activity(pA, time.Hour, "x")}

	assert.Empty(t, ScheduleTrip(tripDay, domain.OrderedRoute{}, acts, window))
	assert.Empty(t, ScheduleTrip(tripDay, domain.FailedRoute(), acts, window))
	assert.NotNil(t, ScheduleTrip(tripDay, domain.FailedRoute(), acts, window))
}

func TestScheduleSegmentPolylineDecodes(t *testing.T) {
	route := domain.OrderedRoute{
		Locations:        []domain.Location{pA, pD},
		SegmentDurations: []float64{90.4},
	}
	got := ScheduleTrip(tripDay, route, nil, window)
	require.Len(t, got, 1)

	seg := got[0].Segment
	assert.Equal(t, 90*time.Second, seg.Duration)

	coords, rest, err := polyline.DecodeCoords([]byte(seg.Polyline))
	require.NoError(t, err)
	assert.Empty(t, rest)
	require.Len(t, coords, 2)
	assert.InDelta(t, pA.Coordinates.Lat, coords[0][0], 1e-5)
	assert.InDelta(t, pA.Coordinates.Lon, coords[0][1], 1e-5)
	assert.InDelta(t, pD.Coordinates.Lat, coords[1][0], 1e-5)
	assert.InDelta(t, pD.Coordinates.Lon, coords[1][1], 1e-5)
}
