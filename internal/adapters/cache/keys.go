package cache

import (
	"strconv"
	"strings"
	"trip-planner-service/internal/domain"
)

// DefaultPrecision rounds coordinates to 3 decimals, roughly 110 m buckets.
const DefaultPrecision = 3

// Key composes the directional cache key for start->end in mode.
// Both coordinates are rounded first, so nearby queries share one line.
func Key(start, end domain.Coordinates, mode domain.TransportMode, precision int) string {
	rs := start.Round(precision)
	re := end.Round(precision)

	var b strings.Builder
	b.Grow(64)
	writeCoord(&b, rs, precision)
	b.WriteByte('|')
	writeCoord(&b, re, precision)
	b.WriteByte('|')
	b.WriteString(string(mode))
	return b.String()
}

func writeCoord(b *strings.Builder, c domain.Coordinates, precision int) {
	b.WriteString(strconv.FormatFloat(c.Lat, 'f', precision, 64))
	b.WriteByte(',')
	b.WriteString(strconv.FormatFloat(c.Lon, 'f', precision, 64))
}
