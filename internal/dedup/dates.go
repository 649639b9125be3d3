package dedup

import (
	"math"
	"time"
)

// millisPerDay converts an epoch-millisecond difference into days.
const millisPerDay = 86_400_000

// DateConvertible is any wrapper type exposing its instant through a
// ToDate accessor, such as a document-store timestamp.
type DateConvertible interface {
	ToDate() time.Time
}

// dateLayouts are the accepted string date formats, tried in order.
var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DatesWithin reports whether two date-like values fall within thresholdDays
// of each other. Each value may be nil, a string, a time.Time, a *time.Time,
// or anything implementing DateConvertible. Malformed or absent input on
// either side resolves to false; this function is called speculatively on
// possibly-absent fields and never panics.
//
// The difference is computed on epoch milliseconds, not calendar-day
// truncation, so two instants 73 hours apart are not "within 3 days".
func DatesWithin(a, b any, thresholdDays float64) bool {
	ta, ok := normalizeDate(a)
	if !ok {
		return false
	}
	tb, ok := normalizeDate(b)
	if !ok {
		return false
	}

	diffMillis := math.Abs(float64(ta.UnixMilli() - tb.UnixMilli()))
	return diffMillis/millisPerDay <= thresholdDays
}

// normalizeDate resolves a date-like value to a concrete time.Time.
// The boolean result is false for nil, unparseable, or zero-valued input.
func normalizeDate(v any) (time.Time, bool) {
	switch d := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return d, !d.IsZero()
	case *time.Time:
		if d == nil {
			return time.Time{}, false
		}
		return *d, !d.IsZero()
	case DateConvertible:
		if d == nil {
			return time.Time{}, false
		}
		t := d.ToDate()
		return t, !t.IsZero()
	case string:
		return parseDate(d)
	default:
		return time.Time{}, false
	}
}

// parseDate tries each accepted layout against the string.
func parseDate(s string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
