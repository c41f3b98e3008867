package schedule

import (
	"strings"
	"time"
)

// DateLayout is the wire format of calendar dates.
const DateLayout = "2006-01-02"

// ParseDate reads a calendar date as YYYY-MM-DD or an RFC3339 timestamp. A
// timestamp is first moved into loc so the date matches the delivery area's
// calendar. The result is midnight UTC of that date.
func ParseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if d, err := time.Parse(DateLayout, value); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return Day(ts, loc), true
	}
	return time.Time{}, false
}

// Day returns midnight UTC of t's calendar date in loc.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FormatDate renders a stored calendar date.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
