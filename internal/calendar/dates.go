package calendar

import (
	"fmt"
	"time"
)

const isoDateLayout = "2006-01-02"

// parseISODate validates a strict YYYY-MM-DD calendar date. The parsed
// time must round-trip back to the input, so lexically valid but
// impossible dates like 2026-02-30 are rejected.
func parseISODate(s string) (time.Time, bool) {
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return time.Time{}, false
	}
	if t.Format(isoDateLayout) != s {
		return time.Time{}, false
	}
	return t, true
}

// resolveDateRange fills in and validates the start/end dates of a
// request. Pure: no clock other than the supplied now, no network, no
// cache state.
//
// Absent start defaults to now's UTC calendar date; absent end defaults
// to start plus daysAhead (clamped to >= 0). A resolved start after end
// is an invalid_date_range.
func resolveDateRange(start, end string, daysAhead int, now time.Time) (string, string, *callError) {
	if daysAhead < 0 {
		daysAhead = 0
	}

	if start == "" {
		start = now.UTC().Format(isoDateLayout)
	}
	startTime, ok := parseISODate(start)
	if !ok {
		return "", "", newCallError("invalid_start_date",
			fmt.Sprintf("startDate %q is not a valid YYYY-MM-DD date", start))
	}

	if end == "" {
		end = startTime.AddDate(0, 0, daysAhead).Format(isoDateLayout)
	}
	endTime, ok := parseISODate(end)
	if !ok {
		return "", "", newCallError("invalid_end_date",
			fmt.Sprintf("endDate %q is not a valid YYYY-MM-DD date", end))
	}

	if startTime.After(endTime) {
		return "", "", newCallError("invalid_date_range",
			fmt.Sprintf("startDate %s is after endDate %s", start, end))
	}

	return start, end, nil
}
