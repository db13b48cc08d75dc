package calendar

import (
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// numberPattern matches the first signed decimal substring in a raw
// value, so "3.2%" and "+0.5 pp" both yield a number.
var numberPattern = regexp.MustCompile(`[-+]?[0-9]*\.?[0-9]+`)

// parseNumericString extracts a numeric reading from a raw upstream
// string. Returns nil when nothing parseable is present; never fails.
func parseNumericString(raw string) *float64 {
	match := numberPattern.FindString(strings.TrimSpace(raw))
	if match == "" {
		return nil
	}
	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseNumeric coerces an arbitrary upstream value to a number. Native
// numbers pass through; strings go through substring extraction.
func parseNumeric(raw interface{}) *float64 {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return &v
	case float32:
		f := float64(v)
		return &f
	case int:
		f := float64(v)
		return &f
	case int64:
		f := float64(v)
		return &f
	case string:
		return parseNumericString(v)
	default:
		return nil
	}
}

// coerceImportance maps a numeric or numeric-string importance to the
// declared set {1,2,3}, truncating toward zero. Out-of-range or
// non-numeric input yields nil so the item is kept unfiltered rather
// than discarded.
func coerceImportance(raw interface{}) *int {
	f := parseNumeric(raw)
	if f == nil {
		return nil
	}
	n := int(math.Trunc(*f))
	if n < 1 || n > 3 {
		return nil
	}
	return &n
}

// shapeEvents applies the event-name filter, sorts ascending by date and
// truncates to maxEvents. Order matters: truncation runs last so filters
// see the full fetched set. The sort is stable, ties keep original
// response order. Lexical comparison of ISO dates is chronological by
// construction.
func shapeEvents(events []Event, filter string, maxEvents int) []Event {
	if filter != "" {
		needle := strings.ToLower(filter)
		kept := events[:0:0]
		for _, ev := range events {
			if strings.Contains(strings.ToLower(ev.Event), needle) {
				kept = append(kept, ev)
			}
		}
		events = kept
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Date < events[j].Date
	})

	if maxEvents > 0 && len(events) > maxEvents {
		events = events[:maxEvents]
	}
	return events
}

// sortObservations orders series readings ascending by date, stable.
func sortObservations(obs []Observation) []Observation {
	sort.SliceStable(obs, func(i, j int) bool {
		return obs[i].Date < obs[j].Date
	})
	return obs
}
