package calendar

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"hermes/internal/config"
)

const maxEventsCeiling = 200

// parseRequest builds a Request from loosely typed tool arguments,
// applying configured defaults. Validation failures return a structured
// callError before any network activity.
func parseRequest(args map[string]interface{}, cfg config.CalendarConfig) (*Request, *callError) {
	req := &Request{
		Provider: strings.ToLower(strings.TrimSpace(stringArg(args, "provider"))),
		Action:   strings.ToLower(strings.TrimSpace(stringArg(args, "action"))),
	}
	if req.Provider == "" {
		req.Provider = strings.ToLower(cfg.Provider)
	}
	if req.Action == "" {
		req.Action = ActionCalendar
	}

	req.Countries = countriesArg(args, cfg.DefaultCountry)
	req.StartDate = stringArg(args, "startDate")
	req.EndDate = stringArg(args, "endDate")
	req.EventFilter = stringArg(args, "event")
	req.SeriesIDs = stringsArg(args, "seriesIds")

	// An importance outside {1,2,3} is treated as absent, not an error:
	// the filter is simply not applied.
	if raw, ok := args["importance"]; ok {
		req.Importance = coerceImportance(raw)
	}

	maxEvents := cfg.MaxEvents
	if raw, ok := args["maxEvents"]; ok {
		n := parseNumeric(raw)
		if n == nil {
			return nil, newCallError("invalid_max_events",
				fmt.Sprintf("maxEvents %v is not a number", raw))
		}
		maxEvents = int(*n)
		if maxEvents < 1 || maxEvents > maxEventsCeiling {
			return nil, newCallError("invalid_max_events",
				fmt.Sprintf("maxEvents must be between 1 and %d, got %d", maxEventsCeiling, maxEvents))
		}
	}
	if maxEvents < 1 {
		maxEvents = 1
	}
	if maxEvents > maxEventsCeiling {
		maxEvents = maxEventsCeiling
	}
	req.MaxEvents = maxEvents

	if req.Action == ActionSeries && len(req.SeriesIDs) == 0 {
		return nil, newCallError("missing_series_ids",
			"action \"series\" requires at least one entry in seriesIds")
	}

	return req, nil
}

// fingerprint derives the deterministic cache key from the fully
// resolved request. Any differing filter, date or limit produces a
// distinct key; logically identical requests collide.
func (r *Request) fingerprint() string {
	importance := ""
	if r.Importance != nil {
		importance = strconv.Itoa(*r.Importance)
	}
	keyData := strings.Join([]string{
		r.Provider,
		r.Action,
		strings.Join(r.Countries, ","),
		r.StartDate,
		r.EndDate,
		importance,
		strings.ToLower(r.EventFilter),
		strconv.Itoa(r.MaxEvents),
		strings.Join(r.SeriesIDs, ","),
	}, "|")

	hash := sha256.Sum256([]byte(keyData))
	return fmt.Sprintf("calendar:%s:%s:%x", r.Provider, r.Action, hash[:8])
}

// query echoes the resolved parameters back in the success payload.
func (r *Request) query() map[string]interface{} {
	q := map[string]interface{}{
		"provider":  r.Provider,
		"action":    r.Action,
		"countries": r.Countries,
		"startDate": r.StartDate,
		"endDate":   r.EndDate,
		"maxEvents": r.MaxEvents,
	}
	if r.Importance != nil {
		q["importance"] = *r.Importance
	}
	if r.EventFilter != "" {
		q["event"] = r.EventFilter
	}
	if len(r.SeriesIDs) > 0 {
		q["seriesIds"] = r.SeriesIDs
	}
	return q
}

// Argument extraction helpers. Tool arguments arrive as JSON-decoded
// map values, so strings, []interface{} and float64 all occur.

func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

func stringsArg(args map[string]interface{}, key string) []string {
	switch v := args[key].(type) {
	case string:
		return splitList(v)
	case []string:
		return cleanList(v)
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return cleanList(out)
	default:
		return nil
	}
}

// countriesArg resolves the country list: explicit countries win over a
// single country, which wins over the configured default, which falls
// back to "all".
func countriesArg(args map[string]interface{}, defaultCountry string) []string {
	countries := stringsArg(args, "countries")
	if len(countries) == 0 {
		if c := stringArg(args, "country"); c != "" {
			countries = splitList(c)
		}
	}
	if len(countries) == 0 && defaultCountry != "" {
		countries = splitList(defaultCountry)
	}
	if len(countries) == 0 {
		countries = []string{"all"}
	}
	return countries
}

func splitList(s string) []string {
	return cleanList(strings.Split(s, ","))
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
