package calendar

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Trading Economics authenticates with a "c" query parameter and scopes
// the calendar by a path of comma-joined countries plus a date window.
// Its response fields are loosely typed (Actual may be a number or a
// string like "3.2%"), so normalization goes through gjson instead of a
// rigid struct.

func tradingEconomicsCalendarURL(base string, apiKey string, countries []string, start, end string, importance *int) string {
	segment := url.PathEscape(strings.Join(countries, ","))
	u := strings.TrimRight(base, "/") + "/calendar/country/" + segment + "/" + start + "/" + end

	params := url.Values{}
	params.Set("c", apiKey)
	params.Set("f", "json")
	if importance != nil {
		params.Set("importance", strconv.Itoa(*importance))
	}
	return u + "?" + params.Encode()
}

// teCalendar fetches and normalizes the Trading Economics calendar.
func (s *Service) teCalendar(ctx context.Context, apiKey string, req *Request) ([]Event, *callError) {
	u := tradingEconomicsCalendarURL(s.cfg.TradingEconomicsBaseURL, apiKey, req.Countries, req.StartDate, req.EndDate, req.Importance)

	body, cerr := s.fetchJSON(ctx, ProviderTradingEconomics, "GET", u, nil)
	if cerr != nil {
		return nil, cerr
	}

	parsed := gjson.ParseBytes(body)
	if !parsed.IsArray() {
		return nil, newCallError("upstream_error", "tradingeconomics: expected a JSON array response")
	}

	var events []Event
	parsed.ForEach(func(_, item gjson.Result) bool {
		consensus := item.Get("Forecast")
		if consensus.String() == "" {
			consensus = item.Get("TEForecast")
		}

		ev := Event{
			CalendarID:     item.Get("CalendarId").String(),
			Date:           teEventDate(item.Get("Date").String()),
			Country:        item.Get("Country").String(),
			Category:       item.Get("Category").String(),
			Event:          item.Get("Event").String(),
			Actual:         item.Get("Actual").String(),
			ActualValue:    parseNumeric(item.Get("Actual").Value()),
			Consensus:      consensus.String(),
			ConsensusValue: parseNumeric(consensus.Value()),
			Previous:       item.Get("Previous").String(),
			PreviousValue:  parseNumeric(item.Get("Previous").Value()),
			Importance:     coerceImportance(item.Get("Importance").Value()),
			Currency:       item.Get("Currency").String(),
			Unit:           item.Get("Unit").String(),
			Source:         item.Get("Source").String(),
			Reference:      item.Get("Reference").String(),
			URL:            item.Get("URL").String(),
			LastUpdate:     item.Get("LastUpdate").String(),
		}
		events = append(events, ev)
		return true
	})
	return events, nil
}

// teEventDate reduces Trading Economics timestamps like
// "2026-03-12T13:30:00" to the calendar date.
func teEventDate(raw string) string {
	if len(raw) >= 10 {
		return raw[:10]
	}
	return raw
}
