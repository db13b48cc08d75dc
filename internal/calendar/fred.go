package calendar

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"
)

// FRED (Federal Reserve Economic Data) speaks key-as-query-parameter
// auth. Calendar requests map to the release-dates endpoint, series
// requests to one observations call per series id.

type fredReleaseDatesResponse struct {
	ReleaseDates []fredReleaseDate `json:"release_dates"`
}

type fredReleaseDate struct {
	ReleaseID   int    `json:"release_id"`
	ReleaseName string `json:"release_name"`
	Date        string `json:"date"`
}

type fredObservationsResponse struct {
	Observations []fredObservation `json:"observations"`
}

type fredObservation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

func fredReleaseDatesURL(base, apiKey, start, end string) string {
	params := url.Values{}
	params.Set("api_key", apiKey)
	params.Set("file_type", "json")
	params.Set("include_release_dates_with_no_data", "true")
	params.Set("realtime_start", start)
	params.Set("realtime_end", end)
	return strings.TrimRight(base, "/") + "/fred/releases/dates?" + params.Encode()
}

func fredObservationsURL(base, apiKey, seriesID, start, end string) string {
	params := url.Values{}
	params.Set("series_id", seriesID)
	params.Set("api_key", apiKey)
	params.Set("file_type", "json")
	params.Set("observation_start", start)
	params.Set("observation_end", end)
	return strings.TrimRight(base, "/") + "/fred/series/observations?" + params.Encode()
}

// fredCalendar fetches release dates and normalizes them into events.
// FRED only covers United States official releases.
func (s *Service) fredCalendar(ctx context.Context, apiKey string, req *Request) ([]Event, *callError) {
	u := fredReleaseDatesURL(s.cfg.FredBaseURL, apiKey, req.StartDate, req.EndDate)

	body, cerr := s.fetchJSON(ctx, ProviderFred, "GET", u, nil)
	if cerr != nil {
		return nil, cerr
	}

	var resp fredReleaseDatesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, newCallError("upstream_error", "fred: malformed release dates response: "+err.Error())
	}

	events := make([]Event, 0, len(resp.ReleaseDates))
	for _, rd := range resp.ReleaseDates {
		if rd.Date == "" {
			continue
		}
		events = append(events, Event{
			Date:      rd.Date,
			Country:   "United States",
			Event:     rd.ReleaseName,
			Source:    "FRED",
			Reference: strconv.Itoa(rd.ReleaseID),
		})
	}
	return events, nil
}

// fredSeries fetches observations one series at a time. A "." value is
// FRED's missing-data marker and maps to a nil observation value.
func (s *Service) fredSeries(ctx context.Context, apiKey string, req *Request) ([]Observation, *callError) {
	var out []Observation
	for _, seriesID := range req.SeriesIDs {
		u := fredObservationsURL(s.cfg.FredBaseURL, apiKey, seriesID, req.StartDate, req.EndDate)

		body, cerr := s.fetchJSON(ctx, ProviderFred, "GET", u, nil)
		if cerr != nil {
			return nil, cerr
		}

		var resp fredObservationsResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, newCallError("upstream_error", "fred: malformed observations response: "+err.Error())
		}

		for _, obs := range resp.Observations {
			var value *float64
			if obs.Value != "" && obs.Value != "." {
				value = parseNumericString(obs.Value)
			}
			out = append(out, Observation{
				SeriesID: seriesID,
				Date:     obs.Date,
				Value:    value,
			})
		}
	}
	return sortObservations(out), nil
}
