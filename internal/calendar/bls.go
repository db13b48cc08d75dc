package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// BLS (Bureau of Labor Statistics) takes the API key in a POST body and
// accepts a whole batch of series ids in one timeseries call. Requests
// are scoped by year, so observations outside the resolved date range
// are trimmed after normalization.

const blsTimeseriesPath = "/publicAPI/v2/timeseries/data/"

type blsRequestBody struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type blsResponse struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results struct {
		Series []struct {
			SeriesID string `json:"seriesID"`
			Data     []struct {
				Year       string `json:"year"`
				Period     string `json:"period"`
				PeriodName string `json:"periodName"`
				Value      string `json:"value"`
			} `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// blsSeries issues one batched timeseries request for all series ids.
func (s *Service) blsSeries(ctx context.Context, apiKey string, req *Request) ([]Observation, *callError) {
	payload := blsRequestBody{
		SeriesID:        req.SeriesIDs,
		StartYear:       req.StartDate[:4],
		EndYear:         req.EndDate[:4],
		RegistrationKey: apiKey,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, newCallError("upstream_error", "bls: encode request: "+err.Error())
	}

	u := strings.TrimRight(s.cfg.BLSBaseURL, "/") + blsTimeseriesPath
	raw, cerr := s.fetchJSON(ctx, ProviderBLS, "POST", u, body)
	if cerr != nil {
		return nil, cerr
	}

	var resp blsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, newCallError("upstream_error", "bls: malformed timeseries response: "+err.Error())
	}
	if resp.Status != "REQUEST_SUCCEEDED" {
		msg := strings.Join(resp.Message, "; ")
		if msg == "" {
			msg = "status " + resp.Status
		}
		return nil, newCallError("upstream_error", "bls: request failed: "+msg)
	}

	var out []Observation
	for _, series := range resp.Results.Series {
		for _, point := range series.Data {
			date, ok := blsPeriodDate(point.Year, point.Period)
			if !ok {
				continue
			}
			// Year-granular fetch returns more than asked for.
			if date < req.StartDate || date > req.EndDate {
				continue
			}
			out = append(out, Observation{
				SeriesID: series.SeriesID,
				Date:     date,
				Value:    parseNumericString(point.Value),
			})
		}
	}
	return sortObservations(out), nil
}

// blsPeriodDate maps a BLS year/period pair to an ISO date. Monthly
// periods are M01..M12; M13 is the annual average, as are A01 and the
// semiannual/quarterly aggregates which anchor to their starting month.
func blsPeriodDate(year, period string) (string, bool) {
	if len(year) != 4 || len(period) < 2 {
		return "", false
	}
	prefix, num := period[:1], period[1:]

	switch prefix {
	case "M":
		if num >= "01" && num <= "12" {
			return fmt.Sprintf("%s-%s-01", year, num), true
		}
		if num == "13" {
			return year + "-01-01", true
		}
	case "Q":
		switch num {
		case "01":
			return year + "-01-01", true
		case "02":
			return year + "-04-01", true
		case "03":
			return year + "-07-01", true
		case "04":
			return year + "-10-01", true
		}
	case "S":
		switch num {
		case "01":
			return year + "-01-01", true
		case "02":
			return year + "-07-01", true
		}
	case "A":
		return year + "-01-01", true
	}
	return "", false
}
