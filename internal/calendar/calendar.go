package calendar

// Package calendar implements the provider abstraction for economic
// calendar events and time-series observations. Three upstream providers
// with incompatible APIs (FRED, BLS, Trading Economics) are normalized
// into a single payload shape with per-provider capability hints.

import (
	"strings"

	"hermes/pkg/errors"
)

// Supported providers and actions. The set is closed: one builder and
// one normalizer per provider tag, checked against the support matrix
// before any request construction.
const (
	ProviderFred             = "fred"
	ProviderBLS              = "bls"
	ProviderTradingEconomics = "tradingeconomics"

	ActionCalendar = "calendar"
	ActionSeries   = "series"
)

// supportMatrix governs which (provider, action) pairs are dispatchable.
var supportMatrix = map[string]map[string]bool{
	ProviderFred:             {ActionCalendar: true, ActionSeries: true},
	ProviderBLS:              {ActionSeries: true},
	ProviderTradingEconomics: {ActionCalendar: true},
}

// Capabilities declares which fields a provider can meaningfully
// populate. Static per provider, never inferred from a single response.
type Capabilities struct {
	Actual    bool `json:"actual"`
	Consensus bool `json:"consensus"`
	Previous  bool `json:"previous"`
	Official  bool `json:"official"`
}

var providerCapabilities = map[string]Capabilities{
	ProviderFred:             {Actual: true, Official: true},
	ProviderBLS:              {Actual: true, Official: true},
	ProviderTradingEconomics: {Actual: true, Consensus: true, Previous: true},
}

// Request is a fully parsed calendar/series request.
type Request struct {
	Provider    string
	Action      string
	Countries   []string
	StartDate   string
	EndDate     string
	Importance  *int
	EventFilter string
	MaxEvents   int
	SeriesIDs   []string
}

// Event is the unified calendar event shape. Raw upstream values are
// kept alongside their parsed numeric forms; a value that cannot be
// parsed leaves the numeric field nil rather than failing the item.
type Event struct {
	CalendarID     string   `json:"calendarId,omitempty"`
	Date           string   `json:"date"`
	Country        string   `json:"country,omitempty"`
	Category       string   `json:"category,omitempty"`
	Event          string   `json:"event,omitempty"`
	Actual         string   `json:"actual,omitempty"`
	ActualValue    *float64 `json:"actualValue,omitempty"`
	Consensus      string   `json:"consensus,omitempty"`
	ConsensusValue *float64 `json:"consensusValue,omitempty"`
	Previous       string   `json:"previous,omitempty"`
	PreviousValue  *float64 `json:"previousValue,omitempty"`
	Importance     *int     `json:"importance,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	Unit           string   `json:"unit,omitempty"`
	Source         string   `json:"source,omitempty"`
	Reference      string   `json:"reference,omitempty"`
	URL            string   `json:"url,omitempty"`
	LastUpdate     string   `json:"lastUpdate,omitempty"`
}

// Observation is a single time-series reading. A nil Value marks a
// missing observation (e.g. FRED's "." placeholder), distinct from zero.
type Observation struct {
	SeriesID string   `json:"seriesId"`
	Date     string   `json:"date"`
	Value    *float64 `json:"value"`
}

// callError is a structured failure surfaced to the caller as a payload
// instead of a Go error. Kind is machine-parseable so agents can branch
// on it.
type callError struct {
	kind    string
	message string
	extra   map[string]interface{}
}

func newCallError(kind, message string) *callError {
	return &callError{kind: kind, message: message}
}

func (e *callError) with(key string, value interface{}) *callError {
	if e.extra == nil {
		e.extra = make(map[string]interface{})
	}
	e.extra[key] = value
	return e
}

// sentinel maps the error kind onto the domain sentinel it refines, so
// code holding only an error can branch with errors.Is.
func (e *callError) sentinel() error {
	switch e.kind {
	case "invalid_start_date", "invalid_end_date", "invalid_date_range",
		"invalid_max_events", "missing_series_ids":
		return errors.ErrInvalidInput
	case "unsupported_provider", "unsupported_action":
		return errors.ErrUnsupported
	case "upstream_error":
		return errors.ErrUpstream
	case "timeout":
		return errors.ErrTimeout
	case "disabled":
		return errors.ErrDisabled
	}
	if strings.HasPrefix(e.kind, "missing_") && strings.HasSuffix(e.kind, "_api_key") {
		return errors.ErrMissingCredentials
	}
	return errors.ErrInternal
}

// err renders the failure as a DomainError wrapping its sentinel, for
// logging and error tracking.
func (e *callError) err() error {
	return errors.NewDomainError(e.kind, e.message, e.sentinel())
}

// payload renders the error as the caller-facing map.
func (e *callError) payload() map[string]interface{} {
	p := map[string]interface{}{
		"error":   e.kind,
		"message": e.message,
	}
	for k, v := range e.extra {
		p[k] = v
	}
	return p
}
