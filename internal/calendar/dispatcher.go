package calendar

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"

	"hermes/internal/cache"
	"hermes/internal/config"
	"hermes/internal/metrics"
	"hermes/pkg/errors"
	"hermes/pkg/logger"
)

// errBodyLimit bounds upstream error body excerpts so a misbehaving
// provider cannot blow up error payloads.
const errBodyLimit = 512

const defaultTimeoutSeconds = 10

const userAgent = "hermes/1.0"

// Service dispatches calendar/series requests across providers. The
// cache is the only shared mutable state; concurrent invocations are
// otherwise independent. Two simultaneous misses for one key both hit
// the upstream and the later write wins, which is tolerated instead of
// coalescing in-flight requests.
type Service struct {
	cfg    config.CalendarConfig
	cache  *cache.Cache
	client *http.Client
	log    *logger.Logger
}

// NewService wires a dispatcher with its cache and a timeout-bounded
// HTTP client.
func NewService(cfg config.CalendarConfig, memo *cache.Cache) *Service {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = defaultTimeoutSeconds
	}
	return &Service{
		cfg:    cfg,
		cache:  memo,
		client: &http.Client{Timeout: time.Duration(timeout) * time.Second},
		log:    logger.Get().With("component", "calendar"),
	}
}

// Execute runs one request end to end and always returns a structured
// payload: failures come back as {error, message, ...} maps, never as a
// Go error past this boundary.
func (s *Service) Execute(ctx context.Context, args map[string]interface{}) map[string]interface{} {
	started := time.Now()
	log := s.log.With("request_id", uuid.NewString())

	fail := func(cerr *callError) map[string]interface{} {
		metrics.RequestsTotal.WithLabelValues(stringArg(args, "provider"), stringArg(args, "action"), "error").Inc()
		err := cerr.err()
		if errors.Is(err, errors.ErrUpstream) || errors.Is(err, errors.ErrTimeout) {
			log.ErrorWithContext(ctx, err, map[string]string{"kind": cerr.kind})
		} else {
			log.Warnw("Calendar request failed", "kind", cerr.kind, "message", cerr.message)
		}
		return cerr.payload()
	}

	if !s.cfg.Enabled {
		return fail(newCallError("disabled", "economic calendar is disabled; set CALENDAR_ENABLED=true"))
	}

	req, cerr := parseRequest(args, s.cfg)
	if cerr != nil {
		return fail(cerr)
	}
	log = log.With("provider", req.Provider, "action", req.Action)

	actions, known := supportMatrix[req.Provider]
	if !known {
		return fail(newCallError("unsupported_provider",
			fmt.Sprintf("unknown provider %q", req.Provider)).with("provider", req.Provider))
	}
	if !actions[req.Action] {
		return fail(newCallError("unsupported_action",
			fmt.Sprintf("provider %q does not support action %q", req.Provider, req.Action)).
			with("provider", req.Provider).with("action", req.Action))
	}

	apiKey := s.resolveAPIKey(req.Provider)
	if apiKey == "" {
		return fail(missingKeyError(req.Provider))
	}

	start, end, cerr := resolveDateRange(req.StartDate, req.EndDate, s.cfg.DefaultDaysAhead, time.Now())
	if cerr != nil {
		return fail(cerr)
	}
	req.StartDate, req.EndDate = start, end

	ttl := time.Duration(s.cfg.CacheTTLMinutes) * time.Minute
	key := req.fingerprint()
	if ttl > 0 {
		if cached, ok := s.cache.Get(key); ok {
			metrics.CacheHitsTotal.Inc()
			metrics.RequestsTotal.WithLabelValues(req.Provider, req.Action, "cached").Inc()
			log.Debugw("Serving calendar payload from cache", "key", key)
			return withCachedFlag(cached)
		}
		metrics.CacheMissesTotal.Inc()
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.client.Timeout)
	defer cancel()

	payload := map[string]interface{}{
		"query": req.query(),
		"externalContent": map[string]interface{}{
			"untrusted": true,
			"source":    "api",
			"provider":  req.Provider,
			"wrapped":   true,
		},
		"capabilities": providerCapabilities[req.Provider],
	}

	switch {
	case req.Action == ActionCalendar:
		events, cerr := s.fetchCalendar(fetchCtx, apiKey, req)
		if cerr != nil {
			return fail(cerr)
		}
		events = filterByImportance(events, req.Importance)
		events = shapeEvents(events, req.EventFilter, req.MaxEvents)
		payload["events"] = events
		payload["count"] = len(events)

	case req.Action == ActionSeries:
		observations, cerr := s.fetchSeries(fetchCtx, apiKey, req)
		if cerr != nil {
			return fail(cerr)
		}
		payload["observations"] = observations
		payload["count"] = len(observations)
	}

	payload["tookMs"] = int(time.Since(started).Milliseconds())

	if ttl > 0 {
		s.cache.Put(key, payload, ttl)
	}

	metrics.RequestsTotal.WithLabelValues(req.Provider, req.Action, "ok").Inc()
	metrics.RequestDuration.WithLabelValues(req.Provider, req.Action).Observe(time.Since(started).Seconds())
	log.Infow("Calendar request served",
		"count", payload["count"],
		"took_ms", payload["tookMs"],
	)
	return payload
}

// fetchCalendar selects the calendar builder for the provider. The
// matrix check upstream guarantees the pair is valid.
func (s *Service) fetchCalendar(ctx context.Context, apiKey string, req *Request) ([]Event, *callError) {
	switch req.Provider {
	case ProviderFred:
		return s.fredCalendar(ctx, apiKey, req)
	case ProviderTradingEconomics:
		return s.teCalendar(ctx, apiKey, req)
	}
	return nil, newCallError("unsupported_action",
		fmt.Sprintf("provider %q does not support action %q", req.Provider, req.Action))
}

// fetchSeries selects the series builder for the provider.
func (s *Service) fetchSeries(ctx context.Context, apiKey string, req *Request) ([]Observation, *callError) {
	switch req.Provider {
	case ProviderFred:
		return s.fredSeries(ctx, apiKey, req)
	case ProviderBLS:
		return s.blsSeries(ctx, apiKey, req)
	}
	return nil, newCallError("unsupported_action",
		fmt.Sprintf("provider %q does not support action %q", req.Provider, req.Action))
}

// resolveAPIKey returns the credential for a provider. Explicit
// configuration wins over the bare environment fallback.
func (s *Service) resolveAPIKey(provider string) string {
	switch provider {
	case ProviderFred:
		if s.cfg.FredAPIKey != "" {
			return s.cfg.FredAPIKey
		}
		return os.Getenv("FRED_API_KEY")
	case ProviderBLS:
		if s.cfg.BLSAPIKey != "" {
			return s.cfg.BLSAPIKey
		}
		return os.Getenv("BLS_API_KEY")
	case ProviderTradingEconomics:
		if s.cfg.TradingEconomicsAPIKey != "" {
			return s.cfg.TradingEconomicsAPIKey
		}
		return os.Getenv("TRADING_ECONOMICS_API_KEY")
	}
	return ""
}

// missingKeyError names the absent credential and how to supply it.
func missingKeyError(provider string) *callError {
	switch provider {
	case ProviderFred:
		return newCallError("missing_fred_api_key",
			"no FRED API key configured; set CALENDAR_FRED_API_KEY or FRED_API_KEY")
	case ProviderBLS:
		return newCallError("missing_bls_api_key",
			"no BLS API key configured; set CALENDAR_BLS_API_KEY or BLS_API_KEY")
	default:
		return newCallError("missing_trading_economics_api_key",
			"no Trading Economics API key configured; set CALENDAR_TRADING_ECONOMICS_API_KEY or TRADING_ECONOMICS_API_KEY")
	}
}

// fetchJSON performs one upstream HTTP call. Non-2xx responses are fatal
// for the call and carry the status plus a bounded body excerpt.
func (s *Service) fetchJSON(ctx context.Context, provider, method, url string, body []byte) ([]byte, *callError) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, newCallError("upstream_error", provider+": create request: "+err.Error())
	}
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "transport_error").Inc()
		if ctx.Err() == context.DeadlineExceeded || os.IsTimeout(err) {
			return nil, newCallError("timeout",
				fmt.Sprintf("%s request exceeded the configured timeout", provider))
		}
		return nil, newCallError("upstream_error", provider+": request failed: "+err.Error())
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "read_error").Inc()
		return nil, newCallError("upstream_error", provider+": read response: "+err.Error())
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.UpstreamRequestsTotal.WithLabelValues(provider, "http_error").Inc()
		excerpt := raw
		if len(excerpt) > errBodyLimit {
			excerpt = excerpt[:errBodyLimit]
		}
		return nil, newCallError("upstream_error",
			fmt.Sprintf("%s returned status %d: %s", provider, resp.StatusCode, string(excerpt))).
			with("status", resp.StatusCode)
	}

	metrics.UpstreamRequestsTotal.WithLabelValues(provider, "ok").Inc()
	return raw, nil
}

// filterByImportance drops events below the requested importance.
// Events whose importance could not be coerced are kept: the filter is
// skipped for them rather than discarding the item.
func filterByImportance(events []Event, minImportance *int) []Event {
	if minImportance == nil {
		return events
	}
	kept := events[:0:0]
	for _, ev := range events {
		if ev.Importance == nil || *ev.Importance >= *minImportance {
			kept = append(kept, ev)
		}
	}
	return kept
}

// withCachedFlag returns a shallow copy of a cached payload annotated
// with cached: true. The stored entry itself is never mutated.
func withCachedFlag(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		out[k] = v
	}
	out["cached"] = true
	return out
}
