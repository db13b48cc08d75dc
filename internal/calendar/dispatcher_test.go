package calendar

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hermes/internal/cache"
	"hermes/internal/config"
)

// newTestService points every provider base URL at the given server so
// no test ever reaches a real upstream.
func newTestService(t *testing.T, serverURL string, mutate func(*config.CalendarConfig)) *Service {
	t.Helper()

	cfg := testConfig()
	cfg.FredAPIKey = "fred-test-key"
	cfg.BLSAPIKey = "bls-test-key"
	cfg.TradingEconomicsAPIKey = "te-test-key"
	cfg.FredBaseURL = serverURL
	cfg.BLSBaseURL = serverURL
	cfg.TradingEconomicsBaseURL = serverURL
	cfg.CacheTTLMinutes = 0

	if mutate != nil {
		mutate(&cfg)
	}
	return NewService(cfg, cache.New())
}

func countingServer(t *testing.T, hits *int64, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(hits, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestExecuteUnsupportedAction(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	})
	svc := newTestService(t, srv.URL, nil)

	payload := svc.Execute(t.Context(), map[string]interface{}{
		"provider": "bls",
		"action":   "calendar",
	})

	assert.Equal(t, "unsupported_action", payload["error"])
	assert.Equal(t, "bls", payload["provider"])
	assert.Equal(t, "calendar", payload["action"])
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits), "no network call for unsupported pairs")

	payload = svc.Execute(t.Context(), map[string]interface{}{
		"provider":  "tradingeconomics",
		"action":    "series",
		"seriesIds": []interface{}{"GDP"},
	})
	assert.Equal(t, "unsupported_action", payload["error"])
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestExecuteUnknownProvider(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})
	svc := newTestService(t, srv.URL, nil)

	payload := svc.Execute(t.Context(), map[string]interface{}{"provider": "quandl"})
	assert.Equal(t, "unsupported_provider", payload["error"])
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits))
}

func TestExecuteDisabled(t *testing.T) {
	svc := newTestService(t, "http://127.0.0.1:0", func(cfg *config.CalendarConfig) {
		cfg.Enabled = false
	})

	payload := svc.Execute(t.Context(), map[string]interface{}{})
	assert.Equal(t, "disabled", payload["error"])
}

func TestExecuteMissingAPIKey(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})

	// Clear both the config key and the environment fallback.
	t.Setenv("TRADING_ECONOMICS_API_KEY", "")
	svc := newTestService(t, srv.URL, func(cfg *config.CalendarConfig) {
		cfg.TradingEconomicsAPIKey = ""
	})

	payload := svc.Execute(t.Context(), map[string]interface{}{
		"provider": "tradingeconomics",
		"action":   "calendar",
	})

	assert.Equal(t, "missing_trading_economics_api_key", payload["error"])
	assert.Contains(t, payload["message"], "TRADING_ECONOMICS_API_KEY")
	assert.Equal(t, int64(0), atomic.LoadInt64(&hits), "no network call without a credential")
}

func TestExecuteAPIKeyPrecedence(t *testing.T) {
	var sawKey string
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		sawKey = r.URL.Query().Get("api_key")
		w.Write([]byte(`{"release_dates":[]}`))
	})

	// Config must win over the environment fallback.
	t.Setenv("FRED_API_KEY", "env-key")
	svc := newTestService(t, srv.URL, func(cfg *config.CalendarConfig) {
		cfg.FredAPIKey = "config-key"
	})

	payload := svc.Execute(t.Context(), map[string]interface{}{"provider": "fred"})
	require.NotContains(t, payload, "error")
	assert.Equal(t, "config-key", sawKey)
}

func TestExecuteFredCalendarPayload(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release_dates":[
			{"release_id":51,"release_name":"Gross Domestic Product","date":"2026-03-05"},
			{"release_id":10,"release_name":"Consumer Price Index","date":"2026-03-01"}
		]}`))
	})
	svc := newTestService(t, srv.URL, nil)

	payload := svc.Execute(t.Context(), map[string]interface{}{
		"provider":  "fred",
		"action":    "calendar",
		"startDate": "2026-03-01",
		"endDate":   "2026-03-08",
	})

	require.NotContains(t, payload, "error")
	assert.Equal(t, 2, payload["count"])
	assert.NotContains(t, payload, "cached")

	events, ok := payload["events"].([]Event)
	require.True(t, ok)
	require.Len(t, events, 2)
	assert.Equal(t, "Consumer Price Index", events[0].Event, "sorted ascending by date")
	assert.Equal(t, "United States", events[0].Country)

	query, ok := payload["query"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fred", query["provider"])
	assert.Equal(t, "2026-03-01", query["startDate"])
	assert.Equal(t, "2026-03-08", query["endDate"])

	caps, ok := payload["capabilities"].(Capabilities)
	require.True(t, ok)
	assert.True(t, caps.Actual)
	assert.True(t, caps.Official)
	assert.False(t, caps.Consensus)

	external, ok := payload["externalContent"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, external["untrusted"])
	assert.Equal(t, "api", external["source"])
	assert.Equal(t, "fred", external["provider"])

	_, ok = payload["tookMs"].(int)
	assert.True(t, ok)
}

func TestExecuteCacheMissThenHit(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release_dates":[{"release_id":1,"release_name":"CPI","date":"2026-03-02"}]}`))
	})
	svc := newTestService(t, srv.URL, func(cfg *config.CalendarConfig) {
		cfg.CacheTTLMinutes = 5
	})

	args := map[string]interface{}{
		"provider":  "fred",
		"action":    "calendar",
		"startDate": "2026-03-01",
		"endDate":   "2026-03-08",
	}

	first := svc.Execute(t.Context(), args)
	require.NotContains(t, first, "error")
	assert.NotContains(t, first, "cached")
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits))

	second := svc.Execute(t.Context(), args)
	assert.Equal(t, true, second["cached"])
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "hit is served without an upstream call")
	assert.Equal(t, first["count"], second["count"])

	// A differing event filter must not be cross-served from the cache.
	filtered := map[string]interface{}{
		"provider":  "fred",
		"action":    "calendar",
		"startDate": "2026-03-01",
		"endDate":   "2026-03-08",
		"event":     "cpi",
	}
	third := svc.Execute(t.Context(), filtered)
	require.NotContains(t, third, "error")
	assert.NotContains(t, third, "cached")
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits))
}

func TestExecuteCacheDisabledByZeroTTL(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"release_dates":[]}`))
	})
	svc := newTestService(t, srv.URL, nil) // CacheTTLMinutes: 0

	args := map[string]interface{}{"provider": "fred", "startDate": "2026-03-01"}
	svc.Execute(t.Context(), args)
	payload := svc.Execute(t.Context(), args)

	assert.NotContains(t, payload, "cached")
	assert.Equal(t, int64(2), atomic.LoadInt64(&hits), "every call fetches when TTL disables caching")
}

func TestExecuteUpstreamError(t *testing.T) {
	long := strings.Repeat("x", 4096)
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(long))
	})
	svc := newTestService(t, srv.URL, nil)

	payload := svc.Execute(t.Context(), map[string]interface{}{"provider": "fred"})

	assert.Equal(t, "upstream_error", payload["error"])
	assert.Equal(t, http.StatusBadGateway, payload["status"])

	message, ok := payload["message"].(string)
	require.True(t, ok)
	assert.Less(t, len(message), errBodyLimit+128, "error body excerpt is bounded")
}

func TestExecuteTimeout(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
		w.Write([]byte(`{"release_dates":[]}`))
	})
	svc := newTestService(t, srv.URL, func(cfg *config.CalendarConfig) {
		cfg.TimeoutSeconds = 1
	})

	payload := svc.Execute(t.Context(), map[string]interface{}{"provider": "fred"})

	assert.Equal(t, "timeout", payload["error"])
	assert.Contains(t, payload["message"], "fred")
	assert.Equal(t, int64(1), atomic.LoadInt64(&hits), "the upstream was reached before expiring")
}

func TestExecuteValidationShortCircuits(t *testing.T) {
	var hits int64
	srv := countingServer(t, &hits, func(w http.ResponseWriter, r *http.Request) {})
	svc := newTestService(t, srv.URL, nil)

	payload := svc.Execute(t.Context(), map[string]interface{}{
		"provider":  "fred",
		"startDate": "2026-02-30",
	})
	assert.Equal(t, "invalid_start_date", payload["error"])

	payload = svc.Execute(t.Context(), map[string]interface{}{
		"provider":  "fred",
		"startDate": "2026-03-10",
		"endDate":   "2026-03-01",
	})
	assert.Equal(t, "invalid_date_range", payload["error"])

	assert.Equal(t, int64(0), atomic.LoadInt64(&hits), "validation failures never reach the network")
}
