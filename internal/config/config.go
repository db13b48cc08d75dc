package config

import (
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"hermes/pkg/errors"
)

type Config struct {
	App           AppConfig
	Calendar      CalendarConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"hermes"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

// CalendarConfig controls the economic calendar provider layer.
// API keys set here take precedence over the bare environment fallbacks
// (FRED_API_KEY, BLS_API_KEY, TRADING_ECONOMICS_API_KEY).
type CalendarConfig struct {
	Enabled  bool   `envconfig:"CALENDAR_ENABLED" default:"true"`
	Provider string `envconfig:"CALENDAR_PROVIDER" default:"fred"`

	FredAPIKey             string `envconfig:"CALENDAR_FRED_API_KEY"`
	BLSAPIKey              string `envconfig:"CALENDAR_BLS_API_KEY"`
	TradingEconomicsAPIKey string `envconfig:"CALENDAR_TRADING_ECONOMICS_API_KEY"`

	// Base URLs are overridable for tests and self-hosted proxies
	FredBaseURL             string `envconfig:"CALENDAR_FRED_BASE_URL" default:"https://api.stlouisfed.org"`
	BLSBaseURL              string `envconfig:"CALENDAR_BLS_BASE_URL" default:"https://api.bls.gov"`
	TradingEconomicsBaseURL string `envconfig:"CALENDAR_TRADING_ECONOMICS_BASE_URL" default:"https://api.tradingeconomics.com"`

	DefaultCountry   string `envconfig:"CALENDAR_DEFAULT_COUNTRY" default:"all"`
	DefaultDaysAhead int    `envconfig:"CALENDAR_DEFAULT_DAYS_AHEAD" default:"7"`
	MaxEvents        int    `envconfig:"CALENDAR_MAX_EVENTS" default:"50"`
	TimeoutSeconds   int    `envconfig:"CALENDAR_TIMEOUT_SECONDS" default:"10"`
	CacheTTLMinutes  int    `envconfig:"CALENDAR_CACHE_TTL_MINUTES" default:"10"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
