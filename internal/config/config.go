package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Providers
const (
	ProviderFinnhub      = "finnhub"
	ProviderAlphaVantage = "alphavantage"
)

// Config holds all configuration for the stock watchlist application.
type Config struct {
	// API keys
	FinnhubAPIKey      string `mapstructure:"finnhub_api_key"`
	AlphavantageAPIKey string `mapstructure:"alphavantage_api_key"`

	// Base URLs for API endpoints (configurable for testing)
	FinnhubBaseURL      string `mapstructure:"finnhub_base_url"`
	AlphavantageBaseURL string `mapstructure:"alphavantage_base_url"`

	// Provider selects the candle source: finnhub or alphavantage.
	Provider   string `mapstructure:"provider"`
	WindowDays int    `mapstructure:"window_days"`
	Resolution string `mapstructure:"resolution"`

	SearchQuietWindow time.Duration `mapstructure:"search_quiet_window"`
	MaxConcurrency    int           `mapstructure:"max_concurrency"`
	RetryCount        int           `mapstructure:"retry_count"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`

	// RefreshSchedule is a cron spec; empty disables periodic refresh.
	RefreshSchedule string `mapstructure:"refresh_schedule"`
	// WatchlistDB is a SQLite path; empty keeps the watchlist in memory.
	WatchlistDB string `mapstructure:"watchlist_db"`

	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Symbols replaces the default onboarding watchlist when set.
	Symbols []string `mapstructure:"symbols"`
}

var keys = []string{
	"finnhub_api_key",
	"alphavantage_api_key",
	"finnhub_base_url",
	"alphavantage_base_url",
	"provider",
	"window_days",
	"resolution",
	"search_quiet_window",
	"max_concurrency",
	"retry_count",
	"requests_per_second",
	"refresh_schedule",
	"watchlist_db",
	"log_level",
	"log_format",
	"symbols",
}

// FlagName returns the command-line flag bound to a config key.
func FlagName(key string) string {
	return strings.ReplaceAll(key, "_", "-")
}

// Load reads configuration from command-line flags, environment variables
// and an optional config file, in that order of precedence. flags may be nil.
//
// Each key is read from the upper-cased environment variable of the same
// name, e.g. FINNHUB_API_KEY, WINDOW_DAYS, REFRESH_SCHEDULE. A flag is
// bound to a key when flags defines it under FlagName(key).
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	v.SetDefault("finnhub_base_url", "https://finnhub.io/api/v1")
	v.SetDefault("alphavantage_base_url", "https://www.alphavantage.co/query")
	v.SetDefault("provider", ProviderFinnhub)
	v.SetDefault("window_days", 7)
	v.SetDefault("resolution", "1")
	v.SetDefault("search_quiet_window", 300*time.Millisecond)
	v.SetDefault("max_concurrency", 0)
	v.SetDefault("retry_count", 0)
	v.SetDefault("requests_per_second", 1.0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	// Optionally read from config file if it exists
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.stockwatch")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	for _, key := range keys {
		if err := v.BindEnv(key, strings.ToUpper(key)); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
		if flags == nil {
			continue
		}
		if f := flags.Lookup(FlagName(key)); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag --%s: %w", f.Name, err)
			}
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.Provider = strings.ToLower(strings.TrimSpace(config.Provider))
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required keys and value ranges.
func (c *Config) Validate() error {
	var missing []string
	switch c.Provider {
	case ProviderFinnhub:
		if c.FinnhubAPIKey == "" {
			missing = append(missing, "FINNHUB_API_KEY")
		}
	case ProviderAlphaVantage:
		if c.AlphavantageAPIKey == "" {
			missing = append(missing, "ALPHAVANTAGE_API_KEY")
		}
	default:
		return fmt.Errorf("invalid provider %q (want %s or %s)", c.Provider, ProviderFinnhub, ProviderAlphaVantage)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	var invalid []string
	if c.WindowDays <= 0 {
		invalid = append(invalid, fmt.Sprintf("window_days must be positive, got %d", c.WindowDays))
	}
	if c.SearchQuietWindow < 0 {
		invalid = append(invalid, fmt.Sprintf("search_quiet_window must not be negative, got %s", c.SearchQuietWindow))
	}
	if c.MaxConcurrency < 0 {
		invalid = append(invalid, fmt.Sprintf("max_concurrency must not be negative, got %d", c.MaxConcurrency))
	}
	if c.RetryCount < 0 {
		invalid = append(invalid, fmt.Sprintf("retry_count must not be negative, got %d", c.RetryCount))
	}
	if c.RequestsPerSecond < 0 {
		invalid = append(invalid, fmt.Sprintf("requests_per_second must not be negative, got %g", c.RequestsPerSecond))
	}
	if len(invalid) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(invalid, "; "))
	}
	return nil
}
