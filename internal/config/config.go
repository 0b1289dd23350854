package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/lmoreno/microhunt/internal/chain"
	"github.com/lmoreno/microhunt/internal/common"
	"github.com/lmoreno/microhunt/internal/discovery"
	"github.com/lmoreno/microhunt/internal/service"
)

// Config holds everything the application needs to run a hunt.
type Config struct {
	// Regions to hunt in, in order.
	Regions []string
	// LedgerPath is the sqlite file backing the seen-ticker ledger.
	LedgerPath string
	// Limits are the hard screening bounds.
	Limits service.Limits
	// Models is the ordered fallback chain of model identifiers.
	Models []string
	// MaxRetries bounds re-discovery after a rejected candidate.
	MaxRetries int
	// RetryPause is the fixed pause between hunt retries.
	RetryPause time.Duration
	// Timeout is the per-hunt wall clock budget.
	Timeout time.Duration
	// TopN is how many scored candidates to keep per discovery round.
	TopN int

	// API credentials, environment only.
	OpenRouterAPIKey string
	BraveAPIKey      string
	ResendAPIKey     string

	// Email delivery. Empty recipients means console output only.
	EmailFrom  string
	Recipients []string
}

// Load reads configuration from Viper (config file or MICROHUNT_ env
// vars) with .env as a fallback for credentials. The OpenRouter key is
// the only hard requirement.
func Load() (*Config, error) {
	// Credentials in a local .env are a convenience; absence is fine.
	_ = godotenv.Load()

	cfg := &Config{
		Regions:    viper.GetStringSlice("hunt.regions"),
		LedgerPath: ExpandPath(viper.GetString("ledger.path")),
		Limits:     service.DefaultLimits(),
		Models:     viper.GetStringSlice("models.chain"),
		MaxRetries: viper.GetInt("hunt.max_retries"),
		RetryPause: viper.GetDuration("hunt.retry_pause"),
		Timeout:    viper.GetDuration("hunt.timeout"),
		TopN:       viper.GetInt("hunt.top_n"),
		EmailFrom:  viper.GetString("email.from"),
		Recipients: viper.GetStringSlice("email.recipients"),
	}

	if v := viper.GetFloat64("limits.max_price"); v > 0 {
		cfg.Limits.MaxPrice = v
	}
	if v := viper.GetFloat64("limits.min_market_cap"); v > 0 {
		cfg.Limits.MinMarketCap = v
	}
	if v := viper.GetFloat64("limits.max_market_cap"); v > 0 {
		cfg.Limits.MaxMarketCap = v
	}

	if len(cfg.Regions) == 0 {
		cfg.Regions = discovery.Regions()
	}
	if cfg.LedgerPath == "" {
		cfg.LedgerPath = LedgerPath()
	}
	if len(cfg.Models) == 0 {
		cfg.Models = chain.DefaultModels
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryPause <= 0 {
		cfg.RetryPause = 2 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Minute
	}
	if cfg.TopN <= 0 {
		cfg.TopN = 5
	}

	cfg.OpenRouterAPIKey = firstNonEmpty(viper.GetString("openrouter_api_key"), os.Getenv("OPENROUTER_API_KEY"))
	cfg.BraveAPIKey = firstNonEmpty(viper.GetString("brave_api_key"), os.Getenv("BRAVE_API_KEY"))
	cfg.ResendAPIKey = firstNonEmpty(viper.GetString("resend_api_key"), os.Getenv("RESEND_API_KEY"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LedgerPath resolves the ledger file path without requiring the full
// configuration to validate; ledger maintenance needs no API keys.
func LedgerPath() string {
	if p := ExpandPath(viper.GetString("ledger.path")); p != "" {
		return p
	}
	return ExpandPath("~/.local/share/microhunt/ledger.db")
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.OpenRouterAPIKey == "" {
		return fmt.Errorf("%w: OPENROUTER_API_KEY", common.ErrMissingConfig)
	}
	for _, region := range c.Regions {
		if len(discovery.SeedPool(region)) == 0 {
			return fmt.Errorf("%w: unknown region %q", common.ErrInvalidConfig, region)
		}
	}
	if len(c.Recipients) > 0 && c.ResendAPIKey == "" {
		return fmt.Errorf("%w: RESEND_API_KEY (recipients configured)", common.ErrMissingConfig)
	}
	if len(c.Recipients) > 0 && c.EmailFrom == "" {
		return fmt.Errorf("%w: email.from (recipients configured)", common.ErrMissingConfig)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
