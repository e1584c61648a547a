package config

import (
	"errors"
	"fmt"
	"time"

	"ticker-digest/pkg/config"
)

// ErrConfiguration marks a configuration that cannot start the service.
var ErrConfiguration = errors.New("configuration error")

// Gemini holds the configuration for the Gemini API.
type Gemini struct {
	APIKey              string        `mapstructure:"api_key"`
	Model               string        `mapstructure:"model"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// Telegram holds configuration for the Telegram sender.
type Telegram struct {
	BotToken string `mapstructure:"bot_token"`
}

// News holds the configuration for the headline feed.
type News struct {
	BaseURL             string        `mapstructure:"base_url"`
	Region              string        `mapstructure:"region"`
	Lang                string        `mapstructure:"lang"`
	MaxRequestPerMinute int           `mapstructure:"max_request_per_minute"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// Cache selects the summary cache backend.
type Cache struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

const (
	CacheDriverPostgres = "postgres"
	CacheDriverRedis    = "redis"
	CacheDriverLayered  = "layered"
	CacheDriverMemory   = "memory"
)

// Digest holds the pipeline limits and pacing.
type Digest struct {
	MaxItemsPerTicker int           `mapstructure:"max_items_per_ticker"`
	MaxRetries        int           `mapstructure:"max_retries"`
	RetryBaseDelay    time.Duration `mapstructure:"retry_base_delay"`
	ModelCallDelay    time.Duration `mapstructure:"model_call_delay"`
	SubscriberDelay   time.Duration `mapstructure:"subscriber_delay"`
	RunTimeout        time.Duration `mapstructure:"run_timeout"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	Cron              string        `mapstructure:"cron"`
}

// Config holds the full configuration for the digest service.
type Config struct {
	App      config.App      `mapstructure:"app"`
	Logger   config.Logger   `mapstructure:"logger"`
	Database config.Database `mapstructure:"database"`
	Redis    config.Redis    `mapstructure:"redis"`
	API      config.API      `mapstructure:"api"`
	Gemini   Gemini          `mapstructure:"gemini"`
	Telegram Telegram        `mapstructure:"telegram"`
	News     News            `mapstructure:"news"`
	Cache    Cache           `mapstructure:"cache"`
	Digest   Digest          `mapstructure:"digest"`
}

// Defaults lists every key with its default value.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"app.name":                      "ticker-digest",
		"app.env":                       "development",
		"app.version":                   "dev",
		"logger.level":                  "info",
		"logger.encoding":               "json",
		"database.host":                 "localhost",
		"database.port":                 5432,
		"database.user":                 "postgres",
		"database.password":             "",
		"database.name":                 "ticker_digest",
		"database.ssl_mode":             "disable",
		"database.time_zone":            "UTC",
		"database.max_idle_conns":       2,
		"database.max_open_conns":       5,
		"database.conn_max_lifetime":    "30m",
		"database.log_level":            "silent",
		"redis.host":                    "localhost",
		"redis.port":                    6379,
		"redis.password":                "",
		"redis.db":                      0,
		"redis.pool_size":               5,
		"api.host":                      "",
		"api.port":                      8080,
		"gemini.api_key":                "",
		"gemini.model":                  "gemini-2.5-flash",
		"gemini.max_request_per_minute": 10,
		"gemini.timeout":                "90s",
		"telegram.bot_token":            "",
		"news.base_url":                 "https://feeds.finance.yahoo.com/rss/2.0/headline",
		"news.region":                   "US",
		"news.lang":                     "en-US",
		"news.max_request_per_minute":   60,
		"news.timeout":                  "15s",
		"cache.driver":                  CacheDriverPostgres,
		"cache.ttl":                     "0s",
		"digest.max_items_per_ticker":   3,
		"digest.max_retries":            3,
		"digest.retry_base_delay":       "1s",
		"digest.model_call_delay":       "1s",
		"digest.subscriber_delay":       "5s",
		"digest.run_timeout":            "30m",
		"digest.lock_ttl":               "35m",
		"digest.cron":                   "0 8 * * *",
	}
}

// Validate checks that the process can start with this configuration.
func (c *Config) Validate() error {
	if c.Telegram.BotToken == "" {
		return fmt.Errorf("%w: telegram.bot_token (TELEGRAM_BOT_TOKEN) must be set", ErrConfiguration)
	}
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("%w: gemini.api_key (GEMINI_API_KEY) must be set", ErrConfiguration)
	}
	if c.Gemini.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("%w: gemini.max_request_per_minute must be positive", ErrConfiguration)
	}
	if c.News.MaxRequestPerMinute <= 0 {
		return fmt.Errorf("%w: news.max_request_per_minute must be positive", ErrConfiguration)
	}
	if c.Digest.MaxItemsPerTicker <= 0 {
		return fmt.Errorf("%w: digest.max_items_per_ticker must be positive", ErrConfiguration)
	}
	if c.Digest.RetryBaseDelay < 0 || c.Digest.ModelCallDelay < 0 || c.Digest.SubscriberDelay < 0 {
		return fmt.Errorf("%w: digest delays must not be negative", ErrConfiguration)
	}
	switch c.Cache.Driver {
	case CacheDriverPostgres, CacheDriverRedis, CacheDriverLayered, CacheDriverMemory:
	default:
		return fmt.Errorf("%w: unknown cache.driver %q", ErrConfiguration, c.Cache.Driver)
	}
	return nil
}

// Load loads and validates the digest configuration from the given path.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := config.Load(path, &cfg, Defaults()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfiguration, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
