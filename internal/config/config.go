// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures all service configuration knobs loaded via Viper. It is
// built once at startup and passed into constructors; nothing reads Viper at
// call time.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Extractor ExtractorConfig `mapstructure:"extractor"`
	DB        DBConfig        `mapstructure:"db"`
	Storage   StorageConfig   `mapstructure:"storage"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port int `mapstructure:"port"`
}

// AuthConfig defines API authentication toggles.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// ScraperConfig governs the scrape orchestrator: where to scrape, how
// politely, and how long persisted records stay fresh.
type ScraperConfig struct {
	BaseURL             string `mapstructure:"base_url"`
	DelayMs             int    `mapstructure:"delay_ms"`
	MaxRetries          int    `mapstructure:"max_retries"`
	CacheTTLHours       int    `mapstructure:"cache_ttl_hours"`
	FetchTimeoutSeconds int    `mapstructure:"fetch_timeout_seconds"`
	Currency            string `mapstructure:"currency"`
	SnapshotPrefix      string `mapstructure:"snapshot_prefix"`
}

// ExtractorConfig selects and tunes the page-fetching engine.
type ExtractorConfig struct {
	Mode        string `mapstructure:"mode"` // headless | static
	UserAgent   string `mapstructure:"user_agent"`
	MaxParallel int    `mapstructure:"max_parallel"`
}

// DBConfig controls access to the persisted store.
type DBConfig struct {
	Provider     string `mapstructure:"provider"` // memory | postgres
	DSN          string `mapstructure:"dsn"`
	MaxConns     int32  `mapstructure:"max_conns"`
	MinConns     int32  `mapstructure:"min_conns"`
	SeedFixtures bool   `mapstructure:"seed_fixtures"`
}

// StorageConfig sets paths and content types for snapshot persistence.
type StorageConfig struct {
	Provider    string `mapstructure:"provider"` // noop | memory | gcs
	GCSBucket   string `mapstructure:"gcs_bucket"`
	ContentType string `mapstructure:"content_type"`
}

// PubSubConfig holds metadata for scrape-completion notifications.
type PubSubConfig struct {
	Provider  string `mapstructure:"provider"` // noop | memory | pubsub
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("scraper.base_url", "https://www.worldofbooks.com")
	v.SetDefault("scraper.delay_ms", 2000)
	v.SetDefault("scraper.max_retries", 3)
	v.SetDefault("scraper.cache_ttl_hours", 24)
	v.SetDefault("scraper.fetch_timeout_seconds", 60)
	v.SetDefault("scraper.currency", "GBP")
	v.SetDefault("scraper.snapshot_prefix", "snapshots")
	v.SetDefault("extractor.mode", "headless")
	v.SetDefault("extractor.user_agent", "shelfscan-bot/0.1")
	v.SetDefault("extractor.max_parallel", 1)
	v.SetDefault("db.provider", "memory")
	v.SetDefault("storage.provider", "noop")
	v.SetDefault("storage.content_type", "text/html; charset=utf-8")
	v.SetDefault("pubsub.provider", "noop")
	v.SetDefault("logging.development", true)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Scraper.BaseURL == "" {
		return fmt.Errorf("scraper.base_url must be set")
	}
	if c.Scraper.FetchTimeoutSeconds <= 0 {
		return fmt.Errorf("scraper.fetch_timeout_seconds must be > 0")
	}
	if c.Scraper.MaxRetries < 0 {
		return fmt.Errorf("scraper.max_retries must be >= 0")
	}
	if c.Scraper.CacheTTLHours < 0 {
		return fmt.Errorf("scraper.cache_ttl_hours must be >= 0")
	}
	switch c.Extractor.Mode {
	case "headless", "static":
	default:
		return fmt.Errorf("extractor.mode must be headless or static")
	}
	if c.DB.Provider == "postgres" && c.DB.DSN == "" {
		return fmt.Errorf("db.dsn must be set when db.provider is postgres")
	}
	if c.Storage.Provider == "gcs" && c.Storage.GCSBucket == "" {
		return fmt.Errorf("storage.gcs_bucket must be set when storage.provider is gcs")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// FetchTimeout converts the configured fetch timeout into a duration.
func (c Config) FetchTimeout() time.Duration {
	return time.Duration(c.Scraper.FetchTimeoutSeconds) * time.Second
}

// Delay converts the configured inter-request delay into a duration.
func (c Config) Delay() time.Duration {
	return time.Duration(c.Scraper.DelayMs) * time.Millisecond
}
