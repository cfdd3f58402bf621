// Package config provides configuration management for the catalog tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Configuration validation errors.
var (
	ErrMissingShopDomain        = errors.New("store.domain or SHOPIFY_URL is required")
	ErrMissingAccessToken       = errors.New("SHOPIFY_TOKEN is required")
	ErrMissingAPIVersion        = errors.New("store.api_version is required")
	ErrInvalidPageSize          = errors.New("dedupe.page_size must be between 1 and 250")
	ErrInvalidLogLevel          = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidLogFormat         = errors.New("logging.format must be one of: text, pretty, json")
	ErrNoBrands                 = errors.New("at least one brand is required")
	ErrMissingBrandDir          = errors.New("sync.brand_dir is required")
	ErrMissingLocationID        = errors.New("store.location_id is required")
	ErrInvalidLocationID        = errors.New("store.location_id must be numeric")
	ErrInvalidWorkers           = errors.New("sync.workers must be at least 1")
	ErrInvalidCacheTTL          = errors.New("sync.cache_ttl_sec must be non-negative")
	ErrInvalidRateLimit         = errors.New("sync.rate_limit_rps must be positive")
	ErrInvalidMaxAttempts       = errors.New("retry.max_attempts must be at least 1")
	ErrInvalidInitialDelay      = errors.New("retry.initial_delay_ms must be non-negative")
	ErrInvalidBackoffMultiplier = errors.New("retry.backoff_multiplier must be >= 1.0")
	ErrInvalidTimeout           = errors.New("retry.timeout_sec must be at least 1")
)

// Config represents the complete toolkit configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Dedupe  DedupeConfig  `yaml:"dedupe"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`
}

// StoreConfig identifies the Shopify store and API version.
// The access token is never read from the config file.
type StoreConfig struct {
	Domain     string `yaml:"domain"`
	APIVersion string `yaml:"api_version"`
	LocationID string `yaml:"location_id"`
	Token      string `yaml:"-"`
}

// DedupeConfig contains settings for the duplicate cleanup pass.
type DedupeConfig struct {
	PageSize int `yaml:"page_size"`
}

// SyncConfig contains settings for the brand catalog push.
type SyncConfig struct {
	BrandDir     string      `yaml:"brand_dir"`
	Brands       []string    `yaml:"brands"`
	CacheTTLSec  int         `yaml:"cache_ttl_sec"`
	Workers      int         `yaml:"workers"`
	RateLimitRPS float64     `yaml:"rate_limit_rps"`
	Retry        RetryPolicy `yaml:"retry"`
}

// RetryPolicy defines retry behavior for the REST client.
type RetryPolicy struct {
	MaxAttempts       int     `yaml:"max_attempts"`
	InitialDelayMs    int     `yaml:"initial_delay_ms"`
	MaxDelayMs        int     `yaml:"max_delay_ms"`
	BackoffMultiplier float64 `yaml:"backoff_multiplier"`
	TimeoutSec        int     `yaml:"timeout_sec"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no config file is present.
// Credentials still come from the environment.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			APIVersion: "2024-01",
		},
		Dedupe: DedupeConfig{
			PageSize: 100,
		},
		Sync: SyncConfig{
			BrandDir:     "output",
			CacheTTLSec:  300,
			Workers:      5,
			RateLimitRPS: 2,
			Retry: RetryPolicy{
				MaxAttempts:       3,
				InitialDelayMs:    1000,
				MaxDelayMs:        30000,
				BackoffMultiplier: 2.0,
				TimeoutSec:        30,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig loads configuration from a YAML file, overlays the environment
// and validates the result. A missing file is not an error: the commands
// must run from environment variables alone.
func LoadConfig(filepath string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filepath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		// env-only run
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
// SHOPIFY_URL wins over store.domain; the token is env-only.
func (c *Config) applyEnv() {
	if v := os.Getenv("SHOPIFY_URL"); v != "" {
		c.Store.Domain = v
	}
	if v := os.Getenv("SHOPIFY_TOKEN"); v != "" {
		c.Store.Token = v
	}

	c.Store.Domain = normalizeDomain(c.Store.Domain)
}

// normalizeDomain strips scheme and trailing slashes so that either a bare
// host or a full URL works in SHOPIFY_URL.
func normalizeDomain(domain string) string {
	domain = strings.TrimSpace(domain)
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")

	return strings.TrimSuffix(domain, "/")
}

// Validate validates the settings every command depends on.
func (c *Config) Validate() error {
	if c.Store.Domain == "" {
		return ErrMissingShopDomain
	}

	if c.Store.Token == "" {
		return ErrMissingAccessToken
	}

	if c.Store.APIVersion == "" {
		return ErrMissingAPIVersion
	}

	if c.Dedupe.PageSize < 1 || c.Dedupe.PageSize > 250 {
		return ErrInvalidPageSize
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return ErrInvalidLogLevel
	}

	validFormats := map[string]bool{"text": true, "pretty": true, "json": true}
	if !validFormats[c.Logging.Format] {
		return ErrInvalidLogFormat
	}

	return nil
}

// ValidateSync validates the settings the sync commands additionally need.
func (c *Config) ValidateSync() error {
	if len(c.Sync.Brands) == 0 {
		return ErrNoBrands
	}

	if c.Sync.BrandDir == "" {
		return ErrMissingBrandDir
	}

	if c.Store.LocationID == "" {
		return ErrMissingLocationID
	}

	if _, err := c.Store.NumericLocationID(); err != nil {
		return ErrInvalidLocationID
	}

	if c.Sync.Workers < 1 {
		return ErrInvalidWorkers
	}

	if c.Sync.CacheTTLSec < 0 {
		return ErrInvalidCacheTTL
	}

	if c.Sync.RateLimitRPS <= 0 {
		return ErrInvalidRateLimit
	}

	if c.Sync.Retry.MaxAttempts < 1 {
		return ErrInvalidMaxAttempts
	}

	if c.Sync.Retry.InitialDelayMs < 0 {
		return ErrInvalidInitialDelay
	}

	if c.Sync.Retry.BackoffMultiplier < 1.0 {
		return ErrInvalidBackoffMultiplier
	}

	if c.Sync.Retry.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	return nil
}

// GraphQLEndpoint returns the Admin GraphQL endpoint for the store.
func (c *Config) GraphQLEndpoint() string {
	return fmt.Sprintf("https://%s/admin/api/%s/graphql.json", c.Store.Domain, c.Store.APIVersion)
}

// RESTBaseURL returns the Admin REST base URL for the store.
func (c *Config) RESTBaseURL() string {
	return fmt.Sprintf("https://%s/admin/api/%s", c.Store.Domain, c.Store.APIVersion)
}

// BrandFilePath follows structure: {brand_dir}/{brand}.json.
func (c *Config) BrandFilePath(brand string) string {
	return filepath.Join(c.Sync.BrandDir, brand+".json")
}

// NumericLocationID parses the configured location id into the numeric
// form the inventory endpoints expect.
func (s *StoreConfig) NumericLocationID() (int64, error) {
	id, err := strconv.ParseInt(s.LocationID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLocationID, s.LocationID)
	}

	return id, nil
}

// GetRetryDelay calculates exponential backoff delay for attempt number.
func (rp *RetryPolicy) GetRetryDelay(attempt int) time.Duration {
	if attempt <= 1 {
		return 0
	}

	delayMs := float64(rp.InitialDelayMs)
	for i := 1; i < attempt; i++ {
		delayMs *= rp.BackoffMultiplier
	}

	// Cap at max delay
	if int(delayMs) > rp.MaxDelayMs {
		delayMs = float64(rp.MaxDelayMs)
	}

	return time.Duration(int(delayMs)) * time.Millisecond
}

// GetTimeout returns the per-request timeout duration.
func (rp *RetryPolicy) GetTimeout() time.Duration {
	return time.Duration(rp.TimeoutSec) * time.Second
}

// CacheTTL returns the product snapshot time-to-live.
func (c *SyncConfig) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Store: %s, APIVersion: %s, Brands: %d}",
		c.Store.Domain,
		c.Store.APIVersion,
		len(c.Sync.Brands),
	)
}
