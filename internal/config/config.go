// Package config loads application configuration from an optional YAML file,
// an optional .env file and the environment, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the full application configuration.
type Config struct {
	Explorer    ExplorerConfig    `yaml:"explorer"`
	DexScreener DexScreenerConfig `yaml:"dexscreener"`
	Discovery   DiscoveryConfig   `yaml:"discovery"`
	Scan        ScanConfig        `yaml:"scan"`
	HTTP        HTTPConfig        `yaml:"http"`
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// ExplorerConfig configures the supply/metadata provider.
type ExplorerConfig struct {
	BaseURL  string        `yaml:"base_url"`
	APIKey   string        `yaml:"api_key"`
	Interval time.Duration `yaml:"interval"` // minimum spacing between calls
}

// DexScreenerConfig configures the discovery/price provider.
type DexScreenerConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Interval time.Duration `yaml:"interval"`
}

// DiscoveryConfig controls candidate discovery.
type DiscoveryConfig struct {
	Query        string  `yaml:"query"`
	ChainID      string  `yaml:"chain_id"`
	MinMarketCap float64 `yaml:"min_market_cap"`
}

// ScanConfig controls batch scans.
type ScanConfig struct {
	DefaultLimit int  `yaml:"default_limit"`
	RefreshPrice bool `yaml:"refresh_price"`
}

// HTTPConfig controls outbound HTTP calls.
type HTTPConfig struct {
	Timeout             time.Duration `yaml:"timeout"`
	MaxRetries          int           `yaml:"max_retries"`
	RetryDelay          time.Duration `yaml:"retry_delay"`
	BreakerFailures     uint32        `yaml:"breaker_failures"`
	BreakerOpenDuration time.Duration `yaml:"breaker_open_duration"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "console", "json" or "auto"
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Explorer: ExplorerConfig{
			BaseURL:  "https://api.basescan.org",
			Interval: 200 * time.Millisecond,
		},
		DexScreener: DexScreenerConfig{
			BaseURL:  "https://api.dexscreener.com",
			Interval: 200 * time.Millisecond,
		},
		Discovery: DiscoveryConfig{
			Query:        "base",
			ChainID:      "base",
			MinMarketCap: 1_000_000,
		},
		Scan: ScanConfig{
			DefaultLimit: 50,
		},
		HTTP: HTTPConfig{
			Timeout:             15 * time.Second,
			MaxRetries:          3,
			RetryDelay:          500 * time.Millisecond,
			BreakerFailures:     5,
			BreakerOpenDuration: 30 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "auto",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (skipped
// when path is empty), then .env, then environment variables. The result is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := LoadDotEnv(); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDotEnv loads .env from the working directory. A missing file is not an error.
// Variables already set in the environment are not overridden.
func LoadDotEnv() error {
	if err := godotenv.Load(); err != nil {
		if os.IsNotExist(err) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}
	integer := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	float := func(key string, dst *float64) {
		if v, ok := lookup(key); ok && v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = f
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = b
		}
	}

	str("BANJOCAP_EXPLORER_URL", &c.Explorer.BaseURL)
	str("BASESCAN_API_KEY", &c.Explorer.APIKey)
	str("BANJOCAP_EXPLORER_API_KEY", &c.Explorer.APIKey)
	dur("BANJOCAP_EXPLORER_INTERVAL", &c.Explorer.Interval)
	str("BANJOCAP_DEXSCREENER_URL", &c.DexScreener.BaseURL)
	dur("BANJOCAP_DEXSCREENER_INTERVAL", &c.DexScreener.Interval)
	str("BANJOCAP_QUERY", &c.Discovery.Query)
	str("BANJOCAP_CHAIN", &c.Discovery.ChainID)
	float("BANJOCAP_MIN_MCAP", &c.Discovery.MinMarketCap)
	integer("BANJOCAP_SCAN_LIMIT", &c.Scan.DefaultLimit)
	boolean("BANJOCAP_REFRESH_PRICE", &c.Scan.RefreshPrice)
	dur("BANJOCAP_HTTP_TIMEOUT", &c.HTTP.Timeout)
	integer("BANJOCAP_MAX_RETRIES", &c.HTTP.MaxRetries)
	str("BANJOCAP_LISTEN", &c.Server.ListenAddr)
	str("BANJOCAP_LOG_LEVEL", &c.Logging.Level)
	str("BANJOCAP_LOG_FORMAT", &c.Logging.Format)

	return errors.Join(errs...)
}

// Validate rejects configurations the application cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if err := validateURL("explorer.base_url", c.Explorer.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("dexscreener.base_url", c.DexScreener.BaseURL); err != nil {
		errs = append(errs, err)
	}
	if c.Explorer.Interval <= 0 {
		errs = append(errs, fmt.Errorf("explorer.interval must be positive, got %v", c.Explorer.Interval))
	}
	if c.DexScreener.Interval <= 0 {
		errs = append(errs, fmt.Errorf("dexscreener.interval must be positive, got %v", c.DexScreener.Interval))
	}
	if c.Discovery.MinMarketCap < 0 {
		errs = append(errs, fmt.Errorf("discovery.min_market_cap must not be negative, got %v", c.Discovery.MinMarketCap))
	}
	if strings.TrimSpace(c.Discovery.Query) == "" {
		errs = append(errs, errors.New("discovery.query must not be empty"))
	}
	if c.Scan.DefaultLimit <= 0 {
		errs = append(errs, fmt.Errorf("scan.default_limit must be positive, got %d", c.Scan.DefaultLimit))
	}
	if c.HTTP.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("http.timeout must be positive, got %v", c.HTTP.Timeout))
	}
	if c.HTTP.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("http.max_retries must not be negative, got %d", c.HTTP.MaxRetries))
	}
	switch c.Logging.Format {
	case "", "auto", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be auto, console or json, got %q", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, raw)
	}
	return nil
}
