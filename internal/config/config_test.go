package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "https://api.basescan.org", cfg.Explorer.BaseURL)
	assert.Equal(t, 200*time.Millisecond, cfg.Explorer.Interval)
	assert.Equal(t, 1_000_000.0, cfg.Discovery.MinMarketCap)
	assert.Equal(t, 15*time.Second, cfg.HTTP.Timeout)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "banjocap.yaml")
	yamlData := `
explorer:
  base_url: https://api.etherscan.io
  interval: 250ms
discovery:
  query: eth
  chain_id: ethereum
  min_market_cap: 5000000
scan:
  default_limit: 100
  refresh_price: true
`
	require.NoError(t, os.WriteFile(path, []byte(yamlData), 0o644))

	// Keep .env lookups away from the repository working directory.
	t.Chdir(dir)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.etherscan.io", cfg.Explorer.BaseURL)
	assert.Equal(t, 250*time.Millisecond, cfg.Explorer.Interval)
	assert.Equal(t, "ethereum", cfg.Discovery.ChainID)
	assert.Equal(t, 5_000_000.0, cfg.Discovery.MinMarketCap)
	assert.Equal(t, 100, cfg.Scan.DefaultLimit)
	assert.True(t, cfg.Scan.RefreshPrice)
	// Untouched sections keep defaults
	assert.Equal(t, "https://api.dexscreener.com", cfg.DexScreener.BaseURL)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"BASESCAN_API_KEY":           "secret",
		"BANJOCAP_EXPLORER_INTERVAL": "300ms",
		"BANJOCAP_MIN_MCAP":          "2500000",
		"BANJOCAP_SCAN_LIMIT":        "20",
		"BANJOCAP_REFRESH_PRICE":     "true",
		"BANJOCAP_LISTEN":            ":9999",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(lookup))
	assert.Equal(t, "secret", cfg.Explorer.APIKey)
	assert.Equal(t, 300*time.Millisecond, cfg.Explorer.Interval)
	assert.Equal(t, 2_500_000.0, cfg.Discovery.MinMarketCap)
	assert.Equal(t, 20, cfg.Scan.DefaultLimit)
	assert.True(t, cfg.Scan.RefreshPrice)
	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
}

func TestApplyEnv_InvalidValues(t *testing.T) {
	env := map[string]string{
		"BANJOCAP_HTTP_TIMEOUT": "soon",
		"BANJOCAP_SCAN_LIMIT":   "many",
	}
	lookup := func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	err := Default().ApplyEnv(lookup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BANJOCAP_HTTP_TIMEOUT")
	assert.Contains(t, err.Error(), "BANJOCAP_SCAN_LIMIT")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero explorer interval", func(c *Config) { c.Explorer.Interval = 0 }},
		{"negative dexscreener interval", func(c *Config) { c.DexScreener.Interval = -time.Second }},
		{"non-http explorer url", func(c *Config) { c.Explorer.BaseURL = "ftp://example.com" }},
		{"relative dexscreener url", func(c *Config) { c.DexScreener.BaseURL = "/latest" }},
		{"zero limit", func(c *Config) { c.Scan.DefaultLimit = 0 }},
		{"zero timeout", func(c *Config) { c.HTTP.Timeout = 0 }},
		{"empty query", func(c *Config) { c.Discovery.Query = " " }},
		{"unknown log format", func(c *Config) { c.Logging.Format = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
