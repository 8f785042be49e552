package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validYAML = `
run:
  strategy: sma-cross
  params:
    fast: "10"
    slow: "30"
  symbols: [AAPL, MSFT]
  start: "2024-01-01"
  end: "2024-06-30"
  initial_capital: "10000"
  commission: "1"
  slippage: "0.001"
data:
  fallback: true
  cache_enabled: true
  cache_dir: /tmp/cache
journal:
  enabled: true
  path: /tmp/runs.db
log:
  level: debug
`

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadFromFileYAML(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "config.yaml", validYAML))
	require.NoError(t, err)

	assert.Equal(t, "sma-cross", cfg.Run.Strategy)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Run.Symbols)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, uint64(3), cfg.Data.MaxRetries, "default survives partial file")
}

func TestLoadFromFileJSON(t *testing.T) {
	body := `{
  "run": {
    "strategy": "buyhold",
    "symbols": ["SPY"],
    "start": "2023-01-01",
    "end": "2023-12-31",
    "initial_capital": "50000"
  }
}`
	cfg, err := LoadFromFile(writeConfig(t, "config.json", body))
	require.NoError(t, err)
	assert.Equal(t, "buyhold", cfg.Run.Strategy)
}

func TestLoadFromFileErrors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadFromFile(writeConfig(t, "bad.yaml", ":\n  - ["))
	assert.Error(t, err)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing strategy", func(c *Config) { c.Run.Strategy = "" }},
		{"unknown strategy", func(c *Config) { c.Run.Strategy = "momentum" }},
		{"no symbols", func(c *Config) { c.Run.Symbols = nil }},
		{"bad date", func(c *Config) { c.Run.Start = "01/02/2024" }},
		{"start after end", func(c *Config) { c.Run.Start = "2025-01-01" }},
		{"bad capital", func(c *Config) { c.Run.InitialCapital = "lots" }},
		{"negative capital", func(c *Config) { c.Run.InitialCapital = "-5" }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
		{"journal enabled without path", func(c *Config) { c.Journal.Path = "" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := LoadFromFile(writeConfig(t, "config.yaml", validYAML))
			require.NoError(t, err)
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestRunFor(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, "config.yaml", validYAML))
	require.NoError(t, err)

	run, err := cfg.RunFor("MSFT")
	require.NoError(t, err)

	assert.Equal(t, []string{"MSFT"}, run.Symbols)
	assert.True(t, run.InitialCapital.Equal(decimal.RequireFromString("10000")))
	assert.True(t, run.Commission.Equal(decimal.RequireFromString("1")))
	assert.True(t, run.Slippage.Equal(decimal.RequireFromString("0.001")))
	assert.True(t, run.RiskFreeRate.IsZero(), "unset rate defaults to zero")
	assert.True(t, run.Start.Before(run.End))
}
