// Package config loads and validates the application configuration from a
// YAML or JSON file. Validation happens eagerly at load time so a bad file
// fails before any data is fetched.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/strategy"
)

const dateLayout = "2006-01-02"

// Config is the complete application configuration.
type Config struct {
	Run     RunConfig     `json:"run" yaml:"run"`
	Data    DataConfig    `json:"data" yaml:"data"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
	Report  ReportConfig  `json:"report" yaml:"report"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// RunConfig describes what to backtest.
type RunConfig struct {
	Strategy       string            `json:"strategy" yaml:"strategy" validate:"required"`
	Params         map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	Symbols        []string          `json:"symbols" yaml:"symbols" validate:"required,min=1,dive,required"`
	Start          string            `json:"start" yaml:"start" validate:"required,datetime=2006-01-02"`
	End            string            `json:"end" yaml:"end" validate:"required,datetime=2006-01-02"`
	InitialCapital string            `json:"initial_capital" yaml:"initial_capital" validate:"required"`
	Commission     string            `json:"commission,omitempty" yaml:"commission,omitempty"`
	Slippage       string            `json:"slippage,omitempty" yaml:"slippage,omitempty"`
	RiskFreeRate   string            `json:"risk_free_rate,omitempty" yaml:"risk_free_rate,omitempty"`
}

// DataConfig describes where bars come from and how they are cached.
type DataConfig struct {
	AlpacaKey    string `json:"alpaca_key,omitempty" yaml:"alpaca_key,omitempty"`
	AlpacaSecret string `json:"alpaca_secret,omitempty" yaml:"alpaca_secret,omitempty"`
	AlpacaURL    string `json:"alpaca_url,omitempty" yaml:"alpaca_url,omitempty" validate:"omitempty,url"`
	Fallback     bool   `json:"fallback" yaml:"fallback"`
	CacheDir     string `json:"cache_dir,omitempty" yaml:"cache_dir,omitempty"`
	CacheEnabled bool   `json:"cache_enabled" yaml:"cache_enabled"`
	MaxRetries   uint64 `json:"max_retries,omitempty" yaml:"max_retries,omitempty" validate:"max=10"`
}

// JournalConfig describes the run ledger.
type JournalConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path,omitempty" yaml:"path,omitempty" validate:"required_if=Enabled true"`
}

// ReportConfig describes where reports land.
type ReportConfig struct {
	Dir string `json:"dir,omitempty" yaml:"dir,omitempty"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `json:"level,omitempty" yaml:"level,omitempty" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns a config with sensible defaults; file values override it.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Fallback:     true,
			CacheDir:     ".quantback/cache",
			CacheEnabled: true,
			MaxRetries:   3,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    ".quantback/runs.db",
		},
		Report: ReportConfig{Dir: "reports"},
		Log:    LogConfig{Level: "info"},
	}
}

// LoadFromFile loads configuration from a YAML or JSON file, applying
// defaults for anything the file leaves unset.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(data, cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks struct-level constraints and the cross-field rules the
// tags cannot express.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}

	start, _ := time.Parse(dateLayout, c.Run.Start)
	end, _ := time.Parse(dateLayout, c.Run.End)
	if !start.Before(end) {
		return fmt.Errorf("run: start %s must precede end %s", c.Run.Start, c.Run.End)
	}

	if _, err := c.RunFor(c.Run.Symbols[0]); err != nil {
		return err
	}
	if _, err := strategy.New(c.Run.Strategy, strategy.Params(c.Run.Params)); err != nil {
		return fmt.Errorf("run: %w", err)
	}
	return nil
}

// RunFor translates the run section into an engine config bound to one
// symbol.
func (c *Config) RunFor(symbol string) (backtest.Config, error) {
	start, err := time.Parse(dateLayout, c.Run.Start)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: start: %w", err)
	}
	end, err := time.Parse(dateLayout, c.Run.End)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: end: %w", err)
	}

	capital, err := decimal.NewFromString(c.Run.InitialCapital)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: initial_capital: %w", err)
	}
	commission, err := decOrZero(c.Run.Commission)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: commission: %w", err)
	}
	slippage, err := decOrZero(c.Run.Slippage)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: slippage: %w", err)
	}
	riskFree, err := decOrZero(c.Run.RiskFreeRate)
	if err != nil {
		return backtest.Config{}, fmt.Errorf("run: risk_free_rate: %w", err)
	}

	cfg := backtest.Config{
		Strategy:       c.Run.Strategy,
		Symbols:        []string{symbol},
		Start:          start,
		End:            end,
		InitialCapital: capital,
		Commission:     commission,
		Slippage:       slippage,
		RiskFreeRate:   riskFree,
		CacheEnabled:   c.Data.CacheEnabled,
	}
	if err := cfg.Validate(); err != nil {
		return backtest.Config{}, err
	}
	return cfg, nil
}

func decOrZero(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}
