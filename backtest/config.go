package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds everything a single backtest run needs. It is created once by
// the caller, validated eagerly, and never mutated by the engine.
type Config struct {
	Strategy string    `json:"strategy"`
	Symbols  []string  `json:"symbols"`
	Start    time.Time `json:"start"` // UTC, inclusive
	End      time.Time `json:"end"`   // UTC, inclusive

	InitialCapital decimal.Decimal `json:"initial_capital"`

	// Commission is a flat amount charged per fill (entry and exit each pay
	// it once).
	Commission decimal.Decimal `json:"commission"`

	// Slippage is a fraction in [0, 1) applied against the trader: entries
	// fill at open*(1+slippage), exits at price*(1-slippage).
	Slippage decimal.Decimal `json:"slippage"`

	// RiskFreeRate is the annual risk-free rate used by the Sharpe ratio.
	RiskFreeRate decimal.Decimal `json:"risk_free_rate"`

	CacheEnabled bool `json:"cache_enabled"`
}

var one = decimal.NewFromInt(1)

// Validate checks the config invariants. Invalid values fail here, before a
// run starts, never mid-replay.
func (c Config) Validate() error {
	if c.Strategy == "" {
		return fmt.Errorf("config: strategy is required")
	}
	if len(c.Symbols) == 0 {
		return fmt.Errorf("config: at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if s == "" {
			return fmt.Errorf("config: empty symbol")
		}
	}
	if c.Start.IsZero() || c.End.IsZero() {
		return fmt.Errorf("config: start and end dates are required")
	}
	if !c.Start.Before(c.End) {
		return fmt.Errorf("config: start %s must be before end %s",
			c.Start.Format("2006-01-02"), c.End.Format("2006-01-02"))
	}
	if c.InitialCapital.Sign() <= 0 {
		return fmt.Errorf("config: initial capital must be positive, got %s", c.InitialCapital)
	}
	if c.Commission.Sign() < 0 {
		return fmt.Errorf("config: commission must be non-negative, got %s", c.Commission)
	}
	if c.Slippage.Sign() < 0 || c.Slippage.GreaterThanOrEqual(one) {
		return fmt.Errorf("config: slippage must be in [0, 1), got %s", c.Slippage)
	}
	return nil
}
