package backtest

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/market"
)

// Strategy is the capability contract pluggable strategies implement.
//
// visible always contains exactly the bars up to and including the current
// simulated bar — the engine windows the series structurally, so a strategy
// can never observe the future regardless of how it is written. Strategies
// must be pure functions of their arguments: hidden mutable state that
// depends on anything else breaks reproducibility.
type Strategy interface {
	// Name identifies the strategy in configs, reports, and the journal.
	Name() string

	// ShouldEnter reports whether to open a position in symbol given the
	// visible history and the cash currently available.
	ShouldEnter(symbol string, visible []market.Bar, availableCash decimal.Decimal) (bool, error)

	// ShouldExit reports whether to close the open position given the
	// visible history.
	ShouldExit(pos Position, visible []market.Bar) (bool, error)
}

// PositionSizer is optionally implemented by strategies that want to control
// share counts. Without it the engine buys the largest whole-share position
// the available cash covers after commission.
type PositionSizer interface {
	// PositionSize returns the share count to buy at price. Fractional
	// shares are allowed; non-positive means skip the entry.
	PositionSize(availableCash, price decimal.Decimal) decimal.Decimal
}

// StrategyError wraps any error or panic escaping strategy code. It always
// aborts the whole run: after a strategy failure its internal state cannot
// be trusted for further stepping.
type StrategyError struct {
	Strategy string
	Op       string // "should_enter" or "should_exit"
	Err      error
}

func (e *StrategyError) Error() string {
	return fmt.Sprintf("strategy %s failed in %s: %v", e.Strategy, e.Op, e.Err)
}

func (e *StrategyError) Unwrap() error { return e.Err }
