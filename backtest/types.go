// Package backtest implements the deterministic, event-driven replay engine
// and the performance statistics derived from its trade ledger.
//
// The engine owns all mutable state for a run (cash, the open position, the
// ledger, the equity curve) and hands back an immutable Result. Replays of
// identical inputs produce identical Results; all monetary arithmetic is
// decimal.
package backtest

import (
	"time"

	"github.com/shopspring/decimal"
)

// Exit reasons recorded on closed trades.
const (
	ExitSignal    = "strategy_signal"
	ExitEndOfData = "end_of_data"

	// Reserved for stop-loss / take-profit automation; the engine never
	// emits these today.
	ExitStopLoss   = "stop_loss"
	ExitTakeProfit = "take_profit"
)

// Position is a currently-open holding. It exists only inside the engine
// during a run and is destroyed when closed into a Trade.
type Position struct {
	Symbol     string          `json:"symbol"`
	EntryTime  time.Time       `json:"entry_time"`
	EntryPrice decimal.Decimal `json:"entry_price"` // slippage-adjusted fill
	Shares     decimal.Decimal `json:"shares"`

	entryCommission decimal.Decimal
	entrySlippage   decimal.Decimal
}

// UnrealizedPnL returns the mark-to-market gain at the given price. Derived,
// never stored.
func (p Position) UnrealizedPnL(price decimal.Decimal) decimal.Decimal {
	return price.Sub(p.EntryPrice).Mul(p.Shares)
}

// Trade is one closed round-trip. Immutable once appended to the ledger.
type Trade struct {
	Symbol      string          `json:"symbol"`
	EntryTime   time.Time       `json:"entry_time"`
	ExitTime    time.Time       `json:"exit_time"`
	EntryPrice  decimal.Decimal `json:"entry_price"`
	ExitPrice   decimal.Decimal `json:"exit_price"`
	Shares      decimal.Decimal `json:"shares"`
	PnL         decimal.Decimal `json:"pnl"`
	PnLPct      decimal.Decimal `json:"pnl_pct"`
	HoldingDays int             `json:"holding_days"`
	ExitReason  string          `json:"exit_reason"`
	Commission  decimal.Decimal `json:"commission"` // entry + exit
	Slippage    decimal.Decimal `json:"slippage"`   // cash cost of both fills
}

// EquityPoint is one entry of the chronological equity curve: cash plus the
// mark-to-market value of the open position at that bar's close.
type EquityPoint struct {
	Time  time.Time       `json:"time"`
	Value decimal.Decimal `json:"value"`
}

// Result is the terminal artifact of a run. Everything upstream of it may be
// discarded once the run completes.
type Result struct {
	Config      Config        `json:"config"`
	Symbol      string        `json:"symbol"`
	Trades      []Trade       `json:"trades"`
	EquityCurve []EquityPoint `json:"equity_curve"`
	Metrics     Performance   `json:"metrics"`

	DataWarnings []string `json:"data_warnings"`

	ExecutionTime time.Duration `json:"execution_time_ns"`
	CompletedAt   time.Time     `json:"completed_at"`
}
