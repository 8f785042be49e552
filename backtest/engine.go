package backtest

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradeforge/quantback/data"
	"github.com/tradeforge/quantback/market"
)

// Engine replays one symbol's bars chronologically, invoking the strategy at
// every step and simulating fills under a conservative model:
//
//   - entries fill at the signal bar's open,
//   - exits signalled at bar t fill at bar t+1's open,
//   - anything still open at end-of-data is force-closed at the last close.
//
// A run is single-threaded and synchronous; independent engines share
// nothing mutable, so callers may run one per symbol in parallel.
type Engine struct {
	cfg    Config
	symbol string
	bars   []market.Bar
	strat  Strategy
	log    *zap.Logger

	cash     decimal.Decimal
	pos      *Position
	pending  bool // exit signalled, fills at next bar's open
	trades   []Trade
	equity   []EquityPoint
	warnings []string
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the structured logger. Defaults to a no-op logger.
func WithEngineLogger(log *zap.Logger) EngineOption {
	return func(e *Engine) { e.log = log }
}

// WithDataWarnings carries the data manager's non-fatal validation warnings
// into the run's Result.
func WithDataWarnings(warnings []string) EngineOption {
	return func(e *Engine) { e.warnings = append(e.warnings, warnings...) }
}

// NewEngine validates the config and binds a run to one symbol's bar series.
// Bars must be the validated, chronologically sorted output of the data
// manager.
func NewEngine(cfg Config, symbol string, bars []market.Bar, strat Strategy, opts ...EngineOption) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strat == nil {
		return nil, fmt.Errorf("engine: strategy is required")
	}
	if len(bars) == 0 {
		return nil, &data.InsufficientDataError{Symbol: symbol, Reason: "no bars to replay"}
	}
	for i := 1; i < len(bars); i++ {
		if !bars[i-1].Time.Before(bars[i].Time) {
			return nil, fmt.Errorf("engine: bars for %s not strictly chronological at index %d", symbol, i)
		}
	}

	e := &Engine{
		cfg:    cfg,
		symbol: symbol,
		bars:   bars,
		strat:  strat,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run executes the replay and returns the immutable Result. A strategy error
// or panic aborts the run with StrategyError and no partial result.
func (e *Engine) Run() (*Result, error) {
	started := time.Now()

	e.cash = e.cfg.InitialCapital
	e.pos = nil
	e.pending = false
	e.trades = make([]Trade, 0, 16)
	e.equity = make([]EquityPoint, 0, len(e.bars))

	for t, bar := range e.bars {
		// Only bars[0..t] are ever handed to the strategy. The window is a
		// re-slice of the immutable series, so look-ahead is structurally
		// impossible.
		visible := e.bars[:t+1]

		// FillOrders: an exit signalled on the previous bar fills at this
		// bar's open.
		if e.pending && e.pos != nil {
			e.closePosition(bar.Open, bar.Time, ExitSignal)
			e.pending = false
		}

		// CheckExits.
		if e.pos != nil && !e.pending {
			exit, err := e.callShouldExit(*e.pos, visible)
			if err != nil {
				return nil, err
			}
			if exit {
				e.pending = true
			}
		}

		// CheckEntries. Re-entry on the same bar an exit filled is allowed;
		// the engine holds at most one position.
		if e.pos == nil && !e.pending {
			enter, err := e.callShouldEnter(visible)
			if err != nil {
				return nil, err
			}
			if enter {
				e.openPosition(bar)
			}
		}

		// UpdateEquityCurve: cash + mark-to-market at this bar's close.
		value := e.cash
		if e.pos != nil {
			value = value.Add(e.pos.Shares.Mul(bar.Close))
		}
		e.equity = append(e.equity, EquityPoint{Time: bar.Time, Value: value})
	}

	// EndOfData: force-close whatever is still open at the last bar's close.
	// A pending exit that never got a next bar to fill on counts as forced.
	if e.pos != nil {
		last := e.bars[len(e.bars)-1]
		e.closePosition(last.Close, last.Time, ExitEndOfData)
		// The final equity point predates the forced close; settle it to the
		// post-close cash balance.
		e.equity[len(e.equity)-1].Value = e.cash
	}

	metrics := Compute(e.trades, e.equity, e.cfg)

	e.log.Info("run complete",
		zap.String("symbol", e.symbol),
		zap.String("strategy", e.strat.Name()),
		zap.Int("bars", len(e.bars)),
		zap.Int("trades", len(e.trades)),
		zap.String("final_equity", metrics.FinalEquity.String()),
	)

	return &Result{
		Config:        e.cfg,
		Symbol:        e.symbol,
		Trades:        e.trades,
		EquityCurve:   e.equity,
		Metrics:       metrics,
		DataWarnings:  e.warnings,
		ExecutionTime: time.Since(started),
		CompletedAt:   time.Now().UTC(),
	}, nil
}

// openPosition fills an entry at the bar's open, slippage against the
// trader, flat commission on the fill. Insufficient capital skips the entry
// with a log line; the run continues.
func (e *Engine) openPosition(bar market.Bar) {
	fill := bar.Open.Mul(one.Add(e.cfg.Slippage))

	var shares decimal.Decimal
	if sizer, ok := e.strat.(PositionSizer); ok {
		shares = sizer.PositionSize(e.cash, fill)
	} else {
		budget := e.cash.Sub(e.cfg.Commission)
		if budget.Sign() > 0 {
			shares = budget.Div(fill).Floor()
		}
	}

	if shares.Sign() <= 0 {
		e.log.Info("entry skipped: position size is zero",
			zap.String("symbol", e.symbol),
			zap.Time("bar", bar.Time),
			zap.String("cash", e.cash.String()),
			zap.String("price", fill.String()))
		return
	}

	cost := shares.Mul(fill).Add(e.cfg.Commission)
	if cost.GreaterThan(e.cash) {
		e.log.Info("entry skipped: insufficient capital",
			zap.String("symbol", e.symbol),
			zap.Time("bar", bar.Time),
			zap.String("cost", cost.String()),
			zap.String("cash", e.cash.String()))
		return
	}

	e.cash = e.cash.Sub(cost)
	e.pos = &Position{
		Symbol:          e.symbol,
		EntryTime:       bar.Time,
		EntryPrice:      fill,
		Shares:          shares,
		entryCommission: e.cfg.Commission,
		entrySlippage:   shares.Mul(fill.Sub(bar.Open)),
	}
}

// closePosition fills the exit at price (slippage against the trader),
// settles cash, and appends the closed Trade to the ledger.
func (e *Engine) closePosition(price decimal.Decimal, at time.Time, reason string) {
	p := e.pos
	e.pos = nil

	fill := price.Mul(one.Sub(e.cfg.Slippage))
	proceeds := p.Shares.Mul(fill).Sub(e.cfg.Commission)
	e.cash = e.cash.Add(proceeds)

	commission := p.entryCommission.Add(e.cfg.Commission)
	slippage := p.entrySlippage.Add(p.Shares.Mul(price.Sub(fill)))

	pnl := fill.Sub(p.EntryPrice).Mul(p.Shares).Sub(commission)
	basis := p.EntryPrice.Mul(p.Shares)

	var pnlPct decimal.Decimal
	if basis.Sign() > 0 {
		pnlPct = pnl.Div(basis)
	}

	e.trades = append(e.trades, Trade{
		Symbol:      p.Symbol,
		EntryTime:   p.EntryTime,
		ExitTime:    at,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   fill,
		Shares:      p.Shares,
		PnL:         pnl,
		PnLPct:      pnlPct,
		HoldingDays: int(at.Sub(p.EntryTime).Hours() / 24),
		ExitReason:  reason,
		Commission:  commission,
		Slippage:    slippage,
	})
}

func (e *Engine) callShouldEnter(visible []market.Bar) (enter bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StrategyError{Strategy: e.strat.Name(), Op: "should_enter", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	enter, serr := e.strat.ShouldEnter(e.symbol, visible, e.cash)
	if serr != nil {
		return false, &StrategyError{Strategy: e.strat.Name(), Op: "should_enter", Err: serr}
	}
	return enter, nil
}

func (e *Engine) callShouldExit(pos Position, visible []market.Bar) (exit bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &StrategyError{Strategy: e.strat.Name(), Op: "should_exit", Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	exit, serr := e.strat.ShouldExit(pos, visible)
	if serr != nil {
		return false, &StrategyError{Strategy: e.strat.Name(), Op: "should_exit", Err: serr}
	}
	return exit, nil
}
