package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/market"
)

// BuyHold enters at the first opportunity and never exits; the run's
// end-of-data close realizes the position. It doubles as the benchmark
// reference: its total return is the instrument's own open-to-close return
// over the window, minus friction.
type BuyHold struct{}

func (BuyHold) Name() string { return "buyhold" }

func (BuyHold) ShouldEnter(_ string, _ []market.Bar, _ decimal.Decimal) (bool, error) {
	return true, nil
}

func (BuyHold) ShouldExit(_ backtest.Position, _ []market.Bar) (bool, error) {
	return false, nil
}
