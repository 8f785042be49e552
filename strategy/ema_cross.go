package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/indicators"
	"github.com/tradeforge/quantback/market"
)

// EMACross is the exponential variant of the crossover: enter when the fast
// EMA crosses above the slow EMA, exit on the cross back below. Both
// averages are recomputed from the visible window on every call, so the
// strategy carries no state between bars.
type EMACross struct {
	Fast int
	Slow int
}

// NewEMACross validates the periods: both positive, fast strictly shorter.
func NewEMACross(fast, slow int) (*EMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("ema-cross: periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("ema-cross: fast period %d must be shorter than slow period %d", fast, slow)
	}
	return &EMACross{Fast: fast, Slow: slow}, nil
}

func (s *EMACross) Name() string {
	return fmt.Sprintf("ema-cross(%d,%d)", s.Fast, s.Slow)
}

func (s *EMACross) ShouldEnter(_ string, visible []market.Bar, _ decimal.Decimal) (bool, error) {
	up, _, err := s.cross(visible)
	return up, err
}

func (s *EMACross) ShouldExit(_ backtest.Position, visible []market.Bar) (bool, error) {
	_, down, err := s.cross(visible)
	return down, err
}

func (s *EMACross) cross(visible []market.Bar) (up, down bool, err error) {
	if len(visible) < s.Slow+1 {
		return false, false, nil
	}

	fastNow, err := indicators.EMA(visible, s.Fast)
	if err != nil {
		return false, false, err
	}
	slowNow, err := indicators.EMA(visible, s.Slow)
	if err != nil {
		return false, false, err
	}
	prev := visible[:len(visible)-1]
	fastPrev, err := indicators.EMA(prev, s.Fast)
	if err != nil {
		return false, false, err
	}
	slowPrev, err := indicators.EMA(prev, s.Slow)
	if err != nil {
		return false, false, err
	}

	wasAbove := fastPrev.GreaterThan(slowPrev)
	isAbove := fastNow.GreaterThan(slowNow)
	return isAbove && !wasAbove, wasAbove && !isAbove, nil
}
