package strategy

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/backtest"
	"github.com/tradeforge/quantback/indicators"
	"github.com/tradeforge/quantback/market"
)

// SMACross trades a fast/slow simple-moving-average crossover:
//   - enter when the fast SMA crosses above the slow SMA,
//   - exit when it crosses back below.
//
// A cross is detected by comparing the averages at the latest bar against
// the averages one bar earlier, both computed from the visible window only.
type SMACross struct {
	Fast int
	Slow int
}

// NewSMACross validates the periods: both positive, fast strictly shorter.
func NewSMACross(fast, slow int) (*SMACross, error) {
	if fast <= 0 || slow <= 0 {
		return nil, fmt.Errorf("sma-cross: periods must be positive, got fast=%d slow=%d", fast, slow)
	}
	if fast >= slow {
		return nil, fmt.Errorf("sma-cross: fast period %d must be shorter than slow period %d", fast, slow)
	}
	return &SMACross{Fast: fast, Slow: slow}, nil
}

func (s *SMACross) Name() string {
	return fmt.Sprintf("sma-cross(%d,%d)", s.Fast, s.Slow)
}

func (s *SMACross) ShouldEnter(_ string, visible []market.Bar, _ decimal.Decimal) (bool, error) {
	up, _, err := s.cross(visible)
	return up, err
}

func (s *SMACross) ShouldExit(_ backtest.Position, visible []market.Bar) (bool, error) {
	_, down, err := s.cross(visible)
	return down, err
}

// cross reports whether the fast average crossed above (up) or below (down)
// the slow average on the latest bar. Windows too short to compute both the
// current and previous averages yield no signal.
func (s *SMACross) cross(visible []market.Bar) (up, down bool, err error) {
	if len(visible) < s.Slow+1 {
		return false, false, nil
	}

	fastNow, err := indicators.SMA(visible, s.Fast)
	if err != nil {
		return false, false, err
	}
	slowNow, err := indicators.SMA(visible, s.Slow)
	if err != nil {
		return false, false, err
	}
	prev := visible[:len(visible)-1]
	fastPrev, err := indicators.SMA(prev, s.Fast)
	if err != nil {
		return false, false, err
	}
	slowPrev, err := indicators.SMA(prev, s.Slow)
	if err != nil {
		return false, false, err
	}

	wasAbove := fastPrev.GreaterThan(slowPrev)
	isAbove := fastNow.GreaterThan(slowNow)
	return isAbove && !wasAbove, wasAbove && !isAbove, nil
}
