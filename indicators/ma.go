// Package indicators provides pure technical-indicator math over daily bars.
// Every function computes from the bars it is handed and nothing else, so the
// same window always yields the same value.
package indicators

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/market"
)

// SMA calculates the Simple Moving Average of closes for the given period,
// ending at the last bar of the slice.
func SMA(bars []market.Bar, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return decimal.Zero, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	sum := decimal.Zero
	for i := len(bars) - period; i < len(bars); i++ {
		sum = sum.Add(bars[i].Close)
	}
	return sum.Div(decimal.NewFromInt(int64(period))), nil
}

// EMA calculates the Exponential Moving Average of closes for the given
// period, ending at the last bar of the slice. The series is seeded with the
// SMA of the first period bars, so the value depends only on the window it is
// given.
func EMA(bars []market.Bar, period int) (decimal.Decimal, error) {
	if period <= 0 {
		return decimal.Zero, fmt.Errorf("period must be positive, got %d", period)
	}
	if len(bars) < period {
		return decimal.Zero, fmt.Errorf("not enough bars: need %d, got %d", period, len(bars))
	}

	two := decimal.NewFromInt(2)
	multiplier := two.Div(decimal.NewFromInt(int64(period + 1)))

	// Seed with SMA of the first period closes.
	sum := decimal.Zero
	for i := 0; i < period; i++ {
		sum = sum.Add(bars[i].Close)
	}
	ema := sum.Div(decimal.NewFromInt(int64(period)))

	for i := period; i < len(bars); i++ {
		ema = bars[i].Close.Sub(ema).Mul(multiplier).Add(ema)
	}
	return ema, nil
}
