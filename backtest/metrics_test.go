package backtest

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/quantback/market"
)

func eqPoint(day int, value string) EquityPoint {
	return EquityPoint{
		Time:  time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, day),
		Value: dec(value),
	}
}

func tradeWithPnL(pnl string) Trade {
	return Trade{Symbol: "TEST", PnL: dec(pnl)}
}

func TestComputeWinRateInvariant(t *testing.T) {
	trades := []Trade{
		tradeWithPnL("100"),
		tradeWithPnL("-40"),
		tradeWithPnL("0"), // break-even counts as a loss
		tradeWithPnL("250"),
		tradeWithPnL("-10"),
	}

	p := Compute(trades, nil, testConfig())

	assert.Equal(t, 5, p.TotalTrades)
	assert.Equal(t, 2, p.WinningTrades)
	assert.Equal(t, 3, p.LosingTrades)
	assert.Equal(t, p.TotalTrades, p.WinningTrades+p.LosingTrades)
	assert.True(t, p.WinRate.Equal(dec("0.4")), "win rate %s", p.WinRate)
	assert.True(t, p.WinRate.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, p.WinRate.LessThanOrEqual(one))
}

func TestComputeProfitFactor(t *testing.T) {
	t.Run("mixed trades", func(t *testing.T) {
		p := Compute([]Trade{tradeWithPnL("300"), tradeWithPnL("-100")}, nil, testConfig())
		assert.True(t, p.ProfitFactorDefined)
		assert.True(t, p.ProfitFactor.Equal(dec("3")), "profit factor %s", p.ProfitFactor)
	})

	t.Run("wins only is undefined", func(t *testing.T) {
		p := Compute([]Trade{tradeWithPnL("300"), tradeWithPnL("50")}, nil, testConfig())
		assert.False(t, p.ProfitFactorDefined)
	})

	t.Run("no trades is zero", func(t *testing.T) {
		p := Compute(nil, nil, testConfig())
		assert.True(t, p.ProfitFactorDefined)
		assert.True(t, p.ProfitFactor.IsZero())
	})
}

func TestComputeWinLossExtremes(t *testing.T) {
	trades := []Trade{
		tradeWithPnL("100"),
		tradeWithPnL("500"),
		tradeWithPnL("-30"),
		tradeWithPnL("-200"),
	}

	p := Compute(trades, nil, testConfig())

	assert.True(t, p.LargestWin.Equal(dec("500")))
	assert.True(t, p.LargestLoss.Equal(dec("-200")))
	assert.True(t, p.AverageWin.Equal(dec("300")))
	assert.True(t, p.AverageLoss.Equal(dec("-115")))
	assert.True(t, p.GrossProfit.Equal(dec("600")))
	assert.True(t, p.GrossLoss.Equal(dec("230")))
}

func TestComputeSharpeZeroVolatility(t *testing.T) {
	equity := []EquityPoint{
		eqPoint(0, "10000"),
		eqPoint(1, "10000"),
		eqPoint(2, "10000"),
		eqPoint(3, "10000"),
	}

	p := Compute(nil, equity, testConfig())
	assert.True(t, p.SharpeRatio.IsZero(), "flat curve must not divide by zero")
}

func TestComputeMaxDrawdown(t *testing.T) {
	equity := []EquityPoint{
		eqPoint(0, "100"),
		eqPoint(1, "120"),
		eqPoint(2, "90"),
		eqPoint(3, "130"),
	}

	p := Compute(nil, equity, testConfig())

	require.True(t, p.MaxDrawdownRecorded)
	assert.True(t, p.MaxDrawdown.Equal(dec("0.25")), "drawdown %s", p.MaxDrawdown)
	assert.Equal(t, 2, p.MaxDrawdownDays, "peak day1 to recovery day3")
	assert.True(t, p.MaxDrawdown.GreaterThanOrEqual(decimal.Zero))
	assert.True(t, p.MaxDrawdown.LessThanOrEqual(one))
}

func TestComputeUnrecoveredDrawdownRunsToEnd(t *testing.T) {
	equity := []EquityPoint{
		eqPoint(0, "100"),
		eqPoint(1, "80"),
		eqPoint(2, "70"),
		eqPoint(3, "75"),
	}

	p := Compute(nil, equity, testConfig())
	assert.True(t, p.MaxDrawdown.Equal(dec("0.3")))
	assert.Equal(t, 3, p.MaxDrawdownDays, "never recovers, span runs to the last point")
}

func TestComputeEmptyInputs(t *testing.T) {
	p := Compute(nil, nil, testConfig())

	assert.True(t, p.FinalEquity.Equal(dec("10000")))
	assert.True(t, p.TotalReturn.IsZero())
	assert.False(t, p.MaxDrawdownRecorded)
	assert.Equal(t, 0, p.TotalTrades)
}

func TestComputeBuyAndHoldReturn(t *testing.T) {
	// Full fill at the first open with evenly divisible capital: engine plus
	// metrics must land exactly on the hand-computed reference return.
	cfg := testConfig() // 10000 initial, no friction
	bars := make([]market.Bar, 0, 6)
	closes := []string{"100", "104", "97", "110", "115", "120"}
	for i, c := range closes {
		open := "100"
		if i > 0 {
			open = closes[i-1]
		}
		bars = append(bars, testBar(i, open, c))
	}

	eng, err := NewEngine(cfg, "TEST", bars, &scriptStrategy{enterAt: 1})
	require.NoError(t, err)
	res, err := eng.Run()
	require.NoError(t, err)

	// 100 shares at 100, force-closed at 120: +20%.
	want := dec("0.2")
	diff := res.Metrics.TotalReturn.Sub(want).Abs()
	assert.True(t, diff.LessThan(dec("0.0001")), "total return %s vs reference %s", res.Metrics.TotalReturn, want)

	assert.True(t, res.Metrics.CAGR.GreaterThan(decimal.Zero))
	assert.Equal(t, 1, res.Metrics.TotalTrades)
}

func TestComputeCAGRPositiveGrowth(t *testing.T) {
	// Exactly one year at +10%: CAGR must come out at ~0.10.
	equity := []EquityPoint{
		eqPoint(0, "10000"),
		eqPoint(365, "11000"),
	}

	p := Compute(nil, equity, testConfig())
	diff := p.CAGR.Sub(dec("0.1")).Abs()
	assert.True(t, diff.LessThan(dec("0.0001")), "cagr %s", p.CAGR)
}

func TestComputeSharpePositive(t *testing.T) {
	equity := []EquityPoint{
		eqPoint(0, "10000"),
		eqPoint(1, "10100"),
		eqPoint(2, "10150"),
		eqPoint(3, "10300"),
		eqPoint(4, "10380"),
	}

	p := Compute(nil, equity, testConfig())
	assert.True(t, p.SharpeRatio.GreaterThan(decimal.Zero), "steadily rising curve, sharpe %s", p.SharpeRatio)
	assert.True(t, p.AnnualizedRet.GreaterThan(decimal.Zero))
}
