package indicators

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/quantback/market"
)

func createTestBars(closes ...string) []market.Bar {
	bars := make([]market.Bar, len(closes))
	for i, c := range closes {
		px := decimal.RequireFromString(c)
		bars[i] = market.Bar{
			Symbol: "TEST",
			Time:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Open:   px,
			High:   px,
			Low:    px,
			Close:  px,
			Volume: 1000,
		}
	}
	return bars
}

func TestSMA(t *testing.T) {
	bars := createTestBars("102", "105", "106", "108", "110", "111", "113", "114", "116", "118")

	sma, err := SMA(bars, 5)
	require.NoError(t, err)
	// Last 5 closes: 111,113,114,116,118 => 572/5 = 114.4
	assert.True(t, sma.Equal(decimal.RequireFromString("114.4")), "sma %s", sma)
}

func TestSMAErrors(t *testing.T) {
	bars := createTestBars("100", "101")

	_, err := SMA(bars, 0)
	assert.Error(t, err)

	_, err = SMA(bars, 5)
	assert.Error(t, err)
}

func TestEMA(t *testing.T) {
	bars := createTestBars("102", "105", "106", "108", "110", "111", "113", "114", "116", "118")

	ema, err := EMA(bars, 5)
	require.NoError(t, err)
	assert.True(t, ema.GreaterThan(decimal.Zero))

	// EMA of the full window leans toward recent closes, so for a rising
	// series it sits above the seed SMA of the earliest closes.
	seed, err := SMA(bars[:5], 5)
	require.NoError(t, err)
	assert.True(t, ema.GreaterThan(seed))
}

func TestEMAConstantSeries(t *testing.T) {
	bars := createTestBars("50", "50", "50", "50", "50", "50")

	ema, err := EMA(bars, 3)
	require.NoError(t, err)
	assert.True(t, ema.Equal(decimal.RequireFromString("50")), "ema %s", ema)
}

func TestEMADeterministic(t *testing.T) {
	bars := createTestBars("100", "103", "99", "104", "108", "106", "112")

	a, err := EMA(bars, 4)
	require.NoError(t, err)
	b, err := EMA(bars, 4)
	require.NoError(t, err)
	assert.True(t, a.Equal(b))
}
