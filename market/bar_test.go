package market

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func validBar(day int) Bar {
	return Bar{
		Symbol: "AAPL",
		Time:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   d("100"),
		High:   d("105"),
		Low:    d("99"),
		Close:  d("104"),
		Volume: 1000,
	}
}

func TestBarValidate(t *testing.T) {
	t.Parallel()

	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validBar(2).Validate())
	})

	t.Run("non-positive price", func(t *testing.T) {
		b := validBar(2)
		b.Open = d("0")
		require.Error(t, b.Validate())

		b = validBar(2)
		b.Close = d("-1")
		require.Error(t, b.Validate())
	})

	t.Run("inverted high low", func(t *testing.T) {
		b := validBar(2)
		b.High = d("98")
		b.Low = d("103")
		require.Error(t, b.Validate())
	})

	t.Run("high below close", func(t *testing.T) {
		b := validBar(2)
		b.High = d("101")
		b.Close = d("104")
		require.Error(t, b.Validate())
	})

	t.Run("negative volume", func(t *testing.T) {
		b := validBar(2)
		b.Volume = -5
		require.Error(t, b.Validate())
	})

	t.Run("empty symbol", func(t *testing.T) {
		b := validBar(2)
		b.Symbol = ""
		require.Error(t, b.Validate())
	})
}

func TestSortByTime(t *testing.T) {
	t.Parallel()

	bars := []Bar{validBar(5), validBar(2), validBar(3)}
	SortByTime(bars)

	assert.Equal(t, 2, bars[0].Time.Day())
	assert.Equal(t, 3, bars[1].Time.Day())
	assert.Equal(t, 5, bars[2].Time.Day())
}

func TestMissingTradingDays(t *testing.T) {
	t.Parallel()

	// Fri 2024-01-05 to Tue 2024-01-09: only Mon 2024-01-08 is missing;
	// the weekend does not count.
	fri := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	tue := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)

	missing := MissingTradingDays(fri, tue)
	require.Len(t, missing, 1)
	assert.Equal(t, time.Monday, missing[0].Weekday())

	// Consecutive weekdays: nothing missing.
	assert.Empty(t, MissingTradingDays(fri.AddDate(0, 0, -1), fri))
}
