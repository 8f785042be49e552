package data

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/quantback/market"
)

func dayBar(day int, close string) market.Bar {
	c, err := decimal.NewFromString(close)
	if err != nil {
		panic(err)
	}
	return market.Bar{
		Symbol: "TEST",
		Time:   time.Date(2024, 1, day, 0, 0, 0, 0, time.UTC),
		Open:   c,
		High:   c,
		Low:    c,
		Close:  c,
		Volume: 100,
	}
}

func TestValidateBarsSortsAndKeepsValid(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{dayBar(3, "101"), dayBar(2, "100"), dayBar(4, "102")}
	valid, warnings := validateBars("TEST", bars)

	require.Len(t, valid, 3)
	assert.Empty(t, warnings)
	assert.True(t, valid[0].Time.Before(valid[1].Time))
	assert.True(t, valid[1].Time.Before(valid[2].Time))
}

func TestValidateBarsDropsMalformed(t *testing.T) {
	t.Parallel()

	bad := dayBar(3, "100")
	bad.High = decimal.NewFromInt(90) // high < low
	bars := []market.Bar{dayBar(2, "100"), bad, dayBar(4, "101")}

	valid, warnings := validateBars("TEST", bars)

	require.Len(t, valid, 2)
	require.Len(t, warnings, 2) // one skip, one gap where the bad bar was
	assert.Contains(t, warnings[0], "bar skipped")
}

func TestValidateBarsDropsDuplicateTimestamps(t *testing.T) {
	t.Parallel()

	bars := []market.Bar{dayBar(2, "100"), dayBar(2, "999"), dayBar(3, "101")}
	valid, warnings := validateBars("TEST", bars)

	require.Len(t, valid, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "duplicate")
	// First occurrence wins.
	assert.Equal(t, "100", valid[0].Close.String())
}

func TestValidateBarsFlagsWeekdayGap(t *testing.T) {
	t.Parallel()

	// 2024-01-02 (Tue) then 2024-01-04 (Thu): Wednesday missing.
	bars := []market.Bar{dayBar(2, "100"), dayBar(4, "101")}
	valid, warnings := validateBars("TEST", bars)

	require.Len(t, valid, 2)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "calendar gap")
	assert.Contains(t, warnings[0], "1 missing trading day")
}

func TestValidateBarsWeekendIsNotAGap(t *testing.T) {
	t.Parallel()

	// 2024-01-05 (Fri) then 2024-01-08 (Mon).
	bars := []market.Bar{dayBar(5, "100"), dayBar(8, "101")}
	_, warnings := validateBars("TEST", bars)
	assert.Empty(t, warnings)
}

func TestValidateBarsAllInvalid(t *testing.T) {
	t.Parallel()

	bad := dayBar(2, "100")
	bad.Open = decimal.Zero
	valid, warnings := validateBars("TEST", []market.Bar{bad})

	assert.Empty(t, valid)
	require.Len(t, warnings, 1)
}
