// Package market defines the OHLCV bar domain type shared by the data
// manager, the backtest engine, and the built-in strategies.
package market

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Bar is one daily OHLCV record for a symbol. Prices are decimal so that
// thousands of bars can be replayed without binary floating-point drift.
//
// Bars are immutable once produced by the data manager; the engine only ever
// reads them.
type Bar struct {
	Symbol string          `json:"symbol"`
	Time   time.Time       `json:"time"` // UTC, start of the trading day
	Open   decimal.Decimal `json:"open"`
	High   decimal.Decimal `json:"high"`
	Low    decimal.Decimal `json:"low"`
	Close  decimal.Decimal `json:"close"`
	Volume int64           `json:"volume"`

	// Adjusted reports whether the source applied split/dividend
	// normalization to this bar.
	Adjusted bool `json:"adjusted"`
}

// Validate checks the single-bar price invariants:
// all prices positive, high >= max(open, close, low), low <= min(open, close, high),
// volume non-negative.
func (b Bar) Validate() error {
	if b.Symbol == "" {
		return fmt.Errorf("bar at %s: empty symbol", b.Time.Format("2006-01-02"))
	}
	for _, p := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"open", b.Open},
		{"high", b.High},
		{"low", b.Low},
		{"close", b.Close},
	} {
		if p.value.Sign() <= 0 {
			return fmt.Errorf("bar %s %s: non-positive %s %s",
				b.Symbol, b.Time.Format("2006-01-02"), p.name, p.value)
		}
	}
	if b.High.LessThan(b.Low) {
		return fmt.Errorf("bar %s %s: high %s below low %s",
			b.Symbol, b.Time.Format("2006-01-02"), b.High, b.Low)
	}
	if b.High.LessThan(b.Open) || b.High.LessThan(b.Close) {
		return fmt.Errorf("bar %s %s: high %s below open/close",
			b.Symbol, b.Time.Format("2006-01-02"), b.High)
	}
	if b.Low.GreaterThan(b.Open) || b.Low.GreaterThan(b.Close) {
		return fmt.Errorf("bar %s %s: low %s above open/close",
			b.Symbol, b.Time.Format("2006-01-02"), b.Low)
	}
	if b.Volume < 0 {
		return fmt.Errorf("bar %s %s: negative volume %d",
			b.Symbol, b.Time.Format("2006-01-02"), b.Volume)
	}
	return nil
}

// SortByTime orders bars chronologically in place. Sorting is stable so that
// duplicate-timestamp detection downstream sees duplicates adjacent and in
// input order.
func SortByTime(bars []Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Time.Before(bars[j].Time)
	})
}

// IsTradingDay reports whether t falls on a weekday. Exchange holidays are
// not modelled; a missing holiday surfaces as a non-fatal gap warning.
func IsTradingDay(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// MissingTradingDays returns the weekdays strictly between a and b on which
// a daily bar would be expected. Both endpoints are excluded.
func MissingTradingDays(a, b time.Time) []time.Time {
	var days []time.Time
	for d := a.AddDate(0, 0, 1); d.Before(b); d = d.AddDate(0, 0, 1) {
		if IsTradingDay(d) {
			days = append(days, d)
		}
	}
	return days
}
