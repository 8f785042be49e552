package data

import (
	"fmt"

	"github.com/tradeforge/quantback/market"
)

// validateBars sorts bars chronologically, drops malformed or duplicate
// entries, and reports non-fatal findings as warning strings.
//
// Dropped-bar reasons (non-positive price, inverted high/low, duplicate
// timestamp) each produce one warning; calendar gaps between surviving bars
// produce one warning per gap. The caller escalates to
// InsufficientDataError when nothing survives.
func validateBars(symbol string, bars []market.Bar) ([]market.Bar, []string) {
	if len(bars) == 0 {
		return nil, nil
	}

	market.SortByTime(bars)

	var (
		valid    = make([]market.Bar, 0, len(bars))
		warnings []string
	)

	for _, b := range bars {
		if err := b.Validate(); err != nil {
			qe := &DataQualityError{Symbol: symbol, Detail: err.Error()}
			warnings = append(warnings, qe.Error()+" (bar skipped)")
			continue
		}
		if n := len(valid); n > 0 && valid[n-1].Time.Equal(b.Time) {
			warnings = append(warnings, fmt.Sprintf(
				"duplicate bar for %s at %s dropped",
				symbol, b.Time.Format("2006-01-02")))
			continue
		}
		valid = append(valid, b)
	}

	// Calendar gaps between surviving bars. Weekends are expected; a missing
	// weekday is flagged but never fatal (it may be a holiday).
	for i := 1; i < len(valid); i++ {
		missing := market.MissingTradingDays(valid[i-1].Time, valid[i].Time)
		if len(missing) == 0 {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"calendar gap for %s: %d missing trading day(s) between %s and %s",
			symbol, len(missing),
			valid[i-1].Time.Format("2006-01-02"),
			valid[i].Time.Format("2006-01-02")))
	}

	return valid, warnings
}
