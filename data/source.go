// Package data fetches, validates, adjusts, and caches daily OHLCV bars.
//
// The Manager tries a primary Source and transparently falls back to a
// secondary one; callers only ever see validated bars or an
// InsufficientDataError. Fetched-and-validated bars are written once to a
// columnar Parquet cache keyed by (symbol, start, end) so a repeated request
// never touches the network.
package data

import (
	"context"
	"time"

	"github.com/tradeforge/quantback/market"
)

// Source is one historical bar provider. Implementations may fail, may
// return partial ranges, and may or may not pre-adjust prices; the Manager
// treats them as interchangeable.
type Source interface {
	// Name identifies the provider in logs and warnings.
	Name() string

	// FetchBars returns the daily bars for symbol in [start, end], both UTC.
	// Bars need not be sorted or validated; the Manager does both.
	FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error)
}
