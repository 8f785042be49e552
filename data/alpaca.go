package data

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/market"
)

var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches daily bars from the Alpaca market-data API. Prices
// are requested with full split and dividend adjustment.
type AlpacaSource struct {
	client *marketdata.Client
	feed   marketdata.Feed
}

// NewAlpacaSource creates an AlpacaSource with the given credentials.
// baseURL overrides the default API endpoint when non-empty (useful for
// paper/sandbox environments).
func NewAlpacaSource(apiKey, apiSecret, baseURL string) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if baseURL != "" {
		opts.BaseURL = baseURL
	}
	return &AlpacaSource{
		client: marketdata.NewClient(opts),
		feed:   marketdata.IEX,
	}
}

// Name returns "alpaca".
func (s *AlpacaSource) Name() string { return "alpaca" }

// FetchBars requests adjusted daily bars for symbol in [start, end].
func (s *AlpacaSource) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := s.client.GetBars(strings.ToUpper(symbol), marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      start,
		End:        end,
		Feed:       s.feed,
	})
	if err != nil {
		return nil, fmt.Errorf("alpaca GetBars %s: %w", symbol, err)
	}

	bars := make([]market.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, market.Bar{
			Symbol:   strings.ToUpper(symbol),
			Time:     ab.Timestamp.UTC(),
			Open:     decimal.NewFromFloat(ab.Open),
			High:     decimal.NewFromFloat(ab.High),
			Low:      decimal.NewFromFloat(ab.Low),
			Close:    decimal.NewFromFloat(ab.Close),
			Volume:   int64(ab.Volume),
			Adjusted: true,
		})
	}
	return bars, nil
}
