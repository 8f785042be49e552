package data

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/market"
)

var _ Source = (*StooqSource)(nil)

// StooqSource fetches daily bars from the Stooq CSV endpoint. Stooq serves
// split-adjusted prices and needs no credentials, which makes it the default
// fallback provider.
type StooqSource struct {
	// BaseURL defaults to the public endpoint; tests point it at a local
	// HTTP server.
	BaseURL string
	Client  *http.Client
}

// NewStooqSource creates a StooqSource against the public endpoint.
func NewStooqSource() *StooqSource {
	return &StooqSource{
		BaseURL: "https://stooq.com/q/d/l/",
		Client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns "stooq".
func (s *StooqSource) Name() string { return "stooq" }

// FetchBars downloads the daily CSV for symbol in [start, end] and parses it.
// US equities are suffixed ".us" per Stooq's symbol convention.
func (s *StooqSource) FetchBars(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	q := url.Values{}
	q.Set("s", strings.ToLower(symbol)+".us")
	q.Set("d1", start.Format("20060102"))
	q.Set("d2", end.Format("20060102"))
	q.Set("i", "d")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stooq %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stooq %s: unexpected status %d", symbol, resp.StatusCode)
	}

	return parseStooqCSV(symbol, resp.Body)
}

// parseStooqCSV parses Stooq's "Date,Open,High,Low,Close,Volume" layout.
// Prices are parsed with decimal.NewFromString so no float conversion is
// involved.
func parseStooqCSV(symbol string, r io.Reader) ([]market.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("stooq %s: reading header: %w", symbol, err)
	}
	if len(header) < 5 || !strings.EqualFold(strings.TrimSpace(header[0]), "date") {
		return nil, fmt.Errorf("stooq %s: unexpected header %v", symbol, header)
	}

	var bars []market.Bar
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("stooq %s: reading row: %w", symbol, err)
		}
		if len(row) < 5 {
			continue
		}

		day, err := time.Parse("2006-01-02", strings.TrimSpace(row[0]))
		if err != nil {
			return nil, fmt.Errorf("stooq %s: bad date %q: %w", symbol, row[0], err)
		}

		var prices [4]decimal.Decimal
		for i := 0; i < 4; i++ {
			prices[i], err = decimal.NewFromString(strings.TrimSpace(row[i+1]))
			if err != nil {
				return nil, fmt.Errorf("stooq %s: bad price %q: %w", symbol, row[i+1], err)
			}
		}

		var volume int64
		if len(row) > 5 && strings.TrimSpace(row[5]) != "" {
			volume, err = strconv.ParseInt(strings.TrimSpace(row[5]), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("stooq %s: bad volume %q: %w", symbol, row[5], err)
			}
		}

		bars = append(bars, market.Bar{
			Symbol:   strings.ToUpper(symbol),
			Time:     day.UTC(),
			Open:     prices[0],
			High:     prices[1],
			Low:      prices[2],
			Close:    prices[3],
			Volume:   volume,
			Adjusted: true,
		})
	}
	return bars, nil
}
