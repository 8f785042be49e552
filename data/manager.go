package data

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/tradeforge/quantback/market"
)

// Manager is the historical data manager: it fetches bars from a primary
// source with transparent fallback to a secondary one, validates and caches
// the result, and retries transient failures with bounded exponential
// backoff. A Manager is safe for concurrent use by independent runs; the
// cache directory is the only shared resource and same-key writes are
// idempotent.
type Manager struct {
	primary  Source
	fallback Source

	cache        *BarCache
	cacheEnabled bool

	maxRetries      uint64
	initialInterval time.Duration

	log *zap.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithFallback sets the secondary source tried after the primary fails.
func WithFallback(s Source) ManagerOption {
	return func(m *Manager) { m.fallback = s }
}

// WithCache enables the on-disk bar cache.
func WithCache(c *BarCache) ManagerOption {
	return func(m *Manager) {
		m.cache = c
		m.cacheEnabled = c != nil
	}
}

// WithLogger sets the structured logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) ManagerOption {
	return func(m *Manager) { m.log = log }
}

// WithRetry overrides the per-source retry budget. maxRetries is the number
// of retries after the first attempt; initialInterval seeds the exponential
// backoff schedule.
func WithRetry(maxRetries uint64, initialInterval time.Duration) ManagerOption {
	return func(m *Manager) {
		m.maxRetries = maxRetries
		m.initialInterval = initialInterval
	}
}

// NewManager creates a Manager over the given primary source.
func NewManager(primary Source, opts ...ManagerOption) *Manager {
	m := &Manager{
		primary:         primary,
		maxRetries:      3,
		initialInterval: 500 * time.Millisecond,
		log:             zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Fetch returns validated daily bars for symbol in [start, end] plus any
// data-quality warnings. The caller sees either usable bars or an
// InsufficientDataError; which source served the request, and whether the
// cache was hit, is invisible.
func (m *Manager) Fetch(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, []string, error) {
	if m.cacheEnabled && m.cache.Contains(symbol, start, end) {
		bars, err := m.cache.Load(symbol, start, end)
		if err == nil {
			// Cached bars were validated before being written; re-running
			// validation is pure and reproduces the gap warnings.
			valid, warnings := validateBars(symbol, bars)
			if len(valid) > 0 {
				m.log.Debug("cache hit",
					zap.String("symbol", symbol),
					zap.Int("bars", len(valid)))
				return valid, warnings, nil
			}
		}
		// A corrupt or empty cache file falls through to a fresh fetch.
		m.log.Warn("cache entry unusable, refetching",
			zap.String("symbol", symbol),
			zap.Error(err))
	}

	raw, fetchErr := m.fetchWithFallback(ctx, symbol, start, end)
	if fetchErr != nil {
		return nil, nil, &InsufficientDataError{
			Symbol: symbol,
			Reason: "all sources failed",
			Err:    fetchErr,
		}
	}

	valid, warnings := validateBars(symbol, raw)
	if len(valid) == 0 {
		return nil, nil, &InsufficientDataError{
			Symbol: symbol,
			Reason: fmt.Sprintf("no usable bars in %s..%s after validation",
				start.Format("2006-01-02"), end.Format("2006-01-02")),
		}
	}

	if m.cacheEnabled {
		if err := m.cache.Store(symbol, start, end, valid); err != nil {
			// Cache failures never fail the fetch.
			m.log.Warn("cache write failed",
				zap.String("symbol", symbol),
				zap.Error(err))
		}
	}

	return valid, warnings, nil
}

// fetchWithFallback tries the primary source with bounded retries, then the
// secondary. An empty result counts as a failure so the fallback gets a
// chance to serve the range.
func (m *Manager) fetchWithFallback(ctx context.Context, symbol string, start, end time.Time) ([]market.Bar, error) {
	bars, primaryErr := m.fetchWithRetry(ctx, m.primary, symbol, start, end)
	if primaryErr == nil {
		return bars, nil
	}

	m.log.Warn("primary source failed",
		zap.String("source", m.primary.Name()),
		zap.String("symbol", symbol),
		zap.Error(primaryErr))

	if m.fallback == nil {
		return nil, primaryErr
	}

	bars, fallbackErr := m.fetchWithRetry(ctx, m.fallback, symbol, start, end)
	if fallbackErr != nil {
		return nil, fmt.Errorf("primary (%s): %v; fallback (%s): %w",
			m.primary.Name(), primaryErr, m.fallback.Name(), fallbackErr)
	}
	return bars, nil
}

func (m *Manager) fetchWithRetry(ctx context.Context, src Source, symbol string, start, end time.Time) ([]market.Bar, error) {
	var bars []market.Bar

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = m.initialInterval

	attempt := 0
	op := func() error {
		attempt++
		fetched, err := src.FetchBars(ctx, symbol, start, end)
		if err != nil {
			m.log.Debug("fetch attempt failed",
				zap.String("source", src.Name()),
				zap.String("symbol", symbol),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return err
		}
		if len(fetched) == 0 {
			// Empty results are terminal for this source; retrying will not
			// conjure bars for a range the provider does not cover.
			return backoff.Permanent(fmt.Errorf("%s returned no bars for %s", src.Name(), symbol))
		}
		bars = fetched
		return nil
	}

	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(bo, m.maxRetries), ctx))
	if err != nil {
		return nil, err
	}
	return bars, nil
}
