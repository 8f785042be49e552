package data

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradeforge/quantback/market"
)

func TestBarCacheRoundTrip(t *testing.T) {
	t.Parallel()

	cache := NewBarCache(t.TempDir())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars := []market.Bar{dayBar(2, "123.45"), dayBar(3, "124.5678")}
	bars[0].Adjusted = true

	assert.False(t, cache.Contains("TEST", start, end))
	require.NoError(t, cache.Store("TEST", start, end, bars))
	assert.True(t, cache.Contains("TEST", start, end))

	loaded, err := cache.Load("TEST", start, end)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	// Decimal prices survive the round trip exactly.
	assert.Equal(t, bars[0], loaded[0])
	assert.Equal(t, bars[1], loaded[1])
}

func TestBarCacheKeySeparation(t *testing.T) {
	t.Parallel()

	cache := NewBarCache(t.TempDir())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	require.NoError(t, cache.Store("AAA", start, end, []market.Bar{dayBar(2, "1")}))

	assert.True(t, cache.Contains("AAA", start, end))
	assert.False(t, cache.Contains("BBB", start, end))
	assert.False(t, cache.Contains("AAA", start, end.AddDate(0, 1, 0)))
}

func TestBarCacheEntriesAndPurge(t *testing.T) {
	t.Parallel()

	cache := NewBarCache(t.TempDir())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	entries, err := cache.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, cache.Store("AAA", start, end, []market.Bar{dayBar(2, "1")}))
	require.NoError(t, cache.Store("BBB", start, end, []market.Bar{dayBar(2, "2")}))

	entries, err = cache.Entries()
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, cache.Purge())
	entries, err = cache.Entries()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
