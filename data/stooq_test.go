package data

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const stooqCSV = `Date,Open,High,Low,Close,Volume
2024-01-02,185.54,186.12,183.92,185.64,52234100
2024-01-03,184.22,185.88,183.43,184.25,58414500
`

func TestStooqFetchBars(t *testing.T) {
	t.Parallel()

	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(stooqCSV))
	}))
	defer srv.Close()

	src := &StooqSource{BaseURL: srv.URL, Client: srv.Client()}
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)

	bars, err := src.FetchBars(context.Background(), "AAPL", start, end)
	require.NoError(t, err)
	require.Len(t, bars, 2)

	assert.Contains(t, gotQuery, "s=aapl.us")
	assert.Contains(t, gotQuery, "d1=20240101")
	assert.Contains(t, gotQuery, "d2=20240131")

	b := bars[0]
	assert.Equal(t, "AAPL", b.Symbol)
	assert.Equal(t, "185.54", b.Open.String())
	assert.Equal(t, "185.64", b.Close.String())
	assert.Equal(t, int64(52234100), b.Volume)
	assert.True(t, b.Adjusted)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), b.Time)
}

func TestStooqServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	src := &StooqSource{BaseURL: srv.URL, Client: srv.Client()}
	_, err := src.FetchBars(context.Background(), "AAPL", time.Now().AddDate(0, -1, 0), time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestParseStooqCSVBadRows(t *testing.T) {
	t.Parallel()

	t.Run("bad header", func(t *testing.T) {
		_, err := parseStooqCSV("AAPL", strings.NewReader("No data\n"))
		require.Error(t, err)
	})

	t.Run("bad price", func(t *testing.T) {
		_, err := parseStooqCSV("AAPL", strings.NewReader("Date,Open,High,Low,Close,Volume\n2024-01-02,x,1,1,1,1\n"))
		require.Error(t, err)
	})

	t.Run("missing volume column", func(t *testing.T) {
		bars, err := parseStooqCSV("AAPL", strings.NewReader("Date,Open,High,Low,Close\n2024-01-02,1,2,0.5,1.5\n"))
		require.NoError(t, err)
		require.Len(t, bars, 1)
		assert.Zero(t, bars[0].Volume)
	})
}
