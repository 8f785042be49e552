package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"

	"github.com/tradeforge/quantback/market"
)

// barRecord is the Parquet schema for cached daily bars. Prices are stored
// as decimal strings so a cache round-trip is exact.
type barRecord struct {
	Symbol    string `parquet:"symbol"`
	Timestamp int64  `parquet:"timestamp,timestamp(millisecond)"` // Unix ms, UTC
	Open      string `parquet:"open"`
	High      string `parquet:"high"`
	Low       string `parquet:"low"`
	Close     string `parquet:"close"`
	Volume    int64  `parquet:"volume"`
	Adjusted  bool   `parquet:"adjusted"`
}

// BarCache is a write-once columnar on-disk cache of validated bars, one
// Parquet file per (symbol, start, end) key. Entries for a closed historical
// range never change, so there is no TTL; invalidation is deleting the file.
type BarCache struct {
	Root string
}

// NewBarCache creates a cache rooted at the given directory. The directory
// is created lazily on first write.
func NewBarCache(root string) *BarCache {
	return &BarCache{Root: root}
}

// Path returns the cache file for a (symbol, start, end) key.
// Layout: <root>/<SYMBOL>/<YYYYMMDD>_<YYYYMMDD>.parquet
func (c *BarCache) Path(symbol string, start, end time.Time) string {
	name := start.Format("20060102") + "_" + end.Format("20060102") + ".parquet"
	return filepath.Join(c.Root, strings.ToUpper(symbol), name)
}

// Contains reports whether a cache entry exists for the key. File existence
// is sufficient for a hit.
func (c *BarCache) Contains(symbol string, start, end time.Time) bool {
	_, err := os.Stat(c.Path(symbol, start, end))
	return err == nil
}

// Load reads the cached bars for the key.
func (c *BarCache) Load(symbol string, start, end time.Time) ([]market.Bar, error) {
	path := c.Path(symbol, start, end)
	records, err := parquet.ReadFile[barRecord](path)
	if err != nil {
		return nil, fmt.Errorf("reading cache %s: %w", path, err)
	}

	bars := make([]market.Bar, 0, len(records))
	for _, r := range records {
		b, err := r.toBar()
		if err != nil {
			return nil, fmt.Errorf("decoding cache %s: %w", path, err)
		}
		bars = append(bars, b)
	}
	return bars, nil
}

// Store writes bars for the key. The file is written to a temp path and
// renamed into place, so concurrent writers of the same key are
// last-writer-wins with whole-file content — safe because content is
// deterministic for a given key.
func (c *BarCache) Store(symbol string, start, end time.Time, bars []market.Bar) error {
	path := c.Path(symbol, start, end)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	records := make([]barRecord, len(bars))
	for i, b := range bars {
		records[i] = barRecord{
			Symbol:    b.Symbol,
			Timestamp: b.Time.UnixMilli(),
			Open:      b.Open.String(),
			High:      b.High.String(),
			Low:       b.Low.String(),
			Close:     b.Close.String(),
			Volume:    b.Volume,
			Adjusted:  b.Adjusted,
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".bars-*.parquet")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	tmp.Close()

	if err := parquet.WriteFile(tmpPath, records); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("writing cache %s: %w", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// Entries lists all cache files under the root, newest directory order not
// guaranteed. Used by the cache CLI subcommand.
func (c *BarCache) Entries() ([]string, error) {
	var files []string
	err := filepath.WalkDir(c.Root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipAll
			}
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, ".parquet") {
			rel, rerr := filepath.Rel(c.Root, path)
			if rerr != nil {
				return rerr
			}
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// Purge removes every cache entry under the root.
func (c *BarCache) Purge() error {
	if err := os.RemoveAll(c.Root); err != nil {
		return err
	}
	return nil
}

func (r barRecord) toBar() (market.Bar, error) {
	var (
		b   market.Bar
		err error
	)
	if b.Open, err = decimal.NewFromString(r.Open); err != nil {
		return b, err
	}
	if b.High, err = decimal.NewFromString(r.High); err != nil {
		return b, err
	}
	if b.Low, err = decimal.NewFromString(r.Low); err != nil {
		return b, err
	}
	if b.Close, err = decimal.NewFromString(r.Close); err != nil {
		return b, err
	}
	b.Symbol = r.Symbol
	b.Time = time.UnixMilli(r.Timestamp).UTC()
	b.Volume = r.Volume
	b.Adjusted = r.Adjusted
	return b, nil
}
