package marketdata

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// CSVSource loads OHLCV bars from one CSV file per (symbol, timeframe),
// grounded on internal/data/cold/csv.go's CSVReader: tolerant column-name
// mapping, multiple accepted timestamp layouts, and a skip-bad-row (not
// abort-the-file) error policy for individual malformed records.
//
// Files are expected at <Root>/<symbol>/<timeframe>.csv with a header row
// naming (some permutation of) timestamp,open,high,low,close,volume.
type CSVSource struct {
	Root        string
	dateLayouts []string

	// MaxGap bounds the largest allowed gap between consecutive bars
	// (spec.md §4.5's "excessive gap" condition), passed straight through
	// to bar.NewSeries. Zero (the default) disables the check. Callers
	// should set this from config.Config.MaxBarGap() before the source's
	// first LoadBars call.
	MaxGap time.Duration
}

// NewCSVSource builds a CSVSource rooted at dir, with the gap check
// disabled (MaxGap zero) until the caller sets one.
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{
		Root: dir,
		dateLayouts: []string{
			time.RFC3339,
			"2006-01-02 15:04:05",
			"2006-01-02T15:04:05",
			"2006-01-02",
		},
	}
}

// LoadBars implements BarSource by reading and parsing the CSV file for
// (symbol, tf), then restricting to bars within [from, to] and handing the
// result to bar.NewSeries for invariant validation.
func (c *CSVSource) LoadBars(ctx context.Context, symbol string, tf bar.Timeframe, from, to time.Time) (bar.Series, error) {
	select {
	case <-ctx.Done():
		return bar.Series{}, ctx.Err()
	default:
	}

	path := filepath.Join(c.Root, symbol, string(tf)+".csv")
	f, err := os.Open(path)
	if err != nil {
		return bar.Series{}, fmt.Errorf("open bar file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		return bar.Series{}, fmt.Errorf("read header of %s: %w", path, err)
	}
	cols := mapColumns(header)
	for _, required := range []string{"timestamp", "open", "high", "low", "close", "volume"} {
		if _, ok := cols[required]; !ok {
			return bar.Series{}, fmt.Errorf("%s missing required column %q", path, required)
		}
	}

	var bars []bar.Bar
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return bar.Series{}, fmt.Errorf("read row of %s: %w", path, err)
		}
		b, ok := c.parseRow(record, cols)
		if !ok {
			continue // malformed row: skip, never abort the whole file
		}
		if b.Timestamp.Before(from) || b.Timestamp.After(to) {
			continue
		}
		bars = append(bars, b)
	}

	series, err := bar.NewSeries(symbol, tf, bars, c.MaxGap)
	if err != nil {
		return bar.Series{}, fmt.Errorf("%s: %w", path, &wavecore.DataIntegrityError{Symbol: symbol, Reason: err.Error()})
	}
	return series, nil
}

func (c *CSVSource) parseRow(record []string, cols map[string]int) (bar.Bar, bool) {
	ts, ok := c.parseTimestamp(record[cols["timestamp"]])
	if !ok {
		return bar.Bar{}, false
	}
	open, err1 := strconv.ParseFloat(record[cols["open"]], 64)
	high, err2 := strconv.ParseFloat(record[cols["high"]], 64)
	low, err3 := strconv.ParseFloat(record[cols["low"]], 64)
	close, err4 := strconv.ParseFloat(record[cols["close"]], 64)
	volume, err5 := strconv.ParseFloat(record[cols["volume"]], 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil || err5 != nil {
		return bar.Bar{}, false
	}
	return bar.Bar{Timestamp: ts, Open: open, High: high, Low: low, Close: close, Volume: volume}, true
}

func (c *CSVSource) parseTimestamp(raw string) (time.Time, bool) {
	for _, layout := range c.dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// mapColumns normalizes a CSV header into a name->index lookup, accepting
// a few common spelling variants per column.
func mapColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[normalizeColumnName(name)] = i
	}
	return cols
}

func normalizeColumnName(name string) string {
	switch name {
	case "ts", "time", "datetime", "date":
		return "timestamp"
	case "o":
		return "open"
	case "h":
		return "high"
	case "l":
		return "low"
	case "c":
		return "close"
	case "v", "vol":
		return "volume"
	default:
		return name
	}
}
