package marketdata

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/b3quant/wave3/internal/domain/bar"
)

func writeCSV(t *testing.T, dir, symbol, tf, body string) {
	t.Helper()
	symDir := filepath.Join(dir, symbol)
	if err := os.MkdirAll(symDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(symDir, tf+".csv"), []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
}

func TestCSVSourceLoadsBarsWithinRange(t *testing.T) {
	dir := t.TempDir()
	body := "timestamp,open,high,low,close,volume\n" +
		"2024-01-01,10,10.5,9.8,10.2,1000\n" +
		"2024-01-02,10.2,10.8,10.1,10.6,1100\n" +
		"2024-01-03,10.6,11.0,10.4,10.9,1200\n"
	writeCSV(t, dir, "PETR4", "daily", body)

	src := NewCSVSource(dir)
	from := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 0, 0, 0, 0, time.UTC)

	series, err := src.LoadBars(context.Background(), "PETR4", bar.TimeframeDaily, from, to)
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected 2 bars within range, got %d", series.Len())
	}
	if series.Bars[0].Close != 10.6 {
		t.Fatalf("first in-range close = %v, want 10.6", series.Bars[0].Close)
	}
}

func TestCSVSourceSkipsMalformedRows(t *testing.T) {
	dir := t.TempDir()
	body := "timestamp,open,high,low,close,volume\n" +
		"2024-01-01,10,10.5,9.8,10.2,1000\n" +
		"not-a-date,10.2,10.8,10.1,10.6,1100\n" +
		"2024-01-03,10.6,11.0,10.4,10.9,1200\n"
	writeCSV(t, dir, "VALE3", "daily", body)

	src := NewCSVSource(dir)
	series, err := src.LoadBars(context.Background(), "VALE3", bar.TimeframeDaily,
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if series.Len() != 2 {
		t.Fatalf("expected the malformed row to be skipped, got %d bars", series.Len())
	}
}

func TestCSVSourceMissingFileErrors(t *testing.T) {
	src := NewCSVSource(t.TempDir())
	_, err := src.LoadBars(context.Background(), "NOPE3", bar.TimeframeDaily, time.Time{}, time.Now())
	if err == nil {
		t.Fatalf("expected an error for a missing bar file")
	}
}
