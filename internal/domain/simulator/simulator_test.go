package simulator

import (
	"math"
	"testing"
	"time"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/wave3"
)

func seriesFromCloses(closes []float64) bar.Series {
	bars := make([]bar.Bar, len(closes))
	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = bar.Bar{
			Timestamp: ts.Add(time.Duration(i) * time.Hour),
			Open:      c, High: c + 0.05, Low: c - 0.05, Close: c, Volume: 1000,
		}
	}
	s, _ := bar.NewSeries("PETR4", bar.Timeframe60m, bars, 0)
	return s
}

func barAt(ts time.Time, o, h, l, c, v float64) bar.Bar {
	return bar.Bar{Timestamp: ts, Open: o, High: h, Low: l, Close: c, Volume: v}
}

// TestCleanWave3Long reproduces spec.md §8 scenario 2: entry 48.60, stop
// 47.80 (R=0.80), rungs at 49.40 (0.5x1.0R), 49.80 (0.3x1.5R), then the
// remainder closes via trailing stop at 50.00.
func TestCleanWave3Long(t *testing.T) {
	entry := 48.60
	stop := 47.80
	signal := wave3.CandidateSignal{
		Symbol: "PETR4", Direction: wave3.Long,
		TriggerIdx: 0, EntryPrice: entry, InitialStop: stop,
		TargetRungs: []wave3.TargetRung{
			{FractionOfPosition: 0.5, RewardMultiple: 1.0},
			{FractionOfPosition: 0.3, RewardMultiple: 1.5},
			{FractionOfPosition: 0.2, RewardMultiple: 2.5},
		},
	}

	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	bars := []bar.Bar{
		barAt(ts, entry, entry+0.1, entry-0.1, entry, 1000),
		barAt(ts.Add(time.Hour), 48.70, 49.45, 48.70, 49.30, 1000),
		barAt(ts.Add(2*time.Hour), 49.30, 49.85, 49.25, 49.75, 1000),
		barAt(ts.Add(3*time.Hour), 49.75, 50.00, 49.60, 49.95, 1000),
		barAt(ts.Add(4*time.Hour), 49.95, 50.30, 49.85, 50.20, 1000),
		barAt(ts.Add(5*time.Hour), 50.10, 50.15, 49.95, 50.05, 1000),
	}
	s, err := bar.NewSeries("PETR4", bar.Timeframe60m, bars, 0)
	if err != nil {
		t.Fatalf("series: %v", err)
	}

	atrCol := make(indicators.Column, s.Len())
	for i := range atrCol {
		atrCol[i] = 0.10
	}
	table := &indicators.Table{Series: s, Columns: map[string]indicators.Column{indicators.ATRColumn(14): atrCol}}

	cfg := DefaultConfig()
	trade, err := Simulate(cfg, signal, s, table, func(int) bool { return false })
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}

	if len(trade.Fills) < 3 {
		t.Fatalf("expected at least 3 fills (2 rungs + final close), got %d: %+v", len(trade.Fills), trade.Fills)
	}
	if trade.Fills[0].Reason != ExitRung || math.Abs(trade.Fills[0].Price-49.40) > 1e-9 {
		t.Fatalf("first fill: want rung at 49.40, got %+v", trade.Fills[0])
	}
	if trade.Fills[1].Reason != ExitRung || math.Abs(trade.Fills[1].Price-49.80) > 1e-9 {
		t.Fatalf("second fill: want rung at 49.80, got %+v", trade.Fills[1])
	}
	last := trade.Fills[len(trade.Fills)-1]
	if last.Reason != ExitTrailingStop {
		t.Fatalf("final fill: want trailing_stop exit, got %v", last.Reason)
	}

	// ReturnPct is a fraction of entry price; convert it to R to compare.
	wantReturn := 0.5*1.0 + 0.3*1.5 + 0.2*(50.00-48.60)/0.80
	gotR := trade.ReturnPct * entry / (entry - stop)
	if math.Abs(gotR-wantReturn) > 0.01 {
		t.Fatalf("return: want ~%.4fR, got %.4fR (ReturnPct %.4f)", wantReturn, gotR, trade.ReturnPct)
	}
}

// TestStopOut reproduces spec.md §8 scenario 3: next bar's low is 47.70,
// below the 47.80 stop; full position closes at the stop price.
func TestStopOut(t *testing.T) {
	entry := 48.60
	stop := 47.80
	signal := wave3.CandidateSignal{
		Symbol: "PETR4", Direction: wave3.Long,
		TriggerIdx: 0, EntryPrice: entry, InitialStop: stop,
		TargetRungs: []wave3.TargetRung{{FractionOfPosition: 1.0, RewardMultiple: 1.0}},
	}

	ts := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	bars := []bar.Bar{
		barAt(ts, entry, entry+0.1, entry-0.1, entry, 1000),
		barAt(ts.Add(time.Hour), 48.5, 48.55, 47.70, 47.75, 1000),
	}
	s, err := bar.NewSeries("PETR4", bar.Timeframe60m, bars, 0)
	if err != nil {
		t.Fatalf("series: %v", err)
	}
	atrCol := make(indicators.Column, s.Len())
	for i := range atrCol {
		atrCol[i] = 0.10
	}
	table := &indicators.Table{Series: s, Columns: map[string]indicators.Column{indicators.ATRColumn(14): atrCol}}

	trade, err := Simulate(DefaultConfig(), signal, s, table, func(int) bool { return false })
	if err != nil {
		t.Fatalf("simulate: %v", err)
	}
	if len(trade.Fills) != 1 {
		t.Fatalf("want exactly 1 fill, got %d", len(trade.Fills))
	}
	if trade.Fills[0].Reason != ExitStop {
		t.Fatalf("want stop exit, got %v", trade.Fills[0].Reason)
	}
	if math.Abs(trade.Fills[0].Price-47.80) > 1e-9 {
		t.Fatalf("want close at stop price 47.80, got %v", trade.Fills[0].Price)
	}
	wantReturn := (47.80 - 48.60) / 48.60
	if math.Abs(trade.ReturnPct-wantReturn) > 1e-6 {
		t.Fatalf("return: want %.6f, got %.6f", wantReturn, trade.ReturnPct)
	}
	if trade.MAEPct < 1.0*math.Abs(stop-entry)/entry-1e-6 {
		t.Fatalf("MAE should be at least ~1R, got %v", trade.MAEPct)
	}
}
