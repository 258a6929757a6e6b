package engine

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/mlgate"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// buildRampHistory constructs a symbol whose trigger and daily closes rise
// monotonically for the given number of calendar days: after the initial
// EMA warmup the close never again trades below its own EMA17, so the
// pullback-then-reclaim trigger never re-fires (spec.md §8 scenario 1:
// a pure upward ramp produces zero Candidate Signals).
func buildRampHistory(symbol string, days int) SymbolHistory {
	start := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	price := 10.0

	var triggerBars []bar.Bar
	var dailyBars []bar.Bar
	for d := 0; d < days; d++ {
		dayStart := start.AddDate(0, 0, d)
		var dayClose float64
		for h := 0; h < 4; h++ {
			price += 0.05
			ts := dayStart.Add(time.Duration(10+h) * time.Hour)
			triggerBars = append(triggerBars, bar.Bar{
				Timestamp: ts,
				Open:      price - 0.05,
				High:      price + 0.02,
				Low:       price - 0.07,
				Close:     price,
				Volume:    1000,
			})
			dayClose = price
		}
		dailyBars = append(dailyBars, bar.Bar{
			Timestamp: dayStart.Add(16 * time.Hour),
			Open:      dayClose - 0.2,
			High:      dayClose + 0.05,
			Low:       dayClose - 0.25,
			Close:     dayClose,
			Volume:    5000,
		})
	}

	triggerSeries, err := bar.NewSeries(symbol, bar.Timeframe60m, triggerBars, 0)
	if err != nil {
		panic(err)
	}
	dailySeries, err := bar.NewSeries(symbol, bar.TimeframeDaily, dailyBars, 0)
	if err != nil {
		panic(err)
	}
	return SymbolHistory{Symbol: symbol, Trigger: triggerSeries, Daily: dailySeries}
}

func testOptions() Options {
	return Options{
		WaveConfig:  wave3.DefaultConfig(),
		Weights:     wave3.DefaultWeights(),
		SimConfig:   simulator.DefaultConfig(),
		MLConfig:    mlgate.DefaultConfig(),
		Periods:     indicators.DefaultPeriods(),
		Backtest:    BacktestWindows{TrainMonths: 12, TestMonths: 3, StepMonths: 3, MinTrainSignals: 30},
		Concurrency: 2,
		Logger:      zerolog.Nop(),
	}
}

func TestRunPureUpwardRampProducesZeroTradesAndSkipsEveryFold(t *testing.T) {
	history := buildRampHistory("RAMP3", 500)

	results, err := Run(context.Background(), testOptions(), []SymbolHistory{history})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 symbol result, got %d", len(results))
	}
	res := results[0]
	if res.Err != nil {
		t.Fatalf("symbol result error: %v", res.Err)
	}
	if len(res.Folds) == 0 {
		t.Fatalf("expected at least one fold to be generated from 500 days of history")
	}

	trades := CollectTrades(results)
	if len(trades) != 0 {
		t.Fatalf("expected zero trades on a pure ramp, got %d", len(trades))
	}

	skipped := SkippedFolds(results)
	if len(skipped) != len(res.Folds) {
		t.Fatalf("expected every fold to be skipped (insufficient training signals), got %d of %d", len(skipped), len(res.Folds))
	}
	for _, s := range skipped {
		if _, ok := s.Reason.(*wavecore.EmptyFoldResult); !ok {
			t.Fatalf("skip reason = %T, want *wavecore.EmptyFoldResult", s.Reason)
		}
	}
}

func TestRunContinuesOtherSymbolsWhenOneHasNoHistory(t *testing.T) {
	empty := SymbolHistory{Symbol: "EMPTY3"}
	ramp := buildRampHistory("RAMP4", 450)

	results, err := Run(context.Background(), testOptions(), []SymbolHistory{empty, ramp})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 symbol results, got %d", len(results))
	}
	if results[0].Err == nil {
		t.Fatalf("expected the empty-history symbol to carry an error")
	}
	if results[1].Err != nil {
		t.Fatalf("expected the ramp symbol to process cleanly, got %v", results[1].Err)
	}
}

func TestSummarizeOnEmptyResultsReturnsZeroSummary(t *testing.T) {
	summary := Summarize(nil, true)
	if summary.Count != 0 {
		t.Fatalf("expected zero trades summarized, got %d", summary.Count)
	}
}
