package engine

import (
	"context"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/features"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/mlgate"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// SymbolHistory is one symbol's full available history at both the
// trigger timeframe and the daily context timeframe, covering every fold
// this run will slice out of it.
type SymbolHistory struct {
	Symbol  string
	Trigger bar.Series
	Daily   bar.Series
}

// FoldResult is one symbol's outcome for one walk-forward fold.
type FoldResult struct {
	Fold          Fold
	TrainSignals  int
	Trades        []simulator.ClosedTrade
	Confirmations []wave3.Confirmations // index-aligned with Trades
	Skipped       bool
	SkipReason    error
}

// SymbolResult collects every fold a symbol produced.
type SymbolResult struct {
	Symbol string
	Folds  []FoldResult
	Err    error // set when the symbol failed entirely (e.g. no folds fit)
}

// Options bundles every configuration surface a walk-forward run needs.
// Concurrency/RatePerSec default to single-threaded, unthrottled dispatch
// when left zero.
type Options struct {
	WaveConfig  wave3.Config
	Weights     wave3.Weights
	SimConfig   simulator.Config
	MLConfig    mlgate.Config
	Periods     indicators.Periods
	Backtest    BacktestWindows
	Concurrency int
	RatePerSec  float64
	Logger      zerolog.Logger
}

// BacktestWindows is the fold-slicing subset of config.BacktestConfig,
// named independently here so this package does not import internal/config
// (config imports the domain packages this package also needs — keeping
// the dependency one-directional: config -> {wave3,simulator,mlgate},
// engine -> {those same domain packages} plus config's output values
// passed in by the caller, per SPEC_FULL.md §11's package layering).
type BacktestWindows struct {
	TrainMonths     int
	TestMonths      int
	StepMonths      int
	MinTrainSignals int
}

// Run processes every symbol's history independently, in parallel up to
// Options.Concurrency, and returns one SymbolResult per symbol. A failure
// processing one symbol never aborts the run for the others — each
// failure is attached to that symbol's SymbolResult.Err, mirroring
// internal/backtest/march_aug/engine.go's per-symbol warn-and-continue
// loop (SPEC_FULL.md §9).
func Run(ctx context.Context, opts Options, histories []SymbolHistory) ([]SymbolResult, error) {
	results := make([]SymbolResult, len(histories))
	pool := NewPool(opts.Concurrency, opts.RatePerSec)

	tasks := make([]Task, len(histories))
	for idx, sh := range histories {
		idx, sh := idx, sh
		tasks[idx] = func(ctx context.Context) error {
			folds, err := processSymbol(ctx, opts, sh)
			results[idx] = SymbolResult{Symbol: sh.Symbol, Folds: folds, Err: err}
			return nil // per-symbol errors are carried on the result, not the pool
		}
	}

	if err := pool.Run(ctx, tasks); err != nil {
		return results, err
	}
	return results, nil
}

// processSymbol builds the indicator tables and feature builder once for
// the symbol's full history — both are causal (each index depends only on
// bars at or before it), so computing them once and then slicing the
// *evaluation index range* per fold is equivalent to, and far cheaper
// than, recomputing a truncated Series/Table per fold. bar.Series.Slice
// remains the mechanism no-lookahead property tests use to double-check
// this equivalence against a genuinely truncated recomputation.
func processSymbol(ctx context.Context, opts Options, sh SymbolHistory) ([]FoldResult, error) {
	log := opts.Logger.With().Str("symbol", sh.Symbol).Logger()

	if sh.Trigger.Len() == 0 {
		return nil, &wavecore.InsufficientHistoryError{Symbol: sh.Symbol, Needed: 1, Have: 0}
	}

	triggerTable := indicators.Build(sh.Trigger, opts.Periods)
	dailyTable := indicators.Build(sh.Daily, opts.Periods)
	builder := features.NewBuilder(sh.Trigger, triggerTable, sh.Daily, dailyTable, opts.Periods)
	detector := wave3.NewDetector(opts.WaveConfig, opts.Weights, builder)

	seriesStart := sh.Trigger.Bars[0].Timestamp
	seriesEnd := sh.Trigger.Bars[sh.Trigger.Len()-1].Timestamp.Add(time.Nanosecond)
	folds := BuildFolds(seriesStart, seriesEnd, opts.Backtest.TrainMonths, opts.Backtest.TestMonths, opts.Backtest.StepMonths)

	results := make([]FoldResult, 0, len(folds))
	for _, fold := range folds {
		select {
		case <-ctx.Done():
			return results, ctx.Err()
		default:
		}

		fr := processFold(opts, sh, detector, triggerTable, dailyTable, builder, fold)
		if fr.Skipped {
			log.Warn().Int("fold", fold.Index).Err(fr.SkipReason).Msg("fold skipped")
		}
		results = append(results, fr)
	}
	return results, nil
}

func processFold(opts Options, sh SymbolHistory, detector *wave3.Detector, triggerTable, dailyTable *indicators.Table, builder *features.Builder, fold Fold) FoldResult {
	trainStart, trainEnd, ok := indexRange(sh.Trigger, fold.TrainStart, fold.TrainEnd)
	if !ok {
		return FoldResult{Fold: fold, Skipped: true, SkipReason: &wavecore.InsufficientHistoryError{Symbol: sh.Symbol, Needed: 1, Have: 0}}
	}
	testStart, testEnd, ok := indexRange(sh.Trigger, fold.TestStart, fold.TestEnd)
	if !ok {
		return FoldResult{Fold: fold, Skipped: true, SkipReason: &wavecore.InsufficientHistoryError{Symbol: sh.Symbol, Needed: 1, Have: 0}}
	}

	trainSamples, schema := collectTrainingSamples(opts, sh, detector, triggerTable, dailyTable, builder, trainStart, trainEnd)
	if len(schema) == 0 || len(trainSamples) < opts.Backtest.MinTrainSignals {
		return FoldResult{Fold: fold, TrainSignals: len(trainSamples), Skipped: true, SkipReason: &wavecore.EmptyFoldResult{FoldIndex: fold.Index}}
	}

	gate, err := buildGate(trainSamples, schema, opts.MLConfig, sh.Symbol, fold.Index)
	if err != nil {
		return FoldResult{Fold: fold, TrainSignals: len(trainSamples), Skipped: true, SkipReason: err}
	}

	trades, confirmations := evaluateTestWindow(opts, sh, detector, triggerTable, dailyTable, gate, testStart, testEnd)
	return FoldResult{Fold: fold, TrainSignals: len(trainSamples), Trades: trades, Confirmations: confirmations}
}

// collectTrainingSamples walks the training index range with the
// single-open-position suppression rule, simulating every Candidate
// Signal's actual trade outcome to derive its training label (profitable
// if ReturnPct clears ML.ProfitLabelThreshold), per spec.md §4.4's
// training contract.
func collectTrainingSamples(opts Options, sh SymbolHistory, detector *wave3.Detector, triggerTable, dailyTable *indicators.Table, builder *features.Builder, start, end int) ([]mlgate.Sample, []string) {
	var samples []mlgate.Sample
	openUntil := -1
	for i := start; i < end; i++ {
		hasOpen := i <= openUntil
		sig, ok := detector.DetectAt(sh.Trigger, triggerTable, sh.Daily, dailyTable, i, hasOpen)
		if !ok {
			continue
		}
		trade, err := simulator.Simulate(opts.SimConfig, sig, sh.Trigger, triggerTable, reversalCheck(sh, dailyTable, sig.Direction))
		if err != nil {
			continue
		}
		label := 0
		if trade.ReturnPct >= opts.MLConfig.ProfitLabelThreshold {
			label = 1
		}
		samples = append(samples, mlgate.Sample{Features: sig.FeatureValues, Label: label})
		openUntil = positionEndIndex(trade, i)
	}
	return samples, builder.Schema()
}

// evaluateTestWindow applies the fold's trained Gate to every Candidate
// Signal in the test index range and simulates only the accepted ones.
func evaluateTestWindow(opts Options, sh SymbolHistory, detector *wave3.Detector, triggerTable, dailyTable *indicators.Table, gate *mlgate.Gate, start, end int) ([]simulator.ClosedTrade, []wave3.Confirmations) {
	var trades []simulator.ClosedTrade
	var confirmations []wave3.Confirmations
	openUntil := -1
	for i := start; i < end; i++ {
		hasOpen := i <= openUntil
		sig, ok := detector.DetectAt(sh.Trigger, triggerTable, sh.Daily, dailyTable, i, hasOpen)
		if !ok {
			continue
		}
		accepted, _, err := gate.Predict(sig.FeatureNames, sig.FeatureValues)
		if err != nil || !accepted {
			continue
		}
		trade, err := simulator.Simulate(opts.SimConfig, sig, sh.Trigger, triggerTable, reversalCheck(sh, dailyTable, sig.Direction))
		if err != nil {
			continue
		}
		trades = append(trades, trade)
		confirmations = append(confirmations, sig.Confirmations)
		openUntil = positionEndIndex(trade, i)
	}
	return trades, confirmations
}

func positionEndIndex(trade simulator.ClosedTrade, signalIdx int) int {
	if len(trade.Fills) == 0 {
		return signalIdx
	}
	return trade.Fills[len(trade.Fills)-1].BarIndex
}

// reversalCheck builds the per-signal dailyContextReversed predicate
// simulator.Simulate requires (spec.md §4.5 exit condition 5): the daily
// context, re-evaluated at the daily bar aligned to the given trigger
// index, has flipped away from dir.
func reversalCheck(sh SymbolHistory, dailyTable *indicators.Table, dir wave3.Direction) func(int) bool {
	return func(triggerIdx int) bool {
		if triggerIdx < 0 || triggerIdx >= sh.Trigger.Len() {
			return false
		}
		j, ok := sh.Daily.At(sh.Trigger.Bars[triggerIdx].Timestamp)
		if !ok {
			return false
		}
		ctx := wave3.DailyContextAt(sh.Daily, dailyTable, j)
		return ctx.IsContext && ctx.Direction != dir
	}
}

func buildGate(samples []mlgate.Sample, schema []string, cfg mlgate.Config, symbol string, foldIndex int) (*mlgate.Gate, error) {
	if !cfg.Enabled {
		return mlgate.NewPassthroughGate(mlgate.Schema(schema)), nil
	}
	return mlgate.Train(samples, mlgate.Schema(schema), cfg, seedFor(symbol, foldIndex))
}

// seedFor derives a deterministic training seed from (symbol, fold index)
// alone, never from wall-clock time, so two runs over identical inputs
// reproduce byte-identical models (spec.md §8 scenario 6).
func seedFor(symbol string, foldIndex int) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(fmt.Sprintf("%s#%d", symbol, foldIndex)))
	return int64(h.Sum64())
}

// indexRange returns the half-open index range [start, end) of bars in s
// whose timestamps fall within [from, to). ok is false when no bar falls
// in that window.
func indexRange(s bar.Series, from, to time.Time) (start, end int, ok bool) {
	start, end = -1, -1
	for i, b := range s.Bars {
		if b.Timestamp.Before(from) {
			continue
		}
		if !b.Timestamp.Before(to) {
			break
		}
		if start < 0 {
			start = i
		}
		end = i + 1
	}
	if start < 0 {
		return 0, 0, false
	}
	return start, end, true
}
