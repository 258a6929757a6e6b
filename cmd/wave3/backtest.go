package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/b3quant/wave3/internal/backtest/engine"
	"github.com/b3quant/wave3/internal/config"
	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/marketdata"
)

// newBacktestCmd wires the Walk-Forward Backtester end to end: load
// configuration, load bar history for every requested symbol through a
// circuit-breaker-wrapped CSVSource, run engine.Run, and report the
// aggregated summary — grounded on cmd/cryptorun/backtest_main.go's
// flag-parse -> build config -> run -> report shape, without replicating
// its emoji-decorated terminal output.
func newBacktestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Walk-forward backtesting commands",
	}
	cmd.AddCommand(newBacktestRunCmd())
	return cmd
}

func newBacktestRunCmd() *cobra.Command {
	var symbols []string
	var concurrency int
	var ratePerSec float64
	var runID string
	var output string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the walk-forward backtest over one or more symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			dataDir, _ := cmd.Flags().GetString("data-dir")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if len(symbols) == 0 {
				return fmt.Errorf("at least one --symbol is required")
			}
			if runID == "" {
				runID = uuid.New().String()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Minute)
			defer cancel()

			csvSrc := marketdata.NewCSVSource(dataDir)
			csvSrc.MaxGap = cfg.MaxBarGap()
			source := marketdata.NewBreaker("csv", csvSrc)

			histories, loadFailures := loadHistories(ctx, source, symbols)
			for sym, loadErr := range loadFailures {
				log.Warn().Str("symbol", sym).Err(loadErr).Msg("symbol data load failed; excluded from this run")
			}
			if len(histories) == 0 {
				return fmt.Errorf("no symbol history loaded successfully (%d of %d symbols failed)", len(loadFailures), len(symbols))
			}

			opts := engine.Options{
				WaveConfig:  cfg.WaveConfig(),
				Weights:     wave3.DefaultWeights(),
				SimConfig:   cfg.SimulatorConfig(),
				MLConfig:    cfg.MLGateConfig(),
				Periods:     indicators.DefaultPeriods(),
				Concurrency: concurrency,
				RatePerSec:  ratePerSec,
				Logger:      log.Logger,
				Backtest: engine.BacktestWindows{
					TrainMonths:     cfg.Backtest.TrainMonths,
					TestMonths:      cfg.Backtest.TestMonths,
					StepMonths:      cfg.Backtest.StepMonths,
					MinTrainSignals: cfg.Backtest.MinTrainSignals,
				},
			}

			log.Info().Str("run_id", runID).Strs("symbols", symbols).Msg("starting walk-forward backtest")

			results, err := engine.Run(ctx, opts, histories)
			if err != nil {
				return fmt.Errorf("backtest run: %w", err)
			}

			for _, res := range results {
				if res.Err != nil {
					log.Warn().Str("symbol", res.Symbol).Err(res.Err).Msg("symbol failed")
				}
			}
			for _, skip := range engine.SkippedFolds(results) {
				log.Debug().Str("symbol", skip.Symbol).Int("fold", skip.FoldIndex).Err(skip.Reason).Msg("fold skipped")
			}

			summary := engine.Summarize(results, true)
			log.Info().
				Int("trades", summary.Count).
				Float64("win_rate", summary.WinRate).
				Float64("profit_factor", summary.ProfitFactor).
				Float64("sharpe", summary.Sharpe).
				Float64("max_drawdown", summary.MaxDrawdown).
				Msg("backtest complete")

			return writeSummary(output, runID, summary)
		},
	}

	cmd.Flags().StringSliceVar(&symbols, "symbol", nil, "symbol(s) to backtest (repeatable, e.g. --symbol PETR4 --symbol VALE3)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "maximum number of symbols processed in parallel")
	cmd.Flags().Float64Var(&ratePerSec, "rate", 0, "maximum per-symbol task dispatch rate per second (0 disables throttling)")
	cmd.Flags().StringVar(&runID, "run-id", "", "identifier written into the JSON summary report (random UUID if unset)")
	cmd.Flags().StringVar(&output, "output", "", "path to write the JSON summary report (stdout if unset)")

	return cmd
}

func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFromFile(path)
}

// loadHistories fetches both the trigger (60m) and daily bar series for
// every requested symbol over the full available history, letting
// engine.BuildFolds decide how much of it any given walk-forward window
// can actually use. A symbol whose bars fail to load (e.g. a
// wavecore.DataIntegrityError surfaced from the CSVSource) is excluded
// from the returned histories and reported back in the failures map,
// instead of aborting the whole multi-symbol run — engine.Run's own
// per-symbol warn-and-continue loop never gets a chance to isolate a
// failure that already aborted loading.
func loadHistories(ctx context.Context, source marketdata.BarSource, symbols []string) ([]engine.SymbolHistory, map[string]error) {
	from := time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Now().UTC()

	histories := make([]engine.SymbolHistory, 0, len(symbols))
	failures := make(map[string]error)
	for _, sym := range symbols {
		trigger, err := source.LoadBars(ctx, sym, bar.Timeframe60m, from, to)
		if err != nil {
			failures[sym] = fmt.Errorf("load trigger bars: %w", err)
			continue
		}
		daily, err := source.LoadBars(ctx, sym, bar.TimeframeDaily, from, to)
		if err != nil {
			failures[sym] = fmt.Errorf("load daily bars: %w", err)
			continue
		}
		histories = append(histories, engine.SymbolHistory{Symbol: sym, Trigger: trigger, Daily: daily})
	}
	return histories, failures
}

func writeSummary(path, runID string, summary interface{}) error {
	report := struct {
		RunID   string      `json:"run_id"`
		Summary interface{} `json:"summary"`
	}{RunID: runID, Summary: summary}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	if path == "" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if !strings.HasSuffix(path, ".json") {
		path += ".json"
	}
	return os.WriteFile(path, data, 0o644)
}
