package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/features"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/mlgate"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/marketdata"
	"github.com/b3quant/wave3/internal/store/modelcache"
)

// newModelCmd trains an ML Gate over a window of history and saves it to
// the Model Store, the standalone counterpart of the label/train step
// engine.collectTrainingSamples/buildGate perform inline per fold.
func newModelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "model",
		Short: "ML Gate model commands",
	}
	cmd.AddCommand(newModelTrainCmd())
	return cmd
}

func newModelTrainCmd() *cobra.Command {
	var symbol string
	var modelID string
	var trainDays int
	var seed int64

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train an ML Gate over a symbol's trailing history and persist it to the Model Store",
		RunE: func(cmd *cobra.Command, args []string) error {
			if symbol == "" {
				return fmt.Errorf("--symbol is required")
			}
			if modelID == "" {
				modelID = symbol
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")
			cfgPath, _ := cmd.Flags().GetString("config")

			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}
			if !cfg.ML.Enabled {
				return fmt.Errorf("ml.enabled is false in the active configuration; nothing to train")
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Minute)
			defer cancel()

			csvSrc := marketdata.NewCSVSource(dataDir)
			csvSrc.MaxGap = cfg.MaxBarGap()
			source := marketdata.NewBreaker("csv", csvSrc)
			to := time.Now().UTC()
			from := to.AddDate(0, 0, -trainDays)

			trigger, err := source.LoadBars(ctx, symbol, bar.Timeframe60m, from, to)
			if err != nil {
				return fmt.Errorf("load trigger bars: %w", err)
			}
			daily, err := source.LoadBars(ctx, symbol, bar.TimeframeDaily, from, to)
			if err != nil {
				return fmt.Errorf("load daily bars: %w", err)
			}

			periods := indicators.DefaultPeriods()
			triggerTable := indicators.Build(trigger, periods)
			dailyTable := indicators.Build(daily, periods)
			builder := features.NewBuilder(trigger, triggerTable, daily, dailyTable, periods)
			detector := wave3.NewDetector(cfg.WaveConfig(), wave3.DefaultWeights(), builder)
			simCfg := cfg.SimulatorConfig()

			samples, schema := collectSamples(trigger, daily, triggerTable, dailyTable, detector, builder, simCfg, cfg.MLGateConfig())
			if len(samples) < cfg.Backtest.MinTrainSignals {
				return fmt.Errorf("only %d training samples found, need at least %d (backtest.min_train_signals)", len(samples), cfg.Backtest.MinTrainSignals)
			}

			gate, err := mlgate.Train(samples, mlgate.Schema(schema), cfg.MLGateConfig(), seed)
			if err != nil {
				return fmt.Errorf("train gate: %w", err)
			}

			modelBytes, err := json.Marshal(gate)
			if err != nil {
				return fmt.Errorf("serialize trained gate: %w", err)
			}

			store := modelcache.NewAuto(0)
			entry := modelcache.Entry{
				ModelBytes: modelBytes,
				Schema:     schema,
				Metadata: modelcache.Metadata{
					TrainedAt:        time.Now().UTC(),
					TrainWindowStart: from,
					TrainWindowEnd:   to,
					TargetDefinition: fmt.Sprintf("return_pct >= %.4f", cfg.ML.ProfitLabelThreshold),
					Hyperparameters:  map[string]string{"family": string(cfg.ML.ModelFamily), "seed": fmt.Sprintf("%d", seed)},
					Metrics:          map[string]float64{"train_samples": float64(len(samples))},
				},
			}
			if err := store.Save(ctx, modelID, entry); err != nil {
				return fmt.Errorf("save model %s: %w", modelID, err)
			}

			log.Info().Str("model_id", modelID).Int("samples", len(samples)).Msg("model trained and saved")
			return nil
		},
	}

	cmd.Flags().StringVar(&symbol, "symbol", "", "symbol to train over")
	cmd.Flags().StringVar(&modelID, "model-id", "", "Model Store identifier (defaults to --symbol)")
	cmd.Flags().IntVar(&trainDays, "train-days", 365, "trailing calendar days of history to train over")
	cmd.Flags().Int64Var(&seed, "seed", 1, "deterministic RNG seed for SMOTE-like rebalancing and model fitting")

	return cmd
}

// collectSamples walks the full loaded history once, labeling every
// Candidate Signal by simulating its realized outcome — the same
// single-open-position suppression rule engine.collectTrainingSamples
// applies per fold, used here over one flat window instead.
func collectSamples(trigger, daily bar.Series, triggerTable, dailyTable *indicators.Table, detector *wave3.Detector,
	builder *features.Builder, simCfg simulator.Config, mlCfg mlgate.Config) ([]mlgate.Sample, []string) {

	var samples []mlgate.Sample
	openUntil := -1
	for i := 0; i < trigger.Len(); i++ {
		hasOpen := i <= openUntil
		sig, ok := detector.DetectAt(trigger, triggerTable, daily, dailyTable, i, hasOpen)
		if !ok {
			continue
		}
		trade, err := simulator.Simulate(simCfg, sig, trigger, triggerTable, func(triggerIdx int) bool {
			if triggerIdx < 0 || triggerIdx >= trigger.Len() {
				return false
			}
			j, ok := daily.At(trigger.Bars[triggerIdx].Timestamp)
			if !ok {
				return false
			}
			ctx := wave3.DailyContextAt(daily, dailyTable, j)
			return ctx.IsContext && ctx.Direction != sig.Direction
		})
		if err != nil {
			continue
		}
		label := 0
		if trade.ReturnPct >= mlCfg.ProfitLabelThreshold {
			label = 1
		}
		samples = append(samples, mlgate.Sample{Features: sig.FeatureValues, Label: label})
		if len(trade.Fills) > 0 {
			openUntil = trade.Fills[len(trade.Fills)-1].BarIndex
		} else {
			openUntil = i
		}
	}
	return samples, builder.Schema()
}
