package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/features"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/marketdata"
)

// newSignalsCmd runs the Wave3 Detector live, over whatever history is
// available right now, and emits every Candidate Signal it finds as one
// JSON line per signal — the live counterpart of backtest run's
// evaluateTestWindow, minus the ML Gate and trade simulation.
func newSignalsCmd() *cobra.Command {
	var symbols []string
	var lookbackDays int

	cmd := &cobra.Command{
		Use:   "signals",
		Short: "Signal generation commands",
	}

	emit := &cobra.Command{
		Use:   "emit",
		Short: "Emit the current Candidate Signals for one or more symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(symbols) == 0 {
				return fmt.Errorf("at least one --symbol is required")
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")

			ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
			defer cancel()

			cfgPath, _ := cmd.Flags().GetString("config")
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			csvSrc := marketdata.NewCSVSource(dataDir)
			csvSrc.MaxGap = cfg.MaxBarGap()
			source := marketdata.NewBreaker("csv", csvSrc)
			to := time.Now().UTC()
			from := to.AddDate(0, 0, -lookbackDays)

			periods := indicators.DefaultPeriods()
			waveCfg := cfg.WaveConfig()
			weights := wave3.DefaultWeights()

			enc := json.NewEncoder(os.Stdout)
			total := 0
			for _, sym := range symbols {
				count, err := emitSymbolSignals(ctx, source, sym, from, to, periods, waveCfg, weights, enc)
				if err != nil {
					log.Warn().Str("symbol", sym).Err(err).Msg("signal emission failed")
					continue
				}
				total += count
			}
			log.Info().Int("signals", total).Msg("signal emission complete")
			return nil
		},
	}
	emit.Flags().StringSliceVar(&symbols, "symbol", nil, "symbol(s) to scan (repeatable)")
	emit.Flags().IntVar(&lookbackDays, "lookback-days", 400, "how much trailing history to load before scanning")

	cmd.AddCommand(emit)
	return cmd
}

func emitSymbolSignals(ctx context.Context, source marketdata.BarSource, symbol string, from, to time.Time,
	periods indicators.Periods, waveCfg wave3.Config, weights wave3.Weights, enc *json.Encoder) (int, error) {

	trigger, err := source.LoadBars(ctx, symbol, bar.Timeframe60m, from, to)
	if err != nil {
		return 0, fmt.Errorf("load trigger bars: %w", err)
	}
	daily, err := source.LoadBars(ctx, symbol, bar.TimeframeDaily, from, to)
	if err != nil {
		return 0, fmt.Errorf("load daily bars: %w", err)
	}
	if trigger.Len() == 0 {
		return 0, fmt.Errorf("no trigger bars in range")
	}

	triggerTable := indicators.Build(trigger, periods)
	dailyTable := indicators.Build(daily, periods)
	builder := features.NewBuilder(trigger, triggerTable, daily, dailyTable, periods)
	detector := wave3.NewDetector(waveCfg, weights, builder)

	count := 0
	for i := 0; i < trigger.Len(); i++ {
		sig, ok := detector.DetectAt(trigger, triggerTable, daily, dailyTable, i, false)
		if !ok {
			continue
		}
		if err := enc.Encode(sig); err != nil {
			return count, fmt.Errorf("encode signal: %w", err)
		}
		count++
	}
	return count, nil
}
