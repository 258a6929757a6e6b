package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	appName = "wave3"
	version = "v0.1.0"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:     appName,
		Short:   "Wave3 research and backtesting CLI for B3 equities",
		Version: version,
		Long: `wave3 runs the Wave3 multi-timeframe pullback-then-reclaim
strategy, its ML-gated variant, and its walk-forward backtester over
B3 equity bar data.`,
	}

	rootCmd.PersistentFlags().String("config", "", "path to a wave3 YAML configuration file (uses documented defaults if unset)")
	rootCmd.PersistentFlags().String("data-dir", "./data", "root directory of <symbol>/<timeframe>.csv bar files")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug|info|warn|error)")

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		level, _ := cmd.Flags().GetString("log-level")
		lvl, err := zerolog.ParseLevel(level)
		if err != nil {
			lvl = zerolog.InfoLevel
		}
		zerolog.SetGlobalLevel(lvl)
	}

	rootCmd.AddCommand(newBacktestCmd())
	rootCmd.AddCommand(newSignalsCmd())
	rootCmd.AddCommand(newModelCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("wave3 command failed")
		os.Exit(1)
	}
}
