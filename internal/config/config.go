// Package config loads and validates spec.md §6's configuration surface,
// grounded on internal/config/regime/weights.go's load-then-validate
// pattern: read YAML, unmarshal into a typed struct, validate every field
// before any caller can see it, and fail fast on load.
package config

import (
	"fmt"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/b3quant/wave3/internal/domain/mlgate"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// Config is the complete spec.md §6 configuration surface.
type Config struct {
	Strategy StrategyConfig `yaml:"strategy"`
	ML       MLConfig       `yaml:"ml"`
	Backtest BacktestConfig `yaml:"backtest"`
	Data     DataConfig     `yaml:"data"`
}

// DataConfig covers spec.md §3's bar-loading boundary.
type DataConfig struct {
	// MaxGapMinutes bounds the largest allowed gap between consecutive
	// bars a BarSource hands to bar.NewSeries (spec.md §4.5's "excessive
	// gap" condition). Zero disables the check.
	MaxGapMinutes int `yaml:"max_gap_minutes"`
}

// StrategyConfig covers spec.md §6's "strategy." fields.
type StrategyConfig struct {
	// PullbackBars is the required K-bar pullback count (SPEC_FULL.md
	// §12): documented defaults are 17 for a daily-native trigger, 68 for
	// a 60m-native trigger, but it is never inferred from the trigger
	// Series' own Timeframe — a misconfigured value fails loudly via
	// Validate, not by guessing from the bar data.
	PullbackBars        int              `yaml:"pullback_bars"`
	MinQualityScore     float64          `yaml:"min_quality_score"`
	TargetLadder        []TargetRungYAML `yaml:"target_ladder"`
	TrailingActivationR float64          `yaml:"trailing_activation_r"`
	TrailingATRMultiple float64          `yaml:"trailing_atr_multiple"`
	MaxHoldingBars      int              `yaml:"max_holding_bars"`
	VolumeMultiple      float64          `yaml:"volume_multiple"`
}

// TargetRungYAML mirrors wave3.TargetRung in YAML-serializable form.
type TargetRungYAML struct {
	RewardMultiple     float64 `yaml:"reward_multiple"`
	FractionOfPosition float64 `yaml:"fraction"`
}

// MLConfig covers spec.md §6's "ml." fields.
type MLConfig struct {
	Enabled               bool    `yaml:"enabled"`
	ModelFamily           string  `yaml:"model_family"`
	Threshold             float64 `yaml:"threshold"`
	UseSMOTELikeRebalance bool    `yaml:"use_smote_like_rebalance"`
	ProfitLabelThreshold  float64 `yaml:"profit_label_threshold"`
}

// BacktestConfig covers spec.md §6's "backtest." fields.
type BacktestConfig struct {
	TrainMonths     int `yaml:"train_months"`
	TestMonths      int `yaml:"test_months"`
	StepMonths      int `yaml:"step_months"`
	MinTrainSignals int `yaml:"min_train_signals"`
	EntryMode       string `yaml:"entry_mode"`
}

// Default mirrors the defaults documented throughout spec.md §4 and §6.
func Default() Config {
	return Config{
		Strategy: StrategyConfig{
			PullbackBars:    68,
			MinQualityScore: 55,
			TargetLadder: []TargetRungYAML{
				{RewardMultiple: 1.0, FractionOfPosition: 0.5},
				{RewardMultiple: 1.5, FractionOfPosition: 0.3},
				{RewardMultiple: 2.5, FractionOfPosition: 0.2},
			},
			TrailingActivationR: 0.75,
			TrailingATRMultiple: 2.0,
			MaxHoldingBars:      30,
			VolumeMultiple:      1.15,
		},
		ML: MLConfig{
			Enabled:               true,
			ModelFamily:           string(mlgate.FamilyTreeEnsemble),
			Threshold:             0.6,
			UseSMOTELikeRebalance: true,
			ProfitLabelThreshold:  0.02,
		},
		Backtest: BacktestConfig{
			TrainMonths:     12,
			TestMonths:      3,
			StepMonths:      3,
			MinTrainSignals: 30,
			EntryMode:       string(simulator.EntryTriggerBarClose),
		},
		Data: DataConfig{
			// 5 calendar days: tolerates a long weekend plus one B3
			// holiday between consecutive 60m/daily bars without
			// masking a genuinely missing multi-week stretch of history.
			MaxGapMinutes: 7200,
		},
	}
}

// LoadFromFile reads and validates a YAML configuration file, failing
// fast with a wavecore.ConfigurationError on any invariant violation
// (spec.md §7: configuration errors are fatal at startup, never silently
// coerced).
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse YAML config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every invariant spec.md §6 and §7 require before the
// configuration can be used to build a Detector/Gate/Simulator/Backtester.
func (c Config) Validate() error {
	if c.Strategy.PullbackBars <= 0 {
		return &wavecore.ConfigurationError{Field: "strategy.pullback_bars", Reason: "must be positive"}
	}
	if c.Strategy.MinQualityScore < 0 || c.Strategy.MinQualityScore > 100 {
		return &wavecore.ConfigurationError{Field: "strategy.min_quality_score", Reason: "must be within [0, 100]"}
	}
	if err := validateLadder(c.Strategy.TargetLadder); err != nil {
		return err
	}
	if c.Strategy.TrailingActivationR < 0.5 || c.Strategy.TrailingActivationR > 2.0 {
		return &wavecore.ConfigurationError{Field: "strategy.trailing_activation_r", Reason: "must be within [0.5, 2.0]"}
	}
	if c.Strategy.TrailingATRMultiple <= 0 {
		return &wavecore.ConfigurationError{Field: "strategy.trailing_atr_multiple", Reason: "must be positive"}
	}
	if c.Strategy.MaxHoldingBars <= 0 {
		return &wavecore.ConfigurationError{Field: "strategy.max_holding_bars", Reason: "must be positive"}
	}
	if c.Strategy.VolumeMultiple <= 0 {
		return &wavecore.ConfigurationError{Field: "strategy.volume_multiple", Reason: "must be positive"}
	}

	if c.ML.Enabled {
		if c.ML.Threshold < 0.5 || c.ML.Threshold > 0.95 {
			return &wavecore.ConfigurationError{Field: "ml.threshold", Reason: "must be within [0.5, 0.95]"}
		}
		switch mlgate.ModelFamily(c.ML.ModelFamily) {
		case mlgate.FamilyTreeEnsemble, mlgate.FamilyGradientBoosted:
		default:
			return &wavecore.ConfigurationError{Field: "ml.model_family", Reason: "must be tree_ensemble or gradient_boosted"}
		}
		if c.ML.ProfitLabelThreshold <= 0 {
			return &wavecore.ConfigurationError{Field: "ml.profit_label_threshold", Reason: "must be positive"}
		}
	}

	if c.Backtest.TrainMonths <= 0 {
		return &wavecore.ConfigurationError{Field: "backtest.train_months", Reason: "must be positive"}
	}
	if c.Backtest.TestMonths <= 0 {
		return &wavecore.ConfigurationError{Field: "backtest.test_months", Reason: "must be positive"}
	}
	if c.Backtest.StepMonths <= 0 {
		return &wavecore.ConfigurationError{Field: "backtest.step_months", Reason: "must be positive"}
	}
	if c.Backtest.MinTrainSignals < 0 {
		return &wavecore.ConfigurationError{Field: "backtest.min_train_signals", Reason: "must not be negative"}
	}
	switch simulator.EntryMode(c.Backtest.EntryMode) {
	case simulator.EntryTriggerBarClose, simulator.EntryNextBarOpen:
	default:
		return &wavecore.ConfigurationError{Field: "backtest.entry_mode", Reason: "must be trigger_bar_close or next_bar_open"}
	}

	if c.Data.MaxGapMinutes < 0 {
		return &wavecore.ConfigurationError{Field: "data.max_gap_minutes", Reason: "must not be negative"}
	}

	return nil
}

func validateLadder(rungs []TargetRungYAML) error {
	if len(rungs) == 0 {
		return &wavecore.ConfigurationError{Field: "strategy.target_ladder", Reason: "must define at least one rung"}
	}
	sum := 0.0
	prevMultiple := 0.0
	for i, r := range rungs {
		if r.RewardMultiple <= prevMultiple {
			return &wavecore.ConfigurationError{Field: "strategy.target_ladder", Reason: fmt.Sprintf("rung %d reward multiple must strictly increase", i)}
		}
		if r.FractionOfPosition <= 0 || r.FractionOfPosition > 1 {
			return &wavecore.ConfigurationError{Field: "strategy.target_ladder", Reason: fmt.Sprintf("rung %d fraction must be within (0, 1]", i)}
		}
		sum += r.FractionOfPosition
		prevMultiple = r.RewardMultiple
	}
	if math.Abs(sum-1.0) > 1e-6 {
		return &wavecore.ConfigurationError{Field: "strategy.target_ladder", Reason: fmt.Sprintf("fractions must sum to 1.0, got %v", sum)}
	}
	return nil
}

// TargetRungs converts the YAML ladder into wave3.TargetRung values.
func (c Config) TargetRungs() []wave3.TargetRung {
	out := make([]wave3.TargetRung, len(c.Strategy.TargetLadder))
	for i, r := range c.Strategy.TargetLadder {
		out[i] = wave3.TargetRung{RewardMultiple: r.RewardMultiple, FractionOfPosition: r.FractionOfPosition}
	}
	return out
}

// WaveConfig maps this configuration onto wave3.Config.
func (c Config) WaveConfig() wave3.Config {
	cfg := wave3.DefaultConfig()
	cfg.PullbackBars = c.Strategy.PullbackBars
	cfg.MinQualityScore = c.Strategy.MinQualityScore
	cfg.VolumeSurgeMultiple = c.Strategy.VolumeMultiple
	cfg.TargetRungs = c.TargetRungs()
	return cfg
}

// MaxBarGap maps Data.MaxGapMinutes onto the time.Duration bar.NewSeries
// expects, for a BarSource to pass through to its series construction.
func (c Config) MaxBarGap() time.Duration {
	return time.Duration(c.Data.MaxGapMinutes) * time.Minute
}

// SimulatorConfig maps this configuration onto simulator.Config.
func (c Config) SimulatorConfig() simulator.Config {
	return simulator.Config{
		BreakevenActivationR: c.Strategy.TrailingActivationR,
		TrailingATRMultiple:  c.Strategy.TrailingATRMultiple,
		MaxHoldingBars:       c.Strategy.MaxHoldingBars,
		EntryMode:            simulator.EntryMode(c.Backtest.EntryMode),
	}
}

// MLGateConfig maps this configuration onto mlgate.Config.
func (c Config) MLGateConfig() mlgate.Config {
	cfg := mlgate.DefaultConfig()
	cfg.Enabled = c.ML.Enabled
	cfg.Family = mlgate.ModelFamily(c.ML.ModelFamily)
	cfg.Threshold = c.ML.Threshold
	cfg.UseSMOTELikeRebalance = c.ML.UseSMOTELikeRebalance
	cfg.ProfitLabelThreshold = c.ML.ProfitLabelThreshold
	return cfg
}
