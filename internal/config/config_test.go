package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultPassesValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
}

func TestValidateRejectsNonSummingLadder(t *testing.T) {
	cfg := Default()
	cfg.Strategy.TargetLadder = []TargetRungYAML{
		{RewardMultiple: 1.0, FractionOfPosition: 0.5},
		{RewardMultiple: 1.5, FractionOfPosition: 0.3},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for fractions summing to 0.8")
	}
}

func TestValidateRejectsNonIncreasingRewardMultiples(t *testing.T) {
	cfg := Default()
	cfg.Strategy.TargetLadder = []TargetRungYAML{
		{RewardMultiple: 1.5, FractionOfPosition: 0.5},
		{RewardMultiple: 1.0, FractionOfPosition: 0.5},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for non-increasing reward multiples")
	}
}

func TestValidateRejectsOutOfRangeMLThreshold(t *testing.T) {
	cfg := Default()
	cfg.ML.Threshold = 0.99
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for ml.threshold above 0.95")
	}
}

func TestValidateRejectsUnknownModelFamily(t *testing.T) {
	cfg := Default()
	cfg.ML.ModelFamily = "neural_net"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for unsupported model family")
	}
}

func TestValidateRejectsUnknownEntryMode(t *testing.T) {
	cfg := Default()
	cfg.Backtest.EntryMode = "mid_bar"
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for unsupported entry mode")
	}
}

func TestValidateRejectsNonPositivePullbackBars(t *testing.T) {
	cfg := Default()
	cfg.Strategy.PullbackBars = 0
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for a non-positive pullback_bars")
	}
}

func TestValidateRejectsNegativeMaxGap(t *testing.T) {
	cfg := Default()
	cfg.Data.MaxGapMinutes = -1
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected ConfigurationError for a negative max_gap_minutes")
	}
}

func TestWaveConfigCarriesPullbackBars(t *testing.T) {
	cfg := Default()
	cfg.Strategy.PullbackBars = 42
	if got := cfg.WaveConfig().PullbackBars; got != 42 {
		t.Fatalf("WaveConfig().PullbackBars = %d, want 42", got)
	}
}

func TestMaxBarGapConvertsMinutesToDuration(t *testing.T) {
	cfg := Default()
	cfg.Data.MaxGapMinutes = 120
	if got, want := cfg.MaxBarGap(), 2*time.Hour; got != want {
		t.Fatalf("MaxBarGap() = %v, want %v", got, want)
	}
}

func TestLoadFromFileRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wave3.yaml")
	contents := `
strategy:
  pullback_bars: 68
  min_quality_score: 60
  target_ladder:
    - reward_multiple: 1.0
      fraction: 0.5
    - reward_multiple: 1.5
      fraction: 0.3
    - reward_multiple: 2.5
      fraction: 0.2
  trailing_activation_r: 0.75
  trailing_atr_multiple: 2.0
  max_holding_bars: 30
  volume_multiple: 1.15
ml:
  enabled: true
  model_family: tree_ensemble
  threshold: 0.65
  use_smote_like_rebalance: true
  profit_label_threshold: 0.02
backtest:
  train_months: 12
  test_months: 3
  step_months: 3
  min_train_signals: 30
  entry_mode: trigger_bar_close
data:
  max_gap_minutes: 7200
`
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Strategy.MinQualityScore != 60 {
		t.Fatalf("min_quality_score = %v, want 60", cfg.Strategy.MinQualityScore)
	}
	if cfg.Strategy.PullbackBars != 68 {
		t.Fatalf("pullback_bars = %v, want 68", cfg.Strategy.PullbackBars)
	}
	if cfg.ML.Threshold != 0.65 {
		t.Fatalf("ml.threshold = %v, want 0.65", cfg.ML.Threshold)
	}
	if cfg.Data.MaxGapMinutes != 7200 {
		t.Fatalf("data.max_gap_minutes = %v, want 7200", cfg.Data.MaxGapMinutes)
	}
}

func TestLoadFromFileMissingFileErrors(t *testing.T) {
	if _, err := LoadFromFile("/nonexistent/wave3.yaml"); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
