// Package wave3 implements the Wave3 Signal Engine: multi-timeframe
// detection of the "Wave 3" pullback-then-reclaim setup, its 0-100 quality
// score, and the resulting Candidate Signal (spec.md §4.3).
package wave3

// Config holds every tunable named in spec.md §4.3. Defaults mirror the
// spec's documented defaults; every field is a required, explicit
// configuration value — none is inferred from timeframe, per SPEC_FULL.md
// §12's pinned Open Question decision.
type Config struct {
	// PullbackBars is K: the minimum consecutive trigger-timeframe bars
	// that must have traded at or below (long) / above (short) the
	// trigger EMA17 during the pullback.
	PullbackBars int

	// ZoneTolerancePct bounds how far the trigger close may sit from the
	// trigger-timeframe EMA17 at the moment of the signal, expressed as a
	// fraction of price (e.g. 0.01 = 1%).
	ZoneTolerancePct float64
	// ZoneToleranceATRMult, when > 0, uses a multiple of trigger ATR14
	// instead of a flat percentage; ATR-relative tolerance takes
	// precedence over ZoneTolerancePct when both are set.
	ZoneToleranceATRMult float64

	MinQualityScore float64 // default 55

	// ADXThreshold is the minimum trigger-timeframe ADX counted toward the
	// quality score.
	ADXThreshold float64 // default 20

	// VolumeSurgeMultiple is the minimum trigger-bar volume / rolling mean
	// ratio counted toward the quality score (default band 1.05-1.3x; a
	// single configured value within that band).
	VolumeSurgeMultiple float64

	// RSILongLow/RSILongHigh bound the "non-extreme favorable" RSI zone
	// for longs (default 40-70); shorts use the mirrored complement
	// (100-RSILongHigh, 100-RSILongLow).
	RSILongLow, RSILongHigh float64

	// MinCandleBodyPct is the minimum body-to-range ratio for the
	// price-action confirmation.
	MinCandleBodyPct float64

	// TargetRungs is the three-rung ladder of (fraction_of_position,
	// reward_multiple), default {(0.5,1.0), (0.3,1.5), (0.2,2.5)}.
	TargetRungs []TargetRung

	// SuppressWhileOpen, when true (the default), blocks a new Candidate
	// Signal for a symbol that already has an open position.
	SuppressWhileOpen bool
}

// TargetRung is one rung of the target ladder: FractionOfPosition is the
// share of the *original* position size closed when RewardMultiple * R is
// reached.
type TargetRung struct {
	FractionOfPosition float64
	RewardMultiple     float64
}

// DefaultConfig returns spec.md §4.3's documented defaults.
func DefaultConfig() Config {
	return Config{
		PullbackBars:         17,
		ZoneTolerancePct:     0.01,
		ZoneToleranceATRMult: 0,
		MinQualityScore:      55,
		ADXThreshold:         20,
		VolumeSurgeMultiple:  1.15,
		RSILongLow:           40,
		RSILongHigh:          70,
		MinCandleBodyPct:     0.3,
		TargetRungs: []TargetRung{
			{FractionOfPosition: 0.5, RewardMultiple: 1.0},
			{FractionOfPosition: 0.3, RewardMultiple: 1.5},
			{FractionOfPosition: 0.2, RewardMultiple: 2.5},
		},
		SuppressWhileOpen: true,
	}
}

// PullbackBarsFor returns the configured K for the given native timeframe,
// per SPEC_FULL.md §12: 17 for a daily-native trigger, 68 (~17x4) for a
// 60-minute-native trigger. It never infers from the Series' own
// Timeframe field silently — callers must pass the mode explicitly, so
// nothing is guessed.
func PullbackBarsFor(dailyNative bool) int {
	if dailyNative {
		return 17
	}
	return 68
}
