package wave3

import "time"

// Direction is long or short, the two mirrored sides of the Wave3 setup.
type Direction string

const (
	Long  Direction = "long"
	Short Direction = "short"
)

// DailyContext is the daily-timeframe trend classification spec.md §4.3
// requires before any trigger can fire.
type DailyContext struct {
	Direction      Direction
	IsContext      bool // false when neither uptrend nor downtrend holds
	EMAFast        float64
	EMASlow        float64
	Close          float64
	RegimeChangedAt time.Time // supplemented field, SPEC_FULL.md §10; DailyContextAt leaves it zero
}

// Confirmations records which of the eight documented quality-score
// contributors fired, so a rejected (or accepted) signal carries a full
// attribution trail — the gate-score-attribution feature supplemented from
// internal/backtest/march_aug/gates.go (SPEC_FULL.md §10).
type Confirmations struct {
	MACDAligned       bool
	RSIFavorableZone  bool
	ADXAboveThreshold bool
	ATRAboveOwnMean   bool
	VolumeSurge       bool
	CandleConfirms    bool
	DailyTrendStrong  bool
	NoAdverseDivergence bool
}

// Weights assigns a point value to each confirmation; the *set* of
// contributors is fixed by spec.md §4.3, but the weights are tunable
// configuration.
type Weights struct {
	MACDAligned         float64
	RSIFavorableZone    float64
	ADXAboveThreshold   float64
	ATRAboveOwnMean     float64
	VolumeSurge         float64
	CandleConfirms      float64
	DailyTrendStrong    float64
	NoAdverseDivergence float64
}

// DefaultWeights mirrors spec.md §4.3's documented default weights.
func DefaultWeights() Weights {
	return Weights{
		MACDAligned:         15,
		RSIFavorableZone:    15,
		ADXAboveThreshold:   10,
		ATRAboveOwnMean:     10,
		VolumeSurge:         15,
		CandleConfirms:      10,
		DailyTrendStrong:    10,
		NoAdverseDivergence: 15,
	}
}

// Score sums the weighted contribution of every confirmation that fired,
// clamped to [0, 100].
func (c Confirmations) Score(w Weights) float64 {
	total := 0.0
	if c.MACDAligned {
		total += w.MACDAligned
	}
	if c.RSIFavorableZone {
		total += w.RSIFavorableZone
	}
	if c.ADXAboveThreshold {
		total += w.ADXAboveThreshold
	}
	if c.ATRAboveOwnMean {
		total += w.ATRAboveOwnMean
	}
	if c.VolumeSurge {
		total += w.VolumeSurge
	}
	if c.CandleConfirms {
		total += w.CandleConfirms
	}
	if c.DailyTrendStrong {
		total += w.DailyTrendStrong
	}
	if c.NoAdverseDivergence {
		total += w.NoAdverseDivergence
	}
	if total > 100 {
		total = 100
	}
	if total < 0 {
		total = 0
	}
	return total
}

// CandidateSignal is the Wave3 Signal Engine's output: a fully priced,
// scored setup, not yet passed through the ML Gate or simulated.
type CandidateSignal struct {
	Symbol        string
	Direction     Direction
	TriggerIdx    int
	SignalTime    time.Time
	EntryPrice    float64
	InitialStop   float64
	QualityScore  float64
	Confirmations Confirmations
	TargetRungs   []TargetRung
	DailyContext  DailyContext

	// FeatureNames/FeatureValues carry the feature vector the signal was
	// detected from, in the Feature Builder's fixed ordering, so the ML
	// Gate can consume it without recomputing anything.
	FeatureNames  []string
	FeatureValues []float64
}

// R returns the risk-per-unit (|entry - stop|) the target ladder's reward
// multiples are measured against.
func (c CandidateSignal) R() float64 {
	r := c.EntryPrice - c.InitialStop
	if r < 0 {
		r = -r
	}
	return r
}
