package wave3

import (
	"math"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/features"
	"github.com/b3quant/wave3/internal/domain/indicators"
)

// DailyContextAt classifies the daily trend context at daily index j
// (spec.md §4.3's Context rules).
func DailyContextAt(dailySeries bar.Series, dailyTable *indicators.Table, j int) DailyContext {
	emaFast := dailyTable.At(indicators.ColEMAFast, j)
	emaSlow := dailyTable.At(indicators.ColEMASlow, j)
	close := math.NaN()
	if j >= 0 && j < dailySeries.Len() {
		close = dailySeries.Bars[j].Close
	}

	ctx := DailyContext{EMAFast: emaFast, EMASlow: emaSlow, Close: close}
	switch {
	case isValid3(emaFast, emaSlow, close) && emaFast > emaSlow && close > emaFast:
		ctx.Direction = Long
		ctx.IsContext = true
	case isValid3(emaFast, emaSlow, close) && emaFast < emaSlow && close < emaFast:
		ctx.Direction = Short
		ctx.IsContext = true
	}
	return ctx
}

func isValid3(a, b, c float64) bool {
	return !math.IsNaN(a) && !math.IsNaN(b) && !math.IsNaN(c)
}

// Detector runs the Wave3 Signal Engine over a trigger-timeframe series
// with its aligned daily-timeframe series, producing Candidate Signals.
type Detector struct {
	cfg     Config
	weights Weights
	builder *features.Builder
}

// NewDetector constructs a Detector. builder must already be wired to the
// same trigger/daily Table pair the Detector is given.
func NewDetector(cfg Config, weights Weights, builder *features.Builder) *Detector {
	return &Detector{cfg: cfg, weights: weights, builder: builder}
}

// DetectAt evaluates the trigger bar at index i and returns a
// CandidateSignal if the Wave3 setup fires there. hasOpenPosition lets the
// caller (the Walk-Forward Backtester / Trade Simulator) enforce the
// single-open-position-per-symbol suppression rule without the Detector
// needing to track position state itself.
func (d *Detector) DetectAt(triggerSeries bar.Series, triggerTable *indicators.Table, dailySeries bar.Series, dailyTable *indicators.Table, i int, hasOpenPosition bool) (CandidateSignal, bool) {
	if d.cfg.SuppressWhileOpen && hasOpenPosition {
		return CandidateSignal{}, false
	}
	if i < d.cfg.PullbackBars || i >= triggerSeries.Len() {
		return CandidateSignal{}, false
	}

	vec, ok := d.builder.BuildAt(i)
	if !ok || vec.HasWarmupGap() {
		return CandidateSignal{}, false
	}

	dailyIdx := vec.DailyIdx
	ctx := DailyContextAt(dailySeries, dailyTable, dailyIdx)
	if !ctx.IsContext {
		return CandidateSignal{}, false
	}

	emaFast := triggerTable.At(indicators.ColEMAFast, i)
	if math.IsNaN(emaFast) {
		return CandidateSignal{}, false
	}

	triggered, swingLevel := d.checkTrigger(triggerSeries, triggerTable, i, ctx.Direction)
	if !triggered {
		return CandidateSignal{}, false
	}

	close := triggerSeries.Bars[i].Close
	if !d.inZone(close, emaFast, triggerTable, i) {
		return CandidateSignal{}, false
	}

	confirmations := d.confirmations(triggerSeries, triggerTable, dailySeries, dailyTable, i, dailyIdx, ctx.Direction)
	score := confirmations.Score(d.weights)
	if score < d.cfg.MinQualityScore {
		return CandidateSignal{}, false
	}

	entry := close
	stop := swingLevel

	return CandidateSignal{
		Symbol:        triggerSeries.Symbol,
		Direction:     ctx.Direction,
		TriggerIdx:    i,
		SignalTime:    triggerSeries.Bars[i].Timestamp,
		EntryPrice:    entry,
		InitialStop:   stop,
		QualityScore:  score,
		Confirmations: confirmations,
		TargetRungs:   append([]TargetRung(nil), d.cfg.TargetRungs...),
		DailyContext:  ctx,
		FeatureNames:  vec.Names,
		FeatureValues: vec.Values,
	}, true
}

// checkTrigger implements spec.md §4.3's pullback-then-reclaim rule: for a
// long, the close must cross above the trigger EMA17 at bar i, having
// traded at or below it for at least PullbackBars consecutive bars
// immediately before i. It returns the swing low (long) / swing high
// (short) observed during that pullback window, which seeds the initial
// stop.
func (d *Detector) checkTrigger(s bar.Series, t *indicators.Table, i int, dir Direction) (bool, float64) {
	ema, ok := t.Get(indicators.ColEMAFast)
	if !ok {
		return false, 0
	}

	cur := s.Bars[i].Close
	prev := s.Bars[i-1].Close
	curEMA, prevEMA := ema[i], ema[i-1]
	if math.IsNaN(curEMA) || math.IsNaN(prevEMA) {
		return false, 0
	}

	k := d.cfg.PullbackBars
	if i-k < 0 {
		return false, 0
	}

	switch dir {
	case Long:
		crossedUp := prev <= prevEMA && cur > curEMA
		if !crossedUp {
			return false, 0
		}
		swingLow := math.Inf(1)
		for j := i - k; j < i; j++ {
			if math.IsNaN(ema[j]) || s.Bars[j].Close > ema[j] {
				return false, 0
			}
			if s.Bars[j].Low < swingLow {
				swingLow = s.Bars[j].Low
			}
		}
		return true, swingLow
	case Short:
		crossedDown := prev >= prevEMA && cur < curEMA
		if !crossedDown {
			return false, 0
		}
		swingHigh := math.Inf(-1)
		for j := i - k; j < i; j++ {
			if math.IsNaN(ema[j]) || s.Bars[j].Close < ema[j] {
				return false, 0
			}
			if s.Bars[j].High > swingHigh {
				swingHigh = s.Bars[j].High
			}
		}
		return true, swingHigh
	}
	return false, 0
}

// inZone implements the tolerance-band "zone condition" (spec.md §4.3):
// the trigger close must sit within a configured band around the trigger
// EMA17, expressed either as a flat percentage of price or as a multiple
// of trigger ATR14 (ATR-relative takes precedence when configured).
func (d *Detector) inZone(close, emaFast float64, t *indicators.Table, i int) bool {
	diff := math.Abs(close - emaFast)
	if d.cfg.ZoneToleranceATRMult > 0 {
		atr := t.At(indicators.ATRColumn(14), i)
		if math.IsNaN(atr) {
			return false
		}
		return diff <= d.cfg.ZoneToleranceATRMult*atr
	}
	return diff <= d.cfg.ZoneTolerancePct*close
}

func (d *Detector) confirmations(triggerSeries bar.Series, triggerTable *indicators.Table, dailySeries bar.Series, dailyTable *indicators.Table, i, dailyIdx int, dir Direction) Confirmations {
	var c Confirmations

	hist := triggerTable.At(indicators.ColMACDHist, i)
	if !math.IsNaN(hist) {
		c.MACDAligned = (dir == Long && hist > 0) || (dir == Short && hist < 0)
	}

	rsi := triggerTable.At(indicators.RSIColumn(14), i)
	if !math.IsNaN(rsi) {
		if dir == Long {
			c.RSIFavorableZone = rsi >= d.cfg.RSILongLow && rsi <= d.cfg.RSILongHigh
		} else {
			c.RSIFavorableZone = rsi >= (100-d.cfg.RSILongHigh) && rsi <= (100-d.cfg.RSILongLow)
		}
	}

	adx := triggerTable.At(indicators.ColADX, i)
	c.ADXAboveThreshold = !math.IsNaN(adx) && adx >= d.cfg.ADXThreshold

	atr := triggerTable.At(indicators.ATRColumn(14), i)
	atrMeanCol, _ := triggerTable.Get(indicators.ATRColumn(14))
	atrMean := indicators.SMA(atrMeanCol, 20)
	if i < len(atrMean) && !math.IsNaN(atr) && !math.IsNaN(atrMean[i]) {
		c.ATRAboveOwnMean = atr > atrMean[i]
	}

	volumes := triggerSeries.Volumes()
	volSMA := indicators.SMA(volumes, 20)
	if i < len(volSMA) && !math.IsNaN(volSMA[i]) && volSMA[i] > 0 {
		c.VolumeSurge = volumes[i] >= d.cfg.VolumeSurgeMultiple*volSMA[i]
	}

	candles := indicators.Candles(triggerSeries)
	body := math.Abs(triggerSeries.Bars[i].Close - triggerSeries.Bars[i].Open)
	rng := triggerSeries.Bars[i].High - triggerSeries.Bars[i].Low
	bodyOK := rng > 0 && body/rng >= d.cfg.MinCandleBodyPct
	if dir == Long {
		c.CandleConfirms = bodyOK && candles.Bullish[i]
	} else {
		c.CandleConfirms = bodyOK && candles.Bearish[i]
	}

	c.DailyTrendStrong = dailySlopeFavors(dailyTable, dailyIdx, dir)
	c.NoAdverseDivergence = !adverseDivergence(triggerTable, triggerSeries, i, dir)

	return c
}

// dailySlopeFavors reports whether the daily EMA72 (slow EMA, the trend
// anchor) is still rising for a long / falling for a short over a short
// trailing window, the "daily trend strength" confirmation.
func dailySlopeFavors(dailyTable *indicators.Table, j int, dir Direction) bool {
	emaSlow, ok := dailyTable.Get(indicators.ColEMASlow)
	if !ok || j < 5 || j >= len(emaSlow) {
		return false
	}
	cur, past := emaSlow[j], emaSlow[j-5]
	if math.IsNaN(cur) || math.IsNaN(past) {
		return false
	}
	if dir == Long {
		return cur > past
	}
	return cur < past
}

// adverseDivergence flags a bearish divergence for longs (price makes a
// higher high over the recent window while RSI makes a lower high) or a
// bullish divergence for shorts (mirrored), over a fixed 10-bar lookback.
func adverseDivergence(t *indicators.Table, s bar.Series, i int, dir Direction) bool {
	const lookback = 10
	if i < lookback {
		return false
	}
	rsi, ok := t.Get(indicators.RSIColumn(14))
	if !ok {
		return false
	}
	priorHighIdx, priorLowIdx := i-lookback, i-lookback
	for j := i - lookback; j < i; j++ {
		if s.Bars[j].High > s.Bars[priorHighIdx].High {
			priorHighIdx = j
		}
		if s.Bars[j].Low < s.Bars[priorLowIdx].Low {
			priorLowIdx = j
		}
	}
	if dir == Long {
		if s.Bars[i].High <= s.Bars[priorHighIdx].High {
			return false
		}
		if math.IsNaN(rsi[i]) || math.IsNaN(rsi[priorHighIdx]) {
			return false
		}
		return rsi[i] < rsi[priorHighIdx]
	}
	if s.Bars[i].Low >= s.Bars[priorLowIdx].Low {
		return false
	}
	if math.IsNaN(rsi[i]) || math.IsNaN(rsi[priorLowIdx]) {
		return false
	}
	return rsi[i] > rsi[priorLowIdx]
}
