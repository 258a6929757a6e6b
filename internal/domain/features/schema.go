package features

import (
	"math"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
)

// triggerColumnNames lists the trigger-timeframe indicator columns
// (spec.md §4.2): 23 fixed columns plus one per RSI period, two per ATR
// period and one per hist-vol period, 35 in all at DefaultPeriods. No
// other indicator families or lagged variants are included. Order is fixed: appending a new indicator family must go
// at the end, never inserted, or every previously trained model's schema
// breaks.
func triggerColumnNames(p indicators.Periods) []string {
	names := []string{
		indicators.ColEMAFast, indicators.ColEMASlow,
		indicators.ColMACD, indicators.ColMACDSig, indicators.ColMACDHist,
		indicators.ColADX, indicators.ColPlusDI, indicators.ColMinusDI,
		indicators.ColBBUpper, indicators.ColBBLower, indicators.ColBBBasis, indicators.ColBBWidth, indicators.ColBBPctB,
		indicators.ColKCUpper, indicators.ColKCLower, indicators.ColKCBasis,
		indicators.ColStochK, indicators.ColStochD,
		indicators.ColOBV, indicators.ColVPT, indicators.ColMFI, indicators.ColCCI, indicators.ColWilliamsR,
	}
	for _, n := range p.RSIPeriods {
		names = append(names, indicators.RSIColumn(n))
	}
	for _, n := range p.ATRPeriods {
		names = append(names, indicators.ATRColumn(n), indicators.ATRPctColumn(n))
	}
	for _, n := range p.HistVolPeriods {
		names = append(names, indicators.HistVolColumn(n))
	}
	return names
}

// dailyColumnNames lists the 14 daily-timeframe context columns
// (spec.md §4.2); no other daily indicators are included. They are aligned to the trigger bar by the builder's BuildAt.
func dailyColumnNames(p indicators.Periods) []string {
	return []string{
		indicators.ColEMAFast, indicators.ColEMASlow,
		indicators.ColMACD, indicators.ColMACDSig, indicators.ColMACDHist,
		indicators.ColADX, indicators.ColPlusDI, indicators.ColMinusDI,
		indicators.RSIColumn(14),
		indicators.ATRColumn(14), indicators.ATRPctColumn(14),
		indicators.ColBBWidth, indicators.ColBBPctB,
		indicators.HistVolColumn(20),
	}
}

func derivedNames(p indicators.Periods) []string {
	return []string{
		"derived_close_over_ema_slow",
		"derived_close_over_ema_fast",
		"derived_atr14_over_close",
		"derived_volume_over_sma20",
		"derived_bb_basis_over_ema_slow",
	}
}

// derivedRatios computes the normalized ratio features spec.md §4.2 calls
// for explicitly (close/EMA72, ATR14/close, volume/20-bar volume SMA, ...).
func derivedRatios(t *indicators.Table, s bar.Series, i int, p indicators.Periods) map[string]float64 {
	closes := s.Closes()
	volumes := s.Volumes()
	volSMA := indicators.SMA(volumes, 20)

	closeOverEMASlow := math.NaN()
	closeOverEMAFast := math.NaN()
	atrOverClose := math.NaN()
	volOverSMA := math.NaN()
	bbBasisOverEMASlow := math.NaN()

	if emaSlow := t.At(indicators.ColEMASlow, i); emaSlow != 0 && !math.IsNaN(emaSlow) {
		closeOverEMASlow = closes[i] / emaSlow
	}
	if emaFast := t.At(indicators.ColEMAFast, i); emaFast != 0 && !math.IsNaN(emaFast) {
		closeOverEMAFast = closes[i] / emaFast
	}
	if atr14 := t.At(indicators.ATRColumn(14), i); !math.IsNaN(atr14) && closes[i] != 0 {
		atrOverClose = atr14 / closes[i]
	}
	if i < len(volSMA) && !math.IsNaN(volSMA[i]) && volSMA[i] != 0 {
		volOverSMA = volumes[i] / volSMA[i]
	}
	if bbBasis, emaSlow := t.At(indicators.ColBBBasis, i), t.At(indicators.ColEMASlow, i); !math.IsNaN(bbBasis) && !math.IsNaN(emaSlow) && emaSlow != 0 {
		bbBasisOverEMASlow = bbBasis / emaSlow
	}

	return map[string]float64{
		"derived_close_over_ema_slow":    closeOverEMASlow,
		"derived_close_over_ema_fast":    closeOverEMAFast,
		"derived_atr14_over_close":       atrOverClose,
		"derived_volume_over_sma20":      volOverSMA,
		"derived_bb_basis_over_ema_slow": bbBasisOverEMASlow,
	}
}

// classifyRegime derives the trending/ranging, volatility-bucket and
// volume-bucket flags spec.md §4.2 requires alongside the numeric vector.
// Trend is read off the daily EMA17/EMA72 relationship (the same test the
// Wave3 Signal Engine's daily context uses, spec.md §4.3), volatility and
// volume buckets are read off the trigger-timeframe ATR% and volume/SMA
// ratio against fixed tertile-like cutoffs.
func classifyRegime(dailyTable *indicators.Table, dailyIdx int, triggerTable *indicators.Table, triggerSeries bar.Series, i int, p indicators.Periods) (TrendRegime, VolBucket, VolumeBucket) {
	trend := TrendRanging
	emaFast := dailyTable.At(indicators.ColEMAFast, dailyIdx)
	emaSlow := dailyTable.At(indicators.ColEMASlow, dailyIdx)
	dailyClose := 0.0
	if dailyIdx >= 0 && dailyIdx < dailyTable.Series.Len() {
		dailyClose = dailyTable.Series.Bars[dailyIdx].Close
	}
	switch {
	case !math.IsNaN(emaFast) && !math.IsNaN(emaSlow) && emaFast > emaSlow && dailyClose > emaFast:
		trend = TrendUp
	case !math.IsNaN(emaFast) && !math.IsNaN(emaSlow) && emaFast < emaSlow && dailyClose < emaFast:
		trend = TrendDown
	}

	volBucket := VolNormal
	atrPct := triggerTable.At(indicators.ATRPctColumn(14), i)
	switch {
	case math.IsNaN(atrPct):
		volBucket = VolNormal
	case atrPct < 1.5:
		volBucket = VolLow
	case atrPct > 4.0:
		volBucket = VolHigh
	}

	volumeBucket := VolumeNormal
	volumes := triggerSeries.Volumes()
	volSMA := indicators.SMA(volumes, 20)
	if i < len(volSMA) && !math.IsNaN(volSMA[i]) && volSMA[i] != 0 {
		ratio := volumes[i] / volSMA[i]
		switch {
		case ratio < 0.7:
			volumeBucket = VolumeLow
		case ratio > 1.5:
			volumeBucket = VolumeHigh
		}
	}

	return trend, volBucket, volumeBucket
}
