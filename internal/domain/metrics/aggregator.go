// Package metrics implements the Metrics Aggregator (spec.md §4.7):
// deterministic functions of a Closed Trade list, grounded on
// internal/backtest/march_aug/engine.go's calculateMean/calculateStdDev/
// calculateSharpe/calculateMaxDrawdown/calculateCorrelation.
package metrics

import (
	"math"
	"sort"

	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
)

// QualityBucket is one of spec.md §4.7's five fixed quality-score bands.
type QualityBucket string

const (
	BucketBelow55 QualityBucket = "<55"
	Bucket55to64  QualityBucket = "55-64"
	Bucket65to74  QualityBucket = "65-74"
	Bucket75to84  QualityBucket = "75-84"
	Bucket85Plus  QualityBucket = ">=85"
)

// QualityBucketFor classifies a quality score into its fixed band.
func QualityBucketFor(score float64) QualityBucket {
	switch {
	case score < 55:
		return BucketBelow55
	case score < 65:
		return Bucket55to64
	case score < 75:
		return Bucket65to74
	case score < 85:
		return Bucket75to84
	default:
		return Bucket85Plus
	}
}

// Summary is the Metrics Aggregator's complete output for one trade list.
type Summary struct {
	Count        int
	Wins         int
	Losses       int
	WinRate      float64
	SumReturns   float64
	AvgWin       float64
	AvgLoss      float64
	ProfitFactor float64
	Sharpe       float64
	MaxDrawdown  float64

	BySymbol        map[string]Summary
	ByQualityBucket map[QualityBucket]Summary
	ByExitReason    map[simulator.ExitReason]Summary

	// DecileAnalysis and Attribution are supplemented breakdowns carried
	// over from internal/backtest/march_aug/engine.go's
	// GenerateDecileAnalysis/GenerateAttributionAnalysis (SPEC_FULL.md §10).
	Deciles     []DecileBucket
	Attribution []AttributionFactor
}

// DecileBucket reports win-rate lift by quality-score decile.
type DecileBucket struct {
	Decile  int // 0 = lowest-scoring 10%, 9 = highest-scoring 10%
	Count   int
	WinRate float64
	AvgReturn float64
}

// AttributionFactor reports the correlation between one confirmation
// factor firing and the trade's realized return.
type AttributionFactor struct {
	Name        string
	Correlation float64
}

// Aggregate computes the full Summary over trades, excluding trades marked
// IsEndOfData when excludeEndOfData is true (spec.md §4.5's "aggregators
// can optionally exclude" end-of-data trades).
func Aggregate(trades []simulator.ClosedTrade, excludeEndOfData bool) Summary {
	filtered := trades
	if excludeEndOfData {
		filtered = make([]simulator.ClosedTrade, 0, len(trades))
		for _, t := range trades {
			if !t.IsEndOfData {
				filtered = append(filtered, t)
			}
		}
	}

	summary := computeCore(filtered)
	summary.BySymbol = groupBy(filtered, func(t simulator.ClosedTrade) string { return t.Symbol })
	summary.ByQualityBucket = groupByQuality(filtered)
	summary.ByExitReason = groupByExitReason(filtered)
	summary.Deciles = decileAnalysis(filtered)
	return summary
}

func computeCore(trades []simulator.ClosedTrade) Summary {
	s := Summary{Count: len(trades)}
	if len(trades) == 0 {
		return s
	}

	returns := make([]float64, len(trades))
	gains, losses := 0.0, 0.0
	for i, t := range trades {
		returns[i] = t.ReturnPct
		s.SumReturns += t.ReturnPct
		if t.ReturnPct > 0 {
			s.Wins++
			gains += t.ReturnPct
		} else {
			s.Losses++
			losses += t.ReturnPct
		}
	}
	s.WinRate = float64(s.Wins) / float64(s.Count)
	if s.Wins > 0 {
		s.AvgWin = gains / float64(s.Wins)
	}
	if s.Losses > 0 {
		s.AvgLoss = losses / float64(s.Losses)
	}
	if losses != 0 {
		s.ProfitFactor = gains / math.Abs(losses)
	}

	s.Sharpe = sharpe(returns)
	s.MaxDrawdown = maxDrawdown(returns)
	return s
}

// sharpe is the per-trade formulation pinned by SPEC_FULL.md §12: mean
// divided by sample standard deviation of the realized trade-return
// sequence, not a per-bar computation. Risk-free rate is zero unless a
// future configuration surface adds it.
func sharpe(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	mean := meanOf(returns)
	sd := stdDevOf(returns)
	if sd == 0 {
		return 0
	}
	return mean / sd
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stdDevOf(values []float64) float64 {
	if len(values) <= 1 {
		return 0
	}
	mean := meanOf(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)-1))
}

// maxDrawdown computes the maximum peak-to-trough decline over the
// cumulative-sum equity curve formed by appending returns in the order
// given (spec.md §4.7: exit-time order is the caller's responsibility to
// supply).
func maxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	running, peak, maxDD := 0.0, 0.0, 0.0
	for _, r := range returns {
		running += r
		if running > peak {
			peak = running
		}
		if dd := peak - running; dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

func groupBy(trades []simulator.ClosedTrade, key func(simulator.ClosedTrade) string) map[string]Summary {
	buckets := make(map[string][]simulator.ClosedTrade)
	for _, t := range trades {
		k := key(t)
		buckets[k] = append(buckets[k], t)
	}
	out := make(map[string]Summary, len(buckets))
	for k, ts := range buckets {
		out[k] = computeCore(ts)
	}
	return out
}

func groupByQuality(trades []simulator.ClosedTrade) map[QualityBucket]Summary {
	buckets := make(map[QualityBucket][]simulator.ClosedTrade)
	for _, t := range trades {
		b := QualityBucketFor(t.QualityScore)
		buckets[b] = append(buckets[b], t)
	}
	out := make(map[QualityBucket]Summary, len(buckets))
	for b, ts := range buckets {
		out[b] = computeCore(ts)
	}
	return out
}

func groupByExitReason(trades []simulator.ClosedTrade) map[simulator.ExitReason]Summary {
	buckets := make(map[simulator.ExitReason][]simulator.ClosedTrade)
	for _, t := range trades {
		reason := simulator.ExitEndOfData
		if len(t.Fills) > 0 {
			reason = t.Fills[len(t.Fills)-1].Reason
		}
		buckets[reason] = append(buckets[reason], t)
	}
	out := make(map[simulator.ExitReason]Summary, len(buckets))
	for r, ts := range buckets {
		out[r] = computeCore(ts)
	}
	return out
}

// decileAnalysis buckets trades into quality-score deciles and reports
// win-rate lift per decile, the supplemented feature folded in from
// internal/backtest/march_aug/engine.go's GenerateDecileAnalysis
// (SPEC_FULL.md §10).
func decileAnalysis(trades []simulator.ClosedTrade) []DecileBucket {
	if len(trades) == 0 {
		return nil
	}
	sorted := append([]simulator.ClosedTrade(nil), trades...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].QualityScore < sorted[j].QualityScore })

	deciles := make([]DecileBucket, 10)
	n := len(sorted)
	for d := 0; d < 10; d++ {
		lo := d * n / 10
		hi := (d + 1) * n / 10
		if d == 9 {
			hi = n
		}
		slice := sorted[lo:hi]
		core := computeCore(slice)
		deciles[d] = DecileBucket{Decile: d, Count: core.Count, WinRate: core.WinRate, AvgReturn: meanOfTrades(slice)}
	}
	return deciles
}

func meanOfTrades(trades []simulator.ClosedTrade) float64 {
	if len(trades) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range trades {
		sum += t.ReturnPct
	}
	return sum / float64(len(trades))
}

// AttributionAnalysis correlates each of the eight confirmation flags
// against realized trade return, the supplemented feature grounded on
// internal/backtest/march_aug/engine.go's calculateCorrelation (Pearson
// correlation of two equal-length float slices). confirmations must be
// aligned index-for-index with trades — the caller (internal/backtest/
// engine) is the only place both a ClosedTrade and the CandidateSignal it
// came from are in scope together.
func AttributionAnalysis(trades []simulator.ClosedTrade, confirmations []wave3.Confirmations) []AttributionFactor {
	if len(trades) != len(confirmations) || len(trades) == 0 {
		return nil
	}
	returns := make([]float64, len(trades))
	for i, t := range trades {
		returns[i] = t.ReturnPct
	}

	factors := []struct {
		name string
		flag func(wave3.Confirmations) bool
	}{
		{"macd_aligned", func(c wave3.Confirmations) bool { return c.MACDAligned }},
		{"rsi_favorable_zone", func(c wave3.Confirmations) bool { return c.RSIFavorableZone }},
		{"adx_above_threshold", func(c wave3.Confirmations) bool { return c.ADXAboveThreshold }},
		{"atr_above_own_mean", func(c wave3.Confirmations) bool { return c.ATRAboveOwnMean }},
		{"volume_surge", func(c wave3.Confirmations) bool { return c.VolumeSurge }},
		{"candle_confirms", func(c wave3.Confirmations) bool { return c.CandleConfirms }},
		{"daily_trend_strong", func(c wave3.Confirmations) bool { return c.DailyTrendStrong }},
		{"no_adverse_divergence", func(c wave3.Confirmations) bool { return c.NoAdverseDivergence }},
	}

	out := make([]AttributionFactor, 0, len(factors))
	for _, f := range factors {
		flags := make([]float64, len(confirmations))
		for i, c := range confirmations {
			if f.flag(c) {
				flags[i] = 1
			}
		}
		out = append(out, AttributionFactor{Name: f.name, Correlation: correlation(flags, returns)})
	}
	return out
}

// correlation is the Pearson correlation coefficient, grounded directly on
// internal/backtest/march_aug/engine.go's calculateCorrelation.
func correlation(x, y []float64) float64 {
	if len(x) != len(y) || len(x) == 0 {
		return 0
	}
	meanX := meanOf(x)
	meanY := meanOf(y)
	numerator, sumXSq, sumYSq := 0.0, 0.0, 0.0
	for i := range x {
		xDiff := x[i] - meanX
		yDiff := y[i] - meanY
		numerator += xDiff * yDiff
		sumXSq += xDiff * xDiff
		sumYSq += yDiff * yDiff
	}
	denominator := math.Sqrt(sumXSq * sumYSq)
	if denominator == 0 {
		return 0
	}
	return numerator / denominator
}
