package engine

import (
	"github.com/b3quant/wave3/internal/domain/metrics"
	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
)

// CollectTrades flattens every non-skipped fold's ClosedTrades across every
// symbol, in (symbol, fold) order, ready for metrics.Aggregate.
func CollectTrades(results []SymbolResult) []simulator.ClosedTrade {
	var out []simulator.ClosedTrade
	for _, sr := range results {
		for _, fr := range sr.Folds {
			out = append(out, fr.Trades...)
		}
	}
	return out
}

// CollectConfirmations flattens the Confirmations aligned index-for-index
// with CollectTrades' output, for metrics.AttributionAnalysis.
func CollectConfirmations(results []SymbolResult) []wave3.Confirmations {
	var out []wave3.Confirmations
	for _, sr := range results {
		for _, fr := range sr.Folds {
			out = append(out, fr.Confirmations...)
		}
	}
	return out
}

// Summarize runs metrics.Aggregate and metrics.AttributionAnalysis over
// every trade this run produced across every symbol and fold.
func Summarize(results []SymbolResult, excludeEndOfData bool) metrics.Summary {
	trades := CollectTrades(results)
	confirmations := CollectConfirmations(results)
	summary := metrics.Aggregate(trades, excludeEndOfData)
	summary.Attribution = metrics.AttributionAnalysis(trades, confirmations)
	return summary
}

// SkippedFold is one (symbol, fold index, reason) a run skipped, as
// SkippedFolds reports it for an operator-facing report of walk-forward coverage gaps — a silent
// skip would read as "ran cleanly" when it did not (spec.md §8 scenario 5).
type SkippedFold struct {
	Symbol    string
	FoldIndex int
	Reason    error
}

// SkippedFolds collects every fold that was skipped across a run.
func SkippedFolds(results []SymbolResult) []SkippedFold {
	var out []SkippedFold
	for _, sr := range results {
		for _, fr := range sr.Folds {
			if fr.Skipped {
				out = append(out, SkippedFold{Symbol: sr.Symbol, FoldIndex: fr.Fold.Index, Reason: fr.SkipReason})
			}
		}
	}
	return out
}
