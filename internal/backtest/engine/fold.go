// Package engine implements the Walk-Forward Backtester (spec.md §4.6):
// fold slicing, per-fold orchestration of the full
// indicators -> features -> wave3 -> mlgate -> simulator pipeline, strict
// no-lookahead discipline, and a bounded worker pool for per-symbol
// parallelism, grounded on internal/backtest/march_aug/engine.go's
// per-symbol processing loop and internal/backtest/smoke90/runner.go's
// fold-oriented shape.
package engine

import "time"

// Fold is one walk-forward train/test window pair (spec.md §4.6).
type Fold struct {
	Index      int
	TrainStart time.Time
	TrainEnd   time.Time // exclusive
	TestStart  time.Time // == TrainEnd
	TestEnd    time.Time // exclusive
}

// BuildFolds slices [seriesStart, seriesEnd) into successive
// train/test windows of trainMonths/testMonths length, advancing by
// stepMonths each fold, until the next test window would run past
// seriesEnd. No partial trailing fold is emitted — a fold whose test
// window would be truncated by the end of history is simply not
// generated, rather than silently shortened (spec.md §4.6's "strict
// windows" requirement).
func BuildFolds(seriesStart, seriesEnd time.Time, trainMonths, testMonths, stepMonths int) []Fold {
	var folds []Fold
	trainStart := seriesStart
	for idx := 0; ; idx++ {
		trainEnd := trainStart.AddDate(0, trainMonths, 0)
		testEnd := trainEnd.AddDate(0, testMonths, 0)
		if testEnd.After(seriesEnd) {
			break
		}
		folds = append(folds, Fold{
			Index:      idx,
			TrainStart: trainStart,
			TrainEnd:   trainEnd,
			TestStart:  trainEnd,
			TestEnd:    testEnd,
		})
		trainStart = trainStart.AddDate(0, stepMonths, 0)
	}
	return folds
}
