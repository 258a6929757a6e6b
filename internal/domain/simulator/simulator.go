// Package simulator implements the Trade Simulator (spec.md §4.5): given
// an accepted Candidate Signal and the subsequent trigger-timeframe bars,
// it resolves the trade deterministically following a fixed per-bar
// tie-break evaluation order, grounded on
// internal/backtest/march_aug/engine.go's calculateSignalOutcome.
package simulator

import (
	"math"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
	"github.com/b3quant/wave3/internal/domain/wave3"
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// ExitReason is the fixed vocabulary of exit causes spec.md §4.5 names.
type ExitReason string

const (
	ExitStop          ExitReason = "stop"
	ExitTrailingStop  ExitReason = "trailing_stop"
	ExitRung          ExitReason = "rung"
	ExitTimeout       ExitReason = "timeout"
	ExitRegimeReverse ExitReason = "regime_reverse"
	ExitEndOfData     ExitReason = "end_of_data"
)

// Config carries the simulator-relevant subset of spec.md §6's
// configuration surface.
type Config struct {
	BreakevenActivationR float64 // "trailing_activation_r" maps to this; default 0.75
	TrailingATRMultiple  float64 // default 2.0
	MaxHoldingBars       int     // default 30
	EntryMode            EntryMode
}

// EntryMode resolves SPEC_FULL.md §12's pinned Open Question: both values
// are implemented, never inferred.
type EntryMode string

const (
	EntryTriggerBarClose EntryMode = "trigger_bar_close"
	EntryNextBarOpen     EntryMode = "next_bar_open"
)

// DefaultConfig mirrors spec.md §6's documented defaults. Trailing activates
// at 2x BreakevenActivationR (1.5R at the default 0.75R), matching spec.md
// §4.5's worked example ("breakeven at >=0.75R, trailing at >=1.5R") from
// the single trailing_activation_r configuration field spec.md §6 exposes.
func DefaultConfig() Config {
	return Config{
		BreakevenActivationR: 0.75,
		TrailingATRMultiple:  2.0,
		MaxHoldingBars:       30,
		EntryMode:            EntryTriggerBarClose,
	}
}

func (c Config) trailingActivationR() float64 { return 2 * c.BreakevenActivationR }

// Fill is one partial close of the position (a rung fill, a stop/trailing
// close, a timeout/regime-reverse/end-of-data close).
type Fill struct {
	BarIndex int
	Price    float64
	Fraction float64
	Reason   ExitReason
}

// ClosedTrade is the Trade Simulator's output for one Candidate Signal.
type ClosedTrade struct {
	Symbol       string
	Direction    wave3.Direction
	EntryTime    bar.Bar
	EntryPrice   float64
	InitialStop  float64
	Quantity     float64
	Fills        []Fill
	ExitTime     bar.Bar
	ReturnPct    float64 // weighted average return across all fills
	GrossPnL     float64
	MFEPct       float64
	MAEPct       float64
	QualityScore float64
	IsEndOfData  bool
}

// position is the mutable per-bar state spec.md §4.5 names.
type position struct {
	remainingQty   float64
	currentStop    float64
	initialStop    float64
	unfilledRungs  []wave3.TargetRung
	runningMFE     float64
	runningMAE     float64
	barsSinceEntry int
	breakevenMoved bool
	trailingActive bool
	fills          []Fill
	weightedReturn float64
}

// Simulate resolves signal against the trigger-timeframe bars that follow
// its entry bar (bars[signal.TriggerIdx+1:]; under next_bar_open mode the
// entry is bar TriggerIdx+1's open, so evaluation starts at TriggerIdx+2).
// dailyContextReversed(i) reports whether the daily context has flipped
// away from the signal's direction as of trigger bar i (spec.md §4.5 item
// 5); it is supplied by the caller since only the caller walks the aligned
// daily series bar by bar.
func Simulate(cfg Config, signal wave3.CandidateSignal, triggerSeries bar.Series, triggerTable *indicators.Table, dailyContextReversed func(triggerIdx int) bool) (ClosedTrade, error) {
	entryIdx := signal.TriggerIdx
	entryPrice := signal.EntryPrice
	if cfg.EntryMode == EntryNextBarOpen {
		if entryIdx+1 >= triggerSeries.Len() {
			return ClosedTrade{}, &wavecore.InsufficientHistoryError{Symbol: signal.Symbol, Needed: entryIdx + 2, Have: triggerSeries.Len()}
		}
		entryIdx++
		entryPrice = triggerSeries.Bars[entryIdx].Open
	}

	r := math.Abs(entryPrice - signal.InitialStop)
	if r == 0 {
		return ClosedTrade{}, &wavecore.ConfigurationError{Field: "signal.InitialStop", Reason: "initial stop equals entry price, zero risk unit"}
	}

	pos := &position{
		remainingQty:  1.0,
		currentStop:   signal.InitialStop,
		initialStop:   signal.InitialStop,
		unfilledRungs: append([]wave3.TargetRung(nil), signal.TargetRungs...),
	}

	atrCol, _ := triggerTable.Get(indicators.ATRColumn(14))

	isLong := signal.Direction == wave3.Long
	trade := ClosedTrade{
		Symbol:       signal.Symbol,
		Direction:    signal.Direction,
		EntryTime:    triggerSeries.Bars[entryIdx],
		EntryPrice:   entryPrice,
		InitialStop:  signal.InitialStop,
		Quantity:     1.0,
		QualityScore: signal.QualityScore,
	}

	for i := entryIdx + 1; i < triggerSeries.Len(); i++ {
		b := triggerSeries.Bars[i]
		pos.barsSinceEntry++

		favorable, adverse := unrealizedExtremes(entryPrice, b, isLong)
		pos.runningMFE = math.Max(pos.runningMFE, favorable)
		pos.runningMAE = math.Max(pos.runningMAE, adverse)

		// 1. stop / trailing stop
		if stopTouched(b, pos.currentStop, isLong) {
			reason := ExitStop
			if pos.currentStop != pos.initialStop {
				reason = ExitTrailingStop
			}
			closeAll(pos, i, pos.currentStop, reason)
			break
		}

		// 2. rungs in ascending reward multiple
		fillRungs(pos, b, entryPrice, r, isLong, i)
		if pos.remainingQty <= 0 {
			break
		}

		// 3. breakeven / trailing activation
		updateStopManagement(cfg, pos, entryPrice, r, b, atrCol, i, isLong)

		// 4. timeout
		if pos.barsSinceEntry >= cfg.MaxHoldingBars {
			closeAll(pos, i, b.Close, ExitTimeout)
			break
		}

		// 5. regime reverse
		if dailyContextReversed != nil && dailyContextReversed(i) {
			closeAll(pos, i, b.Close, ExitRegimeReverse)
			break
		}

		if i == triggerSeries.Len()-1 && pos.remainingQty > 0 {
			closeAll(pos, i, b.Close, ExitEndOfData)
			trade.IsEndOfData = true
		}
	}

	trade.Fills = pos.fills
	trade.MFEPct = pos.runningMFE
	trade.MAEPct = pos.runningMAE
	if len(trade.Fills) > 0 {
		trade.ExitTime = triggerSeries.Bars[trade.Fills[len(trade.Fills)-1].BarIndex]
	} else {
		trade.ExitTime = trade.EntryTime
	}
	trade.ReturnPct = weightedReturn(trade.Fills, entryPrice, isLong)
	trade.GrossPnL = trade.ReturnPct * trade.Quantity * entryPrice
	return trade, nil
}

// weightedReturn computes the fraction-weighted average return across every
// fill that closed part of the position, as a fraction of the entry price,
// not in R. Multiplying it by entry/R gives the R figure of spec.md §8's
// scenario 2 weighting (0.5x1.0R + 0.3x1.5R + 0.2x(trailing)).
func weightedReturn(fills []Fill, entry float64, isLong bool) float64 {
	total := 0.0
	for _, f := range fills {
		ret := (f.Price - entry) / entry
		if !isLong {
			ret = (entry - f.Price) / entry
		}
		total += ret * f.Fraction
	}
	return total
}

func unrealizedExtremes(entry float64, b bar.Bar, isLong bool) (favorable, adverse float64) {
	if isLong {
		favorable = (b.High - entry) / entry
		adverse = (entry - b.Low) / entry
	} else {
		favorable = (entry - b.Low) / entry
		adverse = (b.High - entry) / entry
	}
	if favorable < 0 {
		favorable = 0
	}
	if adverse < 0 {
		adverse = 0
	}
	return
}

func stopTouched(b bar.Bar, stop float64, isLong bool) bool {
	if isLong {
		return b.Low <= stop
	}
	return b.High >= stop
}

func closeAll(pos *position, i int, price float64, reason ExitReason) {
	if pos.remainingQty <= 0 {
		return
	}
	pos.fills = append(pos.fills, Fill{BarIndex: i, Price: price, Fraction: pos.remainingQty, Reason: reason})
	pos.remainingQty = 0
}

func fillRungs(pos *position, b bar.Bar, entry, r float64, isLong bool, i int) {
	remaining := pos.unfilledRungs[:0:0]
	for _, rung := range pos.unfilledRungs {
		target := rung.RewardMultiple * r
		rungPrice := entry + target
		reached := isLong && b.High >= rungPrice
		if !isLong {
			rungPrice = entry - target
			reached = b.Low <= rungPrice
		}
		if reached {
			pos.fills = append(pos.fills, Fill{BarIndex: i, Price: rungPrice, Fraction: rung.FractionOfPosition, Reason: ExitRung})
			pos.remainingQty -= rung.FractionOfPosition
			continue
		}
		remaining = append(remaining, rung)
	}
	pos.unfilledRungs = remaining
}

func updateStopManagement(cfg Config, pos *position, entry, r float64, b bar.Bar, atrCol indicators.Column, i int, isLong bool) {
	filledR := 0.0
	for _, f := range pos.fills {
		if f.Reason != ExitRung {
			continue
		}
		dist := f.Price - entry
		if !isLong {
			dist = entry - f.Price
		}
		filledR = math.Max(filledR, dist/r)
	}

	if !pos.breakevenMoved && filledR >= cfg.BreakevenActivationR {
		if isLong && pos.currentStop < entry {
			pos.currentStop = entry
		}
		if !isLong && pos.currentStop > entry {
			pos.currentStop = entry
		}
		pos.breakevenMoved = true
	}

	if filledR >= cfg.trailingActivationR() {
		pos.trailingActive = true
	}
	if pos.trailingActive && i < len(atrCol) && !math.IsNaN(atrCol[i]) {
		atr := atrCol[i]
		if isLong {
			candidate := b.Close - cfg.TrailingATRMultiple*atr
			if candidate > pos.currentStop {
				pos.currentStop = candidate
			}
		} else {
			candidate := b.Close + cfg.TrailingATRMultiple*atr
			if candidate < pos.currentStop || pos.currentStop == 0 {
				pos.currentStop = candidate
			}
		}
	}
}
