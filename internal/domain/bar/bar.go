// Package bar defines the OHLCV bar and timeframe-indexed series that every
// other domain package consumes.
package bar

import (
	"fmt"
	"time"
)

// Timeframe is the duration a single Bar covers.
type Timeframe string

const (
	Timeframe15m  Timeframe = "15m"
	Timeframe60m  Timeframe = "60m"
	TimeframeDaily Timeframe = "daily"
)

// Bar is a single closed OHLCV observation.
type Bar struct {
	Timestamp time.Time
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Validate checks the OHLC invariants from spec §3. It does not check
// ordering relative to neighboring bars; that is Series' job.
func (b Bar) Validate() error {
	lo, hi := b.Open, b.Close
	if lo > hi {
		lo, hi = hi, lo
	}
	if b.Low > lo || hi > b.High || b.Low > b.High {
		return fmt.Errorf("%w: low=%.6f open=%.6f close=%.6f high=%.6f violates low<=min(open,close)<=max(open,close)<=high",
			ErrOHLCInvariant, b.Low, b.Open, b.Close, b.High)
	}
	if b.Volume < 0 {
		return fmt.Errorf("%w: volume %.6f is negative", ErrOHLCInvariant, b.Volume)
	}
	return nil
}

// ErrOHLCInvariant is returned by Bar.Validate and Series construction when
// a bar violates the low<=min(o,c)<=max(o,c)<=high or volume>=0 invariant.
var ErrOHLCInvariant = fmt.Errorf("ohlc invariant violated")

// Series is an ordered, immutable sequence of Bar for one (symbol,
// timeframe). Once built it is never mutated; the Indicator Engine appends
// derived columns in a separate Table keyed by the same index, never by
// rewriting Series itself.
type Series struct {
	Symbol    string
	Timeframe Timeframe
	Bars      []Bar
}

// NewSeries validates and constructs a Series. It enforces: every bar passes
// Bar.Validate, timestamps strictly increase, and there are no duplicates.
// maxGap, when positive, bounds the largest allowed gap between consecutive
// bars; a gap larger than that is treated as a data integrity failure
// (spec §4.5's "excessive gap" condition applies at the series-construction
// boundary, not per evaluated bar).
func NewSeries(symbol string, tf Timeframe, bars []Bar, maxGap time.Duration) (Series, error) {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return Series{}, fmt.Errorf("bar %d (%s): %w", i, b.Timestamp, err)
		}
		if i == 0 {
			continue
		}
		prev := bars[i-1]
		if !b.Timestamp.After(prev.Timestamp) {
			return Series{}, fmt.Errorf("%w: bar %d timestamp %s does not strictly follow bar %d timestamp %s",
				ErrNonMonotonic, i, b.Timestamp, i-1, prev.Timestamp)
		}
		if maxGap > 0 && b.Timestamp.Sub(prev.Timestamp) > maxGap {
			return Series{}, fmt.Errorf("%w: gap of %s between bar %d and %d exceeds limit %s",
				ErrExcessiveGap, b.Timestamp.Sub(prev.Timestamp), i-1, i, maxGap)
		}
	}
	cp := make([]Bar, len(bars))
	copy(cp, bars)
	return Series{Symbol: symbol, Timeframe: tf, Bars: cp}, nil
}

var (
	// ErrNonMonotonic is returned when bar timestamps do not strictly increase.
	ErrNonMonotonic = fmt.Errorf("bar timestamps are not strictly increasing")
	// ErrExcessiveGap is returned when the distance between consecutive
	// bars exceeds the configured maximum.
	ErrExcessiveGap = fmt.Errorf("gap between bars exceeds configured limit")
)

// Len returns the number of bars in the series.
func (s Series) Len() int { return len(s.Bars) }

// Closes returns the close prices as a plain slice, the shape most
// indicator functions consume.
func (s Series) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// Volumes returns the volumes as a plain slice.
func (s Series) Volumes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Volume
	}
	return out
}

// At returns the index of the last bar whose timestamp is <= t, and true if
// one exists. This implements the "last closed bar at or before t" lookup
// used by the context-timeframe alignment rule (spec §4.2).
func (s Series) At(t time.Time) (int, bool) {
	idx := -1
	for i, b := range s.Bars {
		if b.Timestamp.After(t) {
			break
		}
		idx = i
	}
	if idx < 0 {
		return 0, false
	}
	return idx, true
}

// Slice returns the sub-series covering bars [0, i], i.e. everything known
// up to and including index i. It is the mechanism by which no-lookahead
// property tests truncate a series before recomputing indicators/features.
func (s Series) Slice(uptoInclusive int) Series {
	if uptoInclusive < 0 {
		uptoInclusive = -1
	}
	if uptoInclusive >= len(s.Bars) {
		uptoInclusive = len(s.Bars) - 1
	}
	return Series{Symbol: s.Symbol, Timeframe: s.Timeframe, Bars: s.Bars[:uptoInclusive+1]}
}
