// Package features implements the Feature Builder: it combines the
// trigger-timeframe and daily-timeframe indicator tables into one
// fixed-width, fixed-ordering feature vector per trigger bar, following the
// alignment rule in spec.md §4.2 — the daily context used at trigger time t
// is the daily bar whose close is the last daily close strictly at or
// before t, never a future one.
package features

import (
	"fmt"
	"math"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
)

// Regime classifications attached to every feature vector (spec.md §4.2).
type TrendRegime string

const (
	TrendUp     TrendRegime = "trending_up"
	TrendDown   TrendRegime = "trending_down"
	TrendRanging TrendRegime = "ranging"
)

type VolBucket string

const (
	VolLow    VolBucket = "low"
	VolNormal VolBucket = "normal"
	VolHigh   VolBucket = "high"
)

type VolumeBucket string

const (
	VolumeLow    VolumeBucket = "low"
	VolumeNormal VolumeBucket = "normal"
	VolumeHigh   VolumeBucket = "high"
)

// Vector is one fully assembled feature vector for a single trigger bar.
// Names and Values are parallel slices sharing the fixed ordering returned
// by Schema() — this ordering is what gets serialized alongside a trained
// ML Gate model (spec.md §4.2, §4.4).
type Vector struct {
	Symbol      string
	TriggerTime bar.Bar
	TriggerIdx  int
	DailyIdx    int
	Names       []string
	Values      []float64
	Trend       TrendRegime
	Vol         VolBucket
	Volume      VolumeBucket
}

// Get returns the value of a named feature, or (0, false) if absent.
func (v Vector) Get(name string) (float64, bool) {
	for i, n := range v.Names {
		if n == name {
			return v.Values[i], true
		}
	}
	return 0, false
}

// HasWarmupGap reports whether any feature in the vector is NaN, meaning
// the bar falls inside some indicator's warmup window. Per spec.md §4.2,
// such bars must be fully disqualified from signal generation, never
// imputed.
func (v Vector) HasWarmupGap() bool {
	for _, x := range v.Values {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// Builder assembles Vectors from a trigger-timeframe Series/Table and a
// daily-timeframe Series/Table, both computed once per symbol history by
// the Indicator Engine.
type Builder struct {
	triggerSeries bar.Series
	triggerTable  *indicators.Table
	dailySeries   bar.Series
	dailyTable    *indicators.Table
	periods       indicators.Periods
	schema        []string
}

// NewBuilder constructs a Builder over an already-computed pair of tables.
// schema, once established by the first call to BuildAt, is fixed for the
// lifetime of the Builder (spec.md §4.2's "fixed name ordering").
func NewBuilder(triggerSeries bar.Series, triggerTable *indicators.Table, dailySeries bar.Series, dailyTable *indicators.Table, p indicators.Periods) *Builder {
	return &Builder{
		triggerSeries: triggerSeries,
		triggerTable:  triggerTable,
		dailySeries:   dailySeries,
		dailyTable:    dailyTable,
		periods:       p,
	}
}

// Schema returns the fixed feature-name ordering. It is only defined after
// at least one call to BuildAt.
func (b *Builder) Schema() []string {
	cp := make([]string, len(b.schema))
	copy(cp, b.schema)
	return cp
}

// BuildAt assembles the feature vector for the trigger bar at index i. It
// returns ok=false (not an error) when i has no aligned daily bar yet —
// there is simply no signal possible that early in the history.
func (b *Builder) BuildAt(i int) (Vector, bool) {
	if i < 0 || i >= b.triggerSeries.Len() {
		return Vector{}, false
	}
	triggerBar := b.triggerSeries.Bars[i]

	dailyIdx, ok := b.dailySeries.At(triggerBar.Timestamp)
	if !ok {
		return Vector{}, false
	}
	// Alignment rule: the daily close used must be strictly at or before t,
	// and strictly prior to the trigger bar's own close if the two
	// timeframes coincide in time (e.g. a daily trigger series), so a daily
	// bar can never supply its own same-instant close as "already known".
	if b.triggerSeries.Timeframe == bar.TimeframeDaily && !b.dailySeries.Bars[dailyIdx].Timestamp.Before(triggerBar.Timestamp) {
		if dailyIdx == 0 {
			return Vector{}, false
		}
		dailyIdx--
	}

	names := make([]string, 0, 128)
	values := make([]float64, 0, 128)

	appendCol := func(prefix string, col indicators.Column, idx int) {
		names = append(names, prefix)
		if col == nil || idx < 0 || idx >= len(col) {
			values = append(values, math.NaN())
			return
		}
		values = append(values, col[idx])
	}

	for _, name := range triggerColumnNames(b.periods) {
		col, _ := b.triggerTable.Get(name)
		appendCol("trigger_"+name, col, i)
	}
	for _, name := range dailyColumnNames(b.periods) {
		col, _ := b.dailyTable.Get(name)
		appendCol("daily_"+name, col, dailyIdx)
	}

	derived := derivedRatios(b.triggerTable, b.triggerSeries, i, b.periods)
	for _, name := range derivedNames(b.periods) {
		names = append(names, name)
		values = append(values, derived[name])
	}

	if b.schema == nil {
		b.schema = append([]string(nil), names...)
	} else if err := validateSchema(b.schema, names); err != nil {
		panic(fmt.Sprintf("feature builder produced a name ordering mismatch against its own schema: %v", err))
	}

	trend, volBucket, volumeBucket := classifyRegime(b.dailyTable, dailyIdx, b.triggerTable, b.triggerSeries, i, b.periods)

	return Vector{
		Symbol:      b.triggerSeries.Symbol,
		TriggerTime: triggerBar,
		TriggerIdx:  i,
		DailyIdx:    dailyIdx,
		Names:       names,
		Values:      values,
		Trend:       trend,
		Vol:         volBucket,
		Volume:      volumeBucket,
	}, true
}

// validateSchema enforces that schema never silently drifts within one
// Builder's lifetime — it is the in-process analogue of FeatureSchemaMismatch,
// caught here before a vector ever reaches the ML Gate.
func validateSchema(schema, names []string) error {
	if len(schema) != len(names) {
		return fmt.Errorf("feature count changed: had %d, now %d", len(schema), len(names))
	}
	for i := range schema {
		if schema[i] != names[i] {
			return fmt.Errorf("feature %d name changed: had %q, now %q", i, schema[i], names[i])
		}
	}
	return nil
}
