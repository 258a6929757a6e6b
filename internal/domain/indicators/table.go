// Package indicators implements the Indicator Engine: pure functions
// mapping an ordered bar.Series to derived columns. Every function here is
// deterministic and side-effect free, matching the design note in
// SPEC_FULL.md — columns are returned, never mutated in place, and a value
// before an indicator's warmup period is represented as NaN rather than
// zero-filled or interpolated (spec.md §4.1).
package indicators

import (
	"math"

	"github.com/b3quant/wave3/internal/domain/bar"
)

// Column is a single derived series, aligned 1:1 with the source Series'
// bars. A NaN entry means "undefined: still in warmup", matching the
// teacher's IsValid flag in internal/domain/indicators/technical.go but
// expressed positionally so every column lines up with the bar index
// instead of carrying a side validity flag per value.
type Column []float64

// Table holds every derived column computed for one Series, keyed by name.
// This is the "mapping from column name to aligned numeric vector with a
// shared length" called for in SPEC_FULL.md's design notes, generalizing
// the teacher's per-indicator Result structs (RSIResult, ATRResult, ...)
// into one wide table so the Feature Builder can look columns up by name.
type Table struct {
	Series  bar.Series
	Columns map[string]Column
}

func newTable(s bar.Series) *Table {
	return &Table{Series: s, Columns: make(map[string]Column)}
}

func (t *Table) set(name string, col Column) { t.Columns[name] = col }

// Get returns a column by name, or nil, false if it was never computed.
func (t *Table) Get(name string) (Column, bool) {
	c, ok := t.Columns[name]
	return c, ok
}

// At returns the value of a named column at bar index i, or NaN if the
// column doesn't exist, i is out of range, or the bar is still in warmup.
func (t *Table) At(name string, i int) float64 {
	c, ok := t.Columns[name]
	if !ok || i < 0 || i >= len(c) {
		return math.NaN()
	}
	return c[i]
}

func nanColumn(n int) Column {
	c := make(Column, n)
	for i := range c {
		c[i] = math.NaN()
	}
	return c
}

func isValid(v float64) bool { return !math.IsNaN(v) }
