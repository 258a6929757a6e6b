// Package wavecore holds the error taxonomy shared across the platform
// (spec.md §7): a small set of exported types distinguishable via
// errors.As. None carries an underlying cause; call sites return them
// as-is or wrap them with fmt.Errorf("...: %w", ...) to add context.
package wavecore

import "fmt"

// DataIntegrityError reports a bar-series invariant violation: a
// non-monotonic timestamp, an OHLC invariant breach, or a gap exceeding
// the configured limit (spec.md §3, §4.5).
type DataIntegrityError struct {
	Symbol string
	Reason string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error for %s: %s", e.Symbol, e.Reason)
}

// InsufficientHistoryError reports that a fold or indicator calculation
// did not have enough bars to clear warmup.
type InsufficientHistoryError struct {
	Symbol   string
	Needed   int
	Have     int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history for %s: need %d bars, have %d", e.Symbol, e.Needed, e.Have)
}

// FeatureSchemaMismatch reports that the feature-name ordering presented
// at inference does not exactly match the schema a model was trained
// with (spec.md §4.2, §4.4). Per spec.md §7, this is fatal for that
// inference call — no coercion or reordering is attempted.
type FeatureSchemaMismatch struct {
	Expected []string
	Actual   []string
}

func (e *FeatureSchemaMismatch) Error() string {
	return fmt.Sprintf("feature schema mismatch: expected %d features %v, got %d features %v",
		len(e.Expected), e.Expected, len(e.Actual), e.Actual)
}

// EmptyFoldResult marks a fold that produced zero test-window signals; per
// spec.md §4.6 this is a valid, non-error result, but the type lets
// callers distinguish "empty, on purpose" from an actual failure when both
// flow through the same error-shaped reporting surface.
type EmptyFoldResult struct {
	FoldIndex int
}

func (e *EmptyFoldResult) Error() string {
	return fmt.Sprintf("fold %d produced zero test-window signals", e.FoldIndex)
}

// ConfigurationError reports a fatal startup-time configuration problem
// (spec.md §7): out-of-range thresholds, missing required fields,
// contradictory settings.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: field %q: %s", e.Field, e.Reason)
}

// ModelFitError reports a failure while training the ML Gate: degenerate
// training data, a singular feature matrix, or a model family that could
// not converge.
type ModelFitError struct {
	Reason string
}

func (e *ModelFitError) Error() string {
	return fmt.Sprintf("model fit error: %s", e.Reason)
}
