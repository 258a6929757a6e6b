// Package marketdata wraps a B3 bar provider with a circuit breaker so a
// flaky upstream never cascades into the backtest engine, grounded on
// infra/breakers/breakers.go's sony/gobreaker wiring.
package marketdata

import (
	"context"
	"time"

	cb "github.com/sony/gobreaker"

	"github.com/b3quant/wave3/internal/domain/bar"
)

// BarSource loads a complete, ordered bar series for one symbol/timeframe
// over a time range, per spec.md §3's data-loading boundary.
type BarSource interface {
	LoadBars(ctx context.Context, symbol string, tf bar.Timeframe, from, to time.Time) (bar.Series, error)
}

// Breaker wraps a BarSource with a circuit breaker: three consecutive
// failures, or a >5% failure rate once 20 requests have been observed in
// the rolling interval, trips the breaker open for the cooldown window —
// identical thresholds to the teacher's infra/breakers.New.
type Breaker struct {
	source BarSource
	cb     *cb.CircuitBreaker
}

// NewBreaker wraps source with a named circuit breaker.
func NewBreaker(name string, source BarSource) *Breaker {
	settings := cb.Settings{Name: name}
	settings.Interval = 60 * time.Second
	settings.Timeout = 60 * time.Second
	settings.ReadyToTrip = func(counts cb.Counts) bool {
		if counts.ConsecutiveFailures >= 3 {
			return true
		}
		total := counts.Requests
		if total < 20 {
			return false
		}
		return float64(counts.TotalFailures)/float64(total) > 0.05
	}
	return &Breaker{source: source, cb: cb.NewCircuitBreaker(settings)}
}

// LoadBars implements BarSource, routing the call through the breaker.
func (b *Breaker) LoadBars(ctx context.Context, symbol string, tf bar.Timeframe, from, to time.Time) (bar.Series, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.source.LoadBars(ctx, symbol, tf, from, to)
	})
	if err != nil {
		return bar.Series{}, err
	}
	return result.(bar.Series), nil
}
