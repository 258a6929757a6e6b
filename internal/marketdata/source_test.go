package marketdata

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/b3quant/wave3/internal/domain/bar"
)

type fakeSource struct {
	calls   int
	failing bool
	series  bar.Series
}

func (f *fakeSource) LoadBars(ctx context.Context, symbol string, tf bar.Timeframe, from, to time.Time) (bar.Series, error) {
	f.calls++
	if f.failing {
		return bar.Series{}, errors.New("upstream unavailable")
	}
	return f.series, nil
}

func TestBreakerPassesThroughOnSuccess(t *testing.T) {
	series := bar.Series{Symbol: "PETR4", Timeframe: bar.TimeframeDaily}
	fake := &fakeSource{series: series}
	b := NewBreaker("b3-test", fake)

	got, err := b.LoadBars(context.Background(), "PETR4", bar.TimeframeDaily, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("LoadBars: %v", err)
	}
	if got.Symbol != "PETR4" {
		t.Fatalf("got series for %q, want PETR4", got.Symbol)
	}
}

func TestBreakerTripsOnConsecutiveFailures(t *testing.T) {
	fake := &fakeSource{failing: true}
	b := NewBreaker("b3-test-trip", fake)

	var lastErr error
	for i := 0; i < 5; i++ {
		_, lastErr = b.LoadBars(context.Background(), "PETR4", bar.TimeframeDaily, time.Time{}, time.Time{})
	}
	if lastErr == nil {
		t.Fatalf("expected an error after repeated upstream failures")
	}
	// Once open, the breaker must reject without calling the wrapped source.
	callsBeforeOpen := fake.calls
	_, err := b.LoadBars(context.Background(), "PETR4", bar.TimeframeDaily, time.Time{}, time.Time{})
	if err == nil {
		t.Fatalf("expected the open breaker to reject the call")
	}
	if fake.calls != callsBeforeOpen {
		t.Fatalf("open breaker should not invoke the wrapped source, calls went from %d to %d", callsBeforeOpen, fake.calls)
	}
}
