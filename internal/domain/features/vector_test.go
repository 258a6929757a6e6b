package features

import (
	"math"
	"testing"
	"time"

	"github.com/b3quant/wave3/internal/domain/bar"
	"github.com/b3quant/wave3/internal/domain/indicators"
)

func buildDailyAndHourly(t *testing.T, days int, drift float64) (bar.Series, bar.Series) {
	t.Helper()
	dailyBars := make([]bar.Bar, days)
	ts := time.Date(2025, 1, 1, 13, 0, 0, 0, time.UTC)
	price := 30.0
	for i := 0; i < days; i++ {
		open := price
		close := open + drift
		dailyBars[i] = bar.Bar{
			Timestamp: ts.AddDate(0, 0, i),
			Open:      open, High: math.Max(open, close) + 0.5, Low: math.Min(open, close) - 0.5,
			Close: close, Volume: 1_000_000,
		}
		price = close
	}
	daily, err := bar.NewSeries("PETR4", bar.TimeframeDaily, dailyBars, 0)
	if err != nil {
		t.Fatalf("daily series: %v", err)
	}

	hourlyBars := make([]bar.Bar, 0, days*7)
	for d := 0; d < days; d++ {
		dayOpen := 30.0 + float64(d)*drift
		for h := 0; h < 7; h++ {
			hourlyTs := time.Date(2025, 1, 1, 10+h, 0, 0, 0, time.UTC).AddDate(0, 0, d)
			open := dayOpen + float64(h)*0.05
			close := open + 0.05
			hourlyBars = append(hourlyBars, bar.Bar{
				Timestamp: hourlyTs,
				Open:      open, High: math.Max(open, close) + 0.1, Low: math.Min(open, close) - 0.1,
				Close: close, Volume: 100_000,
			})
		}
	}
	hourly, err := bar.NewSeries("PETR4", bar.Timeframe60m, hourlyBars, 0)
	if err != nil {
		t.Fatalf("hourly series: %v", err)
	}
	return daily, hourly
}

func TestBuildAtAlignsDailyContextStrictlyBeforeTrigger(t *testing.T) {
	daily, hourly := buildDailyAndHourly(t, 100, 0.3)
	p := indicators.DefaultPeriods()
	dailyTable := indicators.Build(daily, p)
	hourlyTable := indicators.Build(hourly, p)

	b := NewBuilder(hourly, hourlyTable, daily, dailyTable, p)

	i := hourly.Len() - 1
	vec, ok := b.BuildAt(i)
	if !ok {
		t.Fatalf("expected a buildable vector at the last hourly bar")
	}
	if !vec.TriggerTime.Timestamp.After(daily.Bars[vec.DailyIdx].Timestamp) {
		t.Fatalf("aligned daily bar %s must close strictly before trigger bar %s", daily.Bars[vec.DailyIdx].Timestamp, vec.TriggerTime.Timestamp)
	}
}

func TestSchemaFixedAcrossCalls(t *testing.T) {
	daily, hourly := buildDailyAndHourly(t, 100, 0.3)
	p := indicators.DefaultPeriods()
	dailyTable := indicators.Build(daily, p)
	hourlyTable := indicators.Build(hourly, p)
	b := NewBuilder(hourly, hourlyTable, daily, dailyTable, p)

	var first []string
	for i := hourly.Len() - 5; i < hourly.Len(); i++ {
		vec, ok := b.BuildAt(i)
		if !ok {
			continue
		}
		if first == nil {
			first = vec.Names
			continue
		}
		if len(first) != len(vec.Names) {
			t.Fatalf("feature count drifted between bars: %d vs %d", len(first), len(vec.Names))
		}
		for j := range first {
			if first[j] != vec.Names[j] {
				t.Fatalf("feature name drifted at index %d: %q vs %q", j, first[j], vec.Names[j])
			}
		}
	}
}

func TestHasWarmupGapEarlyInHistory(t *testing.T) {
	daily, hourly := buildDailyAndHourly(t, 100, 0.3)
	p := indicators.DefaultPeriods()
	dailyTable := indicators.Build(daily, p)
	hourlyTable := indicators.Build(hourly, p)
	b := NewBuilder(hourly, hourlyTable, daily, dailyTable, p)

	// Hourly bars before the first daily bar have no aligned daily context,
	// so BuildAt declines them; the first bar it builds is still well inside
	// the EMA72 warmup.
	var vec Vector
	ok := false
	for i := 0; i < hourly.Len() && !ok; i++ {
		vec, ok = b.BuildAt(i)
	}
	if !ok {
		t.Fatalf("expected a vector even in warmup, just one flagged HasWarmupGap")
	}
	if !vec.HasWarmupGap() {
		t.Fatalf("expected the first aligned bar to have a warmup gap (EMA72 etc. not yet valid)")
	}
}

func TestUptrendRegimeClassification(t *testing.T) {
	daily, hourly := buildDailyAndHourly(t, 100, 0.5)
	p := indicators.DefaultPeriods()
	dailyTable := indicators.Build(daily, p)
	hourlyTable := indicators.Build(hourly, p)
	b := NewBuilder(hourly, hourlyTable, daily, dailyTable, p)

	vec, ok := b.BuildAt(hourly.Len() - 1)
	if !ok {
		t.Fatalf("expected a buildable vector")
	}
	if vec.Trend != TrendUp {
		t.Fatalf("strong positive daily drift: want TrendUp, got %v", vec.Trend)
	}
}
