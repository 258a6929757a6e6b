package indicators

import (
	"math"
	"testing"
)

func TestRSIPureUpwardRampSaturatesAt100(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(i + 1)
	}
	got := RSI(closes, 14)

	last := got[len(got)-1]
	if math.Abs(last-100) > 1e-9 {
		t.Fatalf("pure upward ramp: want RSI=100, got %v", last)
	}
}

func TestRSIFlatSeriesIsFifty(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = 100
	}
	got := RSI(closes, 14)
	last := got[len(got)-1]
	if math.Abs(last-50) > 1e-9 {
		t.Fatalf("flat series: want RSI=50, got %v", last)
	}
}

func TestStochasticBoundedZeroToHundred(t *testing.T) {
	highs := []float64{10, 11, 12, 13, 14, 15}
	lows := []float64{9, 10, 11, 12, 13, 14}
	closes := []float64{9.5, 10.5, 11.5, 12.5, 13.5, 15}

	k, d := Stochastic(highs, lows, closes, 3, 2)
	for i, v := range k {
		if !isValid(v) {
			continue
		}
		if v < 0 || v > 100 {
			t.Errorf("%%K index %d out of bounds: %v", i, v)
		}
	}
	if isValid(k[len(k)-1]) && k[len(k)-1] != 100 {
		t.Fatalf("last bar closes at the period high: want %%K=100, got %v", k[len(k)-1])
	}
	_ = d
}

func TestMFIAllPositiveFlowIsHundred(t *testing.T) {
	n := 20
	highs := make([]float64, n)
	lows := make([]float64, n)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i := 0; i < n; i++ {
		closes[i] = float64(100 + i)
		highs[i] = closes[i] + 1
		lows[i] = closes[i] - 1
		volumes[i] = 1000
	}
	got := MFI(highs, lows, closes, volumes, 14)
	last := got[len(got)-1]
	if math.Abs(last-100) > 1e-9 {
		t.Fatalf("monotonic uptrend: want MFI=100, got %v", last)
	}
}
