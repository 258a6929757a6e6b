package indicators

import (
	"math"
	"testing"
)

func TestSMAWarmupAndValue(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}
	got := SMA(values, 3)

	for i := 0; i < 2; i++ {
		if !math.IsNaN(got[i]) {
			t.Fatalf("index %d: expected NaN warmup, got %v", i, got[i])
		}
	}
	want := []float64{2, 3, 4}
	for i, w := range want {
		if got[i+2] != w {
			t.Errorf("index %d: want %v, got %v", i+2, w, got[i+2])
		}
	}
}

func TestEMASeedsWithSimpleMean(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	got := EMA(values, 3)

	if !math.IsNaN(got[0]) || !math.IsNaN(got[1]) {
		t.Fatalf("expected warmup NaNs before index 2")
	}
	if got[2] != 2 {
		t.Fatalf("seed at index 2: want 2 (mean of 1,2,3), got %v", got[2])
	}
	alpha := 2.0 / 4.0
	want3 := 4*alpha + 2*(1-alpha)
	if math.Abs(got[3]-want3) > 1e-9 {
		t.Fatalf("index 3: want %v, got %v", want3, got[3])
	}
}

func TestWilderSmoothMatchesHandComputedSeries(t *testing.T) {
	values := []float64{10, 10, 10, 10, 20, 10, 10}
	got := WilderSmooth(values, 4)

	if !isValid(got[3]) {
		t.Fatalf("expected seed at index 3")
	}
	if got[3] != 10 {
		t.Fatalf("seed: want 10, got %v", got[3])
	}
	want4 := 10*0.75 + 20*0.25
	if math.Abs(got[4]-want4) > 1e-9 {
		t.Fatalf("index 4: want %v, got %v", want4, got[4])
	}
}

func TestSMAInsufficientHistoryIsAllNaN(t *testing.T) {
	got := SMA([]float64{1, 2}, 5)
	for i, v := range got {
		if !math.IsNaN(v) {
			t.Fatalf("index %d: want NaN for insufficient history, got %v", i, v)
		}
	}
}
