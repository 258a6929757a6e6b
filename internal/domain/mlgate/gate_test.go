package mlgate

import "testing"

func linearlySeparableSamples(n int) []Sample {
	samples := make([]Sample, 0, n)
	for i := 0; i < n; i++ {
		x := float64(i%20) - 10
		label := 0
		if x > 0 {
			label = 1
		}
		samples = append(samples, Sample{Features: []float64{x, float64(i % 3)}, Label: label})
	}
	return samples
}

func TestTrainTreeEnsembleSeparatesClasses(t *testing.T) {
	samples := linearlySeparableSamples(200)
	cfg := DefaultConfig()
	cfg.UseSMOTELikeRebalance = false
	gate, err := Train(samples, Schema{"x", "noise"}, cfg, 42)
	if err != nil {
		t.Fatalf("train: %v", err)
	}

	accepted, confidence, err := gate.Predict([]string{"x", "noise"}, []float64{8, 0})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if confidence < 0.5 {
		t.Fatalf("expected high confidence for a clearly positive-class point, got %v", confidence)
	}
	if !accepted {
		t.Fatalf("expected acceptance at default threshold, confidence=%v", confidence)
	}
}

func TestPredictIsPure(t *testing.T) {
	samples := linearlySeparableSamples(100)
	gate, err := Train(samples, Schema{"x", "noise"}, DefaultConfig(), 7)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	a1, c1, _ := gate.Predict([]string{"x", "noise"}, []float64{3, 1})
	a2, c2, _ := gate.Predict([]string{"x", "noise"}, []float64{3, 1})
	if a1 != a2 || c1 != c2 {
		t.Fatalf("predict is not pure: (%v,%v) vs (%v,%v)", a1, c1, a2, c2)
	}
}

func TestFeatureSchemaMismatchRejected(t *testing.T) {
	samples := linearlySeparableSamples(60)
	gate, err := Train(samples, Schema{"a", "b"}, DefaultConfig(), 1)
	if err != nil {
		t.Fatalf("train: %v", err)
	}
	_, _, err = gate.Predict([]string{"a"}, []float64{1})
	if err == nil {
		t.Fatalf("expected FeatureSchemaMismatch for a truncated feature mapping")
	}
}

func TestTrainAllOneClassFails(t *testing.T) {
	samples := make([]Sample, 10)
	for i := range samples {
		samples[i] = Sample{Features: []float64{float64(i)}, Label: 1}
	}
	_, err := Train(samples, Schema{"x"}, DefaultConfig(), 1)
	if err == nil {
		t.Fatalf("expected ModelFitError for single-class training data")
	}
}

func TestTrainDeterministicAcrossRuns(t *testing.T) {
	samples := linearlySeparableSamples(150)
	g1, err := Train(samples, Schema{"x", "noise"}, DefaultConfig(), 99)
	if err != nil {
		t.Fatalf("train 1: %v", err)
	}
	g2, err := Train(samples, Schema{"x", "noise"}, DefaultConfig(), 99)
	if err != nil {
		t.Fatalf("train 2: %v", err)
	}
	_, c1, _ := g1.Predict([]string{"x", "noise"}, []float64{-4, 2})
	_, c2, _ := g2.Predict([]string{"x", "noise"}, []float64{-4, 2})
	if c1 != c2 {
		t.Fatalf("same seed and data must reproduce identical confidence: %v vs %v", c1, c2)
	}
}
