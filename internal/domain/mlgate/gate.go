package mlgate

import (
	"github.com/b3quant/wave3/internal/domain/wavecore"
)

// Gate wraps a fitted Model with its training Schema and Config so
// inference can enforce the schema-match invariant from spec.md §4.4.
type Gate struct {
	Model  Model
	Schema Schema
	Config Config
}

// Train fits a Gate from labeled training samples, per spec.md §4.4's
// training contract. seed must be held fixed across reruns for the
// determinism property in spec.md §8 scenario 6 — callers should derive it
// from the fold index, never from wall-clock time.
func Train(samples []Sample, schema Schema, cfg Config, seed int64) (*Gate, error) {
	if len(samples) == 0 {
		return nil, &wavecore.ModelFitError{Reason: "no training samples"}
	}
	for _, s := range samples {
		if len(s.Features) != len(schema) {
			return nil, &wavecore.ModelFitError{Reason: "sample feature count does not match schema length"}
		}
	}

	pos, neg := splitByLabel(samples)
	if len(pos) == 0 || len(neg) == 0 {
		return nil, &wavecore.ModelFitError{Reason: "training data is all one class"}
	}

	working := samples
	if cfg.UseSMOTELikeRebalance {
		working = rebalanceMinority(samples, newRNG(seed))
	}

	var model Model
	switch cfg.Family {
	case FamilyGradientBoosted:
		model = trainGradientBoosted(working, cfg, seed)
	case FamilyTreeEnsemble, "":
		model = trainTreeEnsemble(working, cfg, seed)
	default:
		return nil, &wavecore.ModelFitError{Reason: "unknown model family: " + string(cfg.Family)}
	}

	return &Gate{Model: model, Schema: append(Schema(nil), schema...), Config: cfg}, nil
}

// Predict applies the gate to one feature vector. It is pure: calling it
// twice with identical inputs returns identical output (spec.md §8's ML
// gate purity property), since neither Model implementation here carries
// any mutable state.
func (g *Gate) Predict(featureNames []string, featureValues []float64) (accepted bool, confidence float64, err error) {
	if !g.Schema.Equal(Schema(featureNames)) {
		return false, 0, &wavecore.FeatureSchemaMismatch{Expected: g.Schema, Actual: featureNames}
	}
	confidence = g.Model.Predict(featureValues)
	accepted = confidence >= g.Config.Threshold
	return accepted, confidence, nil
}

// passthroughModel is the Model behind NewPassthroughGate: it scores every
// signal 1.0, for Config.Enabled == false's "no-ML" mode (spec.md §4.4,
// §4.6).
type passthroughModel struct{}

func (passthroughModel) Predict(_ []float64) float64 { return 1.0 }

// NewPassthroughGate returns a Gate that accepts every signal with
// confidence 1.0, used when ml.enabled is false.
func NewPassthroughGate(schema Schema) *Gate {
	return &Gate{Model: passthroughModel{}, Schema: append(Schema(nil), schema...), Config: Config{Enabled: false, Threshold: 0}}
}
