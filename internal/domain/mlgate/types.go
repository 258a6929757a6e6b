// Package mlgate implements the ML Gate (spec.md §4.4): a binary
// classifier that annotates a Candidate Signal with (accepted, confidence)
// without mutating it. No pack example repo carries a decision-tree or
// gradient-boosted-tree training library (checked golearn, gonum, goml —
// absent from every _examples/ repo), so both supported model families are
// hand-rolled on math/sort/math/rand, per SPEC_FULL.md §9's explicit
// standard-library-only justification.
package mlgate

import "fmt"

// ModelFamily selects which trainer Train uses; spec.md §4.4 names exactly
// these two.
type ModelFamily string

const (
	FamilyTreeEnsemble    ModelFamily = "tree_ensemble"
	FamilyGradientBoosted ModelFamily = "gradient_boosted"
)

// Sample is one labeled training example: a feature vector in the fixed
// schema ordering plus the realized-outcome label (1 profitable, 0 not),
// per spec.md §4.4's training contract.
type Sample struct {
	Features []float64
	Label    int
}

// Model is the trained artifact. Predict returns the probability of the
// positive (profitable) class, in [0,1].
type Model interface {
	Predict(features []float64) float64
}

// Schema is the fixed, ordered feature-name list a Model was trained
// against; it is serialized alongside the model per spec.md §6.
type Schema []string

// Equal reports whether two schemas have identical names in identical
// order — anything else is a FeatureSchemaMismatch (spec.md §4.4, §7).
func (s Schema) Equal(other Schema) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

func (s Schema) String() string {
	return fmt.Sprintf("%v", []string(s))
}

// Config holds spec.md §6's ml.* configuration surface.
type Config struct {
	Enabled               bool
	Family                ModelFamily
	Threshold             float64 // [0.5, 0.95], default 0.6
	UseSMOTELikeRebalance bool
	ProfitLabelThreshold  float64 // default 0.02
	// Ensemble hyperparameters, kept small and explicit rather than
	// auto-tuned — this is a research core, not an AutoML system.
	NumTrees    int // tree_ensemble: number of bagged trees
	MaxDepth    int
	MinLeafSize int
	// GradientBoosted-specific.
	NumRounds    int
	LearningRate float64
}

// DefaultConfig mirrors spec.md §6's documented defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:               true,
		Family:                FamilyTreeEnsemble,
		Threshold:              0.6,
		UseSMOTELikeRebalance: true,
		ProfitLabelThreshold:  0.02,
		NumTrees:              25,
		MaxDepth:              4,
		MinLeafSize:           5,
		NumRounds:             50,
		LearningRate:          0.1,
	}
}
