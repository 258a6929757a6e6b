package mlgate

import "math"

// treeEnsemble is a bagged forest of decisionTrees: the prediction is the
// mean of each tree's leaf positive-fraction, the standard random-forest
// aggregation rule.
type treeEnsemble struct {
	trees []*decisionTree
}

func (e *treeEnsemble) Predict(features []float64) float64 {
	if len(e.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range e.trees {
		sum += t.Predict(features)
	}
	return sum / float64(len(e.trees))
}

func trainTreeEnsemble(samples []Sample, cfg Config, seed int64) *treeEnsemble {
	rng := newRNG(seed)
	trees := make([]*decisionTree, 0, cfg.NumTrees)
	for i := 0; i < cfg.NumTrees; i++ {
		bagged := rng.bootstrapSample(samples)
		trees = append(trees, trainDecisionTree(bagged, cfg.MaxDepth, cfg.MinLeafSize, rng))
	}
	return &treeEnsemble{trees: trees}
}

// gradientBoosted is a sequence of depth-2 classification trees, each fit
// to the sign of the logistic-loss residual against the previous
// ensemble's combined score. Each tree's leaf positive fraction is
// recentred to [-1,1] and added at a fixed learning rate; the residual
// magnitudes themselves are not fit, unlike Friedman's GBM.
type gradientBoosted struct {
	trees        []*decisionTree
	learningRate float64
	initScore    float64
}

func (e *gradientBoosted) Predict(features []float64) float64 {
	score := e.initScore
	for _, t := range e.trees {
		score += e.learningRate * (t.Predict(features)*2 - 1) // recenter leaf output to [-1,1] as a pseudo-residual estimate
	}
	return sigmoid(score)
}

// sigmoid computes the logistic function in a numerically stable form
// (branching on the sign of x to keep the exponent argument non-positive).
func sigmoid(x float64) float64 {
	if x >= 0 {
		z := math.Exp(-x)
		return 1 / (1 + z)
	}
	z := math.Exp(x)
	return z / (1 + z)
}

func trainGradientBoosted(samples []Sample, cfg Config, seed int64) *gradientBoosted {
	rng := newRNG(seed)

	pos := 0
	for _, s := range samples {
		if s.Label == 1 {
			pos++
		}
	}
	p := float64(pos) / float64(len(samples))
	if p <= 0 {
		p = 1e-3
	}
	if p >= 1 {
		p = 1 - 1e-3
	}
	initScore := math.Log(p / (1 - p))

	model := &gradientBoosted{learningRate: cfg.LearningRate, initScore: initScore}
	currentScore := make([]float64, len(samples))
	for i := range currentScore {
		currentScore[i] = initScore
	}

	for round := 0; round < cfg.NumRounds; round++ {
		pseudo := make([]Sample, len(samples))
		for i, s := range samples {
			predicted := sigmoid(currentScore[i])
			residual := float64(s.Label) - predicted
			label := 0
			if residual > 0 {
				label = 1
			}
			pseudo[i] = Sample{Features: s.Features, Label: label}
		}
		tree := trainDecisionTree(pseudo, 2, cfg.MinLeafSize, rng)
		model.trees = append(model.trees, tree)
		for i, s := range samples {
			currentScore[i] += cfg.LearningRate * (tree.Predict(s.Features)*2 - 1)
		}
	}
	return model
}
