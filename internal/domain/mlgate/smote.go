package mlgate

import "math"

// rebalanceMinority synthesizes additional minority-class examples by
// k-nearest-neighbor interpolation within the minority class, SMOTE's core
// idea (Chawla et al.), applied strictly to the samples passed in — the
// caller is responsible for ensuring that is the training fold only, never
// the evaluation set (spec.md §4.4, SPEC_FULL.md §12).
func rebalanceMinority(samples []Sample, rng *rngSource) []Sample {
	pos, neg := splitByLabel(samples)
	minority, minorityLabel := pos, 1
	majorityCount := len(neg)
	if len(pos) > len(neg) {
		minority, minorityLabel = neg, 0
		majorityCount = len(pos)
	}
	if len(minority) < 2 || len(minority) >= majorityCount {
		return samples
	}

	k := 5
	if k > len(minority)-1 {
		k = len(minority) - 1
	}
	needed := majorityCount - len(minority)

	synthetic := make([]Sample, 0, needed)
	for len(synthetic) < needed {
		i := rng.intn(len(minority))
		base := minority[i]
		neighbors := nearestNeighbors(minority, i, k)
		if len(neighbors) == 0 {
			break
		}
		j := neighbors[rng.intn(len(neighbors))]
		neighbor := minority[j]

		gap := rng.float64()
		features := make([]float64, len(base.Features))
		for f := range features {
			features[f] = base.Features[f] + gap*(neighbor.Features[f]-base.Features[f])
		}
		synthetic = append(synthetic, Sample{Features: features, Label: minorityLabel})
	}

	out := make([]Sample, 0, len(samples)+len(synthetic))
	out = append(out, samples...)
	out = append(out, synthetic...)
	return out
}

func splitByLabel(samples []Sample) (pos, neg []Sample) {
	for _, s := range samples {
		if s.Label == 1 {
			pos = append(pos, s)
		} else {
			neg = append(neg, s)
		}
	}
	return
}

func nearestNeighbors(samples []Sample, idx, k int) []int {
	type dist struct {
		idx int
		d   float64
	}
	dists := make([]dist, 0, len(samples)-1)
	for i, s := range samples {
		if i == idx {
			continue
		}
		dists = append(dists, dist{idx: i, d: euclidean(samples[idx].Features, s.Features)})
	}
	// simple selection of the k smallest distances; sample counts here are
	// small (one fold's minority class), so an O(n*k) selection is enough.
	out := make([]int, 0, k)
	used := make(map[int]bool, k)
	for len(out) < k && len(out) < len(dists) {
		bestIdx, bestD := -1, math.Inf(1)
		for i, dd := range dists {
			if used[i] {
				continue
			}
			if dd.d < bestD {
				bestD = dd.d
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		used[bestIdx] = true
		out = append(out, dists[bestIdx].idx)
	}
	return out
}

func euclidean(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}
