package mlgate

import "math/rand"

// rngSource wraps a seeded *rand.Rand so every training run is
// reproducible from its seed alone (spec.md §8 scenario 6: identical
// seed and configuration must produce byte-identical results). Nothing in
// this package ever calls the global math/rand functions or time-seeded
// sources.
type rngSource struct {
	r *rand.Rand
}

func newRNG(seed int64) *rngSource {
	return &rngSource{r: rand.New(rand.NewSource(seed))}
}

// bootstrapSample draws len(samples) examples with replacement, the
// standard bagging step feeding each tree in the ensemble.
func (rs *rngSource) bootstrapSample(samples []Sample) []Sample {
	out := make([]Sample, len(samples))
	for i := range out {
		out[i] = samples[rs.r.Intn(len(samples))]
	}
	return out
}

// samplFeatureIndices returns k distinct feature indices out of n, the
// random-subspace step used at each tree split (bagging's usual
// complement, reducing correlation between ensemble members).
func (rs *rngSource) samplFeatureIndices(n, k int) []int {
	if k >= n {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	perm := rs.r.Perm(n)
	return perm[:k]
}

// float64 returns a uniform draw in [0,1).
func (rs *rngSource) float64() float64 { return rs.r.Float64() }

// intn returns a uniform draw in [0,n).
func (rs *rngSource) intn(n int) int { return rs.r.Intn(n) }
