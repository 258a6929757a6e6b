package indicators

import "math"

// EMA computes the exponential moving average of values with smoothing
// alpha = 2/(n+1), seeded with the simple mean of the first n values
// (spec.md §4.1). Indices [0, n-2] are NaN (warmup); index n-1 is the seed.
func EMA(values []float64, n int) Column {
	out := nanColumn(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	alpha := 2.0 / (float64(n) + 1.0)

	seed := 0.0
	for i := 0; i < n; i++ {
		seed += values[i]
	}
	seed /= float64(n)
	out[n-1] = seed

	prev := seed
	for i := n; i < len(values); i++ {
		prev = values[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

// SMA computes the rolling arithmetic mean over a window of n values.
// Warmup is n-1 (spec.md §4.1).
func SMA(values []float64, n int) Column {
	out := nanColumn(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	sum := 0.0
	for i := 0; i < len(values); i++ {
		sum += values[i]
		if i >= n {
			sum -= values[i-n]
		}
		if i >= n-1 {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// WilderSmooth applies Wilder's smoothing (alpha = 1/n) to values, seeded
// with the simple mean of the first n values — the same scheme the teacher
// uses inline for RSI, ATR and ADX (internal/domain/indicators/technical.go)
// generalized into one function all three indicators below call.
func WilderSmooth(values []float64, n int) Column {
	out := nanColumn(len(values))
	if n <= 0 || len(values) < n {
		return out
	}
	alpha := 1.0 / float64(n)

	seed := 0.0
	for i := 0; i < n; i++ {
		seed += values[i]
	}
	seed /= float64(n)
	out[n-1] = seed

	prev := seed
	for i := n; i < len(values); i++ {
		prev = prev*(1-alpha) + values[i]*alpha
		out[i] = prev
	}
	return out
}

// StdDev computes the rolling sample standard deviation over a trailing
// window of n values, NaN before the window fills.
func StdDev(values []float64, n int) Column {
	out := nanColumn(len(values))
	if n <= 1 || len(values) < n {
		return out
	}
	for i := n - 1; i < len(values); i++ {
		window := values[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		sumSq := 0.0
		for _, v := range window {
			d := v - mean
			sumSq += d * d
		}
		out[i] = math.Sqrt(sumSq / float64(n-1))
	}
	return out
}

// RollingMean computes the rolling arithmetic mean over n values; identical
// to SMA but kept as a distinct name where callers build ratios against "a
// rolling mean" generically (volume, ATR) rather than the price SMA.
func RollingMean(values []float64, n int) Column { return SMA(values, n) }
