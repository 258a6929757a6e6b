package indicators

// OBV computes On-Balance Volume: a running total that adds the bar's
// volume on an up close, subtracts it on a down close, and leaves the
// running total unchanged on a flat close. The first bar seeds the total
// with its own volume, matching the conventional OBV definition.
func OBV(closes, volumes []float64) Column {
	size := len(closes)
	out := nanColumn(size)
	if size == 0 {
		return out
	}
	out[0] = volumes[0]
	running := volumes[0]
	for i := 1; i < size; i++ {
		switch {
		case closes[i] > closes[i-1]:
			running += volumes[i]
		case closes[i] < closes[i-1]:
			running -= volumes[i]
		}
		out[i] = running
	}
	return out
}

// VPT computes the Volume Price Trend: a running total incremented each bar
// by volume * the percentage close-to-close change, a smoother volume-flow
// analogue to OBV that weights by the magnitude of the move, not just its
// sign.
func VPT(closes, volumes []float64) Column {
	size := len(closes)
	out := nanColumn(size)
	if size == 0 {
		return out
	}
	out[0] = 0
	running := 0.0
	for i := 1; i < size; i++ {
		if closes[i-1] != 0 {
			running += volumes[i] * (closes[i] - closes[i-1]) / closes[i-1]
		}
		out[i] = running
	}
	return out
}
