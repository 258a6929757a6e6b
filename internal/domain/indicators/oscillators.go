package indicators

import "math"

// RSI computes Wilder's Relative Strength Index over n periods: average
// gains and losses are Wilder-smoothed separately, then combined into
// 100 - 100/(1+RS). Mirrors the teacher's CalculateRSI
// (internal/domain/indicators/technical.go): a zero average loss with a
// positive average gain is treated as RSI=100, not a division by zero.
func RSI(closes []float64, n int) Column {
	size := len(closes)
	out := nanColumn(size)
	if size < n+1 {
		return out
	}

	gains := make([]float64, size)
	losses := make([]float64, size)
	for i := 1; i < size; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gains[i] = delta
		} else {
			losses[i] = -delta
		}
	}

	avgGain := WilderSmooth(gains[1:], n)
	avgLoss := WilderSmooth(losses[1:], n)

	for i := 0; i < len(avgGain); i++ {
		idx := i + 1
		if !isValid(avgGain[i]) {
			continue
		}
		if avgLoss[i] == 0 {
			if avgGain[i] == 0 {
				out[idx] = 50
			} else {
				out[idx] = 100
			}
			continue
		}
		rs := avgGain[i] / avgLoss[i]
		out[idx] = 100 - 100/(1+rs)
	}
	return out
}

// Stochastic computes the %K (fast stochastic over n periods) and %D (an
// m-period simple moving average of %K) oscillator, spec.md §4.1's default
// (14,3) configuration.
func Stochastic(highs, lows, closes []float64, n, m int) (k, d Column) {
	size := len(closes)
	k = nanColumn(size)
	if size < n {
		return k, nanColumn(size)
	}
	for i := n - 1; i < size; i++ {
		hh := highs[i-n+1]
		ll := lows[i-n+1]
		for j := i - n + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			k[i] = 50
			continue
		}
		k[i] = 100 * (closes[i] - ll) / (hh - ll)
	}
	d = SMA(k, m)
	return
}

// CCI computes the Commodity Channel Index over n periods using the typical
// price (H+L+C)/3, Lambert's constant 0.015, and mean absolute deviation
// from the rolling mean.
func CCI(highs, lows, closes []float64, n int) Column {
	size := len(closes)
	out := nanColumn(size)
	if size < n {
		return out
	}
	tp := make([]float64, size)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	for i := n - 1; i < size; i++ {
		window := tp[i-n+1 : i+1]
		mean := 0.0
		for _, v := range window {
			mean += v
		}
		mean /= float64(n)
		mad := 0.0
		for _, v := range window {
			mad += math.Abs(v - mean)
		}
		mad /= float64(n)
		if mad == 0 {
			out[i] = 0
			continue
		}
		out[i] = (tp[i] - mean) / (0.015 * mad)
	}
	return out
}

// WilliamsR computes Williams %R over n periods: 100 * (highestHigh -
// close) / (highestHigh - lowestLow), scaled to the conventional [-100, 0]
// range by negation.
func WilliamsR(highs, lows, closes []float64, n int) Column {
	size := len(closes)
	out := nanColumn(size)
	if size < n {
		return out
	}
	for i := n - 1; i < size; i++ {
		hh := highs[i-n+1]
		ll := lows[i-n+1]
		for j := i - n + 1; j <= i; j++ {
			if highs[j] > hh {
				hh = highs[j]
			}
			if lows[j] < ll {
				ll = lows[j]
			}
		}
		if hh == ll {
			out[i] = -50
			continue
		}
		out[i] = -100 * (hh - closes[i]) / (hh - ll)
	}
	return out
}

// MFI computes the Money Flow Index over n periods: a volume-weighted RSI
// analogue built from the typical price and raw money flow, with positive
// flow on an up tick in typical price and negative flow on a down tick.
func MFI(highs, lows, closes, volumes []float64, n int) Column {
	size := len(closes)
	out := nanColumn(size)
	if size < n+1 {
		return out
	}
	tp := make([]float64, size)
	for i := range tp {
		tp[i] = (highs[i] + lows[i] + closes[i]) / 3
	}
	posFlow := make([]float64, size)
	negFlow := make([]float64, size)
	for i := 1; i < size; i++ {
		mf := tp[i] * volumes[i]
		if tp[i] > tp[i-1] {
			posFlow[i] = mf
		} else if tp[i] < tp[i-1] {
			negFlow[i] = mf
		}
	}
	for i := n; i < size; i++ {
		posSum, negSum := 0.0, 0.0
		for j := i - n + 1; j <= i; j++ {
			posSum += posFlow[j]
			negSum += negFlow[j]
		}
		if negSum == 0 {
			out[i] = 100
			continue
		}
		ratio := posSum / negSum
		out[i] = 100 - 100/(1+ratio)
	}
	return out
}
