package indicators

import "math"

// ATR computes Wilder's Average True Range over n periods by Wilder-
// smoothing the true range series, matching the teacher's CalculateATR
// (internal/domain/indicators/technical.go). atrPct expresses ATR as a
// percentage of the same bar's close, the normalized form the Feature
// Builder and the regime/vol-bucket logic consume.
func ATR(highs, lows, closes []float64, n int) (atr, atrPct Column) {
	size := len(closes)
	atr, atrPct = nanColumn(size), nanColumn(size)
	if size < n+1 {
		return
	}
	tr := make([]float64, size)
	for i := 1; i < size; i++ {
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	smoothed := WilderSmooth(tr[1:], n)
	for i, v := range smoothed {
		idx := i + 1
		if !isValid(v) {
			continue
		}
		atr[idx] = v
		if closes[idx] != 0 {
			atrPct[idx] = 100 * v / closes[idx]
		}
	}
	return
}

// Bollinger computes the Bollinger Bands (n-period SMA basis, +/- k standard
// deviations), the normalized band width (upper-lower)/basis, the percent-b
// position of close within the band, and a squeeze flag (true when width
// is the lowest of the last squeezeLookback widths, the current bar
// included and ties counting, signaling a volatility contraction per
// spec.md §4.1's Bollinger squeeze note).
func Bollinger(closes []float64, n int, k float64, squeezeLookback int) (upper, lower, basis, width, pctB Column, squeeze []bool) {
	size := len(closes)
	basis = SMA(closes, n)
	sd := StdDev(closes, n)
	upper, lower = nanColumn(size), nanColumn(size)
	width, pctB = nanColumn(size), nanColumn(size)
	squeeze = make([]bool, size)

	for i := 0; i < size; i++ {
		if !isValid(basis[i]) || !isValid(sd[i]) {
			continue
		}
		upper[i] = basis[i] + k*sd[i]
		lower[i] = basis[i] - k*sd[i]
		if basis[i] != 0 {
			width[i] = (upper[i] - lower[i]) / basis[i]
		}
		span := upper[i] - lower[i]
		if span != 0 {
			pctB[i] = (closes[i] - lower[i]) / span
		}
	}

	if squeezeLookback <= 0 {
		return
	}
	for i := 0; i < size; i++ {
		if !isValid(width[i]) || i < squeezeLookback {
			continue
		}
		minWidth := width[i]
		allValid := true
		for j := i - squeezeLookback + 1; j <= i; j++ {
			if !isValid(width[j]) {
				allValid = false
				break
			}
			if width[j] < minWidth {
				minWidth = width[j]
			}
		}
		squeeze[i] = allValid && width[i] <= minWidth
	}
	return
}

// Keltner computes Keltner Channels: an n-period EMA basis +/- a multiple
// of ATR(n), spec.md §4.1's default (20, 2xATR) configuration.
func Keltner(highs, lows, closes []float64, n int, atrMult float64) (upper, lower, basis Column) {
	basis = EMA(closes, n)
	atr, _ := ATR(highs, lows, closes, n)
	size := len(closes)
	upper, lower = nanColumn(size), nanColumn(size)
	for i := 0; i < size; i++ {
		if !isValid(basis[i]) || !isValid(atr[i]) {
			continue
		}
		upper[i] = basis[i] + atrMult*atr[i]
		lower[i] = basis[i] - atrMult*atr[i]
	}
	return
}

// HistoricalVolatility computes annualized historical volatility over an
// n-period trailing window of log returns, scaled by sqrt(252) trading
// days per spec.md §4.1.
func HistoricalVolatility(closes []float64, n int) Column {
	size := len(closes)
	out := nanColumn(size)
	if size < n+1 {
		return out
	}
	logReturns := make([]float64, size)
	for i := 1; i < size; i++ {
		if closes[i-1] > 0 && closes[i] > 0 {
			logReturns[i] = math.Log(closes[i] / closes[i-1])
		}
	}
	sd := StdDev(logReturns[1:], n)
	for i, v := range sd {
		idx := i + 1
		if !isValid(v) {
			continue
		}
		out[idx] = v * math.Sqrt(252)
	}
	return out
}
