package indicators

import "math"

// MACD computes the MACD line (EMA(fast)-EMA(slow)), its signal line
// (EMA(signal) of the MACD line) and the histogram (macd-signal), following
// the standard 12/26/9 configuration from spec.md §4.1.
func MACD(closes []float64, fast, slow, signal int) (macd, sig, hist Column) {
	emaFast := EMA(closes, fast)
	emaSlow := EMA(closes, slow)

	macd = nanColumn(len(closes))
	for i := range closes {
		if isValid(emaFast[i]) && isValid(emaSlow[i]) {
			macd[i] = emaFast[i] - emaSlow[i]
		}
	}

	macdValid := firstValid(macd)
	if macdValid < 0 {
		return macd, nanColumn(len(closes)), nanColumn(len(closes))
	}
	sig = emaOfColumn(macd, macdValid, signal)

	hist = nanColumn(len(closes))
	for i := range closes {
		if isValid(macd[i]) && isValid(sig[i]) {
			hist[i] = macd[i] - sig[i]
		}
	}
	return macd, sig, hist
}

// emaOfColumn runs the EMA recurrence over a Column that itself starts valid
// only at index `from` (e.g. the MACD line, valid only once the slower EMA
// has warmed up), instead of index 0.
func emaOfColumn(col Column, from, n int) Column {
	out := nanColumn(len(col))
	if n <= 0 || len(col)-from < n {
		return out
	}
	alpha := 2.0 / (float64(n) + 1.0)
	seed := 0.0
	for i := from; i < from+n; i++ {
		seed += col[i]
	}
	seed /= float64(n)
	idx := from + n - 1
	out[idx] = seed
	prev := seed
	for i := idx + 1; i < len(col); i++ {
		prev = col[i]*alpha + prev*(1-alpha)
		out[i] = prev
	}
	return out
}

func firstValid(col Column) int {
	for i, v := range col {
		if isValid(v) {
			return i
		}
	}
	return -1
}

// ADX computes Wilder's Average Directional Index along with the smoothed
// +DI/-DI lines, following the teacher's CalculateADX
// (internal/domain/indicators/technical.go): true range and directional
// movement are Wilder-smoothed over n periods, DI+/DI- are the smoothed
// movement as a percentage of smoothed true range, and ADX is the
// Wilder-smoothed average of the directional index |+DI - -DI|/(+DI + -DI).
func ADX(highs, lows, closes []float64, n int) (adx, plusDI, minusDI Column) {
	size := len(closes)
	adx, plusDI, minusDI = nanColumn(size), nanColumn(size), nanColumn(size)
	if size < n+1 {
		return
	}

	tr := make([]float64, size)
	plusDM := make([]float64, size)
	minusDM := make([]float64, size)
	for i := 1; i < size; i++ {
		highMove := highs[i] - highs[i-1]
		lowMove := lows[i-1] - lows[i]

		switch {
		case highMove > lowMove && highMove > 0:
			plusDM[i] = highMove
		default:
			plusDM[i] = 0
		}
		switch {
		case lowMove > highMove && lowMove > 0:
			minusDM[i] = lowMove
		default:
			minusDM[i] = 0
		}

		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}

	smoothTR := WilderSmooth(tr[1:], n)
	smoothPlusDM := WilderSmooth(plusDM[1:], n)
	smoothMinusDM := WilderSmooth(minusDM[1:], n)

	dx := nanColumn(size)
	for i := 0; i < len(smoothTR); i++ {
		idx := i + 1
		if !isValid(smoothTR[i]) || smoothTR[i] == 0 {
			continue
		}
		pdi := 100 * smoothPlusDM[i] / smoothTR[i]
		mdi := 100 * smoothMinusDM[i] / smoothTR[i]
		plusDI[idx] = pdi
		minusDI[idx] = mdi
		denom := pdi + mdi
		if denom != 0 {
			dx[idx] = 100 * math.Abs(pdi-mdi) / denom
		}
	}

	from := firstValid(dx)
	if from < 0 {
		return
	}
	adxSmoothed := WilderSmooth(dx[from:], n)
	for i, v := range adxSmoothed {
		if isValid(v) {
			adx[from+i] = v
		}
	}
	return
}
