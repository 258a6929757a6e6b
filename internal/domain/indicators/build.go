package indicators

import "github.com/b3quant/wave3/internal/domain/bar"

// Periods holds the lookback configuration for every indicator family,
// letting callers (the Feature Builder, property tests) run the engine at
// non-default lookbacks without touching this package.
type Periods struct {
	EMAFast, EMASlow     int // e.g. 17, 72 (Wave3 daily context)
	MACDFast, MACDSlow, MACDSignal int
	RSIPeriods           []int // e.g. {7, 14, 21}
	ADXPeriod            int
	ATRPeriods           []int // e.g. {7, 14, 21}
	BollingerPeriod      int
	BollingerK           float64
	BollingerSqueezeLookback int
	KeltnerPeriod        int
	KeltnerATRMult       float64
	StochasticK          int
	StochasticD          int
	MFIPeriod            int
	CCIPeriod            int
	WilliamsRPeriod      int
	HistVolPeriods       []int // e.g. {10, 20, 30}
}

// DefaultPeriods returns the lookback configuration spec.md §4.1 documents
// as the default indicator set.
func DefaultPeriods() Periods {
	return Periods{
		EMAFast: 17, EMASlow: 72,
		MACDFast: 12, MACDSlow: 26, MACDSignal: 9,
		RSIPeriods:               []int{7, 14, 21},
		ADXPeriod:                14,
		ATRPeriods:               []int{7, 14, 21},
		BollingerPeriod:          20,
		BollingerK:               2.0,
		BollingerSqueezeLookback: 60,
		KeltnerPeriod:            20,
		KeltnerATRMult:           2.0,
		StochasticK:              14,
		StochasticD:              3,
		MFIPeriod:                14,
		CCIPeriod:                20,
		WilliamsRPeriod:          14,
		HistVolPeriods:           []int{10, 20, 30},
	}
}

// column name constants — the fixed vocabulary the Feature Builder reads
// Table.Get by. Renaming any of these changes the feature schema
// (internal/domain/features), so a model trained under the old names no
// longer matches it.
const (
	ColEMAFast   = "ema_fast"
	ColEMASlow   = "ema_slow"
	ColMACD      = "macd"
	ColMACDSig   = "macd_signal"
	ColMACDHist  = "macd_hist"
	ColADX       = "adx"
	ColPlusDI    = "plus_di"
	ColMinusDI   = "minus_di"
	ColBBUpper   = "bb_upper"
	ColBBLower   = "bb_lower"
	ColBBBasis   = "bb_basis"
	ColBBWidth   = "bb_width"
	ColBBPctB    = "bb_pct_b"
	ColKCUpper   = "kc_upper"
	ColKCLower   = "kc_lower"
	ColKCBasis   = "kc_basis"
	ColStochK    = "stoch_k"
	ColStochD    = "stoch_d"
	ColOBV       = "obv"
	ColVPT       = "vpt"
	ColMFI       = "mfi"
	ColCCI       = "cci"
	ColWilliamsR = "williams_r"
)

func rsiCol(n int) string    { return colFor("rsi", n) }
func atrCol(n int) string    { return colFor("atr", n) }
func atrPctCol(n int) string { return colFor("atr_pct", n) }
func histVolCol(n int) string { return colFor("hist_vol", n) }

func colFor(prefix string, n int) string {
	return prefix + "_" + itoa(n)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// Build runs the full Indicator Engine over s, returning a Table with every
// configured column populated. It is the single entry point the Feature
// Builder calls. Candlestick pattern flags are not part of the Table:
// Candles computes them separately, and the Wave3 Signal Engine calls it
// directly.
func Build(s bar.Series, p Periods) *Table {
	t := newTable(s)
	closes := s.Closes()
	highs, lows := highsOf(s), lowsOf(s)
	volumes := s.Volumes()

	t.set(ColEMAFast, EMA(closes, p.EMAFast))
	t.set(ColEMASlow, EMA(closes, p.EMASlow))

	macd, sig, hist := MACD(closes, p.MACDFast, p.MACDSlow, p.MACDSignal)
	t.set(ColMACD, macd)
	t.set(ColMACDSig, sig)
	t.set(ColMACDHist, hist)

	for _, n := range p.RSIPeriods {
		t.set(rsiCol(n), RSI(closes, n))
	}

	adx, plusDI, minusDI := ADX(highs, lows, closes, p.ADXPeriod)
	t.set(ColADX, adx)
	t.set(ColPlusDI, plusDI)
	t.set(ColMinusDI, minusDI)

	for _, n := range p.ATRPeriods {
		atr, atrPct := ATR(highs, lows, closes, n)
		t.set(atrCol(n), atr)
		t.set(atrPctCol(n), atrPct)
	}

	bbUpper, bbLower, bbBasis, bbWidth, bbPctB, _ := Bollinger(closes, p.BollingerPeriod, p.BollingerK, p.BollingerSqueezeLookback)
	t.set(ColBBUpper, bbUpper)
	t.set(ColBBLower, bbLower)
	t.set(ColBBBasis, bbBasis)
	t.set(ColBBWidth, bbWidth)
	t.set(ColBBPctB, bbPctB)

	kcUpper, kcLower, kcBasis := Keltner(highs, lows, closes, p.KeltnerPeriod, p.KeltnerATRMult)
	t.set(ColKCUpper, kcUpper)
	t.set(ColKCLower, kcLower)
	t.set(ColKCBasis, kcBasis)

	stochK, stochD := Stochastic(highs, lows, closes, p.StochasticK, p.StochasticD)
	t.set(ColStochK, stochK)
	t.set(ColStochD, stochD)

	t.set(ColOBV, OBV(closes, volumes))
	t.set(ColVPT, VPT(closes, volumes))
	t.set(ColMFI, MFI(highs, lows, closes, volumes, p.MFIPeriod))
	t.set(ColCCI, CCI(highs, lows, closes, p.CCIPeriod))
	t.set(ColWilliamsR, WilliamsR(highs, lows, closes, p.WilliamsRPeriod))

	for _, n := range p.HistVolPeriods {
		t.set(histVolCol(n), HistoricalVolatility(closes, n))
	}

	return t
}

// RSIColumn, ATRColumn, ATRPctColumn and HistVolColumn expose the exact
// column-name convention used for the period-indexed indicator families so
// external packages never hand-build the "prefix_n" string themselves.
func RSIColumn(n int) string     { return rsiCol(n) }
func ATRColumn(n int) string     { return atrCol(n) }
func ATRPctColumn(n int) string  { return atrPctCol(n) }
func HistVolColumn(n int) string { return histVolCol(n) }

func highsOf(s bar.Series) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.High
	}
	return out
}

func lowsOf(s bar.Series) []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Low
	}
	return out
}
