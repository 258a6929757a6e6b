package indicators

import "github.com/b3quant/wave3/internal/domain/bar"

// CandleFlags holds the boolean pattern flags the Wave3 Signal Engine reads
// as confirmation inputs (spec.md §4.1's candlestick pattern flags). Each
// field is evaluated per-bar using only that bar (and, where noted, its
// immediate predecessor) — never a forward-looking bar.
type CandleFlags struct {
	Bullish     []bool // close > open
	Bearish     []bool // close < open
	Doji        []bool // body is a small fraction of the bar's range
	Hammer      []bool // small body near the top, long lower wick
	ShootingStar []bool // small body near the bottom, long upper wick
	Engulfing   []bool // body fully engulfs the prior bar's body, opposite direction
}

const (
	dojiBodyRatio      = 0.1
	hammerWickRatio    = 2.0
	engulfingMinBodies = 2
)

// Candles computes the candlestick pattern flags for every bar in s.
func Candles(s bar.Series) CandleFlags {
	n := s.Len()
	flags := CandleFlags{
		Bullish:      make([]bool, n),
		Bearish:      make([]bool, n),
		Doji:         make([]bool, n),
		Hammer:       make([]bool, n),
		ShootingStar: make([]bool, n),
		Engulfing:    make([]bool, n),
	}
	for i, b := range s.Bars {
		body := absF(b.Close - b.Open)
		rng := b.High - b.Low
		upperWick := b.High - maxF(b.Open, b.Close)
		lowerWick := minF(b.Open, b.Close) - b.Low

		flags.Bullish[i] = b.Close > b.Open
		flags.Bearish[i] = b.Close < b.Open
		if rng > 0 {
			flags.Doji[i] = body/rng <= dojiBodyRatio
		}
		if body > 0 {
			flags.Hammer[i] = lowerWick >= hammerWickRatio*body && upperWick < body
			flags.ShootingStar[i] = upperWick >= hammerWickRatio*body && lowerWick < body
		}

		if i == 0 {
			continue
		}
		prev := s.Bars[i-1]
		prevBody := absF(prev.Close - prev.Open)
		if prevBody == 0 || body < engulfingMinBodies*prevBody {
			continue
		}
		prevBullish := prev.Close > prev.Open
		curBullish := b.Close > b.Open
		engulfsRange := maxF(b.Open, b.Close) >= maxF(prev.Open, prev.Close) &&
			minF(b.Open, b.Close) <= minF(prev.Open, prev.Close)
		flags.Engulfing[i] = prevBullish != curBullish && engulfsRange
	}
	return flags
}

func absF(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

func maxF(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
