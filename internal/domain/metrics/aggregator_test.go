package metrics

import (
	"math"
	"testing"

	"github.com/b3quant/wave3/internal/domain/simulator"
	"github.com/b3quant/wave3/internal/domain/wave3"
)

func trade(symbol string, ret, quality float64, reason simulator.ExitReason) simulator.ClosedTrade {
	return simulator.ClosedTrade{
		Symbol:       symbol,
		ReturnPct:    ret,
		QualityScore: quality,
		Fills:        []simulator.Fill{{Reason: reason, Fraction: 1}},
	}
}

func TestAggregateWinRateAndProfitFactor(t *testing.T) {
	trades := []simulator.ClosedTrade{
		trade("PETR4", 0.02, 70, simulator.ExitRung),
		trade("PETR4", -0.01, 60, simulator.ExitStop),
		trade("VALE3", 0.03, 80, simulator.ExitTrailingStop),
	}
	s := Aggregate(trades, false)
	if s.Count != 3 {
		t.Fatalf("count = %d, want 3", s.Count)
	}
	if s.Wins != 2 || s.Losses != 1 {
		t.Fatalf("wins=%d losses=%d, want 2/1", s.Wins, s.Losses)
	}
	wantWinRate := 2.0 / 3.0
	if math.Abs(s.WinRate-wantWinRate) > 1e-9 {
		t.Fatalf("win rate = %v, want %v", s.WinRate, wantWinRate)
	}
	wantPF := (0.02 + 0.03) / 0.01
	if math.Abs(s.ProfitFactor-wantPF) > 1e-9 {
		t.Fatalf("profit factor = %v, want %v", s.ProfitFactor, wantPF)
	}
}

func TestAggregateExcludesEndOfDataWhenRequested(t *testing.T) {
	normal := trade("PETR4", 0.01, 70, simulator.ExitRung)
	eod := trade("PETR4", -0.05, 70, simulator.ExitEndOfData)
	eod.IsEndOfData = true

	s := Aggregate([]simulator.ClosedTrade{normal, eod}, true)
	if s.Count != 1 {
		t.Fatalf("expected end-of-data trade excluded, count = %d", s.Count)
	}
}

func TestSharpeZeroWhenNoVariance(t *testing.T) {
	trades := []simulator.ClosedTrade{
		trade("A", 0.01, 70, simulator.ExitRung),
		trade("A", 0.01, 70, simulator.ExitRung),
		trade("A", 0.01, 70, simulator.ExitRung),
	}
	s := Aggregate(trades, false)
	if s.Sharpe != 0 {
		t.Fatalf("sharpe with zero stdev should be 0, got %v", s.Sharpe)
	}
}

func TestMaxDrawdownTracksPeakToTrough(t *testing.T) {
	// cumulative curve: 0.05, 0.03 (peak 0.05, dd 0.02), 0.07 (new peak), -0.01 (dd 0.08)
	returns := []float64{0.05, -0.02, 0.04, -0.08}
	dd := maxDrawdown(returns)
	if math.Abs(dd-0.08) > 1e-9 {
		t.Fatalf("max drawdown = %v, want 0.08", dd)
	}
}

func TestQualityBucketFor(t *testing.T) {
	cases := map[float64]QualityBucket{
		30: BucketBelow55,
		55: Bucket55to64,
		64: Bucket55to64,
		65: Bucket65to74,
		75: Bucket75to84,
		85: Bucket85Plus,
		99: Bucket85Plus,
	}
	for score, want := range cases {
		if got := QualityBucketFor(score); got != want {
			t.Fatalf("QualityBucketFor(%v) = %v, want %v", score, got, want)
		}
	}
}

func TestBreakdownsBySymbolQualityAndExitReason(t *testing.T) {
	trades := []simulator.ClosedTrade{
		trade("PETR4", 0.02, 80, simulator.ExitRung),
		trade("VALE3", -0.01, 40, simulator.ExitStop),
	}
	s := Aggregate(trades, false)
	if len(s.BySymbol) != 2 {
		t.Fatalf("expected 2 symbol buckets, got %d", len(s.BySymbol))
	}
	if s.ByQualityBucket[Bucket85Plus].Count != 0 {
		t.Fatalf("no trade should land in the >=85 bucket")
	}
	if s.ByQualityBucket[Bucket75to84].Count != 1 {
		t.Fatalf("expected PETR4 trade in the 75-84 bucket")
	}
	if s.ByExitReason[simulator.ExitStop].Count != 1 {
		t.Fatalf("expected one stop-out trade")
	}
}

func TestDecileAnalysisOrdersByQuality(t *testing.T) {
	trades := make([]simulator.ClosedTrade, 20)
	for i := range trades {
		trades[i] = trade("A", 0.01, float64(i), simulator.ExitRung)
	}
	s := Aggregate(trades, false)
	if len(s.Deciles) != 10 {
		t.Fatalf("expected 10 decile buckets, got %d", len(s.Deciles))
	}
	if s.Deciles[0].Count != 2 || s.Deciles[9].Count != 2 {
		t.Fatalf("expected evenly split deciles for 20 trades, got %+v and %+v", s.Deciles[0], s.Deciles[9])
	}
}

func TestAttributionAnalysisCorrelatesFlagWithReturn(t *testing.T) {
	trades := []simulator.ClosedTrade{
		trade("A", 0.03, 70, simulator.ExitRung),
		trade("A", 0.01, 70, simulator.ExitRung),
		trade("A", -0.02, 70, simulator.ExitStop),
		trade("A", -0.03, 70, simulator.ExitStop),
	}
	confirmations := []wave3.Confirmations{
		{VolumeSurge: true},
		{VolumeSurge: true},
		{VolumeSurge: false},
		{VolumeSurge: false},
	}
	factors := AttributionAnalysis(trades, confirmations)
	var volumeSurge AttributionFactor
	for _, f := range factors {
		if f.Name == "volume_surge" {
			volumeSurge = f
		}
	}
	if volumeSurge.Correlation <= 0 {
		t.Fatalf("expected positive correlation between volume_surge and return, got %v", volumeSurge.Correlation)
	}
}

func TestAttributionAnalysisLengthMismatchReturnsNil(t *testing.T) {
	trades := []simulator.ClosedTrade{trade("A", 0.01, 70, simulator.ExitRung)}
	if got := AttributionAnalysis(trades, nil); got != nil {
		t.Fatalf("expected nil for mismatched lengths, got %v", got)
	}
}
