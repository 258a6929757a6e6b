package metrics

import "github.com/prometheus/client_golang/prometheus"

// Exporter republishes a Summary as Prometheus gauges, grounded on the
// client_golang GaugeVec pattern used elsewhere in the pack's observability
// stack (SPEC_FULL.md §9's domain-stack wiring for the metrics package).
type Exporter struct {
	winRate      prometheus.Gauge
	profitFactor prometheus.Gauge
	sharpe       prometheus.Gauge
	maxDrawdown  prometheus.Gauge
	tradeCount   prometheus.Gauge

	byExitReason *prometheus.GaugeVec
	byQuality    *prometheus.GaugeVec
}

// NewExporter registers the aggregator's gauges against reg. Callers
// typically pass prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer in cmd/wave3.
func NewExporter(reg prometheus.Registerer) *Exporter {
	e := &Exporter{
		winRate: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "win_rate",
			Help: "Fraction of closed trades with positive return.",
		}),
		profitFactor: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "profit_factor",
			Help: "Gross wins divided by absolute gross losses.",
		}),
		sharpe: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "sharpe_per_trade",
			Help: "Mean over stdev of the per-trade return sequence.",
		}),
		maxDrawdown: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "max_drawdown",
			Help: "Largest peak-to-trough decline of the cumulative return curve.",
		}),
		tradeCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "trade_count",
			Help: "Number of closed trades summarized.",
		}),
		byExitReason: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "win_rate_by_exit_reason",
			Help: "Win rate broken down by exit reason.",
		}, []string{"exit_reason"}),
		byQuality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "wave3", Subsystem: "backtest", Name: "win_rate_by_quality_bucket",
			Help: "Win rate broken down by quality-score bucket.",
		}, []string{"bucket"}),
	}
	reg.MustRegister(e.winRate, e.profitFactor, e.sharpe, e.maxDrawdown, e.tradeCount, e.byExitReason, e.byQuality)
	return e
}

// Observe sets every gauge from s. Safe to call repeatedly, e.g. once per
// completed backtest run.
func (e *Exporter) Observe(s Summary) {
	e.winRate.Set(s.WinRate)
	e.profitFactor.Set(s.ProfitFactor)
	e.sharpe.Set(s.Sharpe)
	e.maxDrawdown.Set(s.MaxDrawdown)
	e.tradeCount.Set(float64(s.Count))
	for reason, sub := range s.ByExitReason {
		e.byExitReason.WithLabelValues(string(reason)).Set(sub.WinRate)
	}
	for bucket, sub := range s.ByQualityBucket {
		e.byQuality.WithLabelValues(string(bucket)).Set(sub.WinRate)
	}
}
