// Package metrics exposes the trading loop's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors updated by the engine.
type Metrics struct {
	BarsTotal        prometheus.Counter
	SignalsTotal     *prometheus.CounterVec // labels: signal
	TradesOpened     prometheus.Counter
	TradesRejected   *prometheus.CounterVec // labels: reason
	ExitsTotal       *prometheus.CounterVec // labels: reason
	DailyLoss        prometheus.Gauge
	DailyLossLimit   prometheus.Gauge
	IndicatorLatency prometheus.Histogram

	registry *prometheus.Registry
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		BarsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ivtrader_bars_total",
			Help: "Bars processed by the engine",
		}),
		SignalsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivtrader_signals_total",
			Help: "Strategy decisions by signal",
		}, []string{"signal"}),
		TradesOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ivtrader_trades_opened_total",
			Help: "Trades opened",
		}),
		TradesRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivtrader_trades_rejected_total",
			Help: "Entry signals that did not open a trade",
		}, []string{"reason"}),
		ExitsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ivtrader_exits_total",
			Help: "Trade exits by reason",
		}, []string{"reason"}),
		DailyLoss: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ivtrader_daily_loss",
			Help: "Loss accumulated for the current trading day",
		}),
		DailyLossLimit: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ivtrader_daily_loss_limit",
			Help: "Configured daily loss ceiling",
		}),
		IndicatorLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ivtrader_indicator_compute_duration_seconds",
			Help:    "Indicator pipeline latency per bar",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		}),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		m.BarsTotal,
		m.SignalsTotal,
		m.TradesOpened,
		m.TradesRejected,
		m.ExitsTotal,
		m.DailyLoss,
		m.DailyLossLimit,
		m.IndicatorLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
