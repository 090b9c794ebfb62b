// Package observability provides Prometheus metrics for the simulator.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Generation
	TradesGenerated *prometheus.CounterVec

	// Tick pipeline
	TicksProcessed  *prometheus.CounterVec
	TicksRejected   *prometheus.CounterVec
	PipelineErrors  *prometheus.CounterVec
	TickLatency     *prometheus.HistogramVec
	LastTickSeconds *prometheus.GaugeVec

	// Orders
	OrdersOpened *prometheus.CounterVec
	OrdersClosed *prometheus.CounterVec

	// Sweep
	SweepRuns            *prometheus.CounterVec
	ActivationCandidates *prometheus.GaugeVec
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "tradesim"
	}

	return &Metrics{
		TradesGenerated: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "generator",
			Name:      "trades_generated_total",
			Help:      "Total number of trade variants persisted by scope",
		}, []string{"symbol", "timeframe"}),

		TicksProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "ticks_processed_total",
			Help:      "Total number of ticks accepted by symbol",
		}, []string{"symbol"}),
		TicksRejected: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "ticks_rejected_total",
			Help:      "Total number of ticks rejected by symbol and reason",
		}, []string{"symbol", "reason"}),
		PipelineErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "errors_total",
			Help:      "Total number of pipeline step failures by step and category",
		}, []string{"step", "category"}),
		TickLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "tick_latency_seconds",
			Help:      "Time spent processing one tick",
			Buckets:   prometheus.DefBuckets,
		}, []string{"symbol"}),
		LastTickSeconds: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "last_tick_timestamp",
			Help:      "Unix timestamp of the last accepted tick by symbol",
		}, []string{"symbol"}),

		OrdersOpened: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "opened_total",
			Help:      "Total number of orders opened by order type",
		}, []string{"order_type"}),
		OrdersClosed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "closed_total",
			Help:      "Total number of orders closed by final status",
		}, []string{"status"}),

		SweepRuns: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sweep",
			Name:      "runs_total",
			Help:      "Total number of sweep runs by status",
		}, []string{"status"}),
		ActivationCandidates: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "activation",
			Name:      "candidates",
			Help:      "Trades recommended for activation at the last sweep by symbol",
		}, []string{"symbol"}),
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("tradesim")

func RecordTradesGenerated(symbol, timeframe string, n int) {
	DefaultMetrics.TradesGenerated.WithLabelValues(symbol, timeframe).Add(float64(n))
}

// RecordTickProcessed counts an accepted tick and its processing time.
func RecordTickProcessed(symbol string, seconds float64, unixTimestamp int64) {
	DefaultMetrics.TicksProcessed.WithLabelValues(symbol).Inc()
	DefaultMetrics.TickLatency.WithLabelValues(symbol).Observe(seconds)
	DefaultMetrics.LastTickSeconds.WithLabelValues(symbol).Set(float64(unixTimestamp))
}

func RecordTickRejected(symbol, reason string) {
	DefaultMetrics.TicksRejected.WithLabelValues(symbol, reason).Inc()
}

func RecordPipelineError(step, category string) {
	DefaultMetrics.PipelineErrors.WithLabelValues(step, category).Inc()
}

func RecordOrderOpened(orderType string) {
	DefaultMetrics.OrdersOpened.WithLabelValues(orderType).Inc()
}

func RecordOrderClosed(status string) {
	DefaultMetrics.OrdersClosed.WithLabelValues(status).Inc()
}

// RecordSweep counts a sweep run by status ("ok" or "error").
func RecordSweep(status string) {
	DefaultMetrics.SweepRuns.WithLabelValues(status).Inc()
}

func UpdateActivationCandidates(symbol string, n int) {
	DefaultMetrics.ActivationCandidates.WithLabelValues(symbol).Set(float64(n))
}
