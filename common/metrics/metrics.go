package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTPMetrics contains HTTP-related Prometheus metrics
type HTTPMetrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// PipelineMetrics contains purchase-pipeline metrics
type PipelineMetrics struct {
	PurchasesTotal       *prometheus.CounterVec
	StrategyAttempts     *prometheus.CounterVec
	StrategyWaitSeconds  *prometheus.HistogramVec
	ReservationRollbacks *prometheus.CounterVec
	BrokerPublishes      *prometheus.CounterVec
	QueueDepth           prometheus.Gauge
}

// NewHTTPMetrics creates HTTP metrics for a service
func NewHTTPMetrics(serviceName string) *HTTPMetrics {
	return &HTTPMetrics{
		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    serviceName + "_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
	}
}

// NewPipelineMetrics creates purchase-pipeline metrics for a service
func NewPipelineMetrics(serviceName string) *PipelineMetrics {
	return &PipelineMetrics{
		PurchasesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_purchases_total",
				Help: "Total number of purchase requests by mode and final state",
			},
			[]string{"modo", "estado"},
		),
		StrategyAttempts: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_strategy_attempts_total",
				Help: "Total number of delivery attempts by mode",
			},
			[]string{"modo"},
		),
		StrategyWaitSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    serviceName + "_strategy_wait_seconds",
				Help:    "Accumulated inter-attempt wait per purchase in seconds",
				Buckets: []float64{0.5, 1, 2, 3, 5, 8, 15, 31},
			},
			[]string{"modo"},
		),
		ReservationRollbacks: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_reservation_rollbacks_total",
				Help: "Total number of stock reservations released after delivery failure",
			},
			[]string{"modo"},
		),
		BrokerPublishes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: serviceName + "_broker_publishes_total",
				Help: "Total number of broker publish attempts by result",
			},
			[]string{"status"},
		),
		QueueDepth: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: serviceName + "_queue_depth",
				Help: "Current depth of the purchase queue backend",
			},
		),
	}
}

// RecordHTTPRequest records an HTTP request metric
func (m *HTTPMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordPurchase records the terminal state of one purchase request
func (m *PipelineMetrics) RecordPurchase(modo, estado string, attempts int, totalWait time.Duration) {
	m.PurchasesTotal.WithLabelValues(modo, estado).Inc()
	if attempts > 0 {
		m.StrategyAttempts.WithLabelValues(modo).Add(float64(attempts))
	}
	m.StrategyWaitSeconds.WithLabelValues(modo).Observe(totalWait.Seconds())
}
