package alerting

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the alerting subsystem.
type Metrics struct {
	CreatedTotal     *prometheus.CounterVec
	SuppressedTotal  *prometheus.CounterVec
	DeliveriesTotal  *prometheus.CounterVec
	DeliveryDuration prometheus.Histogram
	AcksTotal        prometheus.Counter
	QueueDepth       prometheus.Gauge
}

// NewMetrics registers and returns alerting metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		CreatedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_created_total",
			Help: "Alerts created from issues by severity.",
		}, []string{"severity"}),
		SuppressedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alerts_suppressed_total",
			Help: "Alerts suppressed by per-rule cooldown.",
		}, []string{"rule"}),
		DeliveriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_alert_deliveries_total",
			Help: "Delivery attempts by outcome (sent, retried, failed).",
		}, []string{"outcome"}),
		DeliveryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_alert_delivery_duration_seconds",
			Help:    "Duration of individual delivery attempts in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10), // 50ms .. ~25s
		}),
		AcksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_alert_acks_total",
			Help: "Alerts acknowledged by operators.",
		}),
		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sentinel_alert_queue_depth",
			Help: "Alerts currently waiting for delivery.",
		}),
	}

	reg.MustRegister(
		m.CreatedTotal,
		m.SuppressedTotal,
		m.DeliveriesTotal,
		m.DeliveryDuration,
		m.AcksTotal,
		m.QueueDepth,
	)

	return m
}
