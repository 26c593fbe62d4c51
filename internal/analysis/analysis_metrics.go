package analysis

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds Prometheus metrics for the analysis subsystem.
type Metrics struct {
	AnalyzesTotal       prometheus.Counter
	AnalyzeDuration     prometheus.Histogram
	IssuesTotal         *prometheus.CounterVec
	DetectorPanicsTotal *prometheus.CounterVec
	AuxCallsTotal       *prometheus.CounterVec
	AuxDuration         prometheus.Histogram
}

// NewMetrics registers and returns analysis metrics on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		AnalyzesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sentinel_analyzes_total",
			Help: "Total log events analyzed.",
		}),
		AnalyzeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_analyze_duration_seconds",
			Help:    "Duration of single-event analysis in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 100µs .. ~26s
		}),
		IssuesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_issues_total",
			Help: "Total issues detected by category and severity.",
		}, []string{"category", "severity"}),
		DetectorPanicsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_detector_panics_total",
			Help: "Detector failures recovered by the engine.",
		}, []string{"detector"}),
		AuxCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sentinel_auxiliary_calls_total",
			Help: "Auxiliary detector calls by outcome.",
		}, []string{"outcome"}),
		AuxDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sentinel_auxiliary_call_duration_seconds",
			Help:    "Duration of auxiliary detector calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10), // 0.25s .. ~128s
		}),
	}

	reg.MustRegister(
		m.AnalyzesTotal,
		m.AnalyzeDuration,
		m.IssuesTotal,
		m.DetectorPanicsTotal,
		m.AuxCallsTotal,
		m.AuxDuration,
	)

	return m
}
