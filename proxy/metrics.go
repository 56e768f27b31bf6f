package proxy

import "github.com/prometheus/client_golang/prometheus"

const outcomeOK = "ok"

// Metrics counts listener dispatches by method and outcome. The outcome is
// "ok" or the fault code of the failure.
type Metrics struct {
	dispatches *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		dispatches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "listener",
				Name:      "dispatches_total",
				Help:      "Storage operations dispatched by the listener",
			},
			[]string{"method", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "listener",
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent in the storage backend per dispatch",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) observe(method Operation, outcome string, seconds float64) {
	// Unknown names are collapsed so callers cannot grow label cardinality.
	label := string(method)
	if _, ok := operations[method]; !ok {
		label = "unknown"
	}

	m.dispatches.WithLabelValues(label, outcome).Inc()
	if outcome == outcomeOK {
		m.duration.WithLabelValues(label).Observe(seconds)
	}
}

func (m *Metrics) Describe(ch chan<- *prometheus.Desc) {
	m.dispatches.Describe(ch)
	m.duration.Describe(ch)
}

func (m *Metrics) Collect(ch chan<- prometheus.Metric) {
	m.dispatches.Collect(ch)
	m.duration.Collect(ch)
}
