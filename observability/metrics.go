package observability

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsObserver counts events by type and severity. It is itself a
// prometheus.Collector and can be registered directly.
type MetricsObserver struct {
	events *prometheus.CounterVec
}

func NewMetricsObserver(namespace string) *MetricsObserver {
	return &MetricsObserver{
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Observability events by type and severity",
			},
			[]string{"type", "level"},
		),
	}
}

func (m *MetricsObserver) OnEvent(_ context.Context, event Event) {
	m.events.WithLabelValues(string(event.Type), event.Level.String()).Inc()
}

func (m *MetricsObserver) Describe(ch chan<- *prometheus.Desc) {
	m.events.Describe(ch)
}

func (m *MetricsObserver) Collect(ch chan<- prometheus.Metric) {
	m.events.Collect(ch)
}
