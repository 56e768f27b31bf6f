package channel

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
)

type MetricsSnapshot struct {
	Handlers         int64
	RequestsSent     int64
	RequestsHandled  int64
	Faults           int64
	DeliveryFailures int64
}

type Metrics struct {
	handlers         atomic.Int64
	requestsSent     atomic.Int64
	requestsHandled  atomic.Int64
	faults           atomic.Int64
	deliveryFailures atomic.Int64
}

func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordHandler(delta int) {
	m.handlers.Add(int64(delta))
}

func (m *Metrics) RecordRequestSent(delta int) {
	m.requestsSent.Add(int64(delta))
}

func (m *Metrics) RecordRequestHandled(delta int) {
	m.requestsHandled.Add(int64(delta))
}

func (m *Metrics) RecordFault(delta int) {
	m.faults.Add(int64(delta))
}

func (m *Metrics) RecordDeliveryFailure(delta int) {
	m.deliveryFailures.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Handlers:         m.handlers.Load(),
		RequestsSent:     m.requestsSent.Load(),
		RequestsHandled:  m.requestsHandled.Load(),
		Faults:           m.faults.Load(),
		DeliveryFailures: m.deliveryFailures.Load(),
	}
}

// Backlog is a queue whose depth is exported next to the counters.
type Backlog interface {
	Len() int
	BufferSize() int
}

// Collector exports a Metrics value and the inbox depth to Prometheus under
// a constant "channel" label.
type Collector struct {
	metrics *Metrics
	inbox   Backlog

	handlers         *prometheus.Desc
	requestsSent     *prometheus.Desc
	requestsHandled  *prometheus.Desc
	faults           *prometheus.Desc
	deliveryFailures *prometheus.Desc
	inboxDepth       *prometheus.Desc
	inboxCapacity    *prometheus.Desc
}

// NewCollector exports metrics, and inbox depth when inbox is non-nil.
func NewCollector(name string, metrics *Metrics, inbox Backlog) *Collector {
	labels := prometheus.Labels{"channel": name}
	return &Collector{
		metrics: metrics,
		inbox:   inbox,
		inboxDepth: prometheus.NewDesc(
			"bridge_channel_inbox_depth",
			"Requests waiting in the inbox",
			nil, labels,
		),
		inboxCapacity: prometheus.NewDesc(
			"bridge_channel_inbox_capacity",
			"Inbox buffer size",
			nil, labels,
		),
		handlers: prometheus.NewDesc(
			"bridge_channel_handlers",
			"Command handlers currently bound",
			nil, labels,
		),
		requestsSent: prometheus.NewDesc(
			"bridge_channel_requests_sent_total",
			"Requests accepted for delivery",
			nil, labels,
		),
		requestsHandled: prometheus.NewDesc(
			"bridge_channel_requests_handled_total",
			"Requests dispatched to a handler",
			nil, labels,
		),
		faults: prometheus.NewDesc(
			"bridge_channel_faults_total",
			"Replies that carried a handler fault",
			nil, labels,
		),
		deliveryFailures: prometheus.NewDesc(
			"bridge_channel_delivery_failures_total",
			"Requests that failed before a reply arrived",
			nil, labels,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.handlers
	ch <- c.requestsSent
	ch <- c.requestsHandled
	ch <- c.faults
	ch <- c.deliveryFailures
	if c.inbox != nil {
		ch <- c.inboxDepth
		ch <- c.inboxCapacity
	}
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.metrics.Snapshot()
	ch <- prometheus.MustNewConstMetric(c.handlers, prometheus.GaugeValue, float64(s.Handlers))
	ch <- prometheus.MustNewConstMetric(c.requestsSent, prometheus.CounterValue, float64(s.RequestsSent))
	ch <- prometheus.MustNewConstMetric(c.requestsHandled, prometheus.CounterValue, float64(s.RequestsHandled))
	ch <- prometheus.MustNewConstMetric(c.faults, prometheus.CounterValue, float64(s.Faults))
	ch <- prometheus.MustNewConstMetric(c.deliveryFailures, prometheus.CounterValue, float64(s.DeliveryFailures))
	if c.inbox != nil {
		ch <- prometheus.MustNewConstMetric(c.inboxDepth, prometheus.GaugeValue, float64(c.inbox.Len()))
		ch <- prometheus.MustNewConstMetric(c.inboxCapacity, prometheus.GaugeValue, float64(c.inbox.BufferSize()))
	}
}
