package quill

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
)

// BackendMetricsExporter exposes BackendMetrics as Prometheus collectors.
// Register Observe with RegisterBackendMetricsHandler to keep it current,
// then register the exporter itself with a prometheus.Registerer so the
// usual /metrics handler can serve it.
type BackendMetricsExporter struct {
	enqueued    prometheus.Counter
	dispatched  prometheus.Counter
	dropped     prometheus.Counter
	handlerErrs prometheus.Counter
	reclaimed   prometheus.Counter
	queueDepth  prometheus.Gauge

	lastEnqueued    uint64
	lastDispatched  uint64
	lastDropped     uint64
	lastHandlerErrs uint64
	lastReclaimed   uint64
}

// NewBackendMetricsExporter creates an exporter with the given metric name
// prefix (e.g. "quill").
func NewBackendMetricsExporter(namespace string) *BackendMetricsExporter {
	return &BackendMetricsExporter{
		enqueued: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "enqueued_total",
			Help:      "Total records enqueued by producers.",
		}),
		dispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "dispatched_total",
			Help:      "Total bytes of records consumed by the backend, command records included.",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "dropped_total",
			Help:      "Total records dropped under full_queue_policy=drop_and_count.",
		}),
		handlerErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "handler_errors_total",
			Help:      "Total record handler failures reported via on_error.",
		}),
		reclaimed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "reclaimed_total",
			Help:      "Total detached, drained thread contexts reclaimed.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "backend",
			Name:      "queue_depth",
			Help:      "Number of producer contexts known to the backend; queued bytes are not measured.",
		}),
	}
}

// Observe is registered with RegisterBackendMetricsHandler to turn
// cumulative snapshot counters into Prometheus counter increments.
func (e *BackendMetricsExporter) Observe(_ context.Context, metrics BackendMetrics) {
	e.enqueued.Add(float64(metrics.Enqueued - e.lastEnqueued))
	e.dispatched.Add(float64(metrics.Dispatched - e.lastDispatched))
	e.dropped.Add(float64(metrics.Dropped - e.lastDropped))
	e.handlerErrs.Add(float64(metrics.HandlerErrs - e.lastHandlerErrs))
	e.reclaimed.Add(float64(metrics.Reclaimed - e.lastReclaimed))
	e.queueDepth.Set(float64(metrics.QueueDepth))

	e.lastEnqueued = metrics.Enqueued
	e.lastDispatched = metrics.Dispatched
	e.lastDropped = metrics.Dropped
	e.lastHandlerErrs = metrics.HandlerErrs
	e.lastReclaimed = metrics.Reclaimed
}

// Describe implements prometheus.Collector.
func (e *BackendMetricsExporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.enqueued.Desc()
	ch <- e.dispatched.Desc()
	ch <- e.dropped.Desc()
	ch <- e.handlerErrs.Desc()
	ch <- e.reclaimed.Desc()
	ch <- e.queueDepth.Desc()
}

// Collect implements prometheus.Collector.
func (e *BackendMetricsExporter) Collect(ch chan<- prometheus.Metric) {
	ch <- e.enqueued
	ch <- e.dispatched
	ch <- e.dropped
	ch <- e.handlerErrs
	ch <- e.reclaimed
	ch <- e.queueDepth
}
