// Package metrics exposes operation counters and durations for Prometheus.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "organizer"

type Metrics struct {
	registry          *prometheus.Registry
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	filesMovedTotal   *prometheus.CounterVec
	itemsSkippedTotal *prometheus.CounterVec
	classifiedTotal   *prometheus.CounterVec
	watchEventsTotal  *prometheus.CounterVec
}

// New registers collectors on a private registry, or on reg when given.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Flatten, undo, organize and watch operations by outcome",
		}, []string{"operation", "status"}),
		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Wall time of a single operation",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
		filesMovedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_moved_total",
			Help:      "Files relocated by operation",
		}, []string{"operation"}),
		itemsSkippedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_skipped_total",
			Help:      "Items skipped after a per-item failure",
		}, []string{"operation"}),
		classifiedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_classified_total",
			Help:      "Classification results by category",
		}, []string{"category"}),
		watchEventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "watch_events_total",
			Help:      "Filesystem creation events handled by the watcher",
		}, []string{"kind"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveOperation records one finished operation.
func (m *Metrics) ObserveOperation(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failed"
	}
	m.operationsTotal.WithLabelValues(operation, status).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}

func (m *Metrics) FilesMoved(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.filesMovedTotal.WithLabelValues(operation).Add(float64(n))
}

func (m *Metrics) ItemsSkipped(operation string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsSkippedTotal.WithLabelValues(operation).Add(float64(n))
}

func (m *Metrics) Classified(category string) {
	if m == nil {
		return
	}
	m.classifiedTotal.WithLabelValues(category).Inc()
}

func (m *Metrics) WatchEvent(kind string) {
	if m == nil {
		return
	}
	m.watchEventsTotal.WithLabelValues(kind).Inc()
}
