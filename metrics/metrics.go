// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "streamlit_analytics"

var (
	eventsRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_recorded_total",
			Help:      "Total number of tracking events recorded by type",
		},
		[]string{"type"},
	)
	eventsRejected = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Total number of tracking events rejected as invalid",
		},
	)
	batchFlushes = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_flushes_total",
			Help:      "Total number of event batches flushed into the counter",
		},
	)
	batchSize = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "batch_size",
			Help:      "Number of events per flushed batch",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
		},
	)
	persistErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "persist_errors_total",
			Help:      "Total number of failed snapshot saves",
		},
	)
	chartCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chart_cache_requests_total",
			Help:      "Chart cache lookups by result",
		},
		[]string{"result"},
	)
	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"route", "method", "status"},
	)
	gateOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dashboard_gate_total",
			Help:      "Dashboard renders by password gate outcome",
		},
		[]string{"gate"},
	)
)

func EventRecorded(eventType string) { eventsRecorded.WithLabelValues(eventType).Inc() }

func EventsRejected(n int) { eventsRejected.Add(float64(n)) }

func BatchFlushed(size int) {
	batchFlushes.Inc()
	batchSize.Observe(float64(size))
}

func PersistFailed() { persistErrors.Inc() }

func ChartCacheHit()  { chartCache.WithLabelValues("hit").Inc() }
func ChartCacheMiss() { chartCache.WithLabelValues("miss").Inc() }

func DashboardRendered(gate string) { gateOutcomes.WithLabelValues(gate).Inc() }

// ObserveRequest records one finished HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(elapsed.Seconds())
}
