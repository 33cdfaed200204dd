// Package metrics exposes Prometheus instrumentation for the editor.
//
// A nil *Registry is valid and records nothing, so components take one as an
// optional dependency.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "netcanvas"

// Registry holds every metric the service exports
type Registry struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Editor
	GesturesTotal       *prometheus.CounterVec
	GraphNodes          prometheus.Gauge
	GraphEdges          prometheus.Gauge
	SettlePairsTotal    prometheus.Counter
	SettleCorrectTotal  prometheus.Counter
	SettleDuration      prometheus.Histogram
	RestoreSkippedTotal *prometheus.CounterVec

	// Device sync
	SyncTotal      *prometheus.CounterVec
	SyncDuration   prometheus.Histogram
	SyncCandidates prometheus.Gauge

	// Snapshot storage
	StorageOperationsTotal   *prometheus.CounterVec
	StorageOperationDuration *prometheus.HistogramVec

	// Live clients
	SSEClients prometheus.Gauge

	registry *prometheus.Registry
}

// NewRegistry creates a registry with all metrics initialized
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	r := &Registry{registry: reg}
	r.initHTTPMetrics()
	r.initEditorMetrics()
	r.initSyncMetrics()
	r.initStorageMetrics()
	return r
}

func (r *Registry) initHTTPMetrics() {
	factory := promauto.With(r.registry)

	r.HTTPRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	r.HTTPRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	r.SSEClients = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sse_clients",
			Help:      "Number of connected event stream clients",
		},
	)
}

func (r *Registry) initEditorMetrics() {
	factory := promauto.With(r.registry)

	r.GesturesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "editor_gestures_total",
			Help:      "Editor gestures by name and outcome",
		},
		[]string{"gesture", "result"}, // ok, rejected
	)

	r.GraphNodes = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_nodes",
			Help:      "Nodes currently on the canvas",
		},
	)

	r.GraphEdges = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "graph_edges",
			Help:      "Edges currently on the canvas",
		},
	)

	r.SettlePairsTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settle_pairs_checked_total",
			Help:      "Node pairs examined by collision settle passes",
		},
	)

	r.SettleCorrectTotal = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "settle_pairs_corrected_total",
			Help:      "Node pairs pushed apart by collision settle passes",
		},
	)

	r.SettleDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "settle_duration_seconds",
			Help:      "Duration of collision settle passes",
			Buckets:   []float64{.00001, .0001, .001, .005, .016, .05},
		},
	)

	r.RestoreSkippedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restore_skipped_total",
			Help:      "Items dropped while restoring a snapshot",
		},
		[]string{"kind"}, // node, edge
	)
}

func (r *Registry) initSyncMetrics() {
	factory := promauto.With(r.registry)

	r.SyncTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "device_sync_total",
			Help:      "Device inventory fetches by result",
		},
		[]string{"result"}, // ok, error, stale
	)

	r.SyncDuration = factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "device_sync_duration_seconds",
			Help:      "Duration of device inventory fetches",
			Buckets:   prometheus.DefBuckets,
		},
	)

	r.SyncCandidates = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "device_candidates",
			Help:      "Device candidates available for placement",
		},
	)
}

func (r *Registry) initStorageMetrics() {
	factory := promauto.With(r.registry)

	r.StorageOperationsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Snapshot store operations by result",
		},
		[]string{"operation", "status"},
	)

	r.StorageOperationDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Snapshot store operation latency",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
}

// Handler serves the registry in the Prometheus exposition format
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// PrometheusRegistry returns the underlying registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.registry
}

// RecordHTTPRequest records one served request
func (r *Registry) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if r == nil {
		return
	}
	r.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	r.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordGesture counts an editor gesture
func (r *Registry) RecordGesture(gesture string, err error) {
	if r == nil {
		return
	}
	r.GesturesTotal.WithLabelValues(gesture, resultLabel(err, "rejected")).Inc()
}

// SetGraphSize updates the node and edge gauges
func (r *Registry) SetGraphSize(nodes, edges int) {
	if r == nil {
		return
	}
	r.GraphNodes.Set(float64(nodes))
	r.GraphEdges.Set(float64(edges))
}

// RecordSettle records one collision settle pass
func (r *Registry) RecordSettle(pairsChecked, pairsCorrected int, duration time.Duration) {
	if r == nil {
		return
	}
	r.SettlePairsTotal.Add(float64(pairsChecked))
	r.SettleCorrectTotal.Add(float64(pairsCorrected))
	r.SettleDuration.Observe(duration.Seconds())
}

// RecordRestoreSkipped counts items dropped during a restore
func (r *Registry) RecordRestoreSkipped(kind string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.RestoreSkippedTotal.WithLabelValues(kind).Add(float64(n))
}

// RecordSync records a device inventory fetch.
// Stale results superseded by a newer request are counted separately.
func (r *Registry) RecordSync(err error, stale bool, candidates int, duration time.Duration) {
	if r == nil {
		return
	}
	r.SyncDuration.Observe(duration.Seconds())
	if stale {
		r.SyncTotal.WithLabelValues("stale").Inc()
		return
	}
	r.SyncTotal.WithLabelValues(resultLabel(err, "error")).Inc()
	r.SyncCandidates.Set(float64(candidates))
}

// RecordStorageOperation records a snapshot store call
func (r *Registry) RecordStorageOperation(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	r.StorageOperationsTotal.WithLabelValues(operation, resultLabel(err, "error")).Inc()
	r.StorageOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// SSEClientConnected adjusts the connected client gauge by delta
func (r *Registry) SSEClientConnected(delta int) {
	if r == nil {
		return
	}
	r.SSEClients.Add(float64(delta))
}

func resultLabel(err error, failure string) string {
	if err != nil {
		return failure
	}
	return "ok"
}
