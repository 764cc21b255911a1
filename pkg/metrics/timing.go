// Package metrics provides instrumentation for trustmap.
//
// Metrics are registered with the default Prometheus registry and served by
// the HTTP server on /metrics. Collection is enabled by default but can be
// disabled via TRUSTMAP_METRICS=0.
//
// Usage:
//
//	func render() {
//	    defer metrics.Timer(metrics.SVGRender)()
//	    // ... operation code
//	}
package metrics

import (
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var enabled atomic.Bool

func init() {
	enabled.Store(os.Getenv("TRUSTMAP_METRICS") != "0")

	prometheus.MustRegister(operationSeconds)
	prometheus.MustRegister(DanglingReferences)
	prometheus.MustRegister(Loads)
	prometheus.MustRegister(ZoomLevel)
	prometheus.MustRegister(WebsocketSessions)
}

// Enabled returns whether metrics collection is enabled.
func Enabled() bool {
	return enabled.Load()
}

// SetEnabled allows programmatic control of metrics collection.
func SetEnabled(e bool) {
	enabled.Store(e)
}

var (
	operationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "trustmap_operation_seconds",
			Help:    "Duration of instrumented operations",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		},
		[]string{"op"},
	)

	// DanglingReferences counts membership references that did not resolve
	// to a node during edge derivation.
	DanglingReferences = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustmap_dangling_references_total",
			Help: "Membership references skipped because the target node is missing",
		},
		[]string{"kind"},
	)

	// Loads counts snapshot loads by source and result (ok, error, superseded).
	Loads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "trustmap_loads_total",
			Help: "Snapshot loads by source and result",
		},
		[]string{"source", "result"},
	)

	// ZoomLevel tracks the most recently applied viewport zoom.
	ZoomLevel = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustmap_zoom_level",
			Help: "Most recent viewport zoom factor",
		},
	)

	// WebsocketSessions tracks open live sessions on the server.
	WebsocketSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "trustmap_websocket_sessions",
			Help: "Open websocket sessions",
		},
	)
)

// TimingMetric is a named operation whose durations are observed into the
// shared operation histogram.
type TimingMetric struct {
	name  string
	count atomic.Int64
}

func newTimingMetric(name string) *TimingMetric {
	return &TimingMetric{name: name}
}

// Record records a single timing measurement.
func (m *TimingMetric) Record(d time.Duration) {
	if !Enabled() {
		return
	}
	m.count.Add(1)
	operationSeconds.WithLabelValues(m.name).Observe(d.Seconds())
}

// Name returns the metric name.
func (m *TimingMetric) Name() string {
	return m.name
}

// Count returns the number of recorded measurements in this process.
func (m *TimingMetric) Count() int64 {
	return m.count.Load()
}

// Timer returns a function that records elapsed time when called.
func Timer(m *TimingMetric) func() {
	if !Enabled() || m == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		m.Record(time.Since(start))
	}
}

// RecordDangling counts n unresolved references of the given edge kind.
func RecordDangling(kind string, n int) {
	if !Enabled() || n <= 0 {
		return
	}
	DanglingReferences.WithLabelValues(kind).Add(float64(n))
}

// RecordLoad counts a finished load.
func RecordLoad(source, result string) {
	if !Enabled() {
		return
	}
	Loads.WithLabelValues(source, result).Inc()
}

// RecordZoom publishes the current zoom factor.
func RecordZoom(z float64) {
	if !Enabled() {
		return
	}
	ZoomLevel.Set(z)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timing metrics for the instrumented operations.
var (
	EdgeDerivation = newTimingMetric("edge_derivation")
	GraphLoad      = newTimingMetric("graph_load")
	Analysis       = newTimingMetric("analysis")
	SVGRender      = newTimingMetric("svg_render")
	PNGRender      = newTimingMetric("png_render")
	UIRender       = newTimingMetric("ui_render")
)

// AllTimingMetrics returns all registered timing metrics.
func AllTimingMetrics() []*TimingMetric {
	return []*TimingMetric{
		EdgeDerivation,
		GraphLoad,
		Analysis,
		SVGRender,
		PNGRender,
		UIRender,
	}
}
