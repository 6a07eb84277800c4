// Package monitoring provides Prometheus metrics for the editor host:
// HTTP request metrics, live panel and websocket gauges, and counters for
// the sync engine (pushes, pulls, coalesced bursts) and the upload pipeline.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Panel metrics
	PanelsLive     prometheus.Gauge
	PanelsOpened   prometheus.Counter
	PanelsDisposed prometheus.Counter

	// Transport metrics
	WSConnections prometheus.Gauge
	WSMessages    *prometheus.CounterVec

	// Sync engine metrics
	SyncPushes         prometheus.Counter
	SyncPulls          prometheus.Counter
	SyncCoalesced      prometheus.Counter
	SyncEchoSuppressed prometheus.Counter

	// Upload metrics
	Uploads *prometheus.CounterVec

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	registry *prometheus.Registry
}

// NewMetrics creates a metrics collector registered on a private registry so
// repeated construction in tests does not collide.
func NewMetrics() *Metrics {
	return newMetrics(prometheus.NewRegistry())
}

// NewMetricsOn creates a metrics collector registered on the given registry.
func NewMetricsOn(reg *prometheus.Registry) *Metrics {
	return newMetrics(reg)
}

func newMetrics(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)
	m := &Metrics{
		startTime: time.Now(),
		registry:  reg,

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdeditor_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mdeditor_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
			},
			[]string{"method", "path"},
		),

		PanelsLive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdeditor_panels_live",
				Help: "Number of live editor panels",
			},
		),
		PanelsOpened: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_panels_opened_total",
				Help: "Total number of panels created",
			},
		),
		PanelsDisposed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_panels_disposed_total",
				Help: "Total number of panels disposed",
			},
		),

		WSConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdeditor_ws_connections",
				Help: "Number of attached webview transports",
			},
		),
		WSMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdeditor_ws_messages_total",
				Help: "Widget protocol messages by command and direction",
			},
			[]string{"command", "direction"},
		),

		SyncPushes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_sync_pushes_total",
				Help: "Document→webview content pushes",
			},
		),
		SyncPulls: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_sync_pulls_total",
				Help: "Webview→document edits applied",
			},
		),
		SyncCoalesced: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_sync_coalesced_total",
				Help: "Document change events absorbed by the debounce window",
			},
		),
		SyncEchoSuppressed: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "mdeditor_sync_echo_suppressed_total",
				Help: "Change events discarded as echoes of programmatic edits",
			},
		),

		Uploads: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mdeditor_uploads_total",
				Help: "Uploaded files by outcome",
			},
			[]string{"status"},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "mdeditor_uptime_seconds",
				Help: "Host uptime in seconds",
			},
		),
	}
	return m
}

// UpdateUptime refreshes the uptime gauge. Called by the metrics handler.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// Handler returns the scrape handler for this collector's registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
