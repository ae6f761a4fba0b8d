// Package system provides system-level services for monitoring.
package system

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"norelock.dev/listenify/grabber/internal/utils"
)

// MetricsService provides application metrics collection functionality.
// All methods are safe to call on a nil receiver.
type MetricsService struct {
	logger   *utils.Logger
	registry *prometheus.Registry

	// HTTP metrics
	httpRequestsTotal      *prometheus.CounterVec
	httpRequestDuration    *prometheus.HistogramVec
	httpRequestsInProgress *prometheus.GaugeVec

	// Search metrics
	searchesTotal    *prometheus.CounterVec
	searchDuration   *prometheus.HistogramVec
	cacheLookups     *prometheus.CounterVec
	metadataLookups  *prometheus.CounterVec
	selectionOutcome *prometheus.CounterVec

	// Delivery metrics
	downloadsTotal     *prometheus.CounterVec
	transcodesTotal    *prometheus.CounterVec
	streamedBytesTotal *prometheus.CounterVec
}

// NewMetricsService creates a new metrics service on its own registry.
func NewMetricsService(logger *utils.Logger) *MetricsService {
	m := &MetricsService{
		logger:   logger.Named("metrics_service"),
		registry: prometheus.NewRegistry(),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Initialize metrics
	m.initHTTPMetrics()
	m.initSearchMetrics()
	m.initDeliveryMetrics()

	return m
}

// Handler returns an HTTP handler for exposing metrics.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// initHTTPMetrics initializes HTTP-related metrics.
func (m *MetricsService) initHTTPMetrics() {
	factory := promauto.With(m.registry)

	m.httpRequestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	m.httpRequestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grabber_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	m.httpRequestsInProgress = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "grabber_http_requests_in_progress",
			Help: "Number of HTTP requests currently in progress",
		},
		[]string{"method"},
	)
}

// initSearchMetrics initializes search and selection metrics.
func (m *MetricsService) initSearchMetrics() {
	factory := promauto.With(m.registry)

	m.searchesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_searches_total",
			Help: "Total number of upstream searches",
		},
		[]string{"provider", "result"},
	)

	m.searchDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "grabber_search_duration_seconds",
			Help:    "Duration of upstream searches in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	m.cacheLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_result_cache_lookups_total",
			Help: "Result cache lookups by outcome",
		},
		[]string{"backend", "outcome"},
	)

	m.metadataLookups = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_metadata_lookups_total",
			Help: "Total number of metadata lookups",
		},
		[]string{"result"},
	)

	m.selectionOutcome = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_selection_steps_total",
			Help: "Selection flow steps by reached state",
		},
		[]string{"state"},
	)
}

// initDeliveryMetrics initializes download and streaming metrics.
func (m *MetricsService) initDeliveryMetrics() {
	factory := promauto.With(m.registry)

	m.downloadsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_downloads_total",
			Help: "Total number of resolved downloads",
		},
		[]string{"kind", "delivery"},
	)

	m.transcodesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_transcodes_total",
			Help: "Total number of transcoder runs",
		},
		[]string{"result"},
	)

	m.streamedBytesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "grabber_streamed_bytes_total",
			Help: "Total bytes streamed to clients",
		},
		[]string{"kind"},
	)
}

// ObserveHTTPRequest records metrics for an HTTP request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// IncHTTPRequestsInProgress increments the in-progress HTTP requests counter.
func (m *MetricsService) IncHTTPRequestsInProgress(method string) {
	if m == nil {
		return
	}
	m.httpRequestsInProgress.WithLabelValues(method).Inc()
}

// DecHTTPRequestsInProgress decrements the in-progress HTTP requests counter.
func (m *MetricsService) DecHTTPRequestsInProgress(method string) {
	if m == nil {
		return
	}
	m.httpRequestsInProgress.WithLabelValues(method).Dec()
}

// ObserveSearch records an upstream search call.
func (m *MetricsService) ObserveSearch(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.searchesTotal.WithLabelValues(provider, resultLabel(err)).Inc()
	m.searchDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// IncCacheHit counts a result cache hit.
func (m *MetricsService) IncCacheHit(backend string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(backend, "hit").Inc()
}

// IncCacheMiss counts a result cache miss.
func (m *MetricsService) IncCacheMiss(backend string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(backend, "miss").Inc()
}

// IncCacheError counts a failed cache operation.
func (m *MetricsService) IncCacheError(backend string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(backend, "error").Inc()
}

// ObserveMetadata records a metadata lookup.
func (m *MetricsService) ObserveMetadata(err error) {
	if m == nil {
		return
	}
	m.metadataLookups.WithLabelValues(resultLabel(err)).Inc()
}

// IncSelectionState counts a selection step that stopped at state.
func (m *MetricsService) IncSelectionState(state string) {
	if m == nil {
		return
	}
	m.selectionOutcome.WithLabelValues(state).Inc()
}

// IncDownload counts a resolved download.
func (m *MetricsService) IncDownload(kind, delivery string) {
	if m == nil {
		return
	}
	m.downloadsTotal.WithLabelValues(kind, delivery).Inc()
}

// ObserveTranscode records a finished transcoder run.
func (m *MetricsService) ObserveTranscode(err error) {
	if m == nil {
		return
	}
	m.transcodesTotal.WithLabelValues(resultLabel(err)).Inc()
}

// AddStreamedBytes adds bytes to the streamed bytes counter.
func (m *MetricsService) AddStreamedBytes(kind string, bytes int64) {
	if m == nil || bytes <= 0 {
		return
	}
	m.streamedBytesTotal.WithLabelValues(kind).Add(float64(bytes))
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
