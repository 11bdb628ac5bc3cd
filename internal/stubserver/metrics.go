package stubserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the stub service's Prometheus collectors on a private
// registry.
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	stageRunsTotal  *prometheus.CounterVec
	mappedRecords   prometheus.Gauge
	accuracyScore   prometheus.Gauge
}

// NewMetrics registers all collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mapper_stub",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "mapper_stub",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mapper_stub",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	stageRunsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "mapper_stub",
			Subsystem: "pipeline",
			Name:      "stage_runs_total",
			Help:      "Pipeline stage executions by outcome.",
		},
		[]string{"stage", "status"},
	)
	mappedRecords := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mapper_stub",
			Subsystem: "pipeline",
			Name:      "mapped_records",
			Help:      "Records produced by the last match run.",
		},
	)
	accuracyScore := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "mapper_stub",
			Subsystem: "pipeline",
			Name:      "accuracy_percent",
			Help:      "Score of the last accuracy check.",
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		stageRunsTotal,
		mappedRecords,
		accuracyScore,
	)

	return &Metrics{
		registry:        registry,
		requestTotal:    requestTotal,
		requestDuration: requestDuration,
		requestInFlight: requestInFlight,
		stageRunsTotal:  stageRunsTotal,
		mappedRecords:   mappedRecords,
		accuracyScore:   accuracyScore,
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per route.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordStage counts one stage execution.
func (m *Metrics) RecordStage(stage string, ok bool) {
	status := "ok"
	if !ok {
		status = "error"
	}
	m.stageRunsTotal.WithLabelValues(stage, status).Inc()
}

// SetMappedRecords publishes the size of the latest match output.
func (m *Metrics) SetMappedRecords(n int) {
	m.mappedRecords.Set(float64(n))
}

// SetAccuracy publishes the latest accuracy score.
func (m *Metrics) SetAccuracy(score float64) {
	m.accuracyScore.Set(score)
}
