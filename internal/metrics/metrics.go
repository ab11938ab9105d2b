// Package metrics exposes Prometheus metrics for agent runs and the HTTP API.
// A nil *Collector is valid and records nothing.
package metrics

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Fallback kinds.
const (
	FallbackResearch     = "research"
	FallbackWriter       = "writer"
	FallbackMediaSpec    = "media_spec"
	FallbackVideoToImage = "video_to_image"
)

// Collector manages the Prometheus metrics of the service.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	stageFailures   *prometheus.CounterVec
	fallbacksTotal  *prometheus.CounterVec
	cyclesTotal     prometheus.Counter
	lastCycleOK     prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpRequestTime *prometheus.HistogramVec
}

// New creates a collector registered on its own registry.
// Parameters:
//   - namespace: metric name prefix; hyphens are replaced with underscores.
//
// Returns:
//   - *Collector: collector with Go and process collectors registered.
func New(namespace string) *Collector {
	ns := strings.ReplaceAll(namespace, "-", "_")
	c := &Collector{registry: prometheus.NewRegistry()}

	c.runsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "agent_runs_total",
		Help:      "Creator pipeline runs by outcome",
	}, []string{"creator", "status"})

	c.runDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "agent_run_duration_seconds",
		Help:      "Creator pipeline run duration in seconds",
		Buckets:   []float64{5, 15, 30, 60, 120, 240, 480, 900},
	}, []string{"creator"})

	c.stageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "stage_failures_total",
		Help:      "Pipeline failures by stage",
	}, []string{"stage"})

	c.fallbacksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "fallbacks_total",
		Help:      "Fallback paths taken by the pipeline",
	}, []string{"kind"})

	c.cyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "cycles_total",
		Help:      "Completed roster cycles",
	})

	c.lastCycleOK = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: ns,
		Name:      "last_cycle_success_count",
		Help:      "Successful runs in the most recent cycle",
	})

	c.httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: ns,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "endpoint", "status"})

	c.httpRequestTime = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: ns,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "endpoint"})

	c.registry.MustRegister(
		c.runsTotal,
		c.runDuration,
		c.stageFailures,
		c.fallbacksTotal,
		c.cyclesTotal,
		c.lastCycleOK,
		c.httpRequests,
		c.httpRequestTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// RunFinished records one pipeline run.
func (c *Collector) RunFinished(creator, status string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.runsTotal.WithLabelValues(creator, status).Inc()
	c.runDuration.WithLabelValues(creator).Observe(elapsed.Seconds())
}

// StageFailure records a fatal failure at stage.
func (c *Collector) StageFailure(stage string) {
	if c == nil {
		return
	}
	c.stageFailures.WithLabelValues(stage).Inc()
}

// Fallback records a fallback path of the given kind.
func (c *Collector) Fallback(kind string) {
	if c == nil {
		return
	}
	c.fallbacksTotal.WithLabelValues(kind).Inc()
}

// CycleFinished records a completed cycle.
func (c *Collector) CycleFinished(successCount int) {
	if c == nil {
		return
	}
	c.cyclesTotal.Inc()
	c.lastCycleOK.Set(float64(successCount))
}

// Middleware returns gin middleware that collects HTTP metrics.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if c == nil {
			ctx.Next()
			return
		}
		start := time.Now()
		ctx.Next()

		endpoint := ctx.FullPath()
		if endpoint == "" {
			endpoint = "unknown"
		}
		c.httpRequests.WithLabelValues(ctx.Request.Method, endpoint, strconv.Itoa(ctx.Writer.Status())).Inc()
		c.httpRequestTime.WithLabelValues(ctx.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler returns the Prometheus scrape handler.
func (c *Collector) Handler() gin.HandlerFunc {
	handler := promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
	return func(ctx *gin.Context) {
		handler.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
