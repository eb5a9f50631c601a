// Package metrics implements the observability hooks with prometheus.
package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/graphcp/pkg/errors"
	"github.com/matzehuels/graphcp/pkg/observability"
)

const namespace = "graphcp"

// Hooks records render and cache events. It implements both
// observability.RenderHooks and observability.CacheHooks.
type Hooks struct {
	validations        *prometheus.CounterVec
	validationDuration prometheus.Histogram

	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	inFlight       prometheus.Gauge

	writes       *prometheus.CounterVec
	writtenBytes *prometheus.CounterVec

	cacheEvents *prometheus.CounterVec
	cacheBytes  prometheus.Counter
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Hooks {
	f := promauto.With(reg)
	return &Hooks{
		validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "validations_total",
			Help:      "DOT descriptions checked, by result",
		}, []string{"result"}),
		validationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "validation_duration_seconds",
			Help:      "Time spent validating DOT descriptions",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		}),
		renders: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "renders_total",
			Help:      "Renderer invocations, by format and result",
		}, []string{"format", "result"}),
		renderDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Renderer invocation latency",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 14), // 5ms to ~40s
		}, []string{"format"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "renders_in_flight",
			Help:      "Renders currently running",
		}),
		writes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "writes_total",
			Help:      "Artifacts written to the output root, by kind and result",
		}, []string{"kind", "result"}),
		writtenBytes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "written_bytes_total",
			Help:      "Bytes written to the output root, by kind",
		}, []string{"kind"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_events_total",
			Help:      "Artifact cache lookups and writes, by key type and event",
		}, []string{"key_type", "event"}),
		cacheBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_set_bytes_total",
			Help:      "Bytes stored in the artifact cache",
		}),
	}
}

// Install registers h as the process-wide render and cache hooks.
func (h *Hooks) Install() {
	observability.SetRenderHooks(h)
	observability.SetCacheHooks(h)
}

// Handler serves the metrics in gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

func (h *Hooks) OnValidate(_ context.Context, _ int, d time.Duration, err error) {
	h.validations.WithLabelValues(result(err)).Inc()
	h.validationDuration.Observe(d.Seconds())
}

func (h *Hooks) OnRenderStart(context.Context, string) {
	h.inFlight.Inc()
}

func (h *Hooks) OnRenderComplete(_ context.Context, format string, d time.Duration, err error) {
	h.inFlight.Dec()
	h.renders.WithLabelValues(format, result(err)).Inc()
	h.renderDuration.WithLabelValues(format).Observe(d.Seconds())
}

func (h *Hooks) OnWrite(_ context.Context, kind string, size int64, err error) {
	h.writes.WithLabelValues(kind, result(err)).Inc()
	if err == nil && size > 0 {
		h.writtenBytes.WithLabelValues(kind).Add(float64(size))
	}
}

func (h *Hooks) OnCacheHit(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (h *Hooks) OnCacheMiss(_ context.Context, keyType string) {
	h.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (h *Hooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.cacheEvents.WithLabelValues(keyType, "set").Inc()
	h.cacheBytes.Add(float64(size))
}

// result maps err to a low-cardinality label.
func result(err error) string {
	if err == nil {
		return "ok"
	}
	if code := errors.GetCode(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

var (
	_ observability.RenderHooks = (*Hooks)(nil)
	_ observability.CacheHooks  = (*Hooks)(nil)
)
