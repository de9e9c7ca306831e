// Package metrics exposes feed polling counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bnema/aeye-cli/internal/domain"
	"github.com/bnema/aeye-cli/internal/ports"
)

const sourceLabel = "source"

type Collector struct {
	fetchAttempts *prometheus.CounterVec
	fetchSuccess  *prometheus.CounterVec
	fetchFailure  *prometheus.CounterVec
	skippedTicks  *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	liveHandles   prometheus.Gauge
}

var _ ports.PollMetrics = (*Collector)(nil)

func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		fetchAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aeye_feed_fetch_attempts_total",
			Help: "Image fetches started, per feed source.",
		}, []string{sourceLabel}),
		fetchSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aeye_feed_fetch_success_total",
			Help: "Image fetches that produced a published frame.",
		}, []string{sourceLabel}),
		fetchFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aeye_feed_fetch_fail_total",
			Help: "Image fetches that failed; the previous frame stays on screen.",
		}, []string{sourceLabel}),
		skippedTicks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "aeye_feed_skipped_ticks_total",
			Help: "Poll ticks skipped because the previous fetch was still outstanding.",
		}, []string{sourceLabel}),
		fetchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "aeye_feed_fetch_latency_seconds",
			Help:    "Latency of successful image fetches.",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{sourceLabel}),
		liveHandles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "aeye_feed_live_handles",
			Help: "Frame handles currently allocated and not yet released.",
		}),
	}

	reg.MustRegister(
		c.fetchAttempts,
		c.fetchSuccess,
		c.fetchFailure,
		c.skippedTicks,
		c.fetchLatency,
		c.liveHandles,
	)

	return c
}

func (c *Collector) RecordFetchAttempt(sourceID domain.FeedSourceID) {
	c.fetchAttempts.WithLabelValues(string(sourceID)).Inc()
}

func (c *Collector) RecordFetchSuccess(sourceID domain.FeedSourceID, latency time.Duration) {
	c.fetchSuccess.WithLabelValues(string(sourceID)).Inc()
	c.fetchLatency.WithLabelValues(string(sourceID)).Observe(latency.Seconds())
}

func (c *Collector) RecordFetchFailure(sourceID domain.FeedSourceID) {
	c.fetchFailure.WithLabelValues(string(sourceID)).Inc()
}

func (c *Collector) RecordSkippedTick(sourceID domain.FeedSourceID) {
	c.skippedTicks.WithLabelValues(string(sourceID)).Inc()
}

func (c *Collector) HandleAllocated() {
	c.liveHandles.Inc()
}

func (c *Collector) HandleReleased() {
	c.liveHandles.Dec()
}

func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// NewRouter serves /metrics and a /healthz probe for a running watch.
func NewRouter(gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	r.Method(http.MethodGet, "/metrics", Handler(gatherer))
	return r
}
