// Package metrics exposes digest run counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"ticker-digest/pkg/common"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RunMetrics is what the digest runner reports after each run.
type RunMetrics interface {
	RecordRun(usersProcessed, newsSent, llmCalls, cacheHits, errors int, duration time.Duration)
}

// Collector implements RunMetrics on top of Prometheus counters.
type Collector struct {
	runs           prometheus.Counter
	usersProcessed prometheus.Counter
	newsSent       prometheus.Counter
	llmCalls       prometheus.Counter
	cacheHits      prometheus.Counter
	errors         prometheus.Counter
	runDuration    prometheus.Histogram
}

// NewCollector creates the counters and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	counter := func(name, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: common.MetricsNamespace,
			Name:      name,
			Help:      help,
		})
	}

	c := &Collector{
		runs:           counter("runs_total", "Completed digest runs."),
		usersProcessed: counter("users_processed_total", "Subscribers visited by digest runs."),
		newsSent:       counter("news_sent_total", "News items included in digests."),
		llmCalls:       counter("llm_calls_total", "Summaries requested from the generative model."),
		cacheHits:      counter("cache_hits_total", "Summaries served from the cache."),
		errors:         counter("delivery_errors_total", "Digests that failed to deliver."),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: common.MetricsNamespace,
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of digest runs.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200, 1800},
		}),
	}

	reg.MustRegister(c.runs, c.usersProcessed, c.newsSent, c.llmCalls, c.cacheHits, c.errors, c.runDuration)
	return c
}

// RecordRun adds the counters of one finished run.
func (c *Collector) RecordRun(usersProcessed, newsSent, llmCalls, cacheHits, errors int, duration time.Duration) {
	c.runs.Inc()
	c.usersProcessed.Add(float64(usersProcessed))
	c.newsSent.Add(float64(newsSent))
	c.llmCalls.Add(float64(llmCalls))
	c.cacheHits.Add(float64(cacheHits))
	c.errors.Add(float64(errors))
	c.runDuration.Observe(duration.Seconds())
}

// Handler returns the Prometheus scrape handler for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards run metrics.
type Nop struct{}

func (Nop) RecordRun(int, int, int, int, int, time.Duration) {}
