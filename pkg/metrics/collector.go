// Package metrics exposes the analyzer's running counters as Prometheus
// collectors.
package metrics

import (
	"fmt"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rule_score"

// Collector groups the analyzer counters. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	analyses         prometheus.Counter
	failures         prometheus.Counter
	cacheHits        prometheus.Counter
	cacheMisses      prometheus.Counter
	baselinesCreated prometheus.Counter
	insights         *prometheus.CounterVec
	lastScore        *prometheus.GaugeVec
	duration         prometheus.Histogram
}

// NewCollector creates the collectors and registers them on a fresh registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		analyses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Completed rule analyses.",
		}),
		failures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_failures_total",
			Help:      "Analyses that returned an error or panicked.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_hits_total",
			Help:      "Analyses served from the result cache.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "result_cache_misses_total",
			Help:      "Result cache lookups that missed.",
		}),
		baselinesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "baselines_created_total",
			Help:      "Baselines computed and stored.",
		}),
		insights: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "insights_total",
			Help:      "Insights emitted, by severity.",
		}, []string{"severity"}),
		lastScore: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_score",
			Help:      "Most recent score per rule.",
		}, []string{"rule_id"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_duration_seconds",
			Help:      "Time spent in a single analysis.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}

	c.registry.MustRegister(
		c.analyses, c.failures, c.cacheHits, c.cacheMisses,
		c.baselinesCreated, c.insights, c.lastScore, c.duration,
	)
	return c
}

// Registry returns the registry holding the collectors
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// RecordAnalysis tracks a completed analysis
func (c *Collector) RecordAnalysis(result *models.AnalysisResult, elapsed time.Duration) {
	if c == nil || result == nil {
		return
	}
	c.analyses.Inc()
	c.duration.Observe(elapsed.Seconds())
	c.lastScore.WithLabelValues(result.RuleID).Set(result.Score)
	for _, insight := range result.Insights {
		c.insights.WithLabelValues(string(insight.Severity)).Inc()
	}
}

func (c *Collector) RecordFailure() {
	if c == nil {
		return
	}
	c.failures.Inc()
}

func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheHits.Inc()
}

func (c *Collector) RecordCacheMiss() {
	if c == nil {
		return
	}
	c.cacheMisses.Inc()
}

func (c *Collector) RecordBaselineCreated() {
	if c == nil {
		return
	}
	c.baselinesCreated.Inc()
}

// WriteTextfile writes the current values in the node-exporter textfile format
func (c *Collector) WriteTextfile(path string) error {
	if c == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
