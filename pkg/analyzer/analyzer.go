package analyzer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/rule-score-analyzer/pkg/cache"
	"github.com/opscart/rule-score-analyzer/pkg/metrics"
	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/sirupsen/logrus"
)

// Analyzer scores rule executions against a per-rule baseline.
// All exported methods are safe for concurrent use.
type Analyzer struct {
	settings  Settings
	baselines cache.BaselineStore
	results   *cache.ResultCache
	collector *metrics.Collector
	log       logrus.FieldLogger
	now       func() time.Time
}

// Option customises an Analyzer built by New
type Option func(*Analyzer)

// WithBaselineStore replaces the in-memory baseline store
func WithBaselineStore(store cache.BaselineStore) Option {
	return func(a *Analyzer) { a.baselines = store }
}

// WithResultCache replaces the result cache built from Settings.CacheTTL
func WithResultCache(c *cache.ResultCache) Option {
	return func(a *Analyzer) { a.results = c }
}

// WithCollector records counters into c instead of a private collector
func WithCollector(c *metrics.Collector) Option {
	return func(a *Analyzer) { a.collector = c }
}

// WithLogger replaces the standard logrus logger
func WithLogger(log logrus.FieldLogger) Option {
	return func(a *Analyzer) { a.log = log }
}

// WithClock overrides the time source used for result and baseline timestamps
func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// New creates an Analyzer with in-memory caches unless overridden
func New(settings Settings, opts ...Option) *Analyzer {
	a := &Analyzer{
		settings:  settings,
		baselines: cache.NewMemoryBaselineStore(),
		collector: metrics.NewCollector(),
		log:       logrus.StandardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.results == nil {
		a.results = cache.NewResultCache(settings.CacheTTL)
	}
	a.log = a.log.WithField("component", "analyzer")
	return a
}

// Settings returns the analyzer's settings
func (a *Analyzer) Settings() Settings {
	return a.settings
}

// Collector returns the counters the analyzer records into
func (a *Analyzer) Collector() *metrics.Collector {
	return a.collector
}

// Analyze aggregates samples, compares them with the rule's baseline,
// derives trends and insights and scores the result.
//
// The baseline for ruleID is created from the first samples seen and then
// reused until ClearBaseline is called. Empty or malformed sample values
// never produce an error. Store errors are returned; panics are re-raised.
// Both are counted as failures first.
func (a *Analyzer) Analyze(ctx context.Context, ruleID string, samples []models.ExecutionSample, opts Options) (result *models.AnalysisResult, err error) {
	started := time.Now()
	log := a.log.WithFields(logrus.Fields{
		"rule_id": ruleID,
		"samples": len(samples),
	})

	defer func() {
		if r := recover(); r != nil {
			a.collector.RecordFailure()
			log.WithField("panic", r).Error("Analysis aborted")
			panic(r)
		}
		if err != nil {
			a.collector.RecordFailure()
			log.WithError(err).Error("Analysis failed")
		}
	}()

	clean := sanitizeSamples(samples)

	useCache := a.settings.CacheEnabled && opts.UseCache
	id, fpErr := fingerprint(ruleID, clean, opts)
	if fpErr != nil {
		log.WithError(fpErr).Warn("Cannot fingerprint samples, skipping result cache")
		id = uuid.New()
		useCache = false
	}

	key := cache.ResultKey(ruleID, id)
	if useCache {
		if cached, ok := a.results.Get(key); ok {
			a.collector.RecordCacheHit()
			log.Debug("Serving analysis from result cache")
			return cloneResult(cached), nil
		}
		a.collector.RecordCacheMiss()
	}

	now := a.now()
	current := AggregateSamples(clean, a.settings)

	baseline, err := a.baselineFor(ctx, ruleID, clean, now)
	if err != nil {
		return nil, err
	}

	comparison := Compare(current, baseline.Averages, a.settings)

	var trends []models.Trend
	if opts.IncludeTrends {
		trends = AnalyzeTrends(clean, a.settings)
		if !opts.IncludePredictions {
			for i := range trends {
				trends[i].PredictedNextValue = 0
			}
		}
	}

	insights := generateInsights(insightInput{
		metrics:    current,
		comparison: comparison,
		trends:     trends,
		settings:   a.settings,
		opts:       opts,
		resultID:   id,
		now:        now,
	})

	score := comparison.Overall.Current
	result = &models.AnalysisResult{
		ID:         id.String(),
		RuleID:     ruleID,
		Metrics:    current,
		Baseline:   cloneBaseline(baseline),
		Comparison: comparison,
		Trends:     trends,
		Insights:   insights,
		Score:      score,
		Grade:      GradeFor(score),
		Timestamp:  now,
	}

	if useCache {
		a.results.Set(key, cloneResult(result))
	}

	a.collector.RecordAnalysis(result, time.Since(started))
	log.WithFields(logrus.Fields{
		"score":    fmt.Sprintf("%.1f", score),
		"grade":    result.Grade,
		"insights": len(insights),
	}).Info("Analysis complete")

	return result, nil
}

// baselineFor returns the stored baseline for ruleID, creating it from
// samples on first use
func (a *Analyzer) baselineFor(ctx context.Context, ruleID string, samples []models.ExecutionSample, now time.Time) (*models.Baseline, error) {
	existing, ok, err := a.baselines.Get(ctx, ruleID)
	if err != nil {
		return nil, fmt.Errorf("failed to load baseline for %s: %w", ruleID, err)
	}
	if ok {
		return existing, nil
	}

	stored, created, err := a.baselines.PutIfAbsent(ctx, ruleID, BuildBaseline(ruleID, samples, a.settings, now))
	if err != nil {
		return nil, fmt.Errorf("failed to store baseline for %s: %w", ruleID, err)
	}
	if created {
		a.collector.RecordBaselineCreated()
		a.log.WithFields(logrus.Fields{
			"rule_id": ruleID,
			"samples": stored.SampleCount,
		}).Info("Created baseline")
	}
	return stored, nil
}

// Baseline returns the stored baseline for ruleID without creating one
func (a *Analyzer) Baseline(ctx context.Context, ruleID string) (*models.Baseline, bool, error) {
	b, ok, err := a.baselines.Get(ctx, ruleID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load baseline for %s: %w", ruleID, err)
	}
	return b, ok, nil
}

// ClearBaseline forgets the baseline of ruleID and any cached results for
// it, so the next analysis recomputes both
func (a *Analyzer) ClearBaseline(ctx context.Context, ruleID string) error {
	if err := a.baselines.Delete(ctx, ruleID); err != nil {
		return fmt.Errorf("failed to clear baseline for %s: %w", ruleID, err)
	}
	a.results.InvalidateRule(ruleID)
	return nil
}

// ClearBaselines forgets every baseline and cached result
func (a *Analyzer) ClearBaselines(ctx context.Context) error {
	if err := a.baselines.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear baselines: %w", err)
	}
	a.results.Clear()
	return nil
}

// fingerprint identifies an analysis by its inputs only
func fingerprint(ruleID string, samples []models.ExecutionSample, opts Options) (uuid.UUID, error) {
	payload, err := json.Marshal(struct {
		RuleID  string                   `json:"ruleId"`
		Samples []models.ExecutionSample `json:"samples"`
		Options Options                  `json:"options"`
	}{ruleID, samples, opts})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to encode analysis inputs: %w", err)
	}
	return cache.Fingerprint(payload), nil
}

// cloneResult deep-copies r so cached results never share memory with
// what callers receive
func cloneResult(r *models.AnalysisResult) *models.AnalysisResult {
	out := *r
	out.Metrics = cloneMetrics(r.Metrics)
	out.Baseline = cloneBaseline(r.Baseline)

	if r.Trends != nil {
		out.Trends = make([]models.Trend, len(r.Trends))
		for i, t := range r.Trends {
			if t.Values != nil {
				t.Values = append(make([]float64, 0, len(t.Values)), t.Values...)
			}
			if t.Timestamps != nil {
				t.Timestamps = append(make([]time.Time, 0, len(t.Timestamps)), t.Timestamps...)
			}
			out.Trends[i] = t
		}
	}
	if r.Insights != nil {
		out.Insights = append([]models.Insight{}, r.Insights...)
	}
	return &out
}

func cloneBaseline(b *models.Baseline) *models.Baseline {
	if b == nil {
		return nil
	}
	out := *b
	out.Averages = cloneMetrics(b.Averages)
	return &out
}

func cloneMetrics(m models.AggregateMetrics) models.AggregateMetrics {
	if m.Bottlenecks != nil {
		m.Bottlenecks = append([]string{}, m.Bottlenecks...)
	}
	if m.Recommendations != nil {
		m.Recommendations = append([]string{}, m.Recommendations...)
	}
	return m
}
