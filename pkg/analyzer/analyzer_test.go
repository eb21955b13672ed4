package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/metrics"
	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestAnalyzer(opts ...Option) *Analyzer {
	return New(DefaultSettings(), append([]Option{WithLogger(quietLogger())}, opts...)...)
}

func TestAnalyze_EmptySamples(t *testing.T) {
	a := newTestAnalyzer()

	result, err := a.Analyze(context.Background(), "rule-empty", nil, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, result.Metrics.SuccessRate)
	assert.Zero(t, result.Metrics.ErrorRate)
	assert.Equal(t, 100.0, result.Score)
	assert.Equal(t, models.GradeA, result.Grade)
	assert.Empty(t, result.Insights)
	for _, tr := range result.Trends {
		assert.Equal(t, models.TrendStable, tr.Direction)
	}
}

func TestAnalyze_ConstantSuccessfulRuns(t *testing.T) {
	a := newTestAnalyzer()
	samples := makeSamples(10, withExecutionTime(200))

	result, err := a.Analyze(context.Background(), "rule-steady", samples, DefaultOptions())
	require.NoError(t, err)

	assert.Zero(t, result.Metrics.ErrorRate)
	assert.Equal(t, 100.0, result.Metrics.SuccessRate)
	assert.Empty(t, result.Metrics.Bottlenecks)

	tr, ok := result.Trend(MetricExecutionTime)
	require.True(t, ok)
	assert.Equal(t, models.TrendStable, tr.Direction)
}

func TestAnalyze_DegradationAgainstBaseline(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	_, err := a.Analyze(ctx, "rule-1", makeSamples(10, withExecutionTime(1000)), DefaultOptions())
	require.NoError(t, err)

	result, err := a.Analyze(ctx, "rule-1", makeSamples(10, withExecutionTime(1300)), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 1000.0, result.Comparison.ExecutionTime.Baseline, 1e-9)
	assert.InDelta(t, 30.0, result.Comparison.ExecutionTime.PercentageChange, 1e-9)

	insight, ok := findInsight(result.Insights, "Performance Degradation")
	require.True(t, ok, "expected a degradation insight")
	assert.Equal(t, models.SeverityMedium, insight.Severity, "30%% is above 20 but not above 50")

	assert.InDelta(t, 85.0, result.Score, 1e-9)
	assert.Equal(t, models.GradeB, result.Grade)
}

func TestAnalyze_SevereDegradation(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	_, err := a.Analyze(ctx, "rule-1", makeSamples(10, withExecutionTime(1000)), DefaultOptions())
	require.NoError(t, err)
	result, err := a.Analyze(ctx, "rule-1", makeSamples(10, withExecutionTime(1600)), DefaultOptions())
	require.NoError(t, err)

	insight, ok := findInsight(result.Insights, "Performance Degradation")
	require.True(t, ok)
	assert.Equal(t, models.SeverityHigh, insight.Severity)
}

func TestAnalyze_BaselineIsStaleUntilCleared(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	first := makeSamples(5, withExecutionTime(1000))
	second := makeSamples(8, withExecutionTime(3000))

	r1, err := a.Analyze(ctx, "rule-stale", first, DefaultOptions())
	require.NoError(t, err)
	r2, err := a.Analyze(ctx, "rule-stale", second, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, *r1.Baseline, *r2.Baseline, "baseline must not follow new samples")
	assert.Equal(t, 5, r2.Baseline.SampleCount)

	require.NoError(t, a.ClearBaseline(ctx, "rule-stale"))

	r3, err := a.Analyze(ctx, "rule-stale", second, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 8, r3.Baseline.SampleCount)
	assert.InDelta(t, 3000.0, r3.Baseline.Averages.ExecutionTime, 1e-9)
}

func TestAnalyze_BaselinesArePerRule(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	_, err := a.Analyze(ctx, "rule-a", makeSamples(3, withExecutionTime(100)), DefaultOptions())
	require.NoError(t, err)
	rb, err := a.Analyze(ctx, "rule-b", makeSamples(3, withExecutionTime(900)), DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 900.0, rb.Baseline.Averages.ExecutionTime, 1e-9)
}

func stripTimestamps(r *models.AnalysisResult) models.AnalysisResult {
	out := *r
	out.Timestamp = time.Time{}
	if r.Baseline != nil {
		b := *r.Baseline
		b.CreatedAt = time.Time{}
		out.Baseline = &b
	}
	out.Insights = make([]models.Insight, len(r.Insights))
	for i, insight := range r.Insights {
		insight.Timestamp = time.Time{}
		out.Insights[i] = insight
	}
	return out
}

func TestAnalyze_Idempotent(t *testing.T) {
	ctx := context.Background()
	clock := baseTime
	a := newTestAnalyzer(WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))

	samples := makeSamples(12, func(i int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = 400 + 25*float64(i%4)
		s.MemoryUsageMb = 30 + float64(i)
		if i == 5 {
			s.Status = models.StatusFailure
		}
	})

	r1, err := a.Analyze(ctx, "rule-idem", samples, DefaultOptions())
	require.NoError(t, err)
	require.NoError(t, a.ClearBaselines(ctx))
	r2, err := a.Analyze(ctx, "rule-idem", samples, DefaultOptions())
	require.NoError(t, err)

	assert.NotEqual(t, r1.Timestamp, r2.Timestamp, "second call must be recomputed")
	assert.Equal(t, stripTimestamps(r1), stripTimestamps(r2))
}

func TestAnalyze_ResultCache(t *testing.T) {
	ctx := context.Background()
	clock := baseTime
	a := newTestAnalyzer(WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	samples := makeSamples(6, withExecutionTime(700))

	r1, err := a.Analyze(ctx, "rule-cache", samples, DefaultOptions())
	require.NoError(t, err)
	r2, err := a.Analyze(ctx, "rule-cache", samples, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, r1.Timestamp, r2.Timestamp, "identical inputs should be served from cache")

	changed := makeSamples(7, withExecutionTime(700))
	r3, err := a.Analyze(ctx, "rule-cache", changed, DefaultOptions())
	require.NoError(t, err)
	assert.NotEqual(t, r1.Timestamp, r3.Timestamp, "different samples must miss")

	noCache := DefaultOptions()
	noCache.UseCache = false
	r4, err := a.Analyze(ctx, "rule-cache", samples, noCache)
	require.NoError(t, err)
	assert.NotEqual(t, r1.Timestamp, r4.Timestamp)

	expected := `
# HELP rule_score_result_cache_hits_total Analyses served from the result cache.
# TYPE rule_score_result_cache_hits_total counter
rule_score_result_cache_hits_total 1
`
	assert.NoError(t, testutil.GatherAndCompare(a.Collector().Registry(),
		strings.NewReader(expected), "rule_score_result_cache_hits_total"))
}

func TestAnalyze_OptionsDisableTrendsAndPredictions(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()
	samples := makeSamples(5, func(i int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = 100 * float64(i+1)
	})

	opts := DefaultOptions()
	opts.IncludeTrends = false
	result, err := a.Analyze(ctx, "rule-opts", samples, opts)
	require.NoError(t, err)
	assert.Empty(t, result.Trends)

	opts = DefaultOptions()
	opts.IncludePredictions = false
	result, err = a.Analyze(ctx, "rule-opts", samples, opts)
	require.NoError(t, err)
	require.NotEmpty(t, result.Trends)
	for _, tr := range result.Trends {
		assert.Zero(t, tr.PredictedNextValue)
	}
}

func TestAnalyze_MalformedNumbersDefaultToZero(t *testing.T) {
	a := newTestAnalyzer()
	samples := makeSamples(4, nil)
	samples[1].ExecutionTimeMs = nan()
	samples[2].CPUPercent = nan()

	result, err := a.Analyze(context.Background(), "rule-nan", samples, DefaultOptions())
	require.NoError(t, err)

	assert.InDelta(t, 150.0, result.Metrics.ExecutionTime, 1e-9)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 100.0)
	assert.False(t, result.Metrics.Efficiency != result.Metrics.Efficiency, "efficiency must not be NaN")
}

// failingStore returns err from every call, or panics when err is nil
type failingStore struct {
	err error
}

func (f failingStore) Get(context.Context, string) (*models.Baseline, bool, error) {
	if f.err == nil {
		panic("baseline store exploded")
	}
	return nil, false, f.err
}

func (f failingStore) PutIfAbsent(context.Context, string, *models.Baseline) (*models.Baseline, bool, error) {
	return nil, false, f.err
}

func (f failingStore) Delete(context.Context, string) error { return f.err }

func (f failingStore) Clear(context.Context) error { return f.err }

const failuresMetric = `
# HELP rule_score_analysis_failures_total Analyses that returned an error or panicked.
# TYPE rule_score_analysis_failures_total counter
rule_score_analysis_failures_total 1
`

func TestAnalyze_StoreErrorIsReturnedAndCounted(t *testing.T) {
	storeErr := errors.New("connection refused")
	a := newTestAnalyzer(WithBaselineStore(failingStore{err: storeErr}))

	_, err := a.Analyze(context.Background(), "rule-err", makeSamples(3, nil), DefaultOptions())
	require.Error(t, err)
	assert.ErrorIs(t, err, storeErr)

	assert.NoError(t, testutil.GatherAndCompare(a.Collector().Registry(),
		strings.NewReader(failuresMetric), "rule_score_analysis_failures_total"))
}

func TestAnalyze_PanicIsCountedAndReraised(t *testing.T) {
	a := newTestAnalyzer(WithBaselineStore(failingStore{}))

	assert.PanicsWithValue(t, "baseline store exploded", func() {
		_, _ = a.Analyze(context.Background(), "rule-panic", makeSamples(3, nil), DefaultOptions())
	})

	assert.NoError(t, testutil.GatherAndCompare(a.Collector().Registry(),
		strings.NewReader(failuresMetric), "rule_score_analysis_failures_total"))
}

func TestAnalyze_ConcurrentFirstCallsShareBaseline(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	results := make(chan *models.AnalysisResult, 8)
	for i := 0; i < 8; i++ {
		go func(i int) {
			r, err := a.Analyze(ctx, "rule-race", makeSamples(i+2, withExecutionTime(float64(100*(i+1)))), DefaultOptions())
			if err != nil {
				results <- nil
				return
			}
			results <- r
		}(i)
	}

	var first *models.Baseline
	for i := 0; i < 8; i++ {
		r := <-results
		require.NotNil(t, r)
		if first == nil {
			first = r.Baseline
		}
		assert.Equal(t, *first, *r.Baseline)
	}
}

func TestAnalyze_MaximalValuesStayBounded(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()

	maximal := makeSamples(2, func(_ int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = math.MaxFloat64
		s.MemoryUsageMb = math.MaxFloat64
		s.CPUPercent = math.MaxFloat64
		s.Throughput = math.MaxFloat64
		s.LatencyMs = math.MaxFloat64
	})
	opposite := makeSamples(3, func(i int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = -math.MaxFloat64
		s.MemoryUsageMb = math.MaxFloat64 * float64(i%2)
		s.CPUPercent = -math.MaxFloat64
	})

	for _, samples := range [][]models.ExecutionSample{maximal, opposite} {
		result, err := a.Analyze(ctx, "rule-max", samples, DefaultOptions())
		require.NoError(t, err)

		assert.False(t, math.IsNaN(result.Score), "score must not be NaN")
		assert.GreaterOrEqual(t, result.Score, 0.0)
		assert.LessOrEqual(t, result.Score, 100.0)
		assert.GreaterOrEqual(t, result.Metrics.Efficiency, 0.0)
		assert.LessOrEqual(t, result.Metrics.Efficiency, 100.0)
		assert.Equal(t, math.MaxFloat64, result.Baseline.Averages.ExecutionTime)

		_, err = json.Marshal(result)
		assert.NoError(t, err, "every value must stay finite")
	}
}

func TestAnalyze_CachedResultIsIsolated(t *testing.T) {
	ctx := context.Background()
	a := newTestAnalyzer()
	samples := makeSamples(6, func(i int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = 6000 + 100*float64(i)
		s.Status = models.StatusFailure
	})

	r1, err := a.Analyze(ctx, "rule-isolated", samples, DefaultOptions())
	require.NoError(t, err)
	require.NotEmpty(t, r1.Metrics.Recommendations)
	require.NotEmpty(t, r1.Metrics.Bottlenecks)
	require.NotEmpty(t, r1.Insights)
	require.NotEmpty(t, r1.Trends)

	want := stripTimestamps(r1)
	want.Metrics.Bottlenecks = append([]string{}, r1.Metrics.Bottlenecks...)
	want.Metrics.Recommendations = append([]string{}, r1.Metrics.Recommendations...)
	want.Insights = append([]models.Insight{}, r1.Insights...)
	wantTrend := r1.Trends[0].Values[0]
	wantBaseline := r1.Baseline.Averages.ExecutionTime

	r1.Metrics.Recommendations[0] = "changed by caller"
	r1.Metrics.Bottlenecks[0] = "changed by caller"
	r1.Insights[0].Title = "changed by caller"
	r1.Trends[0].Values[0] = -1
	r1.Baseline.Averages.ExecutionTime = -1

	r2, err := a.Analyze(ctx, "rule-isolated", samples, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, r1.Timestamp, r2.Timestamp, "second call should be a cache hit")

	assert.Equal(t, want.Metrics.Recommendations, r2.Metrics.Recommendations)
	assert.Equal(t, want.Metrics.Bottlenecks, r2.Metrics.Bottlenecks)
	assert.Equal(t, want.Insights[0].Title, r2.Insights[0].Title)
	assert.Equal(t, wantTrend, r2.Trends[0].Values[0])
	assert.Equal(t, wantBaseline, r2.Baseline.Averages.ExecutionTime)

	stored, ok, err := a.Baseline(ctx, "rule-isolated")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, wantBaseline, stored.Averages.ExecutionTime, "stored baseline must not follow caller edits")
}

func TestAnalyze_WithCollectorSharesCounters(t *testing.T) {
	shared := metrics.NewCollector()
	first := newTestAnalyzer(WithCollector(shared))
	second := newTestAnalyzer(WithCollector(shared))
	require.Same(t, shared, first.Collector())

	ctx := context.Background()
	_, err := first.Analyze(ctx, "rule-a", makeSamples(3, nil), DefaultOptions())
	require.NoError(t, err)
	_, err = second.Analyze(ctx, "rule-b", makeSamples(3, nil), DefaultOptions())
	require.NoError(t, err)

	expected := `
# HELP rule_score_baselines_created_total Baselines computed and stored.
# TYPE rule_score_baselines_created_total counter
rule_score_baselines_created_total 2
`
	assert.NoError(t, testutil.GatherAndCompare(shared.Registry(),
		strings.NewReader(expected), "rule_score_baselines_created_total"))
}
