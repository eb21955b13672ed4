package analyzer

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// Insight thresholds, in percent change against the baseline
const (
	degradationPct       = 20.0
	severeDegradationPct = 50.0
	improvementPct       = -20.0
	memoryIncreasePct    = 30.0
	severeMemoryPct      = 60.0
	throughputDropPct    = -20.0
)

// insightInput is everything the insight rules look at
type insightInput struct {
	metrics    models.AggregateMetrics
	comparison models.Comparison
	trends     []models.Trend
	settings   Settings
	opts       Options
	resultID   uuid.UUID
	now        time.Time
}

// generateInsights applies the insight rules to a comparison and its trends.
// Insights below the confidence threshold are dropped; the rest are ordered
// by severity, then impact, and capped at MaxInsights.
func generateInsights(in insightInput) []models.Insight {
	var insights []models.Insight
	add := func(i models.Insight) {
		i.ID = uuid.NewSHA1(in.resultID, []byte(string(i.Kind)+"|"+i.Title)).String()
		i.Timestamp = in.now
		i.ImpactScore = clamp(i.ImpactScore, 0, 100)
		insights = append(insights, i)
	}

	cmp := in.comparison

	if pct := cmp.ExecutionTime.PercentageChange; pct > degradationPct {
		severity := models.SeverityMedium
		if pct > severeDegradationPct {
			severity = models.SeverityHigh
		}
		add(models.Insight{
			Kind:  models.InsightPerformance,
			Title: "Performance Degradation",
			Description: fmt.Sprintf("Average execution time rose %.1f%% above baseline (%.0fms vs %.0fms)",
				pct, cmp.ExecutionTime.Current, cmp.ExecutionTime.Baseline),
			Severity:       severity,
			ImpactScore:    pct,
			Confidence:     0.85,
			Actionable:     true,
			Recommendation: "Review recent changes to the rule and profile its slowest steps",
		})
	} else if pct < improvementPct {
		add(models.Insight{
			Kind:           models.InsightOptimization,
			Title:          "Performance Improvement",
			Description:    fmt.Sprintf("Average execution time fell %.1f%% below baseline", -pct),
			Severity:       models.SeverityLow,
			ImpactScore:    -pct,
			Confidence:     0.8,
			Actionable:     false,
			Recommendation: "Consider resetting the baseline so future comparisons reflect the improvement",
		})
	}

	if pct := cmp.MemoryUsage.PercentageChange; pct > memoryIncreasePct {
		severity := models.SeverityMedium
		if pct > severeMemoryPct {
			severity = models.SeverityHigh
		}
		add(models.Insight{
			Kind:           models.InsightResource,
			Title:          "Memory Usage Increase",
			Description:    fmt.Sprintf("Average memory usage rose %.1f%% above baseline", pct),
			Severity:       severity,
			ImpactScore:    pct,
			Confidence:     0.8,
			Actionable:     true,
			Recommendation: "Check for growing input volumes and process data in smaller batches",
		})
	}

	if pct := cmp.Throughput.PercentageChange; pct < throughputDropPct {
		add(models.Insight{
			Kind:           models.InsightPerformance,
			Title:          "Throughput Drop",
			Description:    fmt.Sprintf("Average throughput fell %.1f%% below baseline", -pct),
			Severity:       models.SeverityMedium,
			ImpactScore:    -pct,
			Confidence:     0.75,
			Actionable:     true,
			Recommendation: "Check upstream data sources and connection pools for contention",
		})
	}

	if rate := in.metrics.ErrorRate; in.metrics.SampleCount > 0 && rate > in.settings.ErrorRateTolerance {
		severity := models.SeverityMedium
		switch {
		case rate > 25:
			severity = models.SeverityCritical
		case rate > 10:
			severity = models.SeverityHigh
		}
		add(models.Insight{
			Kind:           models.InsightReliability,
			Title:          "Elevated Error Rate",
			Description:    fmt.Sprintf("%.1f%% of executions failed", rate),
			Severity:       severity,
			ImpactScore:    rate * 2,
			Confidence:     0.9,
			Actionable:     true,
			Recommendation: adviceErrors,
		})
	}

	var declining []string
	for _, t := range in.trends {
		if t.Direction == models.TrendDeclining {
			declining = append(declining, t.Metric)
		}
	}
	if len(declining) > 0 {
		severity := models.SeverityLow
		if len(declining) > 1 {
			severity = models.SeverityMedium
		}
		add(models.Insight{
			Kind:           models.InsightTrend,
			Title:          "Declining Trends",
			Description:    fmt.Sprintf("Declining trend detected in: %s", strings.Join(declining, ", ")),
			Severity:       severity,
			ImpactScore:    20 * float64(len(declining)),
			Confidence:     0.7,
			Actionable:     true,
			Recommendation: "Monitor the declining metrics closely and schedule a performance review",
		})
	}

	if in.opts.IncludePredictions {
		if t, ok := findTrend(in.trends, MetricExecutionTime); ok && t.Direction == models.TrendDeclining {
			limit := in.settings.ExecutionTimeThresholdMs
			if t.PredictedNextValue > limit && in.metrics.ExecutionTime <= limit {
				add(models.Insight{
					Kind:  models.InsightPrediction,
					Title: "Predicted Execution Time Breach",
					Description: fmt.Sprintf("Next execution is predicted at %.0fms, above the %.0fms threshold",
						t.PredictedNextValue, limit),
					Severity:       models.SeverityHigh,
					ImpactScore:    (t.PredictedNextValue - limit) / math.Max(limit, 1) * 100,
					Confidence:     t.Confidence,
					Actionable:     true,
					Recommendation: "Act before the threshold is crossed: optimize the rule or raise its time budget",
				})
			}
		}
	}

	return rankInsights(insights, in.opts.ConfidenceThreshold, in.settings.MaxInsights)
}

func rankInsights(insights []models.Insight, minConfidence float64, limit int) []models.Insight {
	kept := make([]models.Insight, 0, len(insights))
	for _, i := range insights {
		if i.Confidence >= minConfidence {
			kept = append(kept, i)
		}
	}

	sort.SliceStable(kept, func(a, b int) bool {
		ra, rb := kept[a].Severity.Rank(), kept[b].Severity.Rank()
		if ra != rb {
			return ra > rb
		}
		return kept[a].ImpactScore > kept[b].ImpactScore
	})

	if limit > 0 && len(kept) > limit {
		kept = kept[:limit]
	}
	return kept
}

func findTrend(trends []models.Trend, metric string) (models.Trend, bool) {
	for _, t := range trends {
		if t.Metric == metric {
			return t, true
		}
	}
	return models.Trend{}, false
}
