package models

import "time"

// InsightKind classifies what an insight is about
type InsightKind string

const (
	InsightPerformance  InsightKind = "PERFORMANCE"
	InsightResource     InsightKind = "RESOURCE"
	InsightTrend        InsightKind = "TREND"
	InsightReliability  InsightKind = "RELIABILITY"
	InsightPrediction   InsightKind = "PREDICTION"
	InsightOptimization InsightKind = "OPTIMIZATION"
)

// Severity represents how urgent an insight is
type Severity string

const (
	SeverityLow      Severity = "LOW"
	SeverityMedium   Severity = "MEDIUM"
	SeverityHigh     Severity = "HIGH"
	SeverityCritical Severity = "CRITICAL"
)

// Rank orders severities, higher is more urgent
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// Insight is a rule-triggered observation about a rule's performance
type Insight struct {
	ID             string      `json:"id"`
	Kind           InsightKind `json:"kind"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Severity       Severity    `json:"severity"`
	ImpactScore    float64     `json:"impactScore"` // 0-100
	Confidence     float64     `json:"confidence"`  // 0-1
	Actionable     bool        `json:"actionable"`
	Recommendation string      `json:"recommendation"`
	Timestamp      time.Time   `json:"timestamp"`
}

// Grade is the letter form of a score
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// AnalysisResult bundles everything produced by one analysis call
type AnalysisResult struct {
	ID         string           `json:"id"`
	RuleID     string           `json:"ruleId"`
	Metrics    AggregateMetrics `json:"metrics"`
	Baseline   *Baseline        `json:"baseline"`
	Comparison Comparison       `json:"comparison"`
	Trends     []Trend          `json:"trends,omitempty"`
	Insights   []Insight        `json:"insights"`
	Score      float64          `json:"score"`
	Grade      Grade            `json:"grade"`
	Timestamp  time.Time        `json:"timestamp"`
}

// Trend returns the trend for the named metric, if present
func (r *AnalysisResult) Trend(metric string) (Trend, bool) {
	for _, t := range r.Trends {
		if t.Metric == metric {
			return t, true
		}
	}
	return Trend{}, false
}
