package analyzer

import (
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// Score weights applied to percentage changes against the baseline
const (
	executionTimeWeight = 0.5
	memoryWeight        = 0.3
	cpuWeight           = 0.2
	efficiencyWeight    = 0.5
	errorRateWeight     = 2.0
)

// Score computes the 0-100 score of current metrics given their comparison
// with the baseline.
//
// Execution time is only penalised when it grew. Memory and CPU changes
// are applied signed, so a reduction credits the score up to the clamp.
// Efficiency and error-rate penalties need at least one sample.
func Score(current models.AggregateMetrics, cmp models.Comparison, settings Settings) float64 {
	score := 100.0

	if pct := cmp.ExecutionTime.PercentageChange; pct > 0 {
		score -= executionTimeWeight * pct
	}
	score -= memoryWeight * cmp.MemoryUsage.PercentageChange
	score -= cpuWeight * cmp.CPUUsage.PercentageChange

	if current.SampleCount > 0 {
		if current.Efficiency < settings.EfficiencyTarget {
			score -= efficiencyWeight * (settings.EfficiencyTarget - current.Efficiency)
		}
		if current.ErrorRate > settings.ErrorRateTolerance {
			score -= errorRateWeight * current.ErrorRate
		}
	}

	return clamp(score, 0, 100)
}

// GradeFor maps a score onto a letter grade
func GradeFor(score float64) models.Grade {
	switch {
	case score >= 90:
		return models.GradeA
	case score >= 80:
		return models.GradeB
	case score >= 70:
		return models.GradeC
	case score >= 60:
		return models.GradeD
	default:
		return models.GradeF
	}
}
