package analyzer

import (
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// perfectScore is the reference the overall score is compared against
const perfectScore = 100.0

// Compare measures current metrics against the baseline averages
func Compare(current, baseline models.AggregateMetrics, settings Settings) models.Comparison {
	cmp := models.Comparison{
		ExecutionTime: compareMetric(current.ExecutionTime, baseline.ExecutionTime),
		MemoryUsage:   compareMetric(current.MemoryUsage, baseline.MemoryUsage),
		CPUUsage:      compareMetric(current.CPUUsage, baseline.CPUUsage),
		Throughput:    compareMetric(current.Throughput, baseline.Throughput),
		Latency:       compareMetric(current.Latency, baseline.Latency),
		Efficiency:    compareMetric(current.Efficiency, baseline.Efficiency),
	}

	cmp.Overall = compareMetric(Score(current, cmp, settings), perfectScore)
	return cmp
}

// compareMetric defines PercentageChange as 0 when the baseline is 0.
// A difference or change that overflows is reported as 0.
func compareMetric(current, baseline float64) models.MetricComparison {
	diff := finite(current - baseline)
	var pct float64
	if baseline != 0 {
		pct = finite(diff / baseline * 100)
	}
	return models.MetricComparison{
		Current:          current,
		Baseline:         baseline,
		Difference:       diff,
		PercentageChange: pct,
	}
}
