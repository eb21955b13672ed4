package analyzer

import (
	"sort"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// BuildBaseline computes the historical reference for ruleID from samples.
// Averages follow AggregateSamples except efficiency, which is the mean of
// the per-sample efficiencies. When window > 0 only the most recent window
// samples are used.
func BuildBaseline(ruleID string, samples []models.ExecutionSample, settings Settings, now time.Time) *models.Baseline {
	samples = recentWindow(samples, settings.BaselineWindow)

	b := &models.Baseline{
		RuleID:      ruleID,
		Averages:    AggregateSamples(samples, settings),
		SampleCount: len(samples),
		CreatedAt:   now,
	}
	if len(samples) == 0 {
		return b
	}

	perSample := make([]float64, len(samples))
	for i, s := range samples {
		perSample[i] = efficiency(s.ExecutionTimeMs, s.MemoryUsageMb, s.CPUPercent, settings)
	}
	b.Averages.Efficiency = calculateAverage(perSample)

	cols := columnsOf(samples)
	b.Min = cols.envelope(func(v []float64) float64 { lo, _ := minMax(v); return lo })
	b.Max = cols.envelope(func(v []float64) float64 { _, hi := minMax(v); return hi })
	b.P95 = cols.envelope(func(v []float64) float64 { return ordinalPercentile(v, 95) })
	b.P99 = cols.envelope(func(v []float64) float64 { return ordinalPercentile(v, 99) })

	return b
}

// recentWindow keeps the newest window samples by timestamp
func recentWindow(samples []models.ExecutionSample, window int) []models.ExecutionSample {
	if window <= 0 || len(samples) <= window {
		return samples
	}
	sorted := sortedByTime(samples)
	return sorted[len(sorted)-window:]
}

// sortedByTime returns a timestamp-ascending copy; equal timestamps keep
// their input order
func sortedByTime(samples []models.ExecutionSample) []models.ExecutionSample {
	sorted := make([]models.ExecutionSample, len(samples))
	copy(sorted, samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}
