package analyzer

import (
	"math"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// baseTime is a fixed reference point so all test timings are deterministic.
var baseTime = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// makeSamples builds n successful samples one minute apart; mutate adjusts
// sample i before it is stored.
func makeSamples(n int, mutate func(i int, s *models.ExecutionSample)) []models.ExecutionSample {
	samples := make([]models.ExecutionSample, n)
	for i := 0; i < n; i++ {
		s := models.ExecutionSample{
			ExecutionTimeMs: 200,
			MemoryUsageMb:   50,
			CPUPercent:      20,
			Throughput:      100,
			LatencyMs:       10,
			Status:          models.StatusSuccess,
			Timestamp:       baseTime.Add(time.Duration(i) * time.Minute),
		}
		if mutate != nil {
			mutate(i, &s)
		}
		samples[i] = s
	}
	return samples
}

func withExecutionTime(ms float64) func(int, *models.ExecutionSample) {
	return func(_ int, s *models.ExecutionSample) { s.ExecutionTimeMs = ms }
}

func nan() float64 {
	return math.NaN()
}
