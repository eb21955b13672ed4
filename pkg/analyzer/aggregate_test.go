package analyzer

import (
	"math"
	"testing"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateSamples_Empty(t *testing.T) {
	m := AggregateSamples(nil, DefaultSettings())

	assert.Zero(t, m.SuccessRate)
	assert.Zero(t, m.ErrorRate)
	assert.Zero(t, m.Efficiency)
	assert.Zero(t, m.SampleCount)
	assert.Empty(t, m.Bottlenecks)
	assert.Empty(t, m.Recommendations)
}

func TestAggregateSamples_Means(t *testing.T) {
	samples := makeSamples(4, func(i int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = float64(100 * (i + 1)) // 100..400
		s.CPUPercent = 40
		s.MemoryUsageMb = 60
		if i == 3 {
			s.Status = models.StatusFailure
		}
	})

	m := AggregateSamples(samples, DefaultSettings())

	assert.Equal(t, 250.0, m.ExecutionTime)
	assert.Equal(t, 75.0, m.SuccessRate)
	assert.Equal(t, 25.0, m.ErrorRate)
	assert.Equal(t, 50.0, m.Utilization)
	assert.Equal(t, 4, m.SampleCount)
	// time 97.5, memory 94, cpu 60
	assert.InDelta(t, (97.5+94+60)/3, m.Efficiency, 1e-9)
}

func TestAggregateSamples_Bottlenecks(t *testing.T) {
	samples := makeSamples(3, func(_ int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = 6000
		s.MemoryUsageMb = 90
		s.CPUPercent = 95
	})

	m := AggregateSamples(samples, DefaultSettings())

	assert.Equal(t, []string{BottleneckExecutionTime, BottleneckMemory, BottleneckCPU}, m.Bottlenecks)
	require.GreaterOrEqual(t, len(m.Recommendations), 5)
	assert.Equal(t, bottleneckAdvice[BottleneckExecutionTime], m.Recommendations[0])
	assert.Contains(t, m.Recommendations, adviceEfficiency)

	n := len(m.Recommendations)
	assert.Equal(t, RecommendMonitor, m.Recommendations[n-2])
	assert.Equal(t, RecommendAlerts, m.Recommendations[n-1])
}

func TestAggregateSamples_ThresholdsAreStrict(t *testing.T) {
	samples := makeSamples(2, func(_ int, s *models.ExecutionSample) {
		s.ExecutionTimeMs = 5000
		s.MemoryUsageMb = 80
		s.CPUPercent = 90
	})

	m := AggregateSamples(samples, DefaultSettings())
	assert.Empty(t, m.Bottlenecks)
}

func TestEfficiency_MonotoneInCost(t *testing.T) {
	settings := DefaultSettings()
	prev := math.Inf(1)
	for _, ms := range []float64{0, 100, 1000, 5000, 9000, 20000} {
		e := efficiency(ms, 10, 10, settings)
		assert.LessOrEqual(t, e, prev, "efficiency must not rise with execution time (%.0fms)", ms)
		prev = e
	}
}

func TestAggregateSamples_AdversarialInputs(t *testing.T) {
	cases := map[string][]models.ExecutionSample{
		"all zero": makeSamples(5, func(_ int, s *models.ExecutionSample) {
			*s = models.ExecutionSample{Status: models.StatusSuccess, Timestamp: s.Timestamp}
		}),
		"all maximal": makeSamples(5, func(_ int, s *models.ExecutionSample) {
			s.ExecutionTimeMs = math.MaxFloat64 / 10
			s.MemoryUsageMb = math.MaxFloat64 / 10
			s.CPUPercent = math.MaxFloat64 / 10
			s.Status = models.StatusFailure
		}),
		"negative": makeSamples(5, func(_ int, s *models.ExecutionSample) {
			s.ExecutionTimeMs = -1e6
			s.MemoryUsageMb = -50
			s.CPUPercent = -10
		}),
		"mixed status": makeSamples(7, func(i int, s *models.ExecutionSample) {
			if i%3 == 0 {
				s.Status = models.StatusFailure
			}
		}),
	}

	for name, samples := range cases {
		t.Run(name, func(t *testing.T) {
			m := AggregateSamples(sanitizeSamples(samples), DefaultSettings())
			assert.GreaterOrEqual(t, m.Efficiency, 0.0)
			assert.LessOrEqual(t, m.Efficiency, 100.0)
			assert.InDelta(t, 100.0, m.SuccessRate+m.ErrorRate, 1e-9)
		})
	}
}
