package analyzer

import (
	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// Bottleneck labels
const (
	BottleneckExecutionTime = "High execution time"
	BottleneckMemory        = "High memory usage"
	BottleneckCPU           = "High CPU usage"
)

// Standing recommendations appended to every non-empty analysis
const (
	RecommendMonitor = "Monitor rule performance regularly"
	RecommendAlerts  = "Configure alerts for performance degradation"
)

var bottleneckAdvice = map[string]string{
	BottleneckExecutionTime: "Optimize rule logic or narrow the scanned data set to reduce execution time",
	BottleneckMemory:        "Process data in smaller batches to reduce memory footprint",
	BottleneckCPU:           "Distribute CPU-intensive work or schedule the rule during off-peak hours",
}

const (
	adviceEfficiency = "Review rule configuration to improve overall efficiency"
	adviceErrors     = "Investigate failing executions to improve reliability"
)

// AggregateSamples derives the aggregate metrics of samples. An empty
// slice yields all-zero metrics.
func AggregateSamples(samples []models.ExecutionSample, settings Settings) models.AggregateMetrics {
	if len(samples) == 0 {
		return models.AggregateMetrics{
			Bottlenecks:     []string{},
			Recommendations: []string{},
		}
	}

	cols := columnsOf(samples)
	m := models.AggregateMetrics{
		ExecutionTime: calculateAverage(cols.executionTime),
		MemoryUsage:   calculateAverage(cols.memoryUsage),
		CPUUsage:      calculateAverage(cols.cpuUsage),
		Throughput:    calculateAverage(cols.throughput),
		Latency:       calculateAverage(cols.latency),
		SampleCount:   len(samples),
	}

	m.Efficiency = efficiency(m.ExecutionTime, m.MemoryUsage, m.CPUUsage, settings)

	succeeded := 0
	for _, s := range samples {
		if s.Succeeded() {
			succeeded++
		}
	}
	m.SuccessRate = 100 * float64(succeeded) / float64(len(samples))
	m.ErrorRate = 100 - m.SuccessRate
	m.Utilization = m.CPUUsage/2 + m.MemoryUsage/2

	m.Bottlenecks = identifyBottlenecks(m, settings)
	m.Recommendations = generateRecommendations(m, settings)
	return m
}

// efficiency is the mean of the time, memory and cpu sub-scores, in [0,100].
// Each sub-score decreases monotonically as its cost grows.
func efficiency(execMs, memMb, cpuPct float64, settings Settings) float64 {
	timeScore := clamp(100-execMs*settings.TimePenaltyPerMs, 0, 100)
	memoryScore := clamp(100-memMb*settings.MemoryPenaltyPerMb, 0, 100)
	cpuScore := clamp(100-cpuPct*settings.CPUPenaltyPerPercent, 0, 100)
	return clamp((timeScore+memoryScore+cpuScore)/3, 0, 100)
}

func identifyBottlenecks(m models.AggregateMetrics, settings Settings) []string {
	bottlenecks := []string{}
	if m.ExecutionTime > settings.ExecutionTimeThresholdMs {
		bottlenecks = append(bottlenecks, BottleneckExecutionTime)
	}
	if m.MemoryUsage > settings.MemoryThreshold {
		bottlenecks = append(bottlenecks, BottleneckMemory)
	}
	if m.CPUUsage > settings.CPUThreshold {
		bottlenecks = append(bottlenecks, BottleneckCPU)
	}
	return bottlenecks
}

func generateRecommendations(m models.AggregateMetrics, settings Settings) []string {
	var recs []string
	for _, b := range m.Bottlenecks {
		recs = append(recs, bottleneckAdvice[b])
	}
	if m.Efficiency < settings.EfficiencyTarget {
		recs = append(recs, adviceEfficiency)
	}
	if m.ErrorRate > settings.ErrorRateTolerance {
		recs = append(recs, adviceErrors)
	}
	return append(recs, RecommendMonitor, RecommendAlerts)
}
