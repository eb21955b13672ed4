package analyzer

import (
	"math"
	"sort"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// calculateAverage computes the mean of values, 0 for an empty slice.
// Sums that overflow fall back to an incremental mean, which stays finite
// for any finite input.
func calculateAverage(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	if mean := stat.Mean(values, nil); isFinite(mean) {
		return mean
	}

	mean := 0.0
	for i, v := range values {
		n := float64(i + 1)
		mean += v/n - mean/n
	}
	return mean
}

// ordinalPercentile returns the value at floor(p/100 * n) of the sorted
// values. This is nearest-rank without interpolation.
func ordinalPercentile(values []float64, percentile float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(math.Floor(percentile / 100.0 * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func minMax(values []float64) (lo, hi float64) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi = values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return lo, hi
}

// sampleColumns splits samples into one value slice per numeric field
type sampleColumns struct {
	executionTime []float64
	memoryUsage   []float64
	cpuUsage      []float64
	throughput    []float64
	latency       []float64
}

func columnsOf(samples []models.ExecutionSample) sampleColumns {
	cols := sampleColumns{
		executionTime: make([]float64, len(samples)),
		memoryUsage:   make([]float64, len(samples)),
		cpuUsage:      make([]float64, len(samples)),
		throughput:    make([]float64, len(samples)),
		latency:       make([]float64, len(samples)),
	}
	for i, s := range samples {
		cols.executionTime[i] = s.ExecutionTimeMs
		cols.memoryUsage[i] = s.MemoryUsageMb
		cols.cpuUsage[i] = s.CPUPercent
		cols.throughput[i] = s.Throughput
		cols.latency[i] = s.LatencyMs
	}
	return cols
}

// envelope applies fn to every column
func (c sampleColumns) envelope(fn func([]float64) float64) models.MetricEnvelope {
	return models.MetricEnvelope{
		ExecutionTime: fn(c.executionTime),
		MemoryUsage:   fn(c.memoryUsage),
		CPUUsage:      fn(c.cpuUsage),
		Throughput:    fn(c.throughput),
		Latency:       fn(c.latency),
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// finite maps NaN and ±Inf to zero
func finite(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return v
}

// sanitizeSamples returns a copy of samples with non-finite numbers zeroed
func sanitizeSamples(samples []models.ExecutionSample) []models.ExecutionSample {
	clean := make([]models.ExecutionSample, len(samples))
	for i, s := range samples {
		s.ExecutionTimeMs = finite(s.ExecutionTimeMs)
		s.MemoryUsageMb = finite(s.MemoryUsageMb)
		s.CPUPercent = finite(s.CPUPercent)
		s.Throughput = finite(s.Throughput)
		s.LatencyMs = finite(s.LatencyMs)
		clean[i] = s
	}
	return clean
}

// clamp bounds v to [lo, hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}
