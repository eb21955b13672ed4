package models

import "time"

// AggregateMetrics is the summary of one analysis call's samples
type AggregateMetrics struct {
	// Arithmetic means of the sample fields
	ExecutionTime float64 `json:"executionTime"`
	MemoryUsage   float64 `json:"memoryUsage"`
	CPUUsage      float64 `json:"cpuUsage"`
	Throughput    float64 `json:"throughput"`
	Latency       float64 `json:"latency"`

	// Derived
	Efficiency  float64 `json:"efficiency"` // 0-100
	SuccessRate float64 `json:"successRate"`
	ErrorRate   float64 `json:"errorRate"`
	Utilization float64 `json:"utilization"` // mean of cpu and memory

	SampleCount     int      `json:"sampleCount"`
	Bottlenecks     []string `json:"bottlenecks"`
	Recommendations []string `json:"recommendations"`
}

// MetricEnvelope holds one value per numeric sample field
type MetricEnvelope struct {
	ExecutionTime float64 `json:"executionTime"`
	MemoryUsage   float64 `json:"memoryUsage"`
	CPUUsage      float64 `json:"cpuUsage"`
	Throughput    float64 `json:"throughput"`
	Latency       float64 `json:"latency"`
}

// Baseline is the historical reference point for a rule
type Baseline struct {
	RuleID      string           `json:"ruleId"`
	Averages    AggregateMetrics `json:"averages"`
	Min         MetricEnvelope   `json:"min"`
	Max         MetricEnvelope   `json:"max"`
	P95         MetricEnvelope   `json:"p95"`
	P99         MetricEnvelope   `json:"p99"`
	SampleCount int              `json:"sampleCount"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// MetricComparison compares one current value against its baseline
type MetricComparison struct {
	Current          float64 `json:"current"`
	Baseline         float64 `json:"baseline"`
	Difference       float64 `json:"difference"`
	PercentageChange float64 `json:"percentageChange"`
}

// Comparison is the per-metric current vs baseline breakdown
type Comparison struct {
	ExecutionTime MetricComparison `json:"executionTime"`
	MemoryUsage   MetricComparison `json:"memoryUsage"`
	CPUUsage      MetricComparison `json:"cpuUsage"`
	Throughput    MetricComparison `json:"throughput"`
	Latency       MetricComparison `json:"latency"`
	Efficiency    MetricComparison `json:"efficiency"`
	Overall       MetricComparison `json:"overall"`
}

// TrendDirection describes which way a metric is moving
type TrendDirection string

const (
	TrendImproving TrendDirection = "IMPROVING"
	TrendStable    TrendDirection = "STABLE"
	TrendDeclining TrendDirection = "DECLINING"
)

// Trend is the linear fit of one metric across the ordered samples
type Trend struct {
	Metric             string         `json:"metric"`
	Values             []float64      `json:"values"`
	Timestamps         []time.Time    `json:"timestamps"`
	Direction          TrendDirection `json:"direction"`
	Slope              float64        `json:"slope"`
	Intercept          float64        `json:"intercept"`
	Confidence         float64        `json:"confidence"`
	PredictedNextValue float64        `json:"predictedNextValue"`
}
