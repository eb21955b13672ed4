package analyzer

import "time"

// Metric names used for trends and insights
const (
	MetricExecutionTime = "executionTime"
	MetricMemoryUsage   = "memoryUsage"
	MetricCPUUsage      = "cpuUsage"
	MetricThroughput    = "throughput"
	MetricLatency       = "latency"
)

// TrendAxis selects the independent variable of the trend regression
type TrendAxis string

const (
	// AxisIndex regresses against the sample's ordinal position
	AxisIndex TrendAxis = "index"
	// AxisElapsed regresses against seconds since the first sample
	AxisElapsed TrendAxis = "elapsed"
)

// Settings holds the instance-wide tunables of an Analyzer
type Settings struct {
	// Bottleneck thresholds
	ExecutionTimeThresholdMs float64
	MemoryThreshold          float64
	CPUThreshold             float64

	// Efficiency penalty scales; each sub-score is max(0, 100 - cost*penalty)
	TimePenaltyPerMs     float64
	MemoryPenaltyPerMb   float64
	CPUPenaltyPerPercent float64

	// Scoring
	EfficiencyTarget   float64 // efficiency below this is penalised
	ErrorRateTolerance float64 // error rate above this is penalised

	// Trends
	StableSlope float64 // |slope| below this is STABLE
	TrendAxis   TrendAxis

	// Baselines are built from at most this many most recent samples; 0 means all
	BaselineWindow int

	MaxInsights int

	// Result cache
	CacheEnabled bool
	CacheTTL     time.Duration
}

// DefaultSettings returns the reference thresholds and constants
func DefaultSettings() Settings {
	return Settings{
		ExecutionTimeThresholdMs: 5000,
		MemoryThreshold:          80,
		CPUThreshold:             90,
		TimePenaltyPerMs:         0.01, // 10s scores 0
		MemoryPenaltyPerMb:       0.1,  // 1000MB scores 0
		CPUPenaltyPerPercent:     1.0,  // 100% scores 0
		EfficiencyTarget:         70,
		ErrorRateTolerance:       5,
		StableSlope:              0.1,
		TrendAxis:                AxisIndex,
		BaselineWindow:           0,
		MaxInsights:              10,
		CacheEnabled:             true,
		CacheTTL:                 5 * time.Minute,
	}
}

// Options are the per-call flags of Analyze
type Options struct {
	IncludeTrends       bool
	IncludePredictions  bool
	ConfidenceThreshold float64 // insights below this confidence are dropped
	UseCache            bool
}

// DefaultOptions enables everything
func DefaultOptions() Options {
	return Options{
		IncludeTrends:       true,
		IncludePredictions:  true,
		ConfidenceThreshold: 0.6,
		UseCache:            true,
	}
}
