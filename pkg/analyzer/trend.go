package analyzer

import (
	"math"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
	"gonum.org/v1/gonum/stat"
)

// trendMetric describes one series fitted by AnalyzeTrends
type trendMetric struct {
	name           string
	value          func(models.ExecutionSample) float64
	higherIsBetter bool
}

// trendMetrics are the fitted series. Execution time and memory improve as
// they fall; throughput is the exception and improves as it rises.
var trendMetrics = []trendMetric{
	{name: MetricExecutionTime, value: func(s models.ExecutionSample) float64 { return s.ExecutionTimeMs }},
	{name: MetricMemoryUsage, value: func(s models.ExecutionSample) float64 { return s.MemoryUsageMb }},
	{name: MetricThroughput, value: func(s models.ExecutionSample) float64 { return s.Throughput }, higherIsBetter: true},
}

// AnalyzeTrends fits a least-squares line per metric over the samples
// sorted by timestamp. With fewer than two samples every trend is STABLE
// with zero slope and zero confidence.
func AnalyzeTrends(samples []models.ExecutionSample, settings Settings) []models.Trend {
	sorted := sortedByTime(samples)
	x := regressionAxis(sorted, settings.TrendAxis)

	trends := make([]models.Trend, 0, len(trendMetrics))
	for _, m := range trendMetrics {
		trends = append(trends, fitTrend(m, sorted, x, settings.StableSlope))
	}
	return trends
}

func fitTrend(m trendMetric, sorted []models.ExecutionSample, x []float64, stableSlope float64) models.Trend {
	t := models.Trend{
		Metric:     m.name,
		Values:     make([]float64, len(sorted)),
		Timestamps: make([]time.Time, len(sorted)),
		Direction:  models.TrendStable,
	}
	for i, s := range sorted {
		t.Values[i] = m.value(s)
		t.Timestamps[i] = s.Timestamp
	}

	if len(sorted) < 2 {
		if len(sorted) == 1 {
			t.Intercept = t.Values[0]
			t.PredictedNextValue = t.Values[0]
		}
		return t
	}

	slope, intercept := linearRegression(x, t.Values)
	t.Slope = slope
	t.Intercept = intercept
	t.Confidence = clamp(1-math.Abs(slope)/10, 0.5, 0.95)
	t.PredictedNextValue = finite(slope*nextX(x) + intercept)
	t.Direction = classifyDirection(slope, stableSlope, m.higherIsBetter)
	return t
}

// classifyDirection treats falling values as improving unless the metric
// is one where higher is better
func classifyDirection(slope, stableSlope float64, higherIsBetter bool) models.TrendDirection {
	if math.Abs(slope) < stableSlope {
		return models.TrendStable
	}
	improving := slope < 0
	if higherIsBetter {
		improving = !improving
	}
	if improving {
		return models.TrendImproving
	}
	return models.TrendDeclining
}

// regressionAxis returns ordinal positions, or seconds since the first
// sample for AxisElapsed
func regressionAxis(sorted []models.ExecutionSample, axis TrendAxis) []float64 {
	x := make([]float64, len(sorted))
	for i, s := range sorted {
		if axis == AxisElapsed {
			x[i] = s.Timestamp.Sub(sorted[0].Timestamp).Seconds()
		} else {
			x[i] = float64(i)
		}
	}
	return x
}

// nextX is the position one step past the last sample. For the index
// axis this is n.
func nextX(x []float64) float64 {
	n := len(x)
	if n < 2 {
		return float64(n)
	}
	step := (x[n-1] - x[0]) / float64(n-1)
	return x[n-1] + step
}

// linearRegression performs simple least-squares regression.
// Returns: slope, intercept
func linearRegression(x, y []float64) (slope, intercept float64) {
	if len(x) == 0 {
		return 0, 0
	}
	if stat.Variance(x, nil) == 0 {
		return 0, calculateAverage(y)
	}

	alpha, beta := stat.LinearRegression(x, y, nil, false)
	if !isFinite(alpha) || !isFinite(beta) {
		// Values too large to fit; report a flat line at the mean
		return 0, calculateAverage(y)
	}
	return beta, alpha
}
