package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// GenerateText writes a human readable summary of every result
func GenerateText(report *Report, w io.Writer) error {
	var b strings.Builder

	if len(report.Results) == 0 {
		b.WriteString("No analyses to report\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	b.WriteString("=== Rule Performance Analysis ===\n\n")
	for i, res := range report.Results {
		m := res.Metrics
		fmt.Fprintf(&b, "%d. %s  score %.1f (%s)\n", i+1, res.RuleID, res.Score, res.Grade)
		fmt.Fprintf(&b, "   Samples: %d  Success: %.1f%%  Errors: %.1f%%\n", m.SampleCount, m.SuccessRate, m.ErrorRate)
		fmt.Fprintf(&b, "   Execution: %.0fms  Memory: %.1fMB  CPU: %.1f%%  Throughput: %.1f\n",
			m.ExecutionTime, m.MemoryUsage, m.CPUUsage, m.Throughput)
		fmt.Fprintf(&b, "   Efficiency: %.1f\n", m.Efficiency)

		if res.Baseline != nil {
			fmt.Fprintf(&b, "   Baseline: %.0fms over %d samples (%+.1f%%)\n",
				res.Comparison.ExecutionTime.Baseline, res.Baseline.SampleCount,
				res.Comparison.ExecutionTime.PercentageChange)
		}
		if len(m.Bottlenecks) > 0 {
			fmt.Fprintf(&b, "   Bottlenecks: %s\n", strings.Join(m.Bottlenecks, ", "))
		}

		for _, t := range res.Trends {
			fmt.Fprintf(&b, "   Trend %s: %s (slope %.3f, next %.1f)\n", t.Metric, t.Direction, t.Slope, t.PredictedNextValue)
		}

		if len(res.Insights) > 0 {
			b.WriteString("   Insights:\n")
			for _, insight := range res.Insights {
				fmt.Fprintf(&b, "     [%s] %s: %s\n", insight.Severity, insight.Title, insight.Description)
				if insight.Recommendation != "" {
					fmt.Fprintf(&b, "       -> %s\n", insight.Recommendation)
				}
			}
		}

		if len(m.Recommendations) > 0 {
			b.WriteString("   Recommendations:\n")
			for _, rec := range m.Recommendations {
				fmt.Fprintf(&b, "     - %s\n", rec)
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "Rules analyzed: %d, average score: %.1f\n", report.RuleCount, report.AverageScore)

	_, err := io.WriteString(w, b.String())
	return err
}

// GenerateJSON writes the results with report totals as indented JSON
func GenerateJSON(report *Report, w io.Writer) error {
	output := struct {
		Title          string                   `json:"title,omitempty"`
		GeneratedAt    string                   `json:"generatedAt"`
		RuleCount      int                      `json:"ruleCount"`
		AverageScore   float64                  `json:"averageScore"`
		InsightCount   int                      `json:"insightCount"`
		SeverityCounts map[models.Severity]int  `json:"severityCounts"`
		Results        []*models.AnalysisResult `json:"results"`
	}{
		Title:          report.Title,
		GeneratedAt:    report.GeneratedAt.Format(time.RFC3339),
		RuleCount:      report.RuleCount,
		AverageScore:   report.AverageScore,
		InsightCount:   report.InsightCount,
		SeverityCounts: report.SeverityCounts,
		Results:        report.Results,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

func joinOrNone(items []string, sep string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, sep)
}
