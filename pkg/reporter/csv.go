package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)

	header := []string{
		"Rule",
		"Analysis ID",
		"Score",
		"Grade",
		"Samples",
		"Execution Time (ms)",
		"Memory (MB)",
		"CPU (%)",
		"Throughput",
		"Efficiency",
		"Error Rate (%)",
		"Execution Time Change (%)",
		"Insights",
		"Bottlenecks",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, res := range report.Results {
		m := res.Metrics
		row := []string{
			res.RuleID,
			res.ID,
			fmt.Sprintf("%.1f", res.Score),
			string(res.Grade),
			fmt.Sprintf("%d", m.SampleCount),
			fmt.Sprintf("%.2f", m.ExecutionTime),
			fmt.Sprintf("%.2f", m.MemoryUsage),
			fmt.Sprintf("%.2f", m.CPUUsage),
			fmt.Sprintf("%.2f", m.Throughput),
			fmt.Sprintf("%.1f", m.Efficiency),
			fmt.Sprintf("%.1f", m.ErrorRate),
			fmt.Sprintf("%.1f", res.Comparison.ExecutionTime.PercentageChange),
			fmt.Sprintf("%d", len(res.Insights)),
			joinOrNone(m.Bottlenecks, "; "),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	// Insights rows
	rows := [][]string{
		{},
		{"INSIGHTS"},
		{"Rule", "Severity", "Kind", "Title", "Confidence", "Recommendation"},
	}
	for _, res := range report.Results {
		for _, insight := range res.Insights {
			rows = append(rows, []string{
				res.RuleID,
				string(insight.Severity),
				string(insight.Kind),
				insight.Title,
				fmt.Sprintf("%.2f", insight.Confidence),
				insight.Recommendation,
			})
		}
	}

	// Summary rows
	rows = append(rows,
		[]string{},
		[]string{"SUMMARY"},
		[]string{"Rules Analyzed", fmt.Sprintf("%d", report.RuleCount)},
		[]string{"Average Score", fmt.Sprintf("%.1f", report.AverageScore)},
		[]string{"Total Insights", fmt.Sprintf("%d", report.InsightCount)},
	)

	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV rows: %w", err)
	}
	return nil
}
