package reporter

import (
	"fmt"
	"io"
	"strings"
)

// GenerateMarkdown creates a Markdown report
func GenerateMarkdown(report *Report, w io.Writer) error {
	var b strings.Builder

	title := report.Title
	if title == "" {
		title = "Rule Performance Report"
	}
	fmt.Fprintf(&b, "# %s\n\n", title)
	fmt.Fprintf(&b, "Generated: %s\n\n", report.GeneratedAt.Format("January 2, 2006 15:04:05 MST"))

	b.WriteString("## Summary\n\n")
	b.WriteString("| Rules Analyzed | Average Score | Insights |\n")
	b.WriteString("|---|---|---|\n")
	fmt.Fprintf(&b, "| %d | %.1f | %d |\n\n", report.RuleCount, report.AverageScore, report.InsightCount)

	if len(report.GradeStats) > 0 {
		b.WriteString("### By Grade\n\n")
		b.WriteString("| Grade | Analyses | Average Score |\n")
		b.WriteString("|---|---|---|\n")
		for _, g := range report.GradeStats {
			fmt.Fprintf(&b, "| %s | %d | %.1f |\n", g.Grade, g.Count, g.AverageScore)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Results\n\n")
	b.WriteString("| Rule | Score | Grade | Execution (ms) | Change | Efficiency | Error Rate | Bottlenecks |\n")
	b.WriteString("|---|---|---|---|---|---|---|---|\n")
	for _, res := range report.Results {
		m := res.Metrics
		fmt.Fprintf(&b, "| %s | %.1f | %s | %.0f | %+.1f%% | %.1f | %.1f%% | %s |\n",
			escapeCell(res.RuleID), res.Score, res.Grade, m.ExecutionTime,
			res.Comparison.ExecutionTime.PercentageChange, m.Efficiency, m.ErrorRate,
			escapeCell(joinOrNone(m.Bottlenecks, ", ")))
	}
	b.WriteString("\n")

	if report.InsightCount > 0 {
		b.WriteString("## Insights\n\n")
		for _, res := range report.Results {
			for _, insight := range res.Insights {
				fmt.Fprintf(&b, "- **%s** `%s` %s: %s\n", insight.Severity, res.RuleID, insight.Title, insight.Description)
				if insight.Recommendation != "" {
					fmt.Fprintf(&b, "  - %s\n", insight.Recommendation)
				}
			}
		}
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	if err != nil {
		return fmt.Errorf("failed to write Markdown report: %w", err)
	}
	return nil
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
