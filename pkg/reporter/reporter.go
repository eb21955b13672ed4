package reporter

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/opscart/rule-score-analyzer/pkg/models"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatText     ReportFormat = "text"
	FormatJSON     ReportFormat = "json"
	FormatHTML     ReportFormat = "html"
	FormatMarkdown ReportFormat = "markdown"
	FormatCSV      ReportFormat = "csv"
)

// Extension returns the file extension used for reports of format f
func (f ReportFormat) Extension() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatHTML:
		return ".html"
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	default:
		return ".txt"
	}
}

// Report contains all data for generating reports
type Report struct {
	Title          string
	GeneratedAt    time.Time
	Results        []*models.AnalysisResult
	RuleCount      int
	AverageScore   float64
	InsightCount   int
	GradeStats     []*GradeStats
	SeverityCounts map[models.Severity]int
}

// GradeStats holds statistics per grade
type GradeStats struct {
	Grade        models.Grade
	Count        int
	AverageScore float64
}

// Reporter generates rule performance reports
type Reporter struct {
	format ReportFormat
	now    func() time.Time
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
		now:    time.Now,
	}
}

// Format returns the reporter's output format
func (r *Reporter) Format() ReportFormat {
	return r.format
}

// Generate builds a report from analysis results
func (r *Reporter) Generate(results []*models.AnalysisResult, title string) (*Report, error) {
	report := &Report{
		Title:          title,
		GeneratedAt:    r.now(),
		Results:        results,
		SeverityCounts: make(map[models.Severity]int),
	}

	r.calculateStats(report)

	return report, nil
}

// calculateStats computes all statistics for the report
func (r *Reporter) calculateStats(report *Report) {
	rules := make(map[string]bool)
	grades := make(map[models.Grade]*GradeStats)
	total := 0.0

	for _, res := range report.Results {
		rules[res.RuleID] = true
		total += res.Score
		report.InsightCount += len(res.Insights)

		for _, insight := range res.Insights {
			report.SeverityCounts[insight.Severity]++
		}

		if _, exists := grades[res.Grade]; !exists {
			grades[res.Grade] = &GradeStats{Grade: res.Grade}
		}
		g := grades[res.Grade]
		g.Count++
		g.AverageScore += res.Score
	}

	report.RuleCount = len(rules)
	if len(report.Results) > 0 {
		report.AverageScore = total / float64(len(report.Results))
	}

	for _, g := range grades {
		g.AverageScore /= float64(g.Count)
		report.GradeStats = append(report.GradeStats, g)
	}
	sort.Slice(report.GradeStats, func(i, j int) bool {
		return report.GradeStats[i].Grade < report.GradeStats[j].Grade
	})
}

// Write renders report in the reporter's format
func (r *Reporter) Write(report *Report, w io.Writer) error {
	switch r.format {
	case FormatText:
		return GenerateText(report, w)
	case FormatJSON:
		return GenerateJSON(report, w)
	case FormatHTML:
		return GenerateHTML(report, w)
	case FormatMarkdown:
		return GenerateMarkdown(report, w)
	case FormatCSV:
		return GenerateCSV(report, w)
	default:
		return fmt.Errorf("unsupported report format: %s", r.format)
	}
}
