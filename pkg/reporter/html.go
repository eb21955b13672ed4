package reporter

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

const htmlTemplate = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{title .Title}}</title>
    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif;
            background: #f5f7fa;
            color: #333;
            padding: 20px;
            line-height: 1.6;
        }
        .container {
            max-width: 1400px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0, 0, 0, 0.1);
            overflow: hidden;
        }
        .header {
            background: linear-gradient(135deg, #3b4cca 0%, #1f2a7a 100%);
            color: white;
            padding: 40px;
        }
        .header h1 {
            font-size: 2.4em;
            margin-bottom: 10px;
        }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(240px, 1fr));
            gap: 20px;
            padding: 30px 40px;
        }
        .summary-card {
            padding: 24px;
            border-radius: 10px;
            border: 1px solid #e8eaed;
            border-left: 6px solid #3b4cca;
        }
        .summary-card h3 {
            color: #5f6368;
            font-size: 0.8em;
            text-transform: uppercase;
            letter-spacing: 1.5px;
        }
        .summary-card .value {
            font-size: 2.6em;
            font-weight: 700;
        }
        .section {
            padding: 30px 40px;
        }
        .section h2 {
            font-size: 1.6em;
            margin-bottom: 20px;
        }
        table {
            width: 100%;
            border-collapse: collapse;
        }
        th {
            background: #3b4cca;
            color: white;
            padding: 12px;
            text-align: left;
            font-size: 0.85em;
            text-transform: uppercase;
        }
        td {
            padding: 12px;
            border-bottom: 1px solid #f0f2f4;
            vertical-align: top;
        }
        .badge {
            padding: 4px 10px;
            border-radius: 6px;
            font-size: 0.75em;
            font-weight: 700;
            display: inline-block;
        }
        .grade-a, .severity-low { background: #e6f4ea; color: #1e8e3e; }
        .grade-b { background: #e8f0fe; color: #1a73e8; }
        .grade-c, .severity-medium { background: #fef7e0; color: #f9ab00; }
        .grade-d, .severity-high { background: #fce8e6; color: #d93025; }
        .grade-f, .severity-critical { background: #d93025; color: white; }
        .footer {
            background: #202124;
            color: #9aa0a6;
            padding: 24px;
            text-align: center;
        }
    </style>
</head>
<body>
    <div class="container">
        <div class="header">
            <h1>{{title .Title}}</h1>
            <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
        </div>

        <div class="summary">
            <div class="summary-card">
                <h3>Rules Analyzed</h3>
                <div class="value">{{.RuleCount}}</div>
            </div>
            <div class="summary-card">
                <h3>Average Score</h3>
                <div class="value">{{printf "%.1f" .AverageScore}}</div>
            </div>
            <div class="summary-card">
                <h3>Insights</h3>
                <div class="value">{{.InsightCount}}</div>
            </div>
        </div>

        <div class="section">
            <h2>Results</h2>
            <table>
                <thead>
                    <tr>
                        <th>Rule</th>
                        <th>Score</th>
                        <th>Execution</th>
                        <th>Memory / CPU</th>
                        <th>Efficiency</th>
                        <th>Error Rate</th>
                        <th>Bottlenecks</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Results}}
                    <tr>
                        <td><strong>{{.RuleID}}</strong></td>
                        <td>{{printf "%.1f" .Score}} <span class="badge grade-{{.Grade | lower}}">{{.Grade}}</span></td>
                        <td>{{printf "%.0f" .Metrics.ExecutionTime}}ms ({{printf "%+.1f" .Comparison.ExecutionTime.PercentageChange}}%)</td>
                        <td>{{printf "%.1f" .Metrics.MemoryUsage}}MB / {{printf "%.1f" .Metrics.CPUUsage}}%</td>
                        <td>{{printf "%.1f" .Metrics.Efficiency}}</td>
                        <td>{{printf "%.1f" .Metrics.ErrorRate}}%</td>
                        <td>{{range .Metrics.Bottlenecks}}{{.}}<br>{{else}}none{{end}}</td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        {{if .InsightCount}}
        <div class="section">
            <h2>Insights</h2>
            <table>
                <thead>
                    <tr>
                        <th>Rule</th>
                        <th>Severity</th>
                        <th>Insight</th>
                        <th>Recommendation</th>
                    </tr>
                </thead>
                <tbody>
                    {{range $res := .Results}}{{range .Insights}}
                    <tr>
                        <td>{{$res.RuleID}}</td>
                        <td><span class="badge severity-{{.Severity | lower}}">{{.Severity}}</span></td>
                        <td><strong>{{.Title}}</strong><br>{{.Description}}</td>
                        <td>{{.Recommendation}}</td>
                    </tr>
                    {{end}}{{end}}
                </tbody>
            </table>
        </div>
        {{end}}

        <div class="footer">
            <p>Generated by <strong>rule-score</strong></p>
        </div>
    </div>
</body>
</html>
`

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"lower": func(s interface{}) string {
			return strings.ToLower(fmt.Sprintf("%v", s))
		},
		"title": func(s string) string {
			if s == "" {
				return "Rule Performance Report"
			}
			return s
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(writer, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}
