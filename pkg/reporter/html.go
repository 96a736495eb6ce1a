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
    <title>Copilot Readiness Report - {{.TenantName}}</title>
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
            background: linear-gradient(135deg, #326ce5 0%, #1a4d8f 100%);
            color: white;
            padding: 50px 40px;
            position: relative;
            overflow: hidden;
        }
        .header::before {
            content: '';
            position: absolute;
            top: -50%;
            right: -10%;
            width: 500px;
            height: 500px;
            background: rgba(255, 255, 255, 0.1);
            border-radius: 50%;
        }
        .header h1 {
            font-size: 2.8em;
            margin-bottom: 15px;
            position: relative;
            z-index: 1;
        }
        .header .meta {
            opacity: 0.95;
            font-size: 1.1em;
            position: relative;
            z-index: 1;
        }
        .header .meta strong {
            color: #fff;
        }
        .summary {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(280px, 1fr));
            gap: 25px;
            padding: 40px;
            background: linear-gradient(to bottom, #f8f9fa 0%, #fff 100%);
        }
        .summary-card {
            background: white;
            padding: 30px;
            border-radius: 12px;
            border: 2px solid #e8eaed;
            box-shadow: 0 4px 12px rgba(0, 0, 0, 0.05);
        }
        .summary-card h3 {
            color: #5f6368;
            font-size: 0.85em;
            text-transform: uppercase;
            letter-spacing: 1.5px;
            margin-bottom: 15px;
            font-weight: 600;
        }
        .summary-card .value {
            font-size: 3em;
            font-weight: 700;
            color: #202124;
            line-height: 1;
        }
        .summary-card.total {
            border-left: 6px solid #326ce5;
        }
        .summary-card.total .value {
            color: #326ce5;
        }
        .summary-card.actionable {
            border-left: 6px solid #fbbc04;
        }
        .summary-card.actionable .value {
            color: #fbbc04;
        }
        .summary-card.high {
            border-left: 6px solid #ea4335;
        }
        .summary-card.high .value {
            color: #ea4335;
        }
        .section {
            padding: 40px;
        }
        .section h2 {
            color: #202124;
            margin-bottom: 25px;
            font-size: 1.6em;
        }
        .stats-grid {
            display: grid;
            grid-template-columns: repeat(auto-fit, minmax(260px, 1fr));
            gap: 20px;
        }
        .stat-card {
            background: #f8f9fa;
            padding: 20px;
            border-radius: 10px;
            border: 1px solid #e8eaed;
        }
        .stat-card h4 {
            margin-bottom: 12px;
        }
        .stat-row {
            display: flex;
            justify-content: space-between;
            padding: 4px 0;
        }
        .stat-label {
            color: #5f6368;
        }
        .stat-value {
            font-weight: 600;
        }
        .svc-badge {
            display: inline-block;
            padding: 4px 12px;
            border-radius: 12px;
            font-size: 0.85em;
            font-weight: 600;
            background: #e8f0fe;
            color: #1a4d8f;
        }
        .svc-badge.degraded {
            background: #fce8e6;
            color: #c5221f;
        }
        .recommendations-table {
            width: 100%;
            border-collapse: collapse;
        }
        .recommendations-table th {
            background: #f8f9fa;
            text-align: left;
            padding: 12px;
            border-bottom: 2px solid #e8eaed;
            color: #5f6368;
            font-size: 0.85em;
            text-transform: uppercase;
            letter-spacing: 1px;
        }
        .recommendations-table td {
            padding: 12px;
            border-bottom: 1px solid #e8eaed;
            vertical-align: top;
        }
        .priority-badge {
            display: inline-block;
            padding: 3px 10px;
            border-radius: 10px;
            font-size: 0.8em;
            font-weight: 600;
        }
        .priority-high {
            background: #fce8e6;
            color: #c5221f;
        }
        .priority-medium {
            background: #fef7e0;
            color: #b06000;
        }
        .priority-low {
            background: #e6f4ea;
            color: #137333;
        }
        .priority-none {
            background: #f1f3f4;
            color: #5f6368;
        }
        .footer {
            background: #202124;
            color: #9aa0a6;
            padding: 25px 40px;
            text-align: center;
        }
        .footer strong {
            color: #fff;
        }
        .footer a {
            color: #8ab4f8;
            text-decoration: none;
        }
    </style>
</head>
<body>
    <div class="container">
        <!-- Header -->
        <div class="header">
            <h1>Copilot Readiness Report</h1>
            <div class="meta">
                <p><strong>Tenant:</strong> {{if .TenantName}}{{.TenantName}}{{else}}Unknown{{end}} | <strong>Run:</strong> {{.RunID}}</p>
                <p><strong>Generated:</strong> {{.GeneratedAt.Format "January 2, 2006 15:04:05 MST"}}</p>
            </div>
        </div>

        <!-- Executive Summary -->
        <div class="summary">
            <div class="summary-card total">
                <h3>Total Recommendations</h3>
                <div class="value">{{len .Recommendations}}</div>
            </div>
            <div class="summary-card actionable">
                <h3>Actionable Items</h3>
                <div class="value">{{.ActionableCount}}</div>
            </div>
            <div class="summary-card high">
                <h3>High Priority</h3>
                <div class="value">{{.HighPriority}}</div>
            </div>
        </div>

        <!-- Service Breakdown -->
        {{if .ServiceStats}}
        <div class="section">
            <h2>By Service</h2>
            <div class="stats-grid">
                {{range .ServiceStats}}
                <div class="stat-card">
                    <h4>
                        {{if .Available}}<span class="svc-badge">{{.Service.DisplayName}}</span>
                        {{else}}<span class="svc-badge degraded">{{.Service.DisplayName}} ({{.FailureReason}})</span>{{end}}
                    </h4>
                    <div class="stat-row">
                        <span class="stat-label">Recommendations</span>
                        <span class="stat-value">{{.Recommendations}}</span>
                    </div>
                    <div class="stat-row">
                        <span class="stat-label">High Priority</span>
                        <span class="stat-value">{{.HighPriority}}</span>
                    </div>
                    <div class="stat-row">
                        <span class="stat-label">Medium / Low</span>
                        <span class="stat-value">{{.MediumPriority}} / {{.LowPriority}}</span>
                    </div>
                </div>
                {{end}}
            </div>
        </div>
        {{end}}

        <!-- Recommendations Table -->
        <div class="section">
            <h2>Detailed Recommendations</h2>
            <table class="recommendations-table">
                <thead>
                    <tr>
                        <th>Service</th>
                        <th>Feature</th>
                        <th>Status</th>
                        <th>Priority</th>
                        <th>Observation</th>
                        <th>Recommendation</th>
                        <th>Reference</th>
                    </tr>
                </thead>
                <tbody>
                    {{range .Recommendations}}
                    <tr>
                        <td>
                            <span class="svc-badge">{{.Service.DisplayName}}</span>
                        </td>
                        <td>
                            <strong>{{.Feature}}</strong>
                        </td>
                        <td>{{.Status}}</td>
                        <td>
                            <span class="priority-badge priority-{{if .Priority}}{{.Priority | lower}}{{else}}none{{end}}">{{if .Priority}}{{.Priority}}{{else}}&mdash;{{end}}</span>
                        </td>
                        <td>{{.Observation}}</td>
                        <td>{{.Recommendation}}</td>
                        <td>
                            {{if .LinkURL}}<a href="{{.LinkURL}}" target="_blank">{{.LinkText}}</a>{{end}}
                        </td>
                    </tr>
                    {{end}}
                </tbody>
            </table>
        </div>

        <!-- Footer -->
        <div class="footer">
            <p>Generated by <strong>m365-readiness</strong></p>
        </div>
    </div>
</body>
</html>
`

// GenerateHTML creates an HTML report
func GenerateHTML(report *Report, writer io.Writer) error {
	// Parse template
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"lower": func(s interface{}) string {
			return strings.ToLower(fmt.Sprintf("%v", s))
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	// Execute template
	if err := tmpl.Execute(writer, report); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}

	return nil
}
