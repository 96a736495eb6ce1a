package reporter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/pipeline"
)

func sampleResult() *pipeline.Result {
	return &pipeline.Result{
		RunID: "run-1",
		Services: map[models.Service]*pipeline.ServiceReport{
			models.ServiceM365: {
				Service: models.ServiceM365,
				Summary: &models.SourceSummary{Service: models.ServiceM365, Available: true},
			},
			models.ServiceDefender: {
				Service: models.ServiceDefender,
				Summary: models.Unavailable(models.ServiceDefender, models.ReasonNotLicensed, "no defender plans"),
			},
		},
		Recommendations: []*models.Recommendation{
			{
				Service: models.ServiceM365, Feature: "SharePoint", Status: "Success",
				Observation: "40 sites deployed",
			},
			{
				Service: models.ServiceM365, Feature: "Copilot Licensing", Status: "Success",
				Observation:    "No users hold an assistant license",
				Recommendation: "Assign pilot licenses",
				Priority:       models.PriorityHigh,
				LinkText:       "Docs", LinkURL: "https://example.test/docs",
			},
		},
	}
}

func TestGenerateComputesStats(t *testing.T) {
	report, err := New(FormatCSV).Generate(sampleResult(), "Contoso")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if report.ActionableCount != 1 {
		t.Errorf("expected 1 actionable recommendation, got %d", report.ActionableCount)
	}
	if report.HighPriority != 1 {
		t.Errorf("expected 1 high priority, got %d", report.HighPriority)
	}

	if len(report.ServiceStats) != 2 {
		t.Fatalf("expected 2 service stats, got %d", len(report.ServiceStats))
	}
	m365 := report.ServiceStats[0]
	if m365.Service != models.ServiceM365 || m365.Recommendations != 2 || m365.HighPriority != 1 {
		t.Errorf("unexpected m365 stats: %+v", m365)
	}
	defender := report.ServiceStats[1]
	if defender.Available || defender.FailureReason != models.ReasonNotLicensed {
		t.Errorf("unexpected defender stats: %+v", defender)
	}
}

func TestGenerateCSV(t *testing.T) {
	report, _ := New(FormatCSV).Generate(sampleResult(), "Contoso")

	var buf bytes.Buffer
	if err := GenerateCSV(report, &buf); err != nil {
		t.Fatalf("GenerateCSV failed: %v", err)
	}

	out := buf.String()
	if !strings.HasPrefix(out, "Service,Feature,Status,Priority,Observation,Recommendation,LinkText,LinkUrl") {
		t.Errorf("unexpected CSV header: %q", strings.SplitN(out, "\n", 2)[0])
	}
	if !strings.Contains(out, "Assign pilot licenses") {
		t.Error("recommendation row missing")
	}
	if !strings.Contains(out, "no (NotLicensed)") {
		t.Error("degraded service missing from breakdown")
	}
}

func TestGenerateHTML(t *testing.T) {
	report, _ := New(FormatHTML).Generate(sampleResult(), "Contoso")

	var buf bytes.Buffer
	if err := GenerateHTML(report, &buf); err != nil {
		t.Fatalf("GenerateHTML failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"Copilot Readiness Report", "Contoso", "priority-high", "priority-none", "NotLicensed"} {
		if !strings.Contains(out, want) {
			t.Errorf("HTML output missing %q", want)
		}
	}
	if strings.Contains(out, `priority-badge priority-"`) {
		t.Error("observation badge rendered with an empty priority class")
	}
}
