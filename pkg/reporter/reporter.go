package reporter

import (
	"time"

	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/pipeline"
)

// ReportFormat represents the output format
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatCSV  ReportFormat = "csv"
)

// Report contains all data for generating reports
type Report struct {
	TenantName      string
	RunID           string
	GeneratedAt     time.Time
	Recommendations []*models.Recommendation
	ActionableCount int
	HighPriority    int
	ServiceStats    []*ServiceStats
}

// ServiceStats holds per-service recommendation statistics
type ServiceStats struct {
	Service         models.Service
	Available       bool
	FailureReason   models.FailureReason
	Recommendations int
	HighPriority    int
	MediumPriority  int
	LowPriority     int
}

// Reporter generates readiness assessment reports
type Reporter struct {
	format ReportFormat
}

// New creates a new reporter
func New(format ReportFormat) *Reporter {
	return &Reporter{
		format: format,
	}
}

// Generate builds a report from a completed run
func (r *Reporter) Generate(result *pipeline.Result, tenantName string) (*Report, error) {
	report := &Report{
		TenantName:      tenantName,
		RunID:           result.RunID,
		GeneratedAt:     time.Now(),
		Recommendations: result.Recommendations,
	}

	byService := make(map[models.Service]*ServiceStats)
	for _, svc := range models.AllServices() {
		sr, ok := result.Services[svc]
		if !ok {
			continue
		}
		stat := &ServiceStats{
			Service:   svc,
			Available: sr.Summary.Available,
		}
		if !sr.Summary.Available {
			stat.FailureReason = sr.Summary.Reason
		}
		byService[svc] = stat
		report.ServiceStats = append(report.ServiceStats, stat)
	}

	for _, rec := range report.Recommendations {
		stat := byService[rec.Service]
		if stat == nil {
			continue
		}
		stat.Recommendations++

		if rec.Recommendation != "" {
			report.ActionableCount++
		}
		switch rec.Priority {
		case models.PriorityHigh:
			report.HighPriority++
			stat.HighPriority++
		case models.PriorityMedium:
			stat.MediumPriority++
		case models.PriorityLow:
			stat.LowPriority++
		}
	}

	return report, nil
}
