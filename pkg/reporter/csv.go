package reporter

import (
	"encoding/csv"
	"fmt"
	"io"
)

// GenerateCSV creates a CSV report
func GenerateCSV(report *Report, writer io.Writer) error {
	w := csv.NewWriter(writer)
	defer w.Flush()

	// Write header
	header := []string{
		"Service",
		"Feature",
		"Status",
		"Priority",
		"Observation",
		"Recommendation",
		"LinkText",
		"LinkUrl",
	}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write recommendations
	for _, rec := range report.Recommendations {
		row := []string{
			rec.Service.DisplayName(),
			rec.Feature,
			rec.Status,
			string(rec.Priority),
			rec.Observation,
			rec.Recommendation,
			rec.LinkText,
			rec.LinkURL,
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	// Write summary rows
	w.Write([]string{}) // Empty row
	w.Write([]string{"SUMMARY"})
	w.Write([]string{"Total Recommendations", fmt.Sprintf("%d", len(report.Recommendations))})
	w.Write([]string{"Actionable", fmt.Sprintf("%d", report.ActionableCount)})
	w.Write([]string{"High Priority", fmt.Sprintf("%d", report.HighPriority)})

	// Service breakdown
	w.Write([]string{}) // Empty row
	w.Write([]string{"SERVICE BREAKDOWN"})
	w.Write([]string{"Service", "Collected", "Recommendations", "High", "Medium", "Low"})
	for _, stat := range report.ServiceStats {
		collected := "yes"
		if !stat.Available {
			collected = fmt.Sprintf("no (%s)", stat.FailureReason)
		}
		w.Write([]string{
			stat.Service.DisplayName(),
			collected,
			fmt.Sprintf("%d", stat.Recommendations),
			fmt.Sprintf("%d", stat.HighPriority),
			fmt.Sprintf("%d", stat.MediumPriority),
			fmt.Sprintf("%d", stat.LowPriority),
		})
	}

	return nil
}
