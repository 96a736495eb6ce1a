package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/config"
	"github.com/opsassess/m365-readiness/pkg/metrics"
	"github.com/opsassess/m365-readiness/pkg/models"
	"github.com/opsassess/m365-readiness/pkg/pipeline"
	"github.com/opsassess/m365-readiness/pkg/recommend"
	"github.com/opsassess/m365-readiness/pkg/registry"
	"github.com/opsassess/m365-readiness/pkg/reporter"
	"github.com/opsassess/m365-readiness/pkg/storage"
	"github.com/spf13/cobra"
)

var (
	// Scan flags
	services       []string
	outputFormat   string
	configFile     string
	saveResults    bool
	tenantName     string
	dryRun         bool
	verbose        bool
	generateReport bool
	reportFormat   string
	reportOutput   string

	// Global config
	cfg   *config.Config
	store storage.Store

	// History command vars
	historyLimit int
)

func main() {
	cfg = config.NewConfig()

	var rootCmd = &cobra.Command{
		Use:   "readiness-scan",
		Short: "Microsoft 365 Copilot readiness scanner",
		Long:  `Assess a Microsoft 365 tenant for Copilot AI readiness across M365, Power Platform, Defender XDR and Purview.`,
		Run:   runScan,
	}

	rootCmd.Flags().StringSliceVarP(&services, "services", "s", nil, "Services to assess: M365, Power Platform, Defender XDR, Purview (default: all)")
	rootCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json")
	rootCmd.Flags().StringVarP(&configFile, "config", "c", "readiness.yaml", "Endpoint override file")
	rootCmd.Flags().BoolVar(&saveResults, "save", false, "Save the run to the database")
	rootCmd.Flags().StringVar(&tenantName, "tenant-name", "", "Tenant display name for reports (default: tenant ID)")
	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show recommendations without saving")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&generateReport, "generate-report", false, "Generate a readiness report file")
	rootCmd.Flags().StringVar(&reportFormat, "report-format", "html", "Report format: html, csv")
	rootCmd.Flags().StringVar(&reportOutput, "report-output", "readiness-report.html", "Output file for report")

	historyCmd := &cobra.Command{
		Use:   "history [tenant-id]",
		Short: "View past assessment runs",
		Args:  cobra.MaximumNArgs(1),
		Run:   runHistory,
	}
	historyCmd.Flags().IntVar(&historyLimit, "limit", 10, "Number of runs to show")

	showCmd := &cobra.Command{
		Use:   "show <run-id>",
		Short: "View the recommendations of a stored run",
		Args:  cobra.ExactArgs(1),
		Run:   runShow,
	}

	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(showCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func initStorage() error {
	var err error
	store, err = storage.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) {
	if outputFormat != "text" && outputFormat != "json" {
		fmt.Fprintln(os.Stderr, "Error: output must be text or json")
		os.Exit(1)
	}

	if err := cfg.LoadOverrides(configFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	cfg.OutputFormat = outputFormat
	cfg.Verbose = verbose

	if saveResults && !dryRun {
		if !cfg.StorageEnabled {
			fmt.Fprintln(os.Stderr, "Error: --save requires STORAGE_ENABLED=true")
			os.Exit(1)
		}
		if err := initStorage(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer store.Close()
	}

	if outputFormat != "json" {
		fmt.Println("[INFO] M365 Readiness - Starting assessment")
		if saveResults && !dryRun {
			fmt.Println("[INFO] Results will be saved to database")
		} else if dryRun {
			fmt.Println("[INFO] Dry-run mode: results will not be saved")
		}
	}

	ctx := context.Background()
	logger := newLogger()

	broker := auth.NewBroker(auth.Options{
		TenantID:     cfg.TenantID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		AuthorityURL: cfg.AuthorityURL,
		Endpoints: map[auth.Backend]auth.Endpoint{
			auth.BackendGraph: {
				Scope:   "https://graph.microsoft.com/.default",
				BaseURL: cfg.GraphBaseURL,
			},
			auth.BackendSecurity: {
				Scope:   "https://api.security.microsoft.com/.default",
				BaseURL: cfg.SecurityBaseURL,
			},
		},
	})

	reg := registry.New()
	recommend.RegisterAll(reg)

	run := pipeline.New(cfg, broker, reg, metrics.New(), logger)

	if outputFormat != "json" {
		fmt.Printf("[INFO] Tenant: %s\n", cfg.TenantID)
		scope := "all services"
		if len(services) > 0 {
			scope = strings.Join(services, ", ")
		}
		fmt.Printf("[INFO] Scope: %s\n", scope)
	}

	result, err := run.Run(ctx, services)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error running assessment: %v\n", err)
		os.Exit(1)
	}

	for _, svc := range result.Degraded {
		if outputFormat != "json" {
			summary := result.Services[svc].Summary
			fmt.Printf("[WARN] %s degraded: %s\n", svc.DisplayName(), summary.Reason)
		}
	}

	if saveResults && !dryRun && store != nil {
		record := &models.RunRecord{
			ID:                  result.RunID,
			TenantID:            result.TenantID,
			Services:            scopedServices(result),
			RecommendationCount: len(result.Recommendations),
			DegradedServices:    result.Degraded,
			StartedAt:           result.StartedAt,
			CompletedAt:         result.CompletedAt,
		}
		if err := store.SaveRun(ctx, record, result.Recommendations); err != nil {
			fmt.Fprintf(os.Stderr, "[WARN] Failed to save run: %v\n", err)
		} else if outputFormat != "json" {
			fmt.Printf("[INFO] Saved run %s\n", result.RunID)
		}
	}

	switch outputFormat {
	case "json":
		outputJSON(result)
	default:
		outputText(result)
	}

	if generateReport {
		if err := generateReadinessReport(result); err != nil {
			fmt.Fprintf(os.Stderr, "[ERROR] Failed to generate report: %v\n", err)
		}
	}
}

// scopedServices returns the assessed services in canonical order.
func scopedServices(result *pipeline.Result) []models.Service {
	var out []models.Service
	for _, svc := range models.AllServices() {
		if _, ok := result.Services[svc]; ok {
			out = append(out, svc)
		}
	}
	return out
}

func runHistory(cmd *cobra.Command, args []string) {
	tenantID := ""
	if len(args) > 0 {
		tenantID = args[0]
	}

	if err := initStorage(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()
	runs, err := store.ListRuns(ctx, tenantID, historyLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(runs) == 0 {
		fmt.Println("No assessment runs found")
		return
	}

	fmt.Println("Recent assessment runs:")
	fmt.Println()
	for i, run := range runs {
		fmt.Printf("%d. %s (tenant: %s)\n", i+1, run.ID, run.TenantID)
		fmt.Printf("   Services: %s\n", serviceNames(run.Services))
		fmt.Printf("   Recommendations: %d\n", run.RecommendationCount)
		if len(run.DegradedServices) > 0 {
			fmt.Printf("   Degraded: %s\n", serviceNames(run.DegradedServices))
		}
		fmt.Printf("   Completed: %s\n", run.CompletedAt.Format("2006-01-02 15:04:05"))
		fmt.Println()
	}
}

func runShow(cmd *cobra.Command, args []string) {
	runID := args[0]

	if err := initStorage(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	ctx := context.Background()

	run, err := store.GetRun(ctx, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Run: %s\n", run.ID)
	fmt.Printf("Tenant: %s\n", run.TenantID)
	fmt.Printf("Services: %s\n", serviceNames(run.Services))
	fmt.Printf("Completed: %s\n\n", run.CompletedAt.Format("2006-01-02 15:04:05"))

	recs, err := store.ListRecommendations(ctx, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if len(recs) == 0 {
		fmt.Println("No recommendations recorded")
		return
	}

	printRecommendations(recs)
}

func serviceNames(services []models.Service) string {
	names := make([]string, 0, len(services))
	for _, svc := range services {
		names = append(names, svc.DisplayName())
	}
	return strings.Join(names, ", ")
}

func outputText(result *pipeline.Result) {
	fmt.Println()
	fmt.Println("=== Copilot Readiness Assessment ===")
	fmt.Println()

	for _, svc := range models.AllServices() {
		report, ok := result.Services[svc]
		if !ok {
			continue
		}
		if report.Summary.Available {
			fmt.Printf("%s: assessed, %d recommendation(s)\n",
				svc.DisplayName(), len(report.Recommendations))
		} else {
			fmt.Printf("%s: unavailable (%s)\n", svc.DisplayName(), report.Summary.Reason)
		}
	}
	fmt.Println()

	if len(result.Recommendations) == 0 {
		fmt.Println("[INFO] No recommendations produced")
		return
	}

	printRecommendations(result.Recommendations)

	actionable := 0
	for _, rec := range result.Recommendations {
		if rec.Recommendation != "" {
			actionable++
		}
	}
	fmt.Printf("Total: %d finding(s), %d actionable\n", len(result.Recommendations), actionable)
}

func printRecommendations(recs []*models.Recommendation) {
	for i, rec := range recs {
		fmt.Printf("%d. %s / %s", i+1, rec.Service.DisplayName(), rec.Feature)
		if rec.Priority != models.PriorityNone {
			fmt.Printf(" [%s]", strings.ToUpper(string(rec.Priority)))
		}
		fmt.Println()

		fmt.Printf("   Status: %s\n", rec.Status)
		fmt.Printf("   Observation: %s\n", rec.Observation)
		if rec.Recommendation != "" {
			fmt.Printf("   Recommendation: %s\n", rec.Recommendation)
		}
		if rec.LinkURL != "" {
			fmt.Printf("   Reference: %s (%s)\n", rec.LinkText, rec.LinkURL)
		}
		fmt.Println()
	}
}

func outputJSON(result *pipeline.Result) {
	type serviceOut struct {
		Service         string                   `json:"service"`
		Available       bool                     `json:"available"`
		FailureReason   string                   `json:"failure_reason,omitempty"`
		Insights        map[string]any           `json:"insights"`
		Recommendations []*models.Recommendation `json:"recommendations"`
	}

	servicesOut := make([]serviceOut, 0, len(result.Services))
	for _, svc := range models.AllServices() {
		report, ok := result.Services[svc]
		if !ok {
			continue
		}
		servicesOut = append(servicesOut, serviceOut{
			Service:         svc.DisplayName(),
			Available:       report.Summary.Available,
			FailureReason:   string(report.Summary.Reason),
			Insights:        report.Insights,
			Recommendations: report.Recommendations,
		})
	}

	output := map[string]any{
		"run_id":    result.RunID,
		"tenant_id": result.TenantID,
		"services":  servicesOut,
		"count":     len(result.Recommendations),
		"timestamp": result.CompletedAt.Format(time.RFC3339),
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(output); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}

func generateReadinessReport(result *pipeline.Result) error {
	rep := reporter.New(reporter.ReportFormat(reportFormat))

	name := tenantName
	if name == "" {
		name = result.TenantID
	}

	report, err := rep.Generate(result, name)
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	reportsDir := "reports"
	if err := os.MkdirAll(reportsDir, 0755); err != nil {
		return fmt.Errorf("failed to create reports directory: %w", err)
	}

	outputFile := reportOutput
	if reportOutput == "readiness-report.html" || reportOutput == "" {
		timestamp := time.Now().Format("20060102-150405")
		ext := ".html"
		if reportFormat == "csv" {
			ext = ".csv"
		}
		outputFile = fmt.Sprintf("%s/readiness-report-%s%s", reportsDir, timestamp, ext)
	} else if !strings.Contains(outputFile, "/") {
		outputFile = filepath.Join(reportsDir, outputFile)
	}

	file, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer file.Close()

	switch reportFormat {
	case "html":
		if err := reporter.GenerateHTML(report, file); err != nil {
			return fmt.Errorf("failed to write HTML report: %w", err)
		}
	case "csv":
		if err := reporter.GenerateCSV(report, file); err != nil {
			return fmt.Errorf("failed to write CSV report: %w", err)
		}
	default:
		return fmt.Errorf("unsupported report format: %s", reportFormat)
	}

	fmt.Printf("\n[INFO] %s report generated: %s\n", strings.ToUpper(reportFormat), outputFile)
	if reportFormat == "html" {
		absPath, _ := filepath.Abs(outputFile)
		fmt.Printf("[INFO] Open in browser: file://%s\n", absPath)
	}

	return nil
}
