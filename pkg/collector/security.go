package collector

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/opsassess/m365-readiness/pkg/auth"
	"github.com/opsassess/m365-readiness/pkg/licensecache"
	"github.com/opsassess/m365-readiness/pkg/models"
)

// SecurityCollector fetches alert, incident, secure-score and device
// telemetry from the security backend. It reads the shared license cache
// first: a tenant with no defender plans is NotLicensed, which is a
// distinct state from a telemetry call failing.
type SecurityCollector struct {
	client *auth.ScopedClient
	cache  *licensecache.Cache
	logger *slog.Logger
}

// NewSecurityCollector creates the defender collector.
func NewSecurityCollector(client *auth.ScopedClient, cache *licensecache.Cache, logger *slog.Logger) *SecurityCollector {
	return &SecurityCollector{client: client, cache: cache, logger: logger}
}

func (s *SecurityCollector) Service() models.Service { return models.ServiceDefender }
func (s *SecurityCollector) Name() string            { return "security" }

type securityAlerts struct {
	Value []struct {
		Severity string `json:"severity"`
	} `json:"value"`
}

type securityIncidents struct {
	Value []struct {
		Status   string `json:"status"`
		Severity string `json:"severity"`
	} `json:"value"`
}

type secureScores struct {
	Value []struct {
		CurrentScore float64 `json:"currentScore"`
		MaxScore     float64 `json:"maxScore"`
	} `json:"value"`
}

type securityMachines struct {
	Value []struct {
		RiskScore string `json:"riskScore"`
	} `json:"value"`
}

// Collect gathers the defender summary.
func (s *SecurityCollector) Collect(ctx context.Context) *models.SourceSummary {
	licenses, err := s.cache.GetOrFetch(ctx)
	if err != nil {
		return degrade(models.ServiceDefender, err)
	}

	if !hasCategory(licenses, models.ServiceDefender) {
		return models.Unavailable(models.ServiceDefender, models.ReasonNotLicensed,
			"Defender features not found in current licenses; requires M365 Business Premium, E3, E5 or standalone licenses")
	}

	summary := &models.SecuritySummary{
		AlertsBySeverity: make(map[string]int),
	}

	// The first telemetry call decides availability: a 403 here means the
	// app lacks security read access for the whole surface.
	var alerts securityAlerts
	if err := s.client.GetJSON(ctx, "/api/alerts", &alerts); err != nil {
		return degrade(models.ServiceDefender, err)
	}
	summary.TotalAlerts = len(alerts.Value)
	for _, a := range alerts.Value {
		sev := strings.ToLower(a.Severity)
		if sev == "" {
			sev = "unknown"
		}
		summary.AlertsBySeverity[sev]++
	}

	s.collectIncidents(ctx, summary)
	s.collectSecureScore(ctx, summary)
	s.collectDevices(ctx, summary)

	return &models.SourceSummary{
		Service:     models.ServiceDefender,
		Available:   true,
		CollectedAt: time.Now(),
		Security:    summary,
	}
}

func (s *SecurityCollector) collectIncidents(ctx context.Context, summary *models.SecuritySummary) {
	var incidents securityIncidents
	if err := s.client.GetJSON(ctx, "/api/incidents", &incidents); err != nil {
		s.logger.Debug("security incidents unavailable", "error", err)
		return
	}
	summary.TotalIncidents = len(incidents.Value)
	for _, inc := range incidents.Value {
		if strings.EqualFold(inc.Status, "Active") || strings.EqualFold(inc.Status, "InProgress") {
			summary.ActiveIncidents++
		}
		if strings.EqualFold(inc.Severity, "High") {
			summary.HighSeverityIncidents++
		}
	}
}

func (s *SecurityCollector) collectSecureScore(ctx context.Context, summary *models.SecuritySummary) {
	var scores secureScores
	if err := s.client.GetJSON(ctx, "/api/secureScores?$top=1", &scores); err != nil {
		s.logger.Debug("secure score unavailable", "error", err)
		return
	}
	if len(scores.Value) == 0 {
		return
	}
	latest := scores.Value[0]
	summary.SecureScore = latest.CurrentScore
	summary.SecureScoreMax = latest.MaxScore
	if latest.MaxScore > 0 {
		summary.SecureScorePercent = 100 * latest.CurrentScore / latest.MaxScore
	}
}

func (s *SecurityCollector) collectDevices(ctx context.Context, summary *models.SecuritySummary) {
	var machines securityMachines
	if err := s.client.GetJSON(ctx, "/api/machines", &machines); err != nil {
		// 403 here usually means no devices onboarded yet, not a broken
		// tenant; device counts just stay zero.
		s.logger.Debug("security devices unavailable", "error", err)
		return
	}
	summary.TotalDevices = len(machines.Value)
	for _, m := range machines.Value {
		switch strings.ToLower(m.RiskScore) {
		case "high":
			summary.HighRiskDevices++
		case "medium":
			summary.MediumRiskDevices++
		case "low", "informational", "none":
			summary.LowRiskDevices++
		}
	}
}

func hasCategory(licenses []*models.License, svc models.Service) bool {
	for _, lic := range licenses {
		if lic.HasCategory(svc) {
			return true
		}
	}
	return false
}
